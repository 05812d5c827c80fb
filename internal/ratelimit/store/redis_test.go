package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreWithClient(client, "test:")

	t.Cleanup(func() { _ = s.Close() })

	return s, mr
}

func TestNewRedisStore_Connects(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := DefaultRedisConfig()
	cfg.Address = mr.Addr()

	s, err := NewRedisStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Ping(context.Background()))
}

func TestNewRedisStore_UnreachableStillReturnsStore(t *testing.T) {
	cfg := DefaultRedisConfig()
	cfg.Address = "127.0.0.1:1"
	cfg.DialTimeout = 100 * time.Millisecond
	cfg.MaxRetries = -1

	s, err := NewRedisStore(cfg)
	require.Error(t, err)

	// The store is usable once Redis comes back; until then every
	// operation fails and the limiter fails open.
	require.NotNil(t, s)
	t.Cleanup(func() { _ = s.Close() })

	_, opErr := s.Get(context.Background(), "k")
	assert.Error(t, opErr)
	assert.False(t, IsKeyNotFound(opErr))
}

func TestRedisStore_GetMissing(t *testing.T) {
	s, _ := newTestRedisStore(t)

	_, err := s.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsKeyNotFound(err))
}

func TestRedisStore_IncrementWithExpiry(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	n, err := s.IncrementWithExpiry(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.IncrementWithExpiry(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)

	// Key carries the configured prefix and an expiry.
	assert.True(t, mr.Exists("test:k"))
	assert.Greater(t, mr.TTL("test:k"), time.Duration(0))
}

func TestRedisStore_ExpiryRefreshedOnIncrement(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	_, err := s.IncrementWithExpiry(ctx, "k", 1, time.Minute)
	require.NoError(t, err)

	mr.FastForward(45 * time.Second)

	_, err = s.IncrementWithExpiry(ctx, "k", 1, time.Minute)
	require.NoError(t, err)

	// Expiry was refreshed by the second increment.
	assert.Equal(t, time.Minute, mr.TTL("test:k"))

	mr.FastForward(61 * time.Second)
	_, err = s.Get(ctx, "k")
	assert.True(t, IsKeyNotFound(err))
}

func TestRedisStore_MinimumExpiry(t *testing.T) {
	s, mr := newTestRedisStore(t)

	_, err := s.IncrementWithExpiry(context.Background(), "k", 1, 100*time.Millisecond)
	require.NoError(t, err)

	// Sub-second windows are rounded up to one second.
	assert.Equal(t, time.Second, mr.TTL("test:k"))
}

func TestRedisStore_Delete(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	_, err := s.IncrementWithExpiry(ctx, "k", 1, time.Minute)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "k"))

	_, err = s.Get(ctx, "k")
	assert.True(t, IsKeyNotFound(err))
}

func TestRedisStore_StoreUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	s := NewRedisStoreWithClient(client, "test:")
	t.Cleanup(func() { _ = s.Close() })

	mr.Close()

	_, err := s.Get(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, IsKeyNotFound(err))

	_, err = s.IncrementWithExpiry(context.Background(), "k", 1, time.Minute)
	require.Error(t, err)
}

func TestRedisStore_ContextCancelled(t *testing.T) {
	s := &RedisStore{prefix: "test:"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, "k")
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = s.IncrementWithExpiry(ctx, "k", 1, time.Minute)
	assert.True(t, errors.Is(err, context.Canceled))

	err = s.Delete(ctx, "k")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRedisStore_Ping(t *testing.T) {
	s, mr := newTestRedisStore(t)

	require.NoError(t, s.Ping(context.Background()))

	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}
