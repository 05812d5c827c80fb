package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsKeyNotFound(err))
}

func TestMemoryStore_IncrementWithExpiry(t *testing.T) {
	s := NewMemoryStore()
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
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	now := time.Now()
	current := now
	s.SetClock(func() time.Time { return current })

	_, err := s.IncrementWithExpiry(ctx, "k", 1, time.Minute)
	require.NoError(t, err)

	// Still inside the window.
	current = now.Add(59 * time.Second)
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got)

	// Window elapsed; counter evicted and restarts at 1.
	current = now.Add(61 * time.Second)
	_, err = s.Get(ctx, "k")
	assert.True(t, IsKeyNotFound(err))

	n, err := s.IncrementWithExpiry(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestMemoryStore_ExpiryRefreshedOnIncrement(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	now := time.Now()
	current := now
	s.SetClock(func() time.Time { return current })

	_, err := s.IncrementWithExpiry(ctx, "k", 1, time.Minute)
	require.NoError(t, err)

	current = now.Add(45 * time.Second)
	_, err = s.IncrementWithExpiry(ctx, "k", 1, time.Minute)
	require.NoError(t, err)

	// 75s after the first increment but only 30s after the second:
	// the refreshed expiry keeps the counter alive.
	current = now.Add(75 * time.Second)
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.IncrementWithExpiry(ctx, "k", 1, time.Minute)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "k"))

	_, err = s.Get(ctx, "k")
	assert.True(t, IsKeyNotFound(err))
}

func TestMemoryStore_ContextCancelled(t *testing.T) {
	s := NewMemoryStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.IncrementWithExpiry(ctx, "k", 1, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
