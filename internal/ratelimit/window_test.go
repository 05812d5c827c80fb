package ratelimit

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/portalgw/internal/ratelimit/store"
)

func newTestLimiter(limit int, window time.Duration) (*WindowLimiter, *store.MemoryStore) {
	s := store.NewMemoryStore()
	l := NewWindowLimiter(s, &Config{Limit: limit, Window: window}, nil)
	return l, s
}

func TestWindowLimiter_AllowsUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(5, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := l.Allow(ctx, "client")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d", i+1)
		assert.Equal(t, 5, result.Limit)
		assert.Equal(t, 5-i-1, result.Remaining)
	}

	// 6th request within the same window is rejected.
	result, err := l.Allow(ctx, "client")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Equal(t, time.Minute, result.RetryAfter)
}

func TestWindowLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(5, time.Minute)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, _ = l.Allow(ctx, "busy")
	}

	result, err := l.Allow(ctx, "other")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestWindowLimiter_WindowExpiry(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Now()
	current := now
	s.SetClock(func() time.Time { return current })

	l := NewWindowLimiter(s, &Config{Limit: 1, Window: time.Minute}, nil)
	ctx := context.Background()

	result, err := l.Allow(ctx, "client")
	require.NoError(t, err)
	require.True(t, result.Allowed)

	result, err = l.Allow(ctx, "client")
	require.NoError(t, err)
	require.False(t, result.Allowed)

	// After the window has elapsed the counter is gone.
	current = now.Add(61 * time.Second)
	result, err = l.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestWindowLimiter_RemainingClamped(t *testing.T) {
	l, s := newTestLimiter(3, time.Minute)
	ctx := context.Background()

	// Simulate racing increments pushing the counter past the limit
	// between the read and the increment.
	_, err := s.IncrementWithExpiry(ctx, "client", 2, time.Minute)
	require.NoError(t, err)

	result, err := l.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)

	_, err = s.IncrementWithExpiry(ctx, "client", 5, time.Minute)
	require.NoError(t, err)

	result, err = l.Allow(ctx, "client")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
}

// failingStore raises on every read to exercise the fail-open path.
type failingStore struct{}

func (f *failingStore) Get(_ context.Context, _ string) (int64, error) {
	return 0, errors.New("store unreachable")
}

func (f *failingStore) IncrementWithExpiry(_ context.Context, _ string, _ int64, _ time.Duration) (int64, error) {
	return 0, errors.New("store unreachable")
}

func (f *failingStore) Delete(_ context.Context, _ string) error { return nil }
func (f *failingStore) Close() error                             { return nil }

func TestWindowLimiter_StoreErrorPropagates(t *testing.T) {
	l := NewWindowLimiter(&failingStore{}, &Config{Limit: 5, Window: time.Minute}, nil)

	result, err := l.Allow(context.Background(), "client")
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestNoopLimiter(t *testing.T) {
	l := NewNoopLimiter()

	result, err := l.Allow(context.Background(), "any")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestKeyFuncs(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/courses", nil)
	r.RemoteAddr = "10.0.0.7:43210"

	assert.Equal(t, "10.0.0.7", IPKeyFunc(r))
	assert.Equal(t, "10.0.0.7:/api/courses", IPPathKeyFunc(r))
	assert.Equal(t, "login:10.0.0.7", PerRouteKeyFunc("login", IPKeyFunc)(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", GetClientIP(r))

	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", GetClientIP(r))

	r.Header.Del("X-Real-IP")
	r.RemoteAddr = "[::1]:8080"
	assert.Equal(t, "::1", GetClientIP(r))
}
