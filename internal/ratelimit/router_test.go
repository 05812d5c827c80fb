package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/portalgw/internal/ratelimit/store"
)

func TestPrefixRouter_RoutesByPath(t *testing.T) {
	s := store.NewMemoryStore()
	strict := NewWindowLimiter(s, &Config{Limit: 1, Window: time.Minute}, nil)
	loose := NewWindowLimiter(s, &Config{Limit: 100, Window: time.Minute}, nil)

	router := NewPrefixRouter(loose)
	router.AddRule("/api/auth/login", strict)

	ctx := context.Background()

	// Strict rule applies to the login path.
	result, err := router.Allow(ctx, "10.0.0.1:/api/auth/login")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 1, result.Limit)

	result, err = router.Allow(ctx, "10.0.0.1:/api/auth/login")
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	// Other paths fall back to the loose limiter.
	result, err = router.Allow(ctx, "10.0.0.1:/api/courses")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 100, result.Limit)
}

func TestPrefixRouter_IPv6Keys(t *testing.T) {
	router := NewPrefixRouter(NewNoopLimiter())
	strict := NewWindowLimiter(store.NewMemoryStore(), &Config{Limit: 1, Window: time.Minute}, nil)
	router.AddRule("/api/admin", strict)

	result, err := router.Allow(context.Background(), "::1:/api/admin/stats")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Limit)
}

func TestPrefixRouter_Replace(t *testing.T) {
	s := store.NewMemoryStore()
	router := NewPrefixRouter(NewWindowLimiter(s, &Config{Limit: 10, Window: time.Minute}, nil))

	tight := NewWindowLimiter(s, &Config{Limit: 2, Window: time.Minute}, nil)
	router.Replace(
		NewWindowLimiter(s, &Config{Limit: 50, Window: time.Minute}, nil),
		map[string]Limiter{"/api/grades": tight},
		[]string{"/api/grades"},
	)

	result, err := router.Allow(context.Background(), "10.0.0.1:/api/grades")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Limit)

	result, err = router.Allow(context.Background(), "10.0.0.1:/api/other")
	require.NoError(t, err)
	assert.Equal(t, 50, result.Limit)
}

func TestPrefixRouter_KeyWithoutPath(t *testing.T) {
	fallback := NewWindowLimiter(store.NewMemoryStore(), &Config{Limit: 7, Window: time.Minute}, nil)
	router := NewPrefixRouter(fallback)
	router.AddRule("/api", NewNoopLimiter())

	result, err := router.Allow(context.Background(), "plain-key")
	require.NoError(t, err)
	assert.Equal(t, 7, result.Limit)
}
