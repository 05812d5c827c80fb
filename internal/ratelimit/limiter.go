// Package ratelimit tracks rolling per-key request counts in a shared
// counter store and rejects requests once a configured threshold is
// exceeded within a time window.
package ratelimit

import (
	"context"
	"time"
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow checks if a single request is allowed for the given key.
	Allow(ctx context.Context, key string) (*Result, error)
}

// Config holds configuration for a rate limiter.
type Config struct {
	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Window is the time window for the rate limit.
	Window time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Limit:  100,
		Window: time.Minute,
	}
}

// Result represents the result of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is allowed.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Remaining is the number of requests remaining in the current
	// window, clamped to zero.
	Remaining int

	// RetryAfter is the duration to wait before retrying (when not
	// allowed).
	RetryAfter time.Duration
}

// NoopLimiter is a rate limiter that always allows requests.
type NoopLimiter struct{}

// NewNoopLimiter creates a new noop limiter.
func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

// Allow implements Limiter.
func (l *NoopLimiter) Allow(_ context.Context, _ string) (*Result, error) {
	return &Result{Allowed: true}, nil
}
