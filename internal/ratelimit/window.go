package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/opencampus/portalgw/internal/ratelimit/store"
)

// WindowLimiter counts requests per key in a rolling window backed by a
// shared counter store. The counter is created on the first request in a
// window and its expiry is refreshed to the window length on every
// increment, so it is evicted by the store once the key goes quiet.
type WindowLimiter struct {
	store  store.Store
	limit  int
	window time.Duration
	logger *zap.Logger
}

// NewWindowLimiter creates a new window limiter.
func NewWindowLimiter(s store.Store, cfg *Config, logger *zap.Logger) *WindowLimiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WindowLimiter{
		store:  s,
		limit:  cfg.Limit,
		window: cfg.Window,
		logger: logger,
	}
}

// Allow implements Limiter. A store failure propagates to the caller,
// which is expected to fail open.
func (l *WindowLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	current, err := l.store.Get(ctx, key)
	if err != nil && !store.IsKeyNotFound(err) {
		recordCheck("error")
		return nil, err
	}

	if current >= int64(l.limit) {
		recordCheck("rejected")
		l.logger.Debug("rate limit exceeded",
			zap.String("key", key),
			zap.Int64("count", current),
			zap.Int("limit", l.limit),
		)

		return &Result{
			Allowed:    false,
			Limit:      l.limit,
			Remaining:  0,
			RetryAfter: l.window,
		}, nil
	}

	newCount, err := l.store.IncrementWithExpiry(ctx, key, 1, l.window)
	if err != nil {
		recordCheck("error")
		return nil, err
	}

	// Racing increments can overshoot the limit; remaining is clamped
	// to zero rather than reported negative.
	remaining := l.limit - int(newCount)
	if remaining < 0 {
		remaining = 0
	}

	recordCheck("allowed")
	return &Result{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: remaining,
	}, nil
}

// Reset clears the counter for the given key.
func (l *WindowLimiter) Reset(ctx context.Context, key string) error {
	return l.store.Delete(ctx, key)
}

// Ensure WindowLimiter implements Limiter.
var _ Limiter = (*WindowLimiter)(nil)
