// Package store provides counter storage backends for rate limiting.
package store

import (
	"context"
	"time"
)

// Store is a shared counter store with atomic increment-and-expire
// semantics. Counters for concurrent requests on the same key must not
// lose updates.
type Store interface {
	// Get retrieves the current value for the given key.
	Get(ctx context.Context, key string) (int64, error)

	// IncrementWithExpiry atomically increments the value for the key by
	// delta and refreshes its expiry.
	IncrementWithExpiry(ctx context.Context, key string, delta int64, expiration time.Duration) (int64, error)

	// Delete removes the key from the store.
	Delete(ctx context.Context, key string) error

	// Close closes the store and releases resources.
	Close() error
}

// ErrKeyNotFound is returned when a key is not found in the store.
type ErrKeyNotFound struct {
	Key string
}

func (e *ErrKeyNotFound) Error() string {
	return "key not found: " + e.Key
}

// IsKeyNotFound returns true if the error is a key not found error.
func IsKeyNotFound(err error) bool {
	_, ok := err.(*ErrKeyNotFound)
	return ok
}
