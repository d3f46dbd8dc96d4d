package providers

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by Get when the key is not cached.
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache, or ErrCacheMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes values from cache
	Delete(ctx context.Context, keys ...string) error

	// Incr atomically increments a counter and returns the new value. The
	// expiration is set only when the increment creates the key.
	Incr(ctx context.Context, key string, expirationSeconds int) (int64, error)
}
