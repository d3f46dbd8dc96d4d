package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/mypadicare/internal/domain/providers"
	redisclient "github.com/zatekoja/mypadicare/internal/infrastructure/clients/redis"
)

// RedisAdapter implements the CacheProvider interface using Redis
type RedisAdapter struct {
	client redis.Cmdable
	prefix string
}

// NewRedisAdapter creates a new Redis cache adapter. Keys are namespaced
// with prefix.
func NewRedisAdapter(client *redisclient.Client, prefix string) *RedisAdapter {
	return &RedisAdapter{client: client.Client(), prefix: prefix}
}

var _ providers.CacheProvider = (*RedisAdapter)(nil)

// Get retrieves a value from cache
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.Get(ctx, a.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, providers.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}
	return result, nil
}

// Set stores a value in cache with expiration
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	expiration := time.Duration(expirationSeconds) * time.Second
	if err := a.client.Set(ctx, a.prefix+key, value, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

// Delete removes values from cache
func (a *RedisAdapter) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = a.prefix + key
	}
	if err := a.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

// Incr increments a counter in one transaction. EXPIRE NX leaves the TTL of
// an existing key untouched so fixed windows do not slide.
func (a *RedisAdapter) Incr(ctx context.Context, key string, expirationSeconds int) (int64, error) {
	key = a.prefix + key
	var incr *redis.IntCmd
	_, err := a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		if expirationSeconds > 0 {
			pipe.ExpireNX(ctx, key, time.Duration(expirationSeconds)*time.Second)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment in cache: %w", err)
	}
	return incr.Val(), nil
}
