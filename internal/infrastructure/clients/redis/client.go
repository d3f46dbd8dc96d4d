package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
	"github.com/zatekoja/mypadicare/pkg/config"
	"github.com/zatekoja/mypadicare/pkg/retry"
)

// Client represents a Redis client
type Client struct {
	client *redis.Client
}

// NewClient creates a new Redis client and waits for it to answer a ping.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	retryCfg := retry.Config{
		MaxAttempts:     5,
		InitialDelay:    200 * time.Millisecond,
		MaxDelay:        2 * time.Second,
		BackoffFactor:   2.0,
		MaxTotalTimeout: 15 * time.Second,
	}
	logger := observability.LoggerFromContext(ctx)
	err := retry.DoWithLog(ctx, retryCfg, "redis", func() error {
		return client.Ping(ctx).Err()
	}, func(attempt int, err error, next time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("redis not ready")
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: client}, nil
}

// Client returns the underlying Redis client
func (c *Client) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// Ping verifies the connection to Redis
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
