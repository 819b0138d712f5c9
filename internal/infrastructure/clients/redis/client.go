package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/restaurantlocator/backend/pkg/config"
	"github.com/zatekoja/restaurantlocator/backend/pkg/retry"
)

// Redis is optional, so startup gives up quickly and callers fall back to memory
var connectRetry = retry.Config{
	MaxAttempts:     3,
	InitialDelay:    200 * time.Millisecond,
	MaxDelay:        time.Second,
	BackoffFactor:   2.0,
	MaxTotalTimeout: 5 * time.Second,
}

// Client wraps a go-redis client shared by the cache adapter and the event bus
type Client struct {
	rdb  *redis.Client
	addr string
}

// NewClient connects to Redis, retrying briefly before giving up
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	opts := &redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	rdb := redis.NewClient(opts)

	err := retry.Do(ctx, connectRetry, "redis",
		func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		func(attempt int, err error, nextDelay time.Duration) {
			log.Debug().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("redis connection attempt failed")
		},
	)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	log.Info().Str("addr", opts.Addr).Int("db", cfg.DB).Msg("connected to Redis")
	return &Client{rdb: rdb, addr: opts.Addr}, nil
}

// Client returns the underlying go-redis client
func (c *Client) Client() *redis.Client {
	return c.rdb
}

// Addr is the server address the client dials
func (c *Client) Addr() string {
	return c.addr
}

// Ping reports whether Redis answers; it backs the health endpoint
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		stats := c.rdb.PoolStats()
		return fmt.Errorf("redis ping failed (total_conns=%d idle=%d timeouts=%d): %w",
			stats.TotalConns, stats.IdleConns, stats.Timeouts, err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
