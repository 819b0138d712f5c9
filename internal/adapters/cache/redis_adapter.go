package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/providers"
	redisclient "github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/clients/redis"
)

// keys are unlinked in batches of this size while scanning
const unlinkBatchSize = 100

// RedisAdapter stores cache entries in Redis
type RedisAdapter struct {
	rdb *redis.Client
}

var _ providers.CacheProvider = (*RedisAdapter)(nil)

func NewRedisAdapter(client *redisclient.Client) *RedisAdapter {
	return &RedisAdapter{rdb: client.Client()}
}

// Get returns ErrCacheMiss for absent or expired keys
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := a.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return value, nil
}

// Set stores value; zero or negative expiration keeps it until deleted, as in MemoryAdapter
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	var ttl time.Duration
	if expirationSeconds > 0 {
		ttl = time.Duration(expirationSeconds) * time.Second
	}
	if err := a.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// DeletePattern walks the keyspace with SCAN and unlinks matches in batches.
// Keys written during the walk may survive.
func (a *RedisAdapter) DeletePattern(ctx context.Context, pattern string) error {
	iter := a.rdb.Scan(ctx, 0, pattern, unlinkBatchSize).Iterator()
	batch := make([]string, 0, unlinkBatchSize)
	deleted := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := a.rdb.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis unlink after %d keys for %q: %w", deleted, pattern, err)
		}
		deleted += len(batch)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == unlinkBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %q: %w", pattern, err)
	}
	return flush()
}
