// internal/infra/cache/redis.go
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDialTimeout = 5 * time.Second

// NewRedisClient connects to Redis and pings it.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: defaultDialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return client, nil
}

// RedisAccumulator keeps each accumulated list as a Redis list with an expiry
// that is refreshed on every append.
type RedisAccumulator struct {
	client redis.Cmdable
	prefix string
}

func NewRedisAccumulator(client redis.Cmdable, prefix string) *RedisAccumulator {
	return &RedisAccumulator{client: client, prefix: prefix}
}

func (a *RedisAccumulator) key(k string) string {
	return a.prefix + k
}

// Append adds values to the end of the list and resets its expiry to ttl.
// An empty append only refreshes the expiry of an existing list.
func (a *RedisAccumulator) Append(ctx context.Context, key string, values []string, ttl time.Duration) error {
	k := a.key(key)
	_, err := a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(values) > 0 {
			args := make([]any, len(values))
			for i, v := range values {
				args[i] = v
			}
			pipe.RPush(ctx, k, args...)
		}
		pipe.Expire(ctx, k, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("error appending to %s: %w", k, err)
	}
	return nil
}

// Get returns the whole list; a missing or expired key yields an empty list.
func (a *RedisAccumulator) Get(ctx context.Context, key string) ([]string, error) {
	k := a.key(key)
	values, err := a.client.LRange(ctx, k, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", k, err)
	}
	return values, nil
}

func (a *RedisAccumulator) Delete(ctx context.Context, key string) error {
	k := a.key(key)
	if err := a.client.Del(ctx, k).Err(); err != nil {
		return fmt.Errorf("error deleting %s: %w", k, err)
	}
	return nil
}
