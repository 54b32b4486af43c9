package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter implements CounterStore on a shared Redis instance so the
// limit holds across replicas.
type RedisCounter struct {
	client *redis.Client
	prefix string
}

// NewRedisCounter connects a counter store to the given Redis address.
func NewRedisCounter(addr string) *RedisCounter {
	return &RedisCounter{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: "ratelimit:",
	}
}

// Incr bumps the window counter for key, setting the expiry on first use.
func (r *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	fullKey := r.prefix + key

	count, err := r.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, fullKey, window).Err(); err != nil {
			return count, 0, err
		}
		return count, window, nil
	}

	ttl, err := r.client.TTL(ctx, fullKey).Result()
	if err != nil || ttl < 0 {
		return count, window, nil
	}
	return count, ttl, nil
}

// Ping checks connectivity, used at bootstrap to fail fast on a bad address.
func (r *RedisCounter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

var _ CounterStore = (*RedisCounter)(nil)
