package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// counter is the part of the redis client the fixed window needs.
type counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisLimiter counts attempts in fixed windows. The first attempt of a
// window creates the counter and sets its expiry. A rejected attempt on a
// counter without expiry sets it again, so a lost EXPIRE cannot keep a key
// over budget forever.
type RedisLimiter struct {
	rdb    counter
	prefix string
	limit  int64
	window time.Duration
}

func NewRedisLimiter(rdb counter, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: int64(limit), window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	count, err := l.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("incr %s: %w", redisKey, err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("expire %s: %w", redisKey, err)
		}
	}
	if count <= l.limit {
		return true, nil
	}

	ttl, err := l.rdb.TTL(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("ttl %s: %w", redisKey, err)
	}
	if ttl < 0 {
		if err := l.rdb.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("expire %s: %w", redisKey, err)
		}
	}
	return false, nil
}
