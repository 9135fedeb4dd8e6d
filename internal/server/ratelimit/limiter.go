// Package ratelimit throttles repeated attempts per key. Login uses it
// keyed by client address and identifier.
package ratelimit

import (
	"context"
	"time"

	"github.com/dmitrijs2005/videotube/internal/logging"
	"github.com/redis/go-redis/v9"
)

type Limiter interface {
	// Allow reports whether one more attempt for key fits in the budget.
	Allow(ctx context.Context, key string) (bool, error)
}

// New picks a limiter for limit attempts per window. A non-positive limit
// disables throttling. With a redis client the budget is shared between
// server instances, otherwise it is kept in process memory.
func New(limit int, window time.Duration, rdb *redis.Client, logger logging.Logger) Limiter {
	switch {
	case limit <= 0:
		return Noop{}
	case rdb != nil:
		return &failOpen{next: NewRedisLimiter(rdb, "videotube:login", limit, window), logger: logger}
	default:
		return NewMemoryLimiter(limit, window)
	}
}

type Noop struct{}

func (Noop) Allow(context.Context, string) (bool, error) { return true, nil }

// failOpen lets the attempt through when the underlying limiter errors.
type failOpen struct {
	next   Limiter
	logger logging.Logger
}

func (f *failOpen) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := f.next.Allow(ctx, key)
	if err != nil {
		f.logger.Warn(ctx, "rate limiter unavailable, allowing attempt", "error", err)
		return true, nil
	}
	return ok, nil
}
