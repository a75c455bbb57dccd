package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/resilience"
)

// Counter is the Redis operation the fixed-window limiter needs.
type Counter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisLimiter counts requests per key in fixed windows stored in Redis.
// Calls go through a circuit breaker; while Redis fails or the breaker is
// open, decisions come from the fallback limiter.
type RedisLimiter struct {
	counter  Counter
	window   time.Duration
	prefix   string
	breaker  *resilience.CircuitBreaker
	fallback Limiter
	logger   *slog.Logger
}

func NewRedisLimiter(counter Counter, window time.Duration, breaker *resilience.CircuitBreaker, fallback Limiter) *RedisLimiter {
	return &RedisLimiter{
		counter:  counter,
		window:   window,
		prefix:   "summarizer:ratelimit:",
		breaker:  breaker,
		fallback: fallback,
		logger:   slog.Default().With("component", "ratelimit"),
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int) (Decision, error) {
	var (
		count int64
		ttl   time.Duration
	)
	err := l.breaker.Execute(func() error {
		var err error
		count, ttl, err = l.counter.IncrWindow(ctx, l.prefix+key, l.window)
		return err
	})
	if err != nil {
		l.logger.Warn("redis rate limit unavailable, using fallback", "error", err)
		if l.fallback == nil {
			return Decision{Allowed: true, Limit: limit, Remaining: limit}, nil
		}
		return l.fallback.Allow(ctx, key, limit)
	}

	if count > int64(limit) {
		return Decision{Allowed: false, Limit: limit, RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Limit: limit, Remaining: limit - int(count)}, nil
}
