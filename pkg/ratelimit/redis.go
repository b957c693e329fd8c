package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisLimiter is the Redis-backed fixed-window limiter. When Redis is
// unreachable it degrades to the in-memory fallback instead of failing
// the guarded operation.
type RedisLimiter struct {
	client   *redis.Client
	fallback *MemoryLimiter
	logger   *zap.Logger
}

// NewRedisLimiter creates a limiter on top of an existing Redis client.
func NewRedisLimiter(client *redis.Client, logger *zap.Logger) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		fallback: NewMemoryLimiter(time.Minute),
		logger:   logger,
	}
}

func (l *RedisLimiter) Check(ctx context.Context, key string, cfg Config) (Result, error) {
	count, err := l.client.Get(ctx, l.redisKey(key)).Int()
	if err == redis.Nil {
		return Result{Allowed: true, Remaining: cfg.MaxAttempts}, nil
	}
	if err != nil {
		l.logger.Warn("rate limiter falling back to in-memory store",
			zap.String("key", key),
			zap.Error(err))
		return l.fallback.Check(ctx, key, cfg)
	}

	if count >= cfg.MaxAttempts {
		ttl, ttlErr := l.client.TTL(ctx, l.redisKey(key)).Result()
		if ttlErr != nil || ttl < 0 {
			ttl = cfg.Window
		}
		return Result{Allowed: false, Remaining: 0, RetryAfter: ttl}, nil
	}

	return Result{Allowed: true, Remaining: cfg.MaxAttempts - count}, nil
}

func (l *RedisLimiter) Increment(ctx context.Context, key string, cfg Config) error {
	count, err := l.client.Incr(ctx, l.redisKey(key)).Result()
	if err != nil {
		l.logger.Warn("rate limiter falling back to in-memory store",
			zap.String("key", key),
			zap.Error(err))
		return l.fallback.Increment(ctx, key, cfg)
	}

	// First hit in the window owns the expiry.
	if count == 1 {
		if err := l.client.Expire(ctx, l.redisKey(key), cfg.Window).Err(); err != nil {
			l.logger.Warn("failed to set rate limit window expiry",
				zap.String("key", key),
				zap.Error(err))
		}
	}

	return nil
}

func (l *RedisLimiter) Close() error {
	return l.fallback.Close()
}

func (l *RedisLimiter) redisKey(key string) string {
	return "ratelimit:" + key
}
