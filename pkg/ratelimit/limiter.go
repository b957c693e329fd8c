package ratelimit

import (
	"context"
	"time"
)

// Config describes a fixed-window limit for one key class.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// Result is the outcome of a limit check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is a fixed-window rate limiter. The Redis-backed and in-memory
// implementations are interchangeable behind this interface.
type Limiter interface {
	Check(ctx context.Context, key string, cfg Config) (Result, error)
	Increment(ctx context.Context, key string, cfg Config) error
	Close() error
}
