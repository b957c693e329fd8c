package ratelimit

import (
	"context"
	"sync"
	"time"
)

const defaultMaxEntries = 10000

type window struct {
	count int
	start time.Time
}

// MemoryLimiter is the in-process fallback limiter. It holds a fixed-size
// map of counters and evicts expired windows on a periodic janitor tick.
type MemoryLimiter struct {
	mu         sync.Mutex
	entries    map[string]*window
	maxEntries int
	stop       chan struct{}
	stopOnce   sync.Once

	// now is swappable for tests.
	now func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter with a background janitor.
func NewMemoryLimiter(janitorInterval time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		entries:    make(map[string]*window),
		maxEntries: defaultMaxEntries,
		stop:       make(chan struct{}),
		now:        time.Now,
	}

	if janitorInterval <= 0 {
		janitorInterval = time.Minute
	}

	go l.janitor(janitorInterval)

	return l
}

func (l *MemoryLimiter) Check(ctx context.Context, key string, cfg Config) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.entries[key]
	if !ok || now.Sub(w.start) >= cfg.Window {
		return Result{Allowed: true, Remaining: cfg.MaxAttempts}, nil
	}

	if w.count >= cfg.MaxAttempts {
		return Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: cfg.Window - now.Sub(w.start),
		}, nil
	}

	return Result{Allowed: true, Remaining: cfg.MaxAttempts - w.count}, nil
}

func (l *MemoryLimiter) Increment(ctx context.Context, key string, cfg Config) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.entries[key]
	if !ok || now.Sub(w.start) >= cfg.Window {
		if len(l.entries) >= l.maxEntries {
			l.evictExpiredLocked(now, cfg.Window)
		}
		l.entries[key] = &window{count: 1, start: now}
		return nil
	}

	w.count++
	return nil
}

func (l *MemoryLimiter) Close() error {
	l.stopOnce.Do(func() { close(l.stop) })
	return nil
}

func (l *MemoryLimiter) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			l.evictExpiredLocked(l.now(), interval)
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}

// evictExpiredLocked drops windows older than maxAge. When nothing is
// expired and the map is full, the oldest entry goes instead.
func (l *MemoryLimiter) evictExpiredLocked(now time.Time, maxAge time.Duration) {
	var oldestKey string
	var oldestStart time.Time
	evicted := false

	for key, w := range l.entries {
		if now.Sub(w.start) >= maxAge {
			delete(l.entries, key)
			evicted = true
			continue
		}
		if oldestKey == "" || w.start.Before(oldestStart) {
			oldestKey = key
			oldestStart = w.start
		}
	}

	if !evicted && len(l.entries) >= l.maxEntries && oldestKey != "" {
		delete(l.entries, oldestKey)
	}
}
