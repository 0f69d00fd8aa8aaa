package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts hits per key in fixed windows
type Limiter interface {
	// Allow records a hit for key and reports whether it is within the limit
	Allow(ctx context.Context, key string) (bool, error)
	// Limit returns the number of hits allowed per window
	Limit() int
}

// RedisLimiter shares counters between instances through INCR + EXPIRE
type RedisLimiter struct {
	client    *redis.Client
	keyPrefix string
	limit     int
	window    time.Duration
}

// NewRedisLimiter creates a Redis backed fixed window limiter
func NewRedisLimiter(client *redis.Client, keyPrefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
		window:    window,
	}
}

// Allow implements Limiter
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.keyPrefix + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to count rate limit hit: %w", err)
	}
	return incr.Val() <= int64(l.limit), nil
}

// Limit implements Limiter
func (l *RedisLimiter) Limit() int {
	return l.limit
}

// InMemoryLimiter keeps counters in the process
type InMemoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	window  time.Duration
	now     func() time.Time
}

type window struct {
	hits  int
	start time.Time
}

// NewInMemoryLimiter creates an in-process fixed window limiter
func NewInMemoryLimiter(limit int, d time.Duration) *InMemoryLimiter {
	return &InMemoryLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		window:  d,
		now:     time.Now,
	}
}

// Allow implements Limiter
func (l *InMemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.clients[key] = &window{hits: 1, start: now}
		return true, nil
	}
	w.hits++
	return w.hits <= l.limit, nil
}

// Limit implements Limiter
func (l *InMemoryLimiter) Limit() int {
	return l.limit
}

// evict drops windows that ended long ago; callers hold the lock
func (l *InMemoryLimiter) evict(now time.Time) {
	if len(l.clients) < 1024 {
		return
	}
	for k, w := range l.clients {
		if now.Sub(w.start) > 2*l.window {
			delete(l.clients, k)
		}
	}
}

var (
	_ Limiter = (*RedisLimiter)(nil)
	_ Limiter = (*InMemoryLimiter)(nil)
)
