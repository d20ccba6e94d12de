package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultVoteWindow is the minimum time between two accepted votes of one client.
const DefaultVoteWindow = 60 * time.Second

// memorySweepThreshold triggers a cleanup of expired entries.
const memorySweepThreshold = 10000

// RateLimiter reserves one action per key per window. Allow is an atomic
// check-and-reserve; Release gives a reservation back when the action failed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (allowed bool, wait time.Duration, err error)
	Release(ctx context.Context, key string) error
}

// WaitSeconds rounds a remaining wait up to whole seconds, never below 1.
func WaitSeconds(wait time.Duration) int {
	s := int(math.Ceil(wait.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// MemoryRateLimiter keeps the last accepted time per key in process memory.
// It only limits a single instance.
type MemoryRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

// NewMemoryRateLimiter creates a limiter with the given window.
func NewMemoryRateLimiter(window time.Duration) *MemoryRateLimiter {
	if window <= 0 {
		window = DefaultVoteWindow
	}
	return &MemoryRateLimiter{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// SetClock replaces the time source. Tests use it to move time forward.
func (l *MemoryRateLimiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}

// Allow implements RateLimiter.
func (l *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if last, ok := l.last[key]; ok {
		if elapsed := now.Sub(last); elapsed < l.window {
			return false, l.window - elapsed, nil
		}
	}

	if len(l.last) >= memorySweepThreshold {
		l.sweep(now)
	}
	l.last[key] = now
	return true, 0, nil
}

// Release implements RateLimiter.
func (l *MemoryRateLimiter) Release(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.last, key)
	l.mu.Unlock()
	return nil
}

// sweep drops entries whose window has passed. Caller holds mu.
func (l *MemoryRateLimiter) sweep(now time.Time) {
	for k, t := range l.last {
		if now.Sub(t) >= l.window {
			delete(l.last, k)
		}
	}
}

// RedisRateLimiter stores reservations as expiring Redis keys so every
// instance behind a load balancer shares the same window.
type RedisRateLimiter struct {
	client *redis.Client
	window time.Duration
	prefix string
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisRateLimiter creates a limiter on top of an existing client.
func NewRedisRateLimiter(client *redis.Client, window time.Duration, prefix string) *RedisRateLimiter {
	if window <= 0 {
		window = DefaultVoteWindow
	}
	if prefix == "" {
		prefix = "skillbluff:vote:"
	}
	return &RedisRateLimiter{client: client, window: window, prefix: prefix}
}

// Allow implements RateLimiter with SET NX PX.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := l.prefix + key
	// The key can expire between SET NX and PTTL; one retry covers that.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := l.client.SetNX(ctx, k, time.Now().UnixMilli(), l.window).Result()
		if err != nil {
			return false, 0, fmt.Errorf("redis setnx error: %w", err)
		}
		if ok {
			return true, 0, nil
		}

		ttl, err := l.client.PTTL(ctx, k).Result()
		if err != nil {
			return false, 0, fmt.Errorf("redis pttl error: %w", err)
		}
		if ttl > 0 {
			return false, ttl, nil
		}
		if ttl == -1 {
			// Key without expiry; restore the window instead of blocking forever.
			if err := l.client.PExpire(ctx, k, l.window).Err(); err != nil {
				return false, 0, fmt.Errorf("redis pexpire error: %w", err)
			}
			return false, l.window, nil
		}
	}
	return false, l.window, nil
}

// Release implements RateLimiter.
func (l *RedisRateLimiter) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del error: %w", err)
	}
	return nil
}
