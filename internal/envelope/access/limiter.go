// Package access bounds recipient access-code verification attempts so codes
// cannot be brute forced. The limiter is keyed per envelope and email; a
// successful verification resets the budget.
package access

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const attemptKeyPrefix = "signet:verify:"

// RedisLimiter counts attempts in Redis so the budget holds across
// instances. INCR with a TTL set on first use gives a fixed window.
type RedisLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

func NewRedisLimiter(client *redis.Client, maxAttempts int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	full := attemptKeyPrefix + key
	count, err := l.client.Incr(ctx, full).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, full, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(l.maxAttempts), nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, attemptKeyPrefix+key).Err()
}

// MemoryLimiter is the in-process twin of RedisLimiter, for tests and
// single-instance runs.
type MemoryLimiter struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	counts      map[string]*windowCount
	now         func() time.Time
}

type windowCount struct {
	count   int
	resetAt time.Time
}

func NewMemoryLimiter(maxAttempts int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		counts:      make(map[string]*windowCount),
		now:         time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	wc, ok := l.counts[key]
	if !ok || now.After(wc.resetAt) {
		wc = &windowCount{resetAt: now.Add(l.window)}
		l.counts[key] = wc
	}
	wc.count++
	return wc.count <= l.maxAttempts, nil
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counts, key)
	return nil
}
