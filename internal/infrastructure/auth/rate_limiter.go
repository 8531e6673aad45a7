package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storefront/backend/internal/infrastructure/config"
)

// RateLimiter caps how often a keyed action may run. Used to throttle
// verification-code requests per email address.
type RateLimiter interface {
	// Allow reports whether key may act now and records the attempt
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisRateLimiter is a fixed-window limiter shared across instances.
// The first hit in a window creates the counter with the window as its
// TTL; subsequent hits increment it until the limit is reached.
type RedisRateLimiter struct {
	client    *redis.Client
	keyPrefix string
	limit     int
	window    time.Duration
}

// NewRedisRateLimiter connects to Redis and returns a limiter allowing
// limit attempts per key per window
func NewRedisRateLimiter(cfg config.RedisConfig, limit int, window time.Duration) (*RedisRateLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 3,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis for rate limiter: %w", err)
	}

	return NewRedisRateLimiterWithClient(client, limit, window), nil
}

// NewRedisRateLimiterWithClient creates a limiter over an existing Redis client
func NewRedisRateLimiterWithClient(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:    client,
		keyPrefix: "ratelimit:",
		limit:     limit,
		window:    window,
	}
}

// Allow increments the key's window counter and reports whether it is
// still within the limit
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.keyPrefix + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}
	return count <= int64(l.limit), nil
}

// InMemoryRateLimiter is a process-local RateLimiter for development and
// tests
type InMemoryRateLimiter struct {
	mu      sync.Mutex
	counts  map[string]int
	resetAt map[string]time.Time
	limit   int
	window  time.Duration
}

// NewInMemoryRateLimiter creates an in-memory fixed-window limiter
func NewInMemoryRateLimiter(limit int, window time.Duration) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		counts:  make(map[string]int),
		resetAt: make(map[string]time.Time),
		limit:   limit,
		window:  window,
	}
}

// Allow increments the key's window counter and reports whether it is
// still within the limit
func (l *InMemoryRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if reset, ok := l.resetAt[key]; !ok || now.After(reset) {
		l.counts[key] = 0
		l.resetAt[key] = now.Add(l.window)
	}

	l.counts[key]++
	return l.counts[key] <= l.limit, nil
}
