package sms

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Limiter remembers destinations that recently received a message.
type Limiter interface {
	Limited(ctx context.Context, key string) (bool, error)
	Hold(ctx context.Context, key string, ttl time.Duration) error
}

// MemoryLimiter keeps keys in process memory. It is enough for a single
// instance; use RedisLimiter when the API runs replicated.
type MemoryLimiter struct {
	cache *cache.Cache
}

func NewMemoryLimiter(cleanupInterval time.Duration) *MemoryLimiter {
	return &MemoryLimiter{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (l *MemoryLimiter) Limited(_ context.Context, key string) (bool, error) {
	_, found := l.cache.Get(key)
	return found, nil
}

func (l *MemoryLimiter) Hold(_ context.Context, key string, ttl time.Duration) error {
	l.cache.Set(key, struct{}{}, ttl)
	return nil
}

type RedisLimiter struct {
	client redis.UniversalClient
}

func NewRedisLimiter(client redis.UniversalClient) *RedisLimiter {
	return &RedisLimiter{client: client}
}

func (l *RedisLimiter) Limited(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit key: %w", err)
	}
	return n > 0, nil
}

func (l *RedisLimiter) Hold(ctx context.Context, key string, ttl time.Duration) error {
	if err := l.client.Set(ctx, key, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set rate limit key: %w", err)
	}
	return nil
}
