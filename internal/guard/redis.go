// Package guard holds the Redis implementation of the one-shot send guard.
// The database implementation lives in repository.ClaimRepository.
package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "intake:sent:"

// DefaultTTL bounds how long a claim blocks a repeat send
const DefaultTTL = 7 * 24 * time.Hour

type claimStore interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisGuard claims dedupe keys with SETNX so only the first send goes out
type RedisGuard struct {
	client claimStore
	ttl    time.Duration
}

// NewRedisGuard wraps an existing client. A non-positive ttl uses DefaultTTL.
func NewRedisGuard(client claimStore, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGuard{client: client, ttl: ttl}
}

// Dial parses a redis:// URL and verifies the server answers
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Claim reports whether key was unclaimed before this call
func (g *RedisGuard) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, keyPrefix+key, time.Now().Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %q: %w", key, err)
	}
	return ok, nil
}

// Release drops a claim
func (g *RedisGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release claim %q: %w", key, err)
	}
	return nil
}
