// Package cache provides a Redis-backed store for synthesized sentence audio.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const pingTimeout = 5 * time.Second

// RedisCache implements core.AudioCache on a Redis server.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to redisURL (e.g. "redis://localhost:6379/0") and checks the
// connection. Entries expire after ttl; zero keeps them until evicted.
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	pingErr := client.Ping(pingCtx).Err()
	if pingErr != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to redis: %w", pingErr)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// Get returns the entry stored under key.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache key '%s': %w", key, err)
	}

	return data, true, nil
}

// Set stores data under key.
func (r *RedisCache) Set(ctx context.Context, key string, data []byte) error {
	err := r.client.Set(ctx, key, data, r.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to write cache key '%s': %w", key, err)
	}

	return nil
}

// Close releases the connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
