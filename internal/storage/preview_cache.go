package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const previewKeyPrefix = "preview:"

// PreviewCache keeps recently served staged model binaries in Redis so
// repeated editor previews skip the object store.
type PreviewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPreviewCache connects to Redis and verifies the connection.
func NewPreviewCache(host, port string, ttl time.Duration) (*PreviewCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		MaxRetries:   3,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &PreviewCache{client: client, ttl: ttl}, nil
}

// NewPreviewCacheFromClient wraps an existing client, used by tests.
func NewPreviewCacheFromClient(client *redis.Client, ttl time.Duration) *PreviewCache {
	return &PreviewCache{client: client, ttl: ttl}
}

// GetBytes returns the cached binary for name, or nil on a miss.
func (c *PreviewCache) GetBytes(ctx context.Context, name string) ([]byte, error) {
	val, err := c.client.Get(ctx, previewKeyPrefix+name).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return val, err
}

// SetBytes stores the binary for name with the cache TTL.
func (c *PreviewCache) SetBytes(ctx context.Context, name string, data []byte) error {
	return c.client.Set(ctx, previewKeyPrefix+name, data, c.ttl).Err()
}

// Invalidate drops the cached entry for name, e.g. after adoption removes
// the staged artifact.
func (c *PreviewCache) Invalidate(ctx context.Context, name string) error {
	return c.client.Del(ctx, previewKeyPrefix+name).Err()
}

// Close closes the Redis connection.
func (c *PreviewCache) Close() error {
	return c.client.Close()
}
