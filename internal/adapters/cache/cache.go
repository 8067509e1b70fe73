// Package cache memoizes disease classifications by image content.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/internal/domain/model"
	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/metrics"
)

// Defaults for the Redis cache.
const (
	defaultPrefix       = "agri:disease:"
	defaultTTL          = time.Hour
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second
)

// DiseaseCache stores classification results keyed by image digest.
type DiseaseCache interface {
	Get(ctx context.Context, key string) (model.DiseaseResult, bool, error)
	Set(ctx context.Context, key string, r model.DiseaseResult) error
}

// Key returns the cache key of an image payload.
func Key(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// Dial parses a redis:// URL, applies timeouts and pings the server.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = defaultDialTimeout
	opts.ReadTimeout = defaultReadTimeout
	opts.WriteTimeout = defaultWriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisCache implements DiseaseCache on Redis strings holding JSON.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps client.
func NewRedisCache(client *redis.Client, opts ...Option) *RedisCache {
	c := &RedisCache{client: client, prefix: defaultPrefix, ttl: defaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached result for key. A miss is not an error.
func (c *RedisCache) Get(ctx context.Context, key string) (model.DiseaseResult, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheLookup("miss")
		return model.DiseaseResult{}, false, nil
	}
	if err != nil {
		metrics.RecordCacheLookup("error")
		return model.DiseaseResult{}, false, fmt.Errorf("redis get: %w", err)
	}
	var r model.DiseaseResult
	if err := json.Unmarshal(data, &r); err != nil {
		metrics.RecordCacheLookup("error")
		return model.DiseaseResult{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	metrics.RecordCacheLookup("hit")
	return r, true, nil
}

// Set stores r under key with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, r model.DiseaseResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
