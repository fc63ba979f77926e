package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

// RedisCache stores entries in Redis under a key prefix.
type RedisCache struct {
	client     redis.Cmdable
	prefix     string
	defaultTTL time.Duration
	logger     *logging.Logger
}

// NewRedisCache wraps an existing client. prefix namespaces the keys (e.g. "voicenorm:").
func NewRedisCache(client redis.Cmdable, prefix string, defaultTTL time.Duration, logger *logging.Logger) *RedisCache {
	if logger == nil {
		logger = logging.Default()
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &RedisCache{client: client, prefix: prefix, defaultTTL: defaultTTL, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}
