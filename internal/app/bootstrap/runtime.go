package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/voice-normalizers/internal/cache"
	appconfig "github.com/wolfman30/voice-normalizers/internal/config"
	"github.com/wolfman30/voice-normalizers/internal/observability/metrics"
	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

// memoryCacheCapacity bounds the process-local cache shared by both
// normalizers.
const memoryCacheCapacity = 10000

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildCache picks the cache backend named by CACHE_BACKEND. An unreachable
// Redis degrades to the in-process cache rather than failing startup.
func BuildCache(ctx context.Context, cfg *appconfig.Config, m *metrics.NormalizerMetrics, logger *logging.Logger) (cache.Cache, func()) {
	if logger == nil {
		logger = logging.Default()
	}
	noop := func() {}

	var (
		c       cache.Cache
		cleanup = noop
	)
	switch cfg.CacheBackend {
	case "none":
		logger.Info("result cache disabled")
		return cache.Nop{}, noop
	case "redis":
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			logger.Warn("falling back to memory cache")
			c = cache.NewMemoryCache(memoryCacheCapacity, cfg.CacheTTL)
			break
		}
		c = cache.NewRedisCache(client, "voicenorm:", cfg.CacheTTL, logger)
		cleanup = func() { _ = client.Close() }
		logger.Info("redis cache enabled", "addr", cfg.RedisAddr)
	default:
		c = cache.NewMemoryCache(memoryCacheCapacity, cfg.CacheTTL)
	}
	if m != nil {
		c = cache.WithMetrics(c, cfg.CacheBackend, m)
	}
	return c, cleanup
}
