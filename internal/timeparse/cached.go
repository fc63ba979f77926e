package timeparse

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/wolfman30/voice-normalizers/internal/cache"
	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

// CachedNormalizer is a read-through cache in front of a Normalizer.
// Results depend on the caller's local clock down to the minute ("3pm"
// flips to tomorrow once 3pm passes), so the key includes the local minute.
type CachedNormalizer struct {
	inner  *Normalizer
	cache  cache.Cache
	ttl    time.Duration
	logger *logging.Logger
}

func NewCachedNormalizer(inner *Normalizer, c cache.Cache, ttl time.Duration, logger *logging.Logger) *CachedNormalizer {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 || ttl > time.Minute {
		ttl = time.Minute
	}
	return &CachedNormalizer{inner: inner, cache: c, ttl: ttl, logger: logger}
}

func (c *CachedNormalizer) Normalize(ctx context.Context, text, timezone string) (Result, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return Result{}, err
	}
	key := "time:" + loc.String() + ":" + c.inner.now().In(loc).Format("2006-01-02T15:04") + ":" +
		strings.Join(strings.Fields(strings.ToLower(text)), " ")

	if raw, ok := c.cache.Get(ctx, key); ok {
		var r Result
		if err := json.Unmarshal(raw, &r); err == nil {
			return r, nil
		}
		c.logger.WithContext(ctx).Warn("discarding corrupt cached time result", "key", key)
	}

	r, err := c.inner.Normalize(ctx, text, timezone)
	if err != nil {
		return Result{}, err
	}
	if raw, err := json.Marshal(r); err == nil {
		c.cache.Set(ctx, key, raw, c.ttl)
	}
	return r, nil
}
