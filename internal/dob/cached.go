package dob

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/wolfman30/voice-normalizers/internal/cache"
	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

// CachedNormalizer memoizes DOB answers. Results only move when the UTC day
// changes (the no-future rule), so the key carries the day and the level.
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
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedNormalizer{inner: inner, cache: c, ttl: ttl, logger: logger}
}

func (c *CachedNormalizer) Normalize(ctx context.Context, text string) Result {
	key := "dob:" + string(c.inner.level) + ":" + midnightUTC(c.inner.now()).Format("2006-01-02") + ":" +
		strings.Join(strings.Fields(strings.ToLower(text)), " ")

	if raw, ok := c.cache.Get(ctx, key); ok {
		var r Result
		if err := json.Unmarshal(raw, &r); err == nil {
			r.Method = "cache"
			return r
		}
		c.logger.WithContext(ctx).Warn("discarding corrupt cached dob result", "key", key)
	}

	r := c.inner.Normalize(ctx, text)
	if raw, err := json.Marshal(r); err == nil {
		c.cache.Set(ctx, key, raw, c.ttl)
	}
	return r
}
