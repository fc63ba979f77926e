// Package cache provides the best-effort key/value cache used in front of the
// normalizers and the slot store. A cache never returns errors to callers:
// any backend failure is logged and reported as a miss.
package cache

import (
	"context"
	"time"

	"github.com/wolfman30/voice-normalizers/internal/observability/metrics"
)

// Cache is a byte-oriented TTL cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (Nop) Set(context.Context, string, []byte, time.Duration) {}

// Instrumented records hit/miss counters for the wrapped cache under name.
type Instrumented struct {
	inner   Cache
	name    string
	metrics *metrics.NormalizerMetrics
}

// WithMetrics wraps c so every lookup is counted. A nil c yields a Nop cache.
func WithMetrics(c Cache, name string, m *metrics.NormalizerMetrics) *Instrumented {
	if c == nil {
		c = Nop{}
	}
	return &Instrumented{inner: c, name: name, metrics: m}
}

func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, bool) {
	v, ok := i.inner.Get(ctx, key)
	i.metrics.ObserveCache(i.name, ok)
	return v, ok
}

func (i *Instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	i.inner.Set(ctx, key, value, ttl)
}
