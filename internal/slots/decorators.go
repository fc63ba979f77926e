package slots

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wolfman30/voice-normalizers/internal/cache"
	"github.com/wolfman30/voice-normalizers/internal/observability/metrics"
	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

// DefaultQueryCacheTTL keeps availability fresh enough for a phone call.
const DefaultQueryCacheTTL = 30 * time.Second

// CachingStore is a read-through cache over another Store. Only successful
// results are cached.
type CachingStore struct {
	inner  Store
	cache  cache.Cache
	ttl    time.Duration
	logger *logging.Logger
}

func NewCachingStore(inner Store, c cache.Cache, ttl time.Duration, logger *logging.Logger) *CachingStore {
	if c == nil {
		c = cache.Nop{}
	}
	if ttl <= 0 {
		ttl = DefaultQueryCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachingStore{inner: inner, cache: c, ttl: ttl, logger: logger}
}

type queryKey struct {
	Collection string   `json:"c"`
	Filters    []Filter `json:"f"`
	OrderBy    *OrderBy `json:"o,omitempty"`
	Limit      int      `json:"l"`
}

func (s *CachingStore) Query(ctx context.Context, collection string, filters []Filter, orderBy *OrderBy, limit int) ([]Slot, error) {
	rawKey, err := json.Marshal(queryKey{Collection: collection, Filters: filters, OrderBy: orderBy, Limit: limit})
	if err != nil {
		return s.inner.Query(ctx, collection, filters, orderBy, limit)
	}
	key := "slots:" + string(rawKey)

	if raw, ok := s.cache.Get(ctx, key); ok {
		var out []Slot
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
		s.logger.WithContext(ctx).Warn("discarding corrupt cached slot query", "key", key)
	}

	out, err := s.inner.Query(ctx, collection, filters, orderBy, limit)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(out); err == nil {
		s.cache.Set(ctx, key, raw, s.ttl)
	}
	return out, nil
}

// InstrumentedStore records query latency and outcome under name.
type InstrumentedStore struct {
	inner   Store
	name    string
	metrics *metrics.NormalizerMetrics
	now     func() time.Time
}

func WithMetrics(inner Store, name string, m *metrics.NormalizerMetrics) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, name: name, metrics: m, now: time.Now}
}

func (s *InstrumentedStore) Query(ctx context.Context, collection string, filters []Filter, orderBy *OrderBy, limit int) ([]Slot, error) {
	start := s.now()
	out, err := s.inner.Query(ctx, collection, filters, orderBy, limit)
	s.metrics.ObserveStoreQuery(s.name, s.now().Sub(start).Seconds(), err)
	return out, err
}
