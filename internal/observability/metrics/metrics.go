package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// NormalizerMetrics exposes counters/histograms for the normalizers, the slot
// matcher and the caches in front of them.
type NormalizerMetrics struct {
	normalizeTotal *prometheus.CounterVec
	slotMatchTotal *prometheus.CounterVec
	cacheTotal     *prometheus.CounterVec
	storeLatency   *prometheus.HistogramVec
}

func NewNormalizerMetrics(reg prometheus.Registerer) *NormalizerMetrics {
	m := &NormalizerMetrics{
		normalizeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voice",
			Subsystem: "normalizer",
			Name:      "results_total",
			Help:      "Normalization outcomes by service, winning method and confidence",
		}, []string{"service", "method", "confidence"}),
		slotMatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voice",
			Subsystem: "slots",
			Name:      "match_total",
			Help:      "Slot match requests by retrieval phase and whether any slot was found",
		}, []string{"phase", "has_slots"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voice",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by cache name and result",
		}, []string{"cache", "result"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voice",
			Subsystem: "slots",
			Name:      "store_query_seconds",
			Help:      "Latency of slot store queries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.normalizeTotal, m.slotMatchTotal, m.cacheTotal, m.storeLatency)
	return m
}

func (m *NormalizerMetrics) ObserveNormalization(service, method, confidence string) {
	if m == nil {
		return
	}
	m.normalizeTotal.WithLabelValues(service, method, confidence).Inc()
}

func (m *NormalizerMetrics) ObserveSlotMatch(phase string, hasSlots bool) {
	if m == nil {
		return
	}
	m.slotMatchTotal.WithLabelValues(phase, strconv.FormatBool(hasSlots)).Inc()
}

func (m *NormalizerMetrics) ObserveCache(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheTotal.WithLabelValues(cache, result).Inc()
}

func (m *NormalizerMetrics) ObserveStoreQuery(store string, seconds float64, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.storeLatency.WithLabelValues(store, status).Observe(seconds)
}
