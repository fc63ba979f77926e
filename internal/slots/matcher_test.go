package slots

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/voice-normalizers/internal/observability/metrics"
)

// 06:00 in New York on Wednesday 2025-03-12.
var refNow = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

type recordingStore struct {
	mu    sync.Mutex
	inner Store
	calls []recordedQuery
	err   error
}

type recordedQuery struct {
	filters []Filter
	orderBy *OrderBy
	limit   int
}

func (r *recordingStore) Query(ctx context.Context, collection string, filters []Filter, orderBy *OrderBy, limit int) ([]Slot, error) {
	r.mu.Lock()
	r.calls = append(r.calls, recordedQuery{filters: filters, orderBy: orderBy, limit: limit})
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.inner.Query(ctx, collection, filters, orderBy, limit)
}

func seededStore() *MemoryStore {
	m := NewMemoryStore()
	m.Put(DefaultCollection,
		Slot{Date: "2025-03-11", Time: "9:00 AM - 9:15 AM", State: "NY", Provider: "Dr. Past", AppointmentID: "past", Available: true},
		Slot{Date: "2025-03-14", Time: "2:45 PM - 3:00 PM", State: "NY", Provider: "Dr. Lee", ProviderID: "p1", AppointmentID: "fri-245", Available: true},
		Slot{Date: "2025-03-14", Time: "2:00 PM - 2:15 PM", State: "NY", Provider: "Dr. Lee", ProviderID: "p1", AppointmentID: "fri-200", Available: true},
		Slot{Date: "2025-03-14", Time: "4:00 PM - 4:15 PM", State: "NY", Provider: "Dr. Lee", ProviderID: "p1", AppointmentID: "fri-taken", Available: false},
		Slot{Date: "2025-03-17", Time: "10:00 AM - 10:15 AM", State: "NY", Provider: "Dr. Kim", ProviderID: "p2", AppointmentID: "mon-1000", Available: true},
		Slot{Date: "2025-03-13", Time: "11:00 AM - 11:15 AM", State: "NEW JERSEY", Provider: "Dr. Ortiz", ProviderID: "p3", AppointmentID: "nj-thu", Available: true},
	)
	return m
}

func newTestMatcher(store Store, m *metrics.NormalizerMetrics) *Matcher {
	return NewMatcher(store, MatcherOptions{Metrics: m, Now: func() time.Time { return refNow }})
}

func TestFindBestSlotsSpecificDate(t *testing.T) {
	store := &recordingStore{inner: seededStore()}
	res, err := newTestMatcher(store, nil).FindBestSlots(context.Background(), Request{
		State:       "New York",
		StateAbbr:   "NY",
		Preferences: Preferences{Date: "2025-03-14", Time: "14:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, PhaseSpecific, res.Phase)
	assert.Equal(t, "NY", res.StateValue)
	require.Len(t, res.Slots, 2)
	assert.Equal(t, "fri-200", res.Slots[0].AppointmentID)
	assert.Equal(t, "fri-245", res.Slots[1].AppointmentID)
	require.Len(t, store.calls, 1)
	assert.Nil(t, store.calls[0].orderBy)
}

func TestFindBestSlotsFallsBackToUpcoming(t *testing.T) {
	store := &recordingStore{inner: seededStore()}
	res, err := newTestMatcher(store, nil).FindBestSlots(context.Background(), Request{
		State:       "NY",
		Preferences: Preferences{Date: "2025-03-15"},
	})
	require.NoError(t, err)
	assert.Equal(t, PhaseFallback, res.Phase)
	assert.Equal(t, []string{"fri-245", "fri-200", "mon-1000"}, func() []string {
		out := make([]string, len(res.Candidates))
		for i, s := range res.Candidates {
			out[i] = s.AppointmentID
		}
		return out
	}())

	last := store.calls[len(store.calls)-1]
	assert.Equal(t, DefaultPageSize, last.limit)
	require.NotNil(t, last.orderBy)
	assert.Equal(t, FieldDate, last.orderBy.Field)
	assert.Contains(t, last.filters, Filter{Field: FieldDate, Op: OpGte, Value: "2025-03-12"})
}

func TestFindBestSlotsTriesStateVariants(t *testing.T) {
	res, err := newTestMatcher(seededStore(), nil).FindBestSlots(context.Background(), Request{State: "New Jersey"})
	require.NoError(t, err)
	assert.Equal(t, "NEW JERSEY", res.StateValue)
	require.Len(t, res.Slots, 1)
	assert.Equal(t, "nj-thu", res.Slots[0].AppointmentID)
}

func TestFindBestSlotsNoSlots(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewNormalizerMetrics(reg)
	res, err := newTestMatcher(seededStore(), m).FindBestSlots(context.Background(), Request{State: "Texas"})
	require.NoError(t, err)
	assert.False(t, res.HasSlots())
	assert.Equal(t, PhaseNone, res.Phase)
	assert.NotNil(t, res.Slots)
	assert.Empty(t, res.Slots)

	resp := BuildResponse(res, "Texas")
	assert.False(t, resp.HasSlots)
	assert.NotNil(t, resp.BestSlots)
	assert.Empty(t, resp.BestSlots)
	assert.Equal(t, "I couldn't find any available appointments in Texas.", resp.Message)
}

func TestFindBestSlotsRespectsLimit(t *testing.T) {
	res, err := newTestMatcher(seededStore(), nil).FindBestSlots(context.Background(), Request{State: "NY", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, res.Slots, 2)
	assert.Len(t, res.Candidates, 3)
}

func TestFindBestSlotsStoreFailure(t *testing.T) {
	boom := errors.New("connection refused")
	store := &recordingStore{inner: seededStore(), err: boom}
	_, err := newTestMatcher(store, nil).FindBestSlots(context.Background(), Request{State: "NY"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, store.calls, 1, "the matcher itself never retries")
}

func TestStateVariants(t *testing.T) {
	assert.Equal(t, []string{"NY", "New York", "NEW YORK"}, StateVariants("New York", "NY"))
	assert.Equal(t, []string{"TX", "Texas", "tx"}, StateVariants("tx", ""))
	assert.Equal(t, []string{"Atlantis", "ATLANTIS"}, StateVariants("Atlantis", ""))
	assert.Empty(t, StateVariants("", ""))

	code, ok := CanonicalState("  district of   columbia ")
	require.True(t, ok)
	assert.Equal(t, "DC", code)
	_, ok = CanonicalState("XX")
	assert.False(t, ok)
}

func TestBuildResponse(t *testing.T) {
	res, err := newTestMatcher(seededStore(), nil).FindBestSlots(context.Background(), Request{
		State:       "NY",
		Preferences: Preferences{Date: "2025-03-14", Time: "14:00"},
	})
	require.NoError(t, err)

	resp := BuildResponse(res, "NY")
	assert.True(t, resp.Success)
	assert.True(t, resp.HasSlots)
	assert.Equal(t, 2, resp.TotalMatches)
	require.Len(t, resp.BestSlots, 2)

	best := resp.BestSlots[0]
	assert.Equal(t, 1, best.Rank)
	assert.Equal(t, "Friday, March 14 at 2:00 PM", best.FormattedDatetime)
	assert.Equal(t, "Friday", best.DayOfWeek)
	assert.Equal(t, "fri-200", best.SlotID)
	assert.InDelta(t, 180.0, best.Score, 1e-9)

	assert.Equal(t, "I found 2 available appointments. The best match is Friday, March 14 at 2:00 PM.", resp.Message)
	assert.Equal(t, "2025-03-14", resp.ExtractionVariables["best_slot_date"])
	assert.Equal(t, "2:00 PM - 2:15 PM", resp.ExtractionVariables["best_slot_time"])
	assert.Equal(t, 2, resp.ExtractionVariables["slot_count"])
	assert.Equal(t, "2025-03-14", resp.ExtractionVariables["available_dates"])

	require.Len(t, resp.SummarySlots, 1, "both Friday slots are afternoon")
	assert.Equal(t, "fri-200", resp.SummarySlots[0].SlotID)
}

func TestSlotIDIsStableWithoutAppointmentID(t *testing.T) {
	s := Slot{Date: "2025-03-14", Time: "9:00 AM", ProviderID: "p1"}
	assert.Equal(t, SlotID(s), SlotID(s))
	assert.NotEqual(t, SlotID(s), SlotID(Slot{Date: "2025-03-14", Time: "9:15 AM", ProviderID: "p1"}))
	assert.Len(t, SlotID(s), 36)
}
