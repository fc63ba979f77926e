package slots

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/voice-normalizers/internal/observability/metrics"
	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

var tracer = otel.Tracer("voicenorm.internal.slots")

const (
	DefaultLimit    = 5
	DefaultPageSize = 20

	PhaseSpecific = "specific"
	PhaseFallback = "fallback"
	PhaseNone     = "none"
)

// MatcherOptions configures a Matcher. Zero values take defaults.
type MatcherOptions struct {
	Collection string
	PageSize   int
	Limit      int
	Logger     *logging.Logger
	Metrics    *metrics.NormalizerMetrics
	Now        func() time.Time
}

// Matcher retrieves candidate slots and ranks them. It does not retry; wrap
// the store in a RetryingStore for that.
type Matcher struct {
	store      Store
	collection string
	pageSize   int
	limit      int
	logger     *logging.Logger
	metrics    *metrics.NormalizerMetrics
	now        func() time.Time
}

func NewMatcher(store Store, opts MatcherOptions) *Matcher {
	if store == nil {
		panic("slots: store cannot be nil")
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Matcher{
		store:      store,
		collection: opts.Collection,
		pageSize:   opts.PageSize,
		limit:      opts.Limit,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		now:        opts.Now,
	}
}

// Request is one matching call. Limit <= 0 uses the matcher default.
type Request struct {
	State       string
	StateAbbr   string
	Preferences Preferences
	Limit       int
}

// Result carries the ranked slots plus everything retrieved, for summaries.
type Result struct {
	Slots      []ScoredSlot
	Candidates []Slot
	// Phase is specific, fallback or none.
	Phase string
	// StateValue is the state variant that produced the candidates.
	StateValue string
}

// HasSlots reports whether any slot matched.
func (r Result) HasSlots() bool {
	return len(r.Slots) > 0
}

// FindBestSlots queries the exact preferred date first and, when that is
// empty, the next available slots from today on. Each phase tries the state
// variants in order until one returns records. Zero matches is not an error.
func (m *Matcher) FindBestSlots(ctx context.Context, req Request) (Result, error) {
	ctx, span := tracer.Start(ctx, "slots.FindBestSlots")
	defer span.End()
	span.SetAttributes(
		attribute.String("voicenorm.state", req.State),
		attribute.String("voicenorm.preferred_date", req.Preferences.Date),
	)

	limit := req.Limit
	if limit <= 0 {
		limit = m.limit
	}
	variants := StateVariants(req.State, req.StateAbbr)
	log := m.logger.WithContext(ctx)

	res, err := m.retrieve(ctx, variants, req.Preferences)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "slot retrieval failed")
		return Result{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	res.Slots = Rank(res.Candidates, req.Preferences, limit)

	span.SetAttributes(
		attribute.String("voicenorm.slots.phase", res.Phase),
		attribute.Int("voicenorm.slots.candidates", len(res.Candidates)),
	)
	m.metrics.ObserveSlotMatch(res.Phase, res.HasSlots())
	log.Info("slots matched",
		"phase", res.Phase,
		"state_value", res.StateValue,
		"candidates", len(res.Candidates),
		"returned", len(res.Slots),
	)
	return res, nil
}

func (m *Matcher) retrieve(ctx context.Context, variants []string, prefs Preferences) (Result, error) {
	if date, ok := parseDate(prefs.Date); ok {
		day := date.Format(dateLayout)
		for _, v := range variants {
			found, err := m.store.Query(ctx, m.collection, []Filter{
				{Field: FieldAvailable, Op: OpEq, Value: true},
				{Field: FieldState, Op: OpEq, Value: v},
				{Field: FieldDate, Op: OpEq, Value: day},
			}, nil, 0)
			if err != nil {
				return Result{}, err
			}
			if len(found) > 0 {
				return Result{Candidates: found, Phase: PhaseSpecific, StateValue: v}, nil
			}
		}
	}

	today := m.now().In(loadLocation(prefs.Timezone)).Format(dateLayout)
	for _, v := range variants {
		found, err := m.store.Query(ctx, m.collection, []Filter{
			{Field: FieldAvailable, Op: OpEq, Value: true},
			{Field: FieldState, Op: OpEq, Value: v},
			{Field: FieldDate, Op: OpGte, Value: today},
		}, &OrderBy{Field: FieldDate}, m.pageSize)
		if err != nil {
			return Result{}, err
		}
		if len(found) > 0 {
			return Result{Candidates: found, Phase: PhaseFallback, StateValue: v}, nil
		}
	}
	return Result{Candidates: []Slot{}, Phase: PhaseNone}, nil
}
