// Package timeparse turns a spoken appointment preference ("tomorrow
// morning", "anytimethisweek", "march fourteenth at 3") into a calendar date,
// a day-part and a confidence grade. Parsing is an ordered chain of
// strategies; the first one with an answer inside the date bounds wins.
package timeparse

import (
	"context"
	"strings"
	"time"

	"github.com/wolfman30/voice-normalizers/internal/textnorm"
	"github.com/wolfman30/voice-normalizers/internal/vocab"
	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

// Candidate dates outside [today-1y, today+2y] are treated as misparses.
const (
	maxYearsAhead = 2
	maxYearsBack  = 1
)

// Options configures a Normalizer. Zero values are fine.
type Options struct {
	// Assistant enables the ai_assist strategy when non-nil.
	Assistant DateSuggester
	// Strategies replaces the default chain entirely.
	Strategies []Strategy
	Logger     *logging.Logger
	Now        func() time.Time
}

// Normalizer runs the strategy chain. It holds no per-request state and is
// safe for concurrent use.
type Normalizer struct {
	pre        *textnorm.Preprocessor
	vocab      *vocab.Vocabulary
	strategies []Strategy
	logger     *logging.Logger
	now        func() time.Time
}

func NewNormalizer(pre *textnorm.Preprocessor, opts Options) *Normalizer {
	if pre == nil {
		pre = textnorm.New(nil)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	strategies := opts.Strategies
	if strategies == nil {
		strategies = DefaultStrategies(pre.Vocabulary(), opts.Assistant, opts.Logger)
	}
	return &Normalizer{
		pre:        pre,
		vocab:      pre.Vocabulary(),
		strategies: strategies,
		logger:     opts.Logger,
		now:        opts.Now,
	}
}

// DefaultStrategies is the standard chain: strict_format, natural_language,
// phrase_fallback, ai_assist (only with a suggester), partial_extraction.
func DefaultStrategies(v *vocab.Vocabulary, suggester DateSuggester, logger *logging.Logger) []Strategy {
	if logger == nil {
		logger = logging.Default()
	}
	chain := []Strategy{
		strictStrategy{},
		newNaturalStrategy(v),
		phraseStrategy{},
	}
	if suggester != nil {
		chain = append(chain, assistStrategy{suggester: suggester, logger: logger})
	}
	return append(chain, partialStrategy{vocab: v})
}

// Strategies lists the chain in evaluation order.
func (n *Normalizer) Strategies() []string {
	names := make([]string, len(n.strategies))
	for i, s := range n.strategies {
		names[i] = s.Name()
	}
	return names
}

// Normalize parses text relative to the current time in timezone. The only
// error is ErrInvalidTimezone; unparseable text yields confidence none.
func (n *Normalizer) Normalize(ctx context.Context, text, timezone string) (Result, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return Result{}, err
	}
	now := n.now().In(loc)
	stages := n.pre.Run(text)
	in := Input{
		Raw:       text,
		Lower:     stages.Lower,
		Corrected: stages.Corrected,
		Text:      stages.Text,
		Now:       now,
	}
	log := n.logger.WithContext(ctx)

	for _, s := range n.strategies {
		m, ok := s.Attempt(ctx, in)
		if !ok {
			continue
		}
		if !n.acceptable(m, now) {
			log.Debug("strategy result rejected", "strategy", s.Name(), "date", m.Date.Format(dateLayout))
			continue
		}
		r := n.annotate(in, s.Name(), m)
		log.Debug("time normalized", "strategy", s.Name(), "confidence", r.Confidence, "text", stages.Text)
		return r, nil
	}

	log.Debug("time not normalized", "text", stages.Text)
	return Result{
		TimeOfDay:          AnyTime,
		Confidence:         ConfidenceNone,
		Method:             "none",
		NeedsClarification: true,
	}, nil
}

// acceptable enforces the confidence/date pairing and the date bounds.
func (n *Normalizer) acceptable(m Match, now time.Time) bool {
	switch m.Confidence {
	case ConfidenceHigh, ConfidenceMedium:
		if m.Date.IsZero() {
			return false
		}
	case ConfidenceLow:
		return m.Date.IsZero()
	default:
		return false
	}
	today := midnight(now)
	earliest := today.AddDate(-maxYearsBack, 0, 0)
	latest := today.AddDate(maxYearsAhead, 0, 0)
	return !m.Date.Before(earliest) && !m.Date.After(latest)
}

func (n *Normalizer) annotate(in Input, method string, m Match) Result {
	r := Result{Method: method, Confidence: m.Confidence, TimeOfDay: m.TimeOfDay}
	if !m.Date.IsZero() {
		d := m.Date.Format(dateLayout)
		r.Date = &d
		if !m.RangeEnd.IsZero() {
			r.DateRange = &DateRange{Start: d, End: m.RangeEnd.Format(dateLayout)}
		}
	}
	if m.Clock != nil {
		r.Time = m.Clock.String()
	}
	if r.TimeOfDay == "" {
		r.TimeOfDay = deriveTimeOfDay(in.Corrected, m.Clock)
	}

	found := wordSet(in.Corrected)
	r.Urgent = m.Urgent || containsAny(found, n.vocab.UrgencyWords)
	r.Flexible = m.Flexible || containsAny(found, n.vocab.FlexibilityWords)

	wd := m.DayOfWeek
	if wd == nil {
		wd = mentionedWeekday(in.Corrected, n.vocab)
	}
	if wd != nil {
		r.DayOfWeek = strings.ToLower(wd.String())
	}
	return r
}
