package timeparse

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/voice-normalizers/internal/assist"
	"github.com/wolfman30/voice-normalizers/internal/vocab"
	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

// partialStrategy reports standalone signals (day-part, urgency,
// flexibility, weekday) when no date could be derived. Its matches carry
// low confidence and no date.
type partialStrategy struct {
	vocab *vocab.Vocabulary
}

func (s partialStrategy) Name() string { return "partial_extraction" }

func (s partialStrategy) Attempt(_ context.Context, in Input) (Match, bool) {
	found := wordSet(in.Corrected)
	m := Match{
		Confidence: ConfidenceLow,
		Urgent:     containsAny(found, s.vocab.UrgencyWords),
		Flexible:   containsAny(found, s.vocab.FlexibilityWords),
		DayOfWeek:  mentionedWeekday(in.Corrected, s.vocab),
	}
	if containsAny(found, s.vocab.TimeOfDayWords) {
		m.TimeOfDay = deriveTimeOfDay(in.Corrected, nil)
	}
	if m.Urgent || m.Flexible || m.DayOfWeek != nil || m.TimeOfDay != "" {
		return m, true
	}
	return Match{}, false
}

func mentionedWeekday(text string, v *vocab.Vocabulary) *time.Weekday {
	for _, w := range words(text) {
		if len(w) < 4 {
			continue
		}
		if wd, ok := v.Weekday(w); ok {
			return &wd
		}
	}
	return nil
}

// DateSuggester is the optional model-backed resolver.
type DateSuggester interface {
	SuggestDate(ctx context.Context, text string, now time.Time) (assist.Suggestion, error)
}

// assistStrategy defers to a language model. Its answers are capped at
// medium confidence; failures are logged and treated as no answer.
type assistStrategy struct {
	suggester DateSuggester
	logger    *logging.Logger
}

func (s assistStrategy) Name() string { return "ai_assist" }

func (s assistStrategy) Attempt(ctx context.Context, in Input) (Match, bool) {
	sug, err := s.suggester.SuggestDate(ctx, in.Text, in.Now)
	if errors.Is(err, assist.ErrNoDate) {
		return Match{}, false
	}
	if err != nil {
		s.logger.WithContext(ctx).Warn("ai assist unavailable", "error", err)
		return Match{}, false
	}
	m := Match{
		Date:       midnight(sug.Date.In(in.Now.Location())),
		Clock:      extractClock(in.Text),
		Confidence: ConfidenceMedium,
	}
	if tod := TimeOfDay(sug.TimeOfDay); tod.valid() && tod != AnyTime {
		m.TimeOfDay = tod
	}
	return m, true
}
