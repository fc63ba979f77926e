package timeparse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/voice-normalizers/internal/assist"
	"github.com/wolfman30/voice-normalizers/internal/cache"
	"github.com/wolfman30/voice-normalizers/internal/textnorm"
)

// Wednesday, 10:00 in New York.
func referenceNow(t *testing.T) time.Time {
	t.Helper()
	loc, err := LoadLocation("America/New_York")
	require.NoError(t, err)
	return time.Date(2025, 3, 12, 10, 0, 0, 0, loc)
}

func newTestNormalizer(t *testing.T, opts Options) *Normalizer {
	t.Helper()
	now := referenceNow(t)
	if opts.Now == nil {
		opts.Now = func() time.Time { return now }
	}
	return NewNormalizer(textnorm.New(nil), opts)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func TestNormalizeScenarios(t *testing.T) {
	n := newTestNormalizer(t, Options{})

	cases := []struct {
		in         string
		date       string
		tod        TimeOfDay
		confidence Confidence
		method     string
		clock      string
	}{
		{"tomorrow morning", "2025-03-13", Morning, ConfidenceHigh, "natural_language", ""},
		{"Tomorow mornin", "2025-03-13", Morning, ConfidenceHigh, "natural_language", ""},
		{"2025-03-14", "2025-03-14", AnyTime, ConfidenceHigh, "strict_format", ""},
		{"03/14/2025", "2025-03-14", AnyTime, ConfidenceHigh, "strict_format", ""},
		{"3/14/25 at 4pm", "2025-03-14", Afternoon, ConfidenceHigh, "strict_format", "16:00"},
		{"friday", "2025-03-14", AnyTime, ConfidenceMedium, "natural_language", ""},
		{"next friday", "2025-03-21", AnyTime, ConfidenceMedium, "natural_language", ""},
		{"this wednesday", "2025-03-12", AnyTime, ConfidenceMedium, "natural_language", ""},
		{"wednesday evening", "2025-03-19", Evening, ConfidenceMedium, "natural_language", ""},
		{"march fourteenth at three thirty", "2025-03-14", Afternoon, ConfidenceMedium, "natural_language", "15:30"},
		{"april 2nd, 2026", "2026-04-02", AnyTime, ConfidenceHigh, "natural_language", ""},
		{"january fifth", "2026-01-05", AnyTime, ConfidenceMedium, "natural_language", ""},
		{"end of day", "2025-03-12", Evening, ConfidenceMedium, "natural_language", "17:00"},
		{"noon tomorrow", "2025-03-13", Midday, ConfidenceHigh, "natural_language", "12:00"},
		{"at 9", "2025-03-13", Morning, ConfidenceMedium, "natural_language", "09:00"},
		{"tomorrow at 8pm", "2025-03-13", Afternoon, ConfidenceHigh, "natural_language", "20:00"},
		{"tomorrow at 12am", "2025-03-13", Morning, ConfidenceHigh, "natural_language", "00:00"},
		{"the one at 3pm", "2025-03-12", Afternoon, ConfidenceMedium, "natural_language", "15:00"},
		{"three weeks from now", "2025-04-02", AnyTime, ConfidenceHigh, "natural_language", ""},
		{"two days from today", "2025-03-14", AnyTime, ConfidenceHigh, "natural_language", ""},
		{"in a week", "2025-03-19", AnyTime, ConfidenceMedium, "natural_language", ""},
		{"in 3 days", "2025-03-15", AnyTime, ConfidenceHigh, "natural_language", ""},
		{"on the twentieth", "2025-03-20", AnyTime, ConfidenceMedium, "natural_language", ""},
		{"first available", "2025-03-12", AnyTime, ConfidenceHigh, "phrase_fallback", ""},
		{"morning appointment", "2025-03-12", Morning, ConfidenceMedium, "phrase_fallback", ""},
		{"this weekend", "2025-03-15", AnyTime, ConfidenceMedium, "phrase_fallback", ""},
		{"next month", "2025-04-01", AnyTime, ConfidenceMedium, "phrase_fallback", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			r, err := n.Normalize(context.Background(), tc.in, "America/New_York")
			require.NoError(t, err)
			assert.Equal(t, tc.date, deref(r.Date))
			assert.Equal(t, tc.tod, r.TimeOfDay)
			assert.Equal(t, tc.confidence, r.Confidence)
			assert.Equal(t, tc.method, r.Method)
			assert.Equal(t, tc.clock, r.Time)
		})
	}
}

func TestConcatenatedThisWeek(t *testing.T) {
	n := newTestNormalizer(t, Options{})

	r, err := n.Normalize(context.Background(), "anytimethisweek", "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-12", deref(r.Date))
	assert.Equal(t, ConfidenceHigh, r.Confidence)
	assert.Equal(t, "phrase_fallback", r.Method)
	require.NotNil(t, r.DateRange)
	assert.Equal(t, DateRange{Start: "2025-03-12", End: "2025-03-15"}, *r.DateRange)
	assert.True(t, r.Flexible)
}

func TestNextWeekIsFollowingSundayToSaturday(t *testing.T) {
	n := newTestNormalizer(t, Options{})

	r, err := n.Normalize(context.Background(), "any time next week", "")
	require.NoError(t, err)
	require.NotNil(t, r.DateRange)
	assert.Equal(t, DateRange{Start: "2025-03-16", End: "2025-03-22"}, *r.DateRange)
}

func TestWeekOfMonth(t *testing.T) {
	n := newTestNormalizer(t, Options{})

	cases := []struct {
		in    string
		start string
		end   string
	}{
		{"second week of april", "2025-04-08", "2025-04-14"},
		{"the last week of april", "2025-04-24", "2025-04-30"},
		{"second week of march", "2025-03-12", "2025-03-14"},
		{"first week of march", "2026-03-01", "2026-03-07"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			r, err := n.Normalize(context.Background(), tc.in, "America/New_York")
			require.NoError(t, err)
			assert.Equal(t, "natural_language", r.Method)
			assert.Equal(t, ConfidenceMedium, r.Confidence)
			require.NotNil(t, r.DateRange)
			assert.Equal(t, DateRange{Start: tc.start, End: tc.end}, *r.DateRange)
			assert.True(t, r.Flexible)
		})
	}
}

func TestSpokenCardinalIsNotDayOfMonth(t *testing.T) {
	n := newTestNormalizer(t, Options{})
	ctx := context.Background()

	r, err := n.Normalize(ctx, "the one at 3pm", "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-12", deref(r.Date))
	assert.Equal(t, "15:00", r.Time)

	r, err = n.Normalize(ctx, "on the first", "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01", deref(r.Date))
}

func TestUrgencyAndFlexibilityMarkers(t *testing.T) {
	n := newTestNormalizer(t, Options{})
	ctx := context.Background()

	r, err := n.Normalize(ctx, "ASAP", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-12", deref(r.Date))
	assert.True(t, r.Urgent)

	r, err = n.Normalize(ctx, "I'm flexible", "")
	require.NoError(t, err)
	assert.True(t, r.Flexible)
	require.NotNil(t, r.DateRange)
	assert.Equal(t, "2025-03-25", r.DateRange.End)

	r, err = n.Normalize(ctx, "first available", "")
	require.NoError(t, err)
	assert.True(t, r.Urgent)
	assert.Equal(t, "2025-03-18", r.DateRange.End)
}

func TestPartialExtraction(t *testing.T) {
	n := newTestNormalizer(t, Options{})

	r, err := n.Normalize(context.Background(), "sometime in the afternoon", "")
	require.NoError(t, err)
	assert.Nil(t, r.Date)
	assert.Equal(t, ConfidenceLow, r.Confidence)
	assert.Equal(t, Afternoon, r.TimeOfDay)
	assert.Equal(t, "partial_extraction", r.Method)
	assert.False(t, r.NeedsClarification)
}

func TestUnparseableNeedsClarification(t *testing.T) {
	n := newTestNormalizer(t, Options{})

	for _, in := range []string{"banana", "", "march 5 2020", "12/25/2031", "february 30"} {
		r, err := n.Normalize(context.Background(), in, "")
		require.NoError(t, err, in)
		assert.Nil(t, r.Date, in)
		assert.Equal(t, ConfidenceNone, r.Confidence, in)
		assert.Equal(t, AnyTime, r.TimeOfDay, in)
		assert.True(t, r.NeedsClarification, in)
	}
}

func TestNormalizeUsesCallerTimezone(t *testing.T) {
	now := time.Date(2025, 3, 12, 20, 0, 0, 0, time.UTC)
	n := newTestNormalizer(t, Options{Now: func() time.Time { return now }})

	ny, err := n.Normalize(context.Background(), "tomorrow", "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-13", deref(ny.Date))

	akl, err := n.Normalize(context.Background(), "tomorrow", "Pacific/Auckland")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", deref(akl.Date))
}

func TestInvalidTimezone(t *testing.T) {
	n := newTestNormalizer(t, Options{})
	_, err := n.Normalize(context.Background(), "tomorrow", "Mars/Olympus_Mons")
	assert.ErrorIs(t, err, ErrInvalidTimezone)
}

func TestStrictFormatsRoundTrip(t *testing.T) {
	n := newTestNormalizer(t, Options{})
	start := referenceNow(t)

	for i := 0; i < 400; i += 7 {
		d := start.AddDate(0, 0, i)
		for _, layout := range []string{"01/02/2006", "2006-01-02"} {
			r, err := n.Normalize(context.Background(), d.Format(layout), "America/New_York")
			require.NoError(t, err)
			require.Equal(t, d.Format("2006-01-02"), deref(r.Date), layout)
			assert.Equal(t, ConfidenceHigh, r.Confidence)

			again, err := n.Normalize(context.Background(), deref(r.Date), "America/New_York")
			require.NoError(t, err)
			assert.Equal(t, r.Date, again.Date)
		}
	}
}

type stubSuggester struct {
	sug assist.Suggestion
	err error
}

func (s stubSuggester) SuggestDate(context.Context, string, time.Time) (assist.Suggestion, error) {
	return s.sug, s.err
}

func TestAssistStrategy(t *testing.T) {
	loc, _ := LoadLocation("America/New_York")
	n := newTestNormalizer(t, Options{Assistant: stubSuggester{sug: assist.Suggestion{
		Date:      time.Date(2025, 3, 15, 0, 0, 0, 0, loc),
		TimeOfDay: "evening",
	}}})
	assert.Equal(t, []string{"strict_format", "natural_language", "phrase_fallback", "ai_assist", "partial_extraction"}, n.Strategies())

	r, err := n.Normalize(context.Background(), "the ides of march", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-15", deref(r.Date))
	assert.Equal(t, ConfidenceMedium, r.Confidence)
	assert.Equal(t, Evening, r.TimeOfDay)
	assert.Equal(t, "ai_assist", r.Method)

	// Earlier strategies still win.
	r, err = n.Normalize(context.Background(), "tomorrow", "")
	require.NoError(t, err)
	assert.Equal(t, "natural_language", r.Method)
}

func TestAssistFailureFallsThrough(t *testing.T) {
	n := newTestNormalizer(t, Options{Assistant: stubSuggester{err: errors.New("timeout")}})

	r, err := n.Normalize(context.Background(), "the ides of march", "")
	require.NoError(t, err)
	assert.Equal(t, ConfidenceNone, r.Confidence)
}

func TestAssistOutOfBoundsRejected(t *testing.T) {
	loc, _ := LoadLocation("America/New_York")
	n := newTestNormalizer(t, Options{Assistant: stubSuggester{sug: assist.Suggestion{
		Date: time.Date(2031, 1, 1, 0, 0, 0, 0, loc),
	}}})

	r, err := n.Normalize(context.Background(), "the ides of march", "")
	require.NoError(t, err)
	assert.Equal(t, ConfidenceNone, r.Confidence)
}

type countingStrategy struct {
	calls *int
}

func (countingStrategy) Name() string { return "counting" }

func (s countingStrategy) Attempt(_ context.Context, in Input) (Match, bool) {
	*s.calls++
	return Match{Date: midnight(in.Now), Confidence: ConfidenceHigh}, true
}

func TestCustomStrategies(t *testing.T) {
	calls := 0
	n := newTestNormalizer(t, Options{Strategies: []Strategy{countingStrategy{calls: &calls}}})

	r, err := n.Normalize(context.Background(), "whatever", "")
	require.NoError(t, err)
	assert.Equal(t, "counting", r.Method)
	assert.Equal(t, 1, calls)
}

func TestCachedNormalizer(t *testing.T) {
	calls := 0
	n := newTestNormalizer(t, Options{Strategies: []Strategy{countingStrategy{calls: &calls}}})
	c := NewCachedNormalizer(n, cache.NewMemoryCache(10, time.Minute), time.Minute, nil)
	ctx := context.Background()

	first, err := c.Normalize(ctx, "Tomorrow", "America/New_York")
	require.NoError(t, err)
	second, err := c.Normalize(ctx, "  tomorrow ", "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	_, err = c.Normalize(ctx, "tomorrow", "America/Chicago")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	_, err = c.Normalize(ctx, "tomorrow", "Nowhere/Invalid")
	assert.ErrorIs(t, err, ErrInvalidTimezone)
}

func TestDeriveTimeOfDay(t *testing.T) {
	cases := []struct {
		text  string
		clock *Clock
		want  TimeOfDay
	}{
		{"lunch tomorrow", nil, Midday},
		{"midnight", nil, Night},
		{"tonight", nil, Evening},
		{"friday morning", &Clock{Hour: 15}, Morning},
		{"friday", &Clock{Hour: 15}, Afternoon},
		{"friday", &Clock{Hour: 19}, Evening},
		{"friday", &Clock{Hour: 2}, AnyTime},
		{"tomorrow at 8pm", &Clock{Hour: 20}, Afternoon},
		{"tomorrow at 12am", &Clock{Hour: 0}, Morning},
		{"friday 6 p.m.", &Clock{Hour: 18}, Afternoon},
		{"friday 6pm evening", &Clock{Hour: 18}, Evening},
		{"in the am", nil, Morning},
		{"sometime in the pm", nil, Afternoon},
		{"i am free", nil, AnyTime},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, deriveTimeOfDay(tc.text, tc.clock), tc.text)
	}
}

func TestExtractClock(t *testing.T) {
	cases := map[string]*Clock{
		"3pm":            {Hour: 15},
		"3:30 p.m.":      {Hour: 15, Minute: 30},
		"12:00am":        {Hour: 0},
		"12 pm":          {Hour: 12},
		"14:45":          {Hour: 14, Minute: 45},
		"at 4":           {Hour: 16},
		"around 10 30":   {Hour: 10, Minute: 30},
		"by 2025":        nil,
		"nothing here":   nil,
		"room 3 amazing": nil,
	}
	for in, want := range cases {
		assert.Equal(t, want, extractClock(in), in)
	}
}
