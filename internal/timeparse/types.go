package timeparse

import (
	"context"
	"fmt"
	"time"
)

// Confidence grades how certain a parse is. Callers auto-accept high and
// medium and ask for confirmation otherwise.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// Rank orders confidences: high=3 ... none=0.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// TimeOfDay is the coarse day-part preference.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
	Midday    TimeOfDay = "midday"
	AnyTime   TimeOfDay = "any"
)

func (t TimeOfDay) valid() bool {
	switch t {
	case Morning, Afternoon, Evening, Night, Midday, AnyTime:
		return true
	}
	return false
}

// DateRange is an inclusive YYYY-MM-DD span.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Result is the normalized answer returned to callers.
type Result struct {
	Date               *string    `json:"date"`
	TimeOfDay          TimeOfDay  `json:"time_of_day"`
	Confidence         Confidence `json:"confidence"`
	Method             string     `json:"method"`
	Time               string     `json:"time,omitempty"`
	DateRange          *DateRange `json:"date_range,omitempty"`
	Flexible           bool       `json:"flexible"`
	Urgent             bool       `json:"urgent"`
	DayOfWeek          string     `json:"day_of_week,omitempty"`
	NeedsClarification bool       `json:"needs_clarification,omitempty"`
}

// Clock is an explicit wall-clock time mentioned by the caller.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Input is what every strategy sees. Now is already in the caller's location.
type Input struct {
	// Raw is the text exactly as received.
	Raw string
	// Lower is trimmed and lowercased.
	Lower string
	// Corrected has numbers, glued words and typos fixed but no synonyms applied.
	Corrected string
	// Text is fully preprocessed.
	Text string
	Now  time.Time
}

// Match is a strategy's raw finding before annotation.
type Match struct {
	// Date is midnight in the caller's location, or zero when no date was found.
	Date       time.Time
	RangeEnd   time.Time
	Clock      *Clock
	TimeOfDay  TimeOfDay
	Confidence Confidence
	DayOfWeek  *time.Weekday
	Flexible   bool
	Urgent     bool
}

// Strategy is one parsing attempt in the chain. Attempt reports false when
// the strategy has nothing to say about the input.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, in Input) (Match, bool)
}
