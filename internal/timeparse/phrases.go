package timeparse

import (
	"context"
	"regexp"
	"strings"
	"time"
)

type phraseKind int

const (
	phraseThisWeek phraseKind = iota
	phraseNextWeek
	phraseWhenever
	phraseSoonest
)

// exactPhrases must match the whole utterance (punctuation ignored).
var exactPhrases = map[string]phraseKind{
	"any time this week":          phraseThisWeek,
	"anytime this week":           phraseThisWeek,
	"sometime this week":          phraseThisWeek,
	"any day this week":           phraseThisWeek,
	"any time next week":          phraseNextWeek,
	"anytime next week":           phraseNextWeek,
	"sometime next week":          phraseNextWeek,
	"any day next week":           phraseNextWeek,
	"whenever":                    phraseWhenever,
	"whenever works":              phraseWhenever,
	"whenever is fine":            phraseWhenever,
	"any time":                    phraseWhenever,
	"anytime":                     phraseWhenever,
	"any day":                     phraseWhenever,
	"im flexible":                 phraseWhenever,
	"asap":                        phraseSoonest,
	"as soon as possible":         phraseSoonest,
	"next available":              phraseSoonest,
	"first available":             phraseSoonest,
	"earliest available":          phraseSoonest,
	"soonest available":           phraseSoonest,
	"next available appointment":  phraseSoonest,
	"first available appointment": phraseSoonest,
}

var (
	dayPartAppointmentRE = regexp.MustCompile(`\b(morning|afternoon|evening)s? (?:appointment|slot|time)s?\b`)
	weekPhraseRE         = regexp.MustCompile(`\b(this|next) week\b`)
	monthPhraseRE        = regexp.MustCompile(`\b(this|next) month\b`)
	weekendPhraseRE      = regexp.MustCompile(`\b(this |next )?weekend\b`)
	phraseKeyRE          = regexp.MustCompile(`[^a-z0-9 ]+`)
)

// whenever-style answers cover the next two weeks.
const flexibleWindowDays = 13

// phraseStrategy handles scheduling idioms: week and month windows,
// "whenever", "first available" and "<day-part> appointment".
type phraseStrategy struct{}

func (phraseStrategy) Name() string { return "phrase_fallback" }

func (phraseStrategy) Attempt(_ context.Context, in Input) (Match, bool) {
	today := midnight(in.Now)
	for _, candidate := range []string{in.Text, in.Corrected, in.Lower} {
		if kind, ok := exactPhrases[phraseKey(candidate)]; ok {
			m := phraseWindow(kind, today)
			m.Confidence = ConfidenceHigh
			return m, true
		}
	}

	text := in.Text
	if m := weekPhraseRE.FindStringSubmatch(text); m != nil {
		kind := phraseThisWeek
		if m[1] == "next" {
			kind = phraseNextWeek
		}
		match := phraseWindow(kind, today)
		match.Confidence = ConfidenceMedium
		return match, true
	}
	if m := weekendPhraseRE.FindStringSubmatch(text); m != nil {
		sat := weekEnd(today)
		if today.Weekday() == time.Sunday {
			sat = addDays(today, -1)
		}
		if m[1] == "next " {
			sat = addDays(sat, 7)
		}
		start := sat
		if start.Before(today) {
			start = today
		}
		return Match{Date: start, RangeEnd: addDays(sat, 1), Confidence: ConfidenceMedium, Flexible: true}, true
	}
	if m := monthPhraseRE.FindStringSubmatch(text); m != nil {
		start := today
		if m[1] == "next" {
			start = time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, today.Location())
		}
		return Match{Date: start, RangeEnd: monthEnd(start), Confidence: ConfidenceMedium, Flexible: true}, true
	}
	if m := dayPartAppointmentRE.FindStringSubmatch(text); m != nil {
		part := TimeOfDay(m[1])
		d := today
		if in.Now.Hour() >= dayPartEnds[part] {
			d = addDays(today, 1)
		}
		return Match{Date: d, TimeOfDay: part, Confidence: ConfidenceMedium}, true
	}
	return Match{}, false
}

// dayPartEnds is the hour after which a day-part is over for today.
var dayPartEnds = map[TimeOfDay]int{
	Morning:   12,
	Afternoon: 17,
	Evening:   21,
}

// phraseWindow resolves a phrase to its date range. "This week" runs from
// today to Saturday; "next week" is the following Sunday to Saturday.
func phraseWindow(kind phraseKind, today time.Time) Match {
	switch kind {
	case phraseThisWeek:
		return Match{Date: today, RangeEnd: weekEnd(today), Flexible: true}
	case phraseNextWeek:
		start := nextWeekStart(today)
		return Match{Date: start, RangeEnd: addDays(start, 6), Flexible: true}
	case phraseSoonest:
		return Match{Date: today, RangeEnd: addDays(today, 6), Urgent: true}
	default:
		return Match{Date: today, RangeEnd: addDays(today, flexibleWindowDays), Flexible: true}
	}
}

func phraseKey(s string) string {
	s = phraseKeyRE.ReplaceAllString(strings.ToLower(s), "")
	return strings.Join(strings.Fields(s), " ")
}
