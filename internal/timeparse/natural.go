package timeparse

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/wolfman30/voice-normalizers/internal/vocab"
)

var (
	dayAfterTomorrowRE = regexp.MustCompile(`\bday after tomorrow\b`)
	inDaysRE           = regexp.MustCompile(`\bin (\d{1,2}) (day|days|week|weeks)\b`)
	fromNowRE          = regexp.MustCompile(`\b(\d{1,2}) (day|days|week|weeks) from (?:now|today)\b`)
	dayOnlyRE          = regexp.MustCompile(`\b(?:on )?the (\d{1,2})(?:st|nd|rd|th)?\b( available)?`)
	monthSlashDayRE    = regexp.MustCompile(`(?:^|[^/\d])(\d{1,2})/(\d{1,2})(?:$|[^/\d])`)
	todayWordsRE       = regexp.MustCompile(`\b(today|tonight|this (?:morning|afternoon|evening))\b`)
)

// naturalStrategy is a permissive reader for everyday date phrasing:
// month names with days, relative days, weekdays, weeks of a month,
// day-of-month and bare clock times. Anything the local rules miss is handed
// to the when parser. Ambiguous dates resolve forward.
type naturalStrategy struct {
	monthDayRE    *regexp.Regexp
	dayMonthRE    *regexp.Regexp
	weekdayRE     *regexp.Regexp
	weekOfMonthRE *regexp.Regexp
	monthRE       *regexp.Regexp
	vocab         *vocab.Vocabulary
	parser        *when.Parser
}

func newNaturalStrategy(v *vocab.Vocabulary) *naturalStrategy {
	months := alternation(keys(v.Months, 3))
	weekdays := alternation(keys(v.Weekdays, 4))

	parser := when.New(nil)
	parser.Add(en.All...)
	parser.Add(common.All...)

	return &naturalStrategy{
		monthDayRE:    regexp.MustCompile(`\b(` + months + `)\.?,?\s+(?:the\s+)?(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4})\b)?`),
		dayMonthRE:    regexp.MustCompile(`\b(?:the\s+)?(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + months + `)\b\.?(?:,?\s+(\d{4})\b)?`),
		weekdayRE:     regexp.MustCompile(`\b(?:(this|next|coming)\s+)?(` + weekdays + `)\b`),
		weekOfMonthRE: regexp.MustCompile(`\b([1-5]|last) week (?:of|in) (` + months + `)\b`),
		monthRE:       regexp.MustCompile(`\b(?:` + months + `)\b`),
		vocab:         v,
		parser:        parser,
	}
}

func (s *naturalStrategy) Name() string { return "natural_language" }

func (s *naturalStrategy) Attempt(ctx context.Context, in Input) (Match, bool) {
	text := in.Text
	today := midnight(in.Now)
	clock := extractClock(text)

	if start, end, ok := s.weekOfMonth(text, today); ok {
		return Match{Date: start, RangeEnd: end, Clock: clock, Confidence: ConfidenceMedium, Flexible: true}, true
	}
	if d, explicitYear, ok := s.monthAndDay(text, today); ok {
		conf := ConfidenceMedium
		if explicitYear {
			conf = ConfidenceHigh
		}
		return Match{Date: d, Clock: clock, Confidence: conf, DayOfWeek: s.mentionedWeekday(text)}, true
	}
	if d, ok := relativeDay(text, today); ok {
		return Match{Date: d, Clock: clock, Confidence: ConfidenceHigh}, true
	}
	if d, wd, ok := s.weekday(text, today); ok {
		return Match{Date: d, Clock: clock, Confidence: ConfidenceMedium, DayOfWeek: &wd}, true
	}
	if m := dayOnlyRE.FindStringSubmatch(text); m != nil && m[2] == "" && !s.cardinalAfterThe(in.Lower) {
		// "the first available" is a phrase, not the 1st of the month, and
		// "the one at 3pm" picks a slot, not a day.
		day, _ := strconv.Atoi(m[1])
		if d, ok := nextDayOfMonth(day, today); ok {
			return Match{Date: d, Clock: clock, Confidence: ConfidenceMedium}, true
		}
	}
	if d, ok := s.fallback(ctx, in, today); ok {
		return Match{Date: d, Clock: clock, Confidence: ConfidenceMedium}, true
	}
	if clock != nil {
		d := today
		at := time.Date(today.Year(), today.Month(), today.Day(), clock.Hour, clock.Minute, 0, 0, today.Location())
		if !at.After(in.Now.Truncate(time.Minute)) {
			d = addDays(today, 1)
		}
		return Match{Date: d, Clock: clock, Confidence: ConfidenceMedium}, true
	}
	return Match{}, false
}

// monthAndDay reads "march 14", "march 14th, 2026", "the 11 of nov 2000" or "3/14".
func (s *naturalStrategy) monthAndDay(text string, today time.Time) (time.Time, bool, bool) {
	var monthWord, dayStr, yearStr string
	if m := s.monthDayRE.FindStringSubmatch(text); m != nil {
		monthWord, dayStr, yearStr = m[1], m[2], m[3]
	} else if m := s.dayMonthRE.FindStringSubmatch(text); m != nil {
		dayStr, monthWord, yearStr = m[1], m[2], m[3]
	}

	var month time.Month
	if monthWord != "" {
		mo, ok := s.vocab.Month(monthWord)
		if !ok {
			return time.Time{}, false, false
		}
		month = mo
	} else if m := monthSlashDayRE.FindStringSubmatch(text); m != nil {
		mo, _ := strconv.Atoi(m[1])
		month, dayStr = time.Month(mo), m[2]
	} else {
		return time.Time{}, false, false
	}

	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, false, false
	}
	if yearStr != "" {
		year, _ := strconv.Atoi(yearStr)
		d, ok := makeDate(year, month, day, today.Location())
		return d, true, ok
	}
	d, ok := forwardDate(month, day, today)
	return d, false, ok
}

func relativeDay(text string, today time.Time) (time.Time, bool) {
	for _, re := range []*regexp.Regexp{inDaysRE, fromNowRE} {
		if m := re.FindStringSubmatch(text); m != nil {
			n, _ := strconv.Atoi(m[1])
			if strings.HasPrefix(m[2], "week") {
				n *= 7
			}
			return addDays(today, n), true
		}
	}
	switch {
	case dayAfterTomorrowRE.MatchString(text):
		return addDays(today, 2), true
	case strings.Contains(text, "tomorrow"):
		return addDays(today, 1), true
	case todayWordsRE.MatchString(text):
		return today, true
	case strings.Contains(text, "yesterday"):
		return addDays(today, -1), true
	}
	return time.Time{}, false
}

// weekOfMonth reads "second week of april" (days 8-14) and "last week of
// april" (the final seven days). A week already over rolls to next year; a
// week in progress starts today.
func (s *naturalStrategy) weekOfMonth(text string, today time.Time) (time.Time, time.Time, bool) {
	m := s.weekOfMonthRE.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, time.Time{}, false
	}
	month, ok := s.vocab.Month(m[2])
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	for _, year := range []int{today.Year(), today.Year() + 1} {
		first := time.Date(year, month, 1, 0, 0, 0, 0, today.Location())
		last := monthEnd(first)
		start := last.AddDate(0, 0, -6)
		if m[1] != "last" {
			n, _ := strconv.Atoi(m[1])
			start = addDays(first, 7*(n-1))
			if start.After(last) {
				return time.Time{}, time.Time{}, false
			}
		}
		end := addDays(start, 6)
		if end.After(last) {
			end = last
		}
		if end.Before(today) {
			continue
		}
		if start.Before(today) {
			start = today
		}
		return start, end, true
	}
	return time.Time{}, time.Time{}, false
}

// cardinalAfterThe reports whether "the" is followed by a spoken cardinal
// such as "the one" or "the twenty two". Ordinals ("the twenty second") and
// digits do not count.
func (s *naturalStrategy) cardinalAfterThe(lower string) bool {
	fields := strings.Fields(lower)
	for i, f := range fields {
		if f != "the" {
			continue
		}
		last := ""
		for _, tok := range fields[i+1:] {
			parts := strings.Split(strings.Trim(tok, ",.?!"), "-")
			for _, p := range parts {
				if !s.vocab.IsNumberWord(p) {
					parts = nil
					break
				}
			}
			if parts == nil {
				break
			}
			last = parts[len(parts)-1]
		}
		if last == "" {
			continue
		}
		_, ordinal := s.vocab.Ordinals[last]
		return !ordinal
	}
	return false
}

// fallback hands text the local rules did not read to the when parser.
// Month names and phrases the fallback table owns are left alone, and only
// dates after today are taken. Bare times stay with the clock rule.
func (s *naturalStrategy) fallback(ctx context.Context, in Input, today time.Time) (time.Time, bool) {
	if s.parser == nil || s.monthRE.MatchString(in.Text) {
		return time.Time{}, false
	}
	if _, ok := (phraseStrategy{}).Attempt(ctx, in); ok {
		return time.Time{}, false
	}
	r, err := s.parser.Parse(in.Text, in.Now)
	if err != nil || r == nil {
		return time.Time{}, false
	}
	d := midnight(r.Time.In(today.Location()))
	if !d.After(today) {
		return time.Time{}, false
	}
	return d, true
}

// weekday resolves "friday" (next occurrence after today), "this friday"
// (today counts) and "next friday" (the friday of the following Sunday-Saturday week).
func (s *naturalStrategy) weekday(text string, today time.Time) (time.Time, time.Weekday, bool) {
	m := s.weekdayRE.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, 0, false
	}
	wd, ok := s.vocab.Weekday(m[2])
	if !ok {
		return time.Time{}, 0, false
	}
	ahead := (int(wd) - int(today.Weekday()) + 7) % 7
	switch m[1] {
	case "this":
		return addDays(today, ahead), wd, true
	case "next":
		return addDays(nextWeekStart(today), int(wd)), wd, true
	default:
		if ahead == 0 {
			ahead = 7
		}
		return addDays(today, ahead), wd, true
	}
}

func (s *naturalStrategy) mentionedWeekday(text string) *time.Weekday {
	if m := s.weekdayRE.FindStringSubmatch(text); m != nil {
		if wd, ok := s.vocab.Weekday(m[2]); ok {
			return &wd
		}
	}
	return nil
}

func nextDayOfMonth(day int, today time.Time) (time.Time, bool) {
	for i := 0; i < 3; i++ {
		first := time.Date(today.Year(), today.Month()+time.Month(i), 1, 0, 0, 0, 0, today.Location())
		d, ok := makeDate(first.Year(), first.Month(), day, today.Location())
		if ok && !d.Before(today) {
			return d, true
		}
	}
	return time.Time{}, false
}

// keys returns the table keys at least minLen long, longest first so the
// regex alternation prefers "september" over "sep".
func keys[V any](m map[string]V, minLen int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		if len(k) >= minLen {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}
