// Package vocab holds the lookup tables used to clean up transcribed speech
// before date parsing. Tables are built once at startup and treated as
// read-only afterwards, so a single Vocabulary is safe to share between
// concurrent requests.
package vocab

import (
	"sort"
	"strings"
	"time"
)

// Replacement is an ordered phrase substitution.
type Replacement struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Vocabulary groups every table the normalizers consult.
type Vocabulary struct {
	// Typos maps common misspellings to their corrected form (whole words).
	Typos map[string]string `json:"typos"`
	// Synonyms are applied in order; longer phrases should come first.
	Synonyms []Replacement `json:"synonyms"`
	// TemporalKeywords drive the repair of concatenated words ("anytimethisweek").
	TemporalKeywords []string `json:"temporal_keywords"`
	// ProtectedWords are never split even when they contain a temporal keyword.
	ProtectedWords []string `json:"protected_words"`
	// Cardinals maps spelled-out numbers (zero..ninety) to values.
	Cardinals map[string]int `json:"cardinals"`
	// Ordinals maps ordinal words (first..ninetieth) to values.
	Ordinals map[string]int `json:"ordinals"`
	// NumberMisspellings maps frequent transcription errors to the number word they mean.
	NumberMisspellings map[string]string `json:"number_misspellings"`
	// Months maps month names and abbreviations.
	Months map[string]time.Month `json:"-"`
	// Weekdays maps weekday names and abbreviations.
	Weekdays map[string]time.Weekday `json:"-"`
	// UrgencyWords, FlexibilityWords and TimeOfDayWords feed partial extraction.
	UrgencyWords     []string `json:"urgency_words"`
	FlexibilityWords []string `json:"flexibility_words"`
	TimeOfDayWords   []string `json:"time_of_day_words"`
}

// Default returns the built-in English vocabulary.
func Default() *Vocabulary {
	return &Vocabulary{
		Typos: map[string]string{
			"tomorow":    "tomorrow",
			"tommorow":   "tomorrow",
			"tommorrow":  "tomorrow",
			"tmrw":       "tomorrow",
			"tmr":        "tomorrow",
			"tomorro":    "tomorrow",
			"todya":      "today",
			"tday":       "today",
			"wendsday":   "wednesday",
			"wensday":    "wednesday",
			"wednsday":   "wednesday",
			"wedensday":  "wednesday",
			"thrusday":   "thursday",
			"thursay":    "thursday",
			"thurday":    "thursday",
			"teusday":    "tuesday",
			"tuseday":    "tuesday",
			"tusday":     "tuesday",
			"munday":     "monday",
			"mondy":      "monday",
			"firday":     "friday",
			"fryday":     "friday",
			"saterday":   "saturday",
			"satruday":   "saturday",
			"sundy":      "sunday",
			"febuary":    "february",
			"feburary":   "february",
			"janurary":   "january",
			"janury":     "january",
			"septmber":   "september",
			"setember":   "september",
			"octber":     "october",
			"novmber":    "november",
			"decmber":    "december",
			"morining":   "morning",
			"mornin":     "morning",
			"afternon":   "afternoon",
			"afteroon":   "afternoon",
			"evning":     "evening",
			"evenning":   "evening",
			"nite":       "night",
			"tonite":     "tonight",
			"nxt":        "next",
			"wk":         "week",
			"appointmnt": "appointment",
			"appt":       "appointment",
		},
		Synonyms: []Replacement{
			{From: "as soon as possible", To: "today"},
			{From: "end of the day", To: "5:00pm"},
			{From: "end of day", To: "5:00pm"},
			{From: "asap", To: "today"},
			{From: "eod", To: "5:00pm"},
			{From: "midday", To: "12:00pm"},
			{From: "noon", To: "12:00pm"},
			{From: "midnight", To: "12:00am"},
		},
		TemporalKeywords: []string{
			"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
			"january", "february", "march", "april", "may", "june", "july", "august",
			"september", "october", "november", "december",
			"today", "tomorrow", "yesterday",
			"morning", "afternoon", "evening", "night",
			"next", "this", "last", "week", "month", "year",
			"any", "anytime", "time",
		},
		ProtectedWords: []string{
			"weekend", "weekends", "weekday", "weekdays", "weekly", "weeknight", "weeknights",
			"monthly", "yearly", "nightly", "overnight", "tonight", "sometime", "sometimes",
			"anything", "anyone", "anyway", "anywhere", "anybody", "timely", "lifetime",
			"daytime", "nighttime", "mornings", "evenings", "afternoons", "times", "timing",
			"lastly", "timeline",
		},
		Cardinals: map[string]int{
			"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
			"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
			"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
			"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
			"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
			"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
		},
		Ordinals: map[string]int{
			"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
			"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
			"eleventh": 11, "twelfth": 12, "thirteenth": 13, "fourteenth": 14,
			"fifteenth": 15, "sixteenth": 16, "seventeenth": 17, "eighteenth": 18,
			"nineteenth": 19, "twentieth": 20, "thirtieth": 30, "fortieth": 40,
			"fiftieth": 50, "sixtieth": 60, "seventieth": 70, "eightieth": 80,
			"ninetieth": 90,
		},
		NumberMisspellings: map[string]string{
			"fourty":    "forty",
			"ninty":     "ninety",
			"nintey":    "ninety",
			"tweny":     "twenty",
			"twentey":   "twenty",
			"thirtey":   "thirty",
			"fiveteen":  "fifteen",
			"ninteen":   "nineteen",
			"eightteen": "eighteen",
			"nineth":    "ninth",
			"twelth":    "twelfth",
			"fith":      "fifth",
			"eigth":     "eighth",
			"fourtieth": "fortieth",
		},
		Months: map[string]time.Month{
			"january": time.January, "jan": time.January,
			"february": time.February, "feb": time.February,
			"march": time.March, "mar": time.March,
			"april": time.April, "apr": time.April,
			"may":  time.May,
			"june": time.June, "jun": time.June,
			"july": time.July, "jul": time.July,
			"august": time.August, "aug": time.August,
			"september": time.September, "sept": time.September, "sep": time.September,
			"october": time.October, "oct": time.October,
			"november": time.November, "nov": time.November,
			"december": time.December, "dec": time.December,
		},
		Weekdays: map[string]time.Weekday{
			"sunday": time.Sunday, "sun": time.Sunday,
			"monday": time.Monday, "mon": time.Monday,
			"tuesday": time.Tuesday, "tues": time.Tuesday, "tue": time.Tuesday,
			"wednesday": time.Wednesday, "wed": time.Wednesday,
			"thursday": time.Thursday, "thurs": time.Thursday, "thu": time.Thursday,
			"friday": time.Friday, "fri": time.Friday,
			"saturday": time.Saturday, "sat": time.Saturday,
		},
		UrgencyWords:     []string{"urgent", "urgently", "asap", "emergency", "soon", "soonest", "immediately"},
		FlexibilityWords: []string{"any", "anytime", "flexible", "whenever", "open"},
		TimeOfDayWords:   []string{"morning", "afternoon", "evening", "night", "tonight", "noon", "midday", "lunch"},
	}
}

// Override is the JSON document accepted by Load. Every field is optional and
// extends (or, for maps, replaces entries of) the defaults.
type Override struct {
	Typos              map[string]string `json:"typos"`
	Synonyms           []Replacement     `json:"synonyms"`
	TemporalKeywords   []string          `json:"temporal_keywords"`
	ProtectedWords     []string          `json:"protected_words"`
	NumberMisspellings map[string]string `json:"number_misspellings"`
	UrgencyWords       []string          `json:"urgency_words"`
	FlexibilityWords   []string          `json:"flexibility_words"`
}

// Merge returns a copy of v with the override applied.
func (v *Vocabulary) Merge(o Override) *Vocabulary {
	out := v.clone()
	for k, val := range o.Typos {
		out.Typos[strings.ToLower(k)] = strings.ToLower(val)
	}
	for k, val := range o.NumberMisspellings {
		out.NumberMisspellings[strings.ToLower(k)] = strings.ToLower(val)
	}
	if len(o.Synonyms) > 0 {
		merged := make([]Replacement, 0, len(out.Synonyms)+len(o.Synonyms))
		for _, r := range o.Synonyms {
			merged = append(merged, Replacement{From: strings.ToLower(r.From), To: strings.ToLower(r.To)})
		}
		merged = append(merged, out.Synonyms...)
		// Longest phrase first so "end of day" wins over "day".
		sort.SliceStable(merged, func(i, j int) bool {
			return len(merged[i].From) > len(merged[j].From)
		})
		out.Synonyms = dedupeReplacements(merged)
	}
	out.TemporalKeywords = appendUnique(out.TemporalKeywords, o.TemporalKeywords)
	out.ProtectedWords = appendUnique(out.ProtectedWords, o.ProtectedWords)
	out.UrgencyWords = appendUnique(out.UrgencyWords, o.UrgencyWords)
	out.FlexibilityWords = appendUnique(out.FlexibilityWords, o.FlexibilityWords)
	return out
}

func (v *Vocabulary) clone() *Vocabulary {
	out := *v
	out.Typos = copyMap(v.Typos)
	out.NumberMisspellings = copyMap(v.NumberMisspellings)
	out.Synonyms = append([]Replacement(nil), v.Synonyms...)
	out.TemporalKeywords = append([]string(nil), v.TemporalKeywords...)
	out.ProtectedWords = append([]string(nil), v.ProtectedWords...)
	out.UrgencyWords = append([]string(nil), v.UrgencyWords...)
	out.FlexibilityWords = append([]string(nil), v.FlexibilityWords...)
	out.TimeOfDayWords = append([]string(nil), v.TimeOfDayWords...)
	return &out
}

// IsNumberWord reports whether w is a cardinal, ordinal, multiplier or known misspelling.
func (v *Vocabulary) IsNumberWord(w string) bool {
	if _, ok := v.Cardinals[w]; ok {
		return true
	}
	if _, ok := v.Ordinals[w]; ok {
		return true
	}
	if _, ok := v.NumberMisspellings[w]; ok {
		return true
	}
	return w == "hundred" || w == "thousand"
}

// Month looks up a month by name or abbreviation, ignoring a trailing period.
func (v *Vocabulary) Month(word string) (time.Month, bool) {
	m, ok := v.Months[strings.TrimSuffix(strings.ToLower(word), ".")]
	return m, ok
}

// Weekday looks up a weekday by name or abbreviation.
func (v *Vocabulary) Weekday(word string) (time.Weekday, bool) {
	d, ok := v.Weekdays[strings.TrimSuffix(strings.ToLower(word), ".")]
	return d, ok
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func appendUnique(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	for _, w := range base {
		seen[w] = true
	}
	for _, w := range extra {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		base = append(base, w)
	}
	return base
}

func dedupeReplacements(in []Replacement) []Replacement {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, r := range in {
		if r.From == "" || seen[r.From] {
			continue
		}
		seen[r.From] = true
		out = append(out, r)
	}
	return out
}
