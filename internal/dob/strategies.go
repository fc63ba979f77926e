package dob

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/araddon/dateparse"

	"github.com/wolfman30/voice-normalizers/internal/vocab"
)

type input struct {
	// lower is the trimmed lowercase input.
	lower string
	// converted has spoken numbers turned into digits and typos fixed.
	converted string
	today     time.Time
}

// strategy yields candidate readings in preference order; the first one that
// validates wins.
type strategy struct {
	name string
	run  func(in input) []candidate
}

var (
	numericDateRE = regexp.MustCompile(`\b(\d{1,4})[/.\-](\d{1,2})[/.\-](\d{1,4})\b`)
	digitRunRE    = regexp.MustCompile(`\b(\d{5,8})\b`)
	spokenDigitRE = regexp.MustCompile(`\b\d(?: \d){4,7}\b`)
	tripletRE     = regexp.MustCompile(`\b(\d{1,2})\s+(\d{1,2})\s+(\d{4}|\d{2})\b`)
	numberTokenRE = regexp.MustCompile(`\d+`)

	standaloneYearRE = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

// digitTemplates lists groupings for unseparated digit runs, most specific first.
var digitTemplates = map[int][]string{
	8: {"MMDDYYYY", "YYYYMMDD", "DDMMYYYY"},
	7: {"MDDYYYY", "MMDYYYY"},
	6: {"MMDDYY", "DDMMYY", "MDYYYY"},
	5: {"MDDYY", "MMDYY"},
}

type parser struct {
	vocab      *vocab.Vocabulary
	monthNames []string
	namedRes   []namedPattern
}

// namedPattern locates month, day and year groups in a month-name regex.
type namedPattern struct {
	re               *regexp.Regexp
	month, day, year int
}

func newParser(v *vocab.Vocabulary) *parser {
	names := make([]string, 0, len(v.Months))
	for k := range v.Months {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	months := `(` + strings.Join(quoted, "|") + `)`
	ord := `(?:st|nd|rd|th)?`

	return &parser{
		vocab:      v,
		monthNames: names,
		namedRes: []namedPattern{
			// jan-15-1990, jan/15/90
			{re: regexp.MustCompile(`\b` + months + `[/.\-](\d{1,2})[/.\-](\d{4}|\d{2})\b`), month: 1, day: 2, year: 3},
			// 15-jan-1990, 15 jan 90
			{re: regexp.MustCompile(`\b(\d{1,2})[/.\- ]` + months + `[/.\- ](\d{4}|\d{2})\b`), month: 2, day: 1, year: 3},
			// march 21st, 1990 / march the 21 1990 / march 21
			{re: regexp.MustCompile(`\b` + months + `\.?,?\s+(?:the\s+)?(\d{1,2})` + ord + `\b,?(?:\s+(?:of\s+)?(\d{4}|\d{2})\b)?`), month: 1, day: 2, year: 3},
			// the 21st of march 1990 / 21 march, 90
			{re: regexp.MustCompile(`\b(?:the\s+)?(\d{1,2})` + ord + `\s+(?:of\s+)?` + months + `\b\.?,?(?:\s+(\d{4}|\d{2})\b)?`), month: 2, day: 1, year: 3},
		},
	}
}

func defaultStrategies(v *vocab.Vocabulary, level Level) []strategy {
	p := newParser(v)
	chain := []strategy{
		{name: "strict_format", run: func(in input) []candidate { return p.strict(in.lower, in.today) }},
		{name: "continuous_digits", run: func(in input) []candidate {
			if c := continuousDigits(in.lower, in.today); len(c) > 0 {
				return c
			}
			// "zero one one five eight zero" converts to "0 1 1 5 8 0".
			if run := spokenDigitRE.FindString(in.converted); run != "" {
				return continuousDigits(strings.ReplaceAll(run, " ", ""), in.today)
			}
			return nil
		}},
		{name: "spoken_numbers", run: func(in input) []candidate {
			if in.converted == in.lower {
				return nil
			}
			return p.strict(in.converted, in.today)
		}},
		{name: "voice_pattern", run: func(in input) []candidate { return p.voice(in.converted, in.today) }},
	}
	if level != LevelStrict {
		fuzzy := level == LevelLoose
		chain = append(chain, strategy{name: "loose", run: func(in input) []candidate {
			if c := p.loose(in.converted, in.today, fuzzy); len(c) > 0 {
				return c
			}
			if fuzzy {
				return anyFormat(in.lower)
			}
			return nil
		}})
	}
	return chain
}

// strict covers numeric dates with / - . separators (ISO when the first field
// has four digits, otherwise US then EU ordering) and month-name forms.
func (p *parser) strict(text string, today time.Time) []candidate {
	var out []candidate
	if m := numericDateRE.FindStringSubmatch(text); m != nil {
		a, b, c := atoi(m[1]), atoi(m[2]), atoi(m[3])
		switch {
		case len(m[1]) == 4 && len(m[3]) <= 2:
			out = append(out, candidate{year: a, month: time.Month(b), day: c, explicitYear: true})
		case len(m[1]) <= 2 && (len(m[3]) == 2 || len(m[3]) == 4):
			year := yearOf(m[3], today)
			out = append(out,
				candidate{year: year, month: time.Month(a), day: b, explicitYear: true},
				candidate{year: year, month: time.Month(b), day: a, explicitYear: true},
			)
		}
	}
	return append(out, p.named(text, today, true)...)
}

// named matches the month-name forms. Without requireYear a missing year is
// taken from any standalone four-digit year in the text, else the current year
// (which validate may shift back by one).
func (p *parser) named(text string, today time.Time, requireYear bool) []candidate {
	var out []candidate
	for _, np := range p.namedRes {
		m := np.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		month, ok := p.vocab.Month(m[np.month])
		if !ok {
			continue
		}
		c := candidate{month: month, day: atoi(m[np.day]), year: today.Year()}
		switch {
		case m[np.year] != "":
			c.year = yearOf(m[np.year], today)
			c.explicitYear = true
		case requireYear:
			continue
		default:
			if y := standaloneYearRE.FindString(text); y != "" {
				c.year = atoi(y)
				c.explicitYear = true
			}
		}
		out = append(out, c)
	}
	return out
}

// continuousDigits reads runs like "011580" or "19800115".
func continuousDigits(text string, today time.Time) []candidate {
	m := digitRunRE.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	run := m[1]
	var out []candidate
	for _, tpl := range digitTemplates[len(run)] {
		if c, ok := applyTemplate(tpl, run, today); ok {
			out = append(out, c)
		}
	}
	return out
}

func applyTemplate(tpl, digits string, today time.Time) (candidate, bool) {
	if len(tpl) != len(digits) {
		return candidate{}, false
	}
	var ms, ds, ys strings.Builder
	for i := 0; i < len(tpl); i++ {
		switch tpl[i] {
		case 'M':
			ms.WriteByte(digits[i])
		case 'D':
			ds.WriteByte(digits[i])
		case 'Y':
			ys.WriteByte(digits[i])
		}
	}
	return candidate{
		year:         yearOf(ys.String(), today),
		month:        time.Month(atoi(ms.String())),
		day:          atoi(ds.String()),
		explicitYear: true,
	}, true
}

// voice reads "4 15 94" style triplets (month day year, then day month year)
// and "<month> <day> [year]".
func (p *parser) voice(text string, today time.Time) []candidate {
	var out []candidate
	if m := tripletRE.FindStringSubmatch(text); m != nil {
		a, b := atoi(m[1]), atoi(m[2])
		year := yearOf(m[3], today)
		out = append(out,
			candidate{year: year, month: time.Month(a), day: b, explicitYear: true},
			candidate{year: year, month: time.Month(b), day: a, explicitYear: true},
		)
	}
	return append(out, p.named(text, today, false)...)
}

// loose scans for a month word anywhere plus a day and an optional year,
// in any order. With fuzzy set, misspelled month names count too.
func (p *parser) loose(text string, today time.Time, fuzzy bool) []candidate {
	var month time.Month
	for _, w := range strings.FieldsFunc(text, func(r rune) bool { return r < 'a' || r > 'z' }) {
		if m, ok := p.vocab.Month(w); ok {
			month = m
			break
		}
		if fuzzy {
			if m, ok := p.fuzzyMonth(w); ok {
				month = m
				break
			}
		}
	}
	if month == 0 {
		return nil
	}

	c := candidate{month: month, year: today.Year()}
	for _, tok := range numberTokenRE.FindAllString(text, -1) {
		switch {
		case len(tok) == 4 && !c.explicitYear:
			c.year = atoi(tok)
			c.explicitYear = true
		case len(tok) <= 2 && c.day == 0 && atoi(tok) >= 1 && atoi(tok) <= 31:
			c.day = atoi(tok)
		case len(tok) == 2 && c.day != 0 && !c.explicitYear:
			c.year = expandYear(atoi(tok), today)
			c.explicitYear = true
		}
	}
	if c.day == 0 {
		return nil
	}
	return []candidate{c}
}

// anyFormat hands the raw text to dateparse, which knows many layouts the
// tables above do not (RFC timestamps, CJK dates). Bare digit runs are
// skipped since dateparse reads them as unix timestamps.
func anyFormat(text string) (out []candidate) {
	if text == "" || strings.Trim(text, "0123456789") == "" {
		return nil
	}
	// dateparse can panic on malformed input.
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()
	t, err := dateparse.ParseIn(text, time.UTC)
	if err != nil {
		return nil
	}
	return []candidate{{year: t.Year(), month: t.Month(), day: t.Day(), explicitYear: true}}
}

func (p *parser) fuzzyMonth(word string) (time.Month, bool) {
	if len(word) < 4 {
		return 0, false
	}
	for _, name := range p.monthNames {
		if len(name) < 4 {
			continue
		}
		limit := 1
		if len(name) >= 7 {
			limit = 2
		}
		if levenshtein.ComputeDistance(word, name) <= limit {
			return p.vocab.Months[name], true
		}
	}
	return 0, false
}

func yearOf(s string, today time.Time) int {
	if len(s) <= 2 {
		return expandYear(atoi(s), today)
	}
	return atoi(s)
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
