// Package dob normalizes spoken or typed dates of birth into YYYY-MM-DD.
// Parsing is biased toward the past: a date of birth can never be in the
// future and must fall within the last 120 years.
package dob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/voice-normalizers/internal/textnorm"
	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

const (
	TypeSuccess = "success"
	TypeUnable  = "unable_to_normalize"

	// maxAgeYears bounds how far back a plausible year may be.
	maxAgeYears = 120
)

// Level selects how permissive the last-resort parser is.
type Level string

const (
	// LevelStrict disables loose parsing for reproducible results.
	LevelStrict Level = "strict"
	// LevelStandard allows loose parsing with exact month names only.
	LevelStandard Level = "standard"
	// LevelLoose also accepts misspelled month names.
	LevelLoose Level = "loose"
)

// ParseLevel maps a config value to a Level; empty means standard.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case "", LevelStandard:
		return LevelStandard, nil
	case LevelStrict:
		return LevelStrict, nil
	case LevelLoose:
		return LevelLoose, nil
	}
	return "", fmt.Errorf("dob: unknown validation level %q", s)
}

// Result is the public answer. DOBISO is nil unless Type is success.
type Result struct {
	DOBISO *string `json:"dob_iso"`
	Type   string  `json:"type"`
	// Method names the strategy that produced the date; diagnostic only.
	Method string `json:"-"`
}

// Normalizer runs the DOB strategy chain. Safe for concurrent use.
type Normalizer struct {
	pre        *textnorm.Preprocessor
	level      Level
	strategies []strategy
	now        func() time.Time
	logger     *logging.Logger
}

func NewNormalizer(pre *textnorm.Preprocessor, level Level, logger *logging.Logger) *Normalizer {
	if pre == nil {
		pre = textnorm.New(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if level == "" {
		level = LevelStandard
	}
	return &Normalizer{
		pre:        pre,
		level:      level,
		strategies: defaultStrategies(pre.Vocabulary(), level),
		now:        time.Now,
		logger:     logger,
	}
}

// Level reports the configured validation level.
func (n *Normalizer) Level() Level {
	return n.level
}

// Normalize never fails on malformed input; it reports unable_to_normalize instead.
func (n *Normalizer) Normalize(ctx context.Context, text string) Result {
	today := midnightUTC(n.now())
	lower := textnorm.CollapseSpace(strings.ToLower(text))
	in := input{
		lower:     lower,
		converted: textnorm.CollapseSpace(n.pre.FixTypos(n.pre.ConvertNumbers(lower))),
		today:     today,
	}
	log := n.logger.WithContext(ctx)

	for _, s := range n.strategies {
		for _, c := range s.run(in) {
			d, ok := validate(c, today)
			if !ok {
				continue
			}
			iso := d.Format("2006-01-02")
			log.Debug("dob normalized", "strategy", s.name)
			return Result{DOBISO: &iso, Type: TypeSuccess, Method: s.name}
		}
	}
	log.Debug("dob not normalized")
	return Result{Type: TypeUnable, Method: "none"}
}

// candidate is one reading of the input before validation.
type candidate struct {
	year         int
	month        time.Month
	day          int
	explicitYear bool
}

// validate applies calendar validity, the no-future rule and the age band.
// A future date is moved back one year only when the year was not spoken.
func validate(c candidate, today time.Time) (time.Time, bool) {
	d, ok := makeDate(c.year, c.month, c.day)
	if !ok {
		return time.Time{}, false
	}
	if d.After(today) {
		if c.explicitYear {
			return time.Time{}, false
		}
		d, ok = makeDate(c.year-1, c.month, c.day)
		if !ok || d.After(today) {
			return time.Time{}, false
		}
	}
	cy := today.Year()
	if d.Year() < cy-maxAgeYears || d.Year() > cy {
		return time.Time{}, false
	}
	return d, true
}

func makeDate(year int, m time.Month, day int) (time.Time, bool) {
	if year < 1 || m < time.January || m > time.December || day < 1 {
		return time.Time{}, false
	}
	if day > time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day() {
		return time.Time{}, false
	}
	return time.Date(year, m, day, 0, 0, 0, 0, time.UTC), true
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// expandYear resolves two-digit years: values above the current two-digit
// year belong to the previous century ("80" → 1980, "05" → 2005).
func expandYear(yy int, today time.Time) int {
	century := today.Year() / 100 * 100
	if yy > today.Year()%100 {
		return century - 100 + yy
	}
	return century + yy
}
