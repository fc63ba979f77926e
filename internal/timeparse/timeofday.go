package timeparse

import (
	"regexp"
	"strings"
)

var (
	meridiemAMRE = regexp.MustCompile(`(\d\s*|\bthe )(a\.?m\.?)(\W|$)`)
	meridiemPMRE = regexp.MustCompile(`(\d\s*|\bthe )(p\.?m\.?)(\W|$)`)
)

// deriveTimeOfDay applies, in order: named markers (noon/midday/lunch,
// midnight, evening/night/tonight, morning, afternoon), am/pm markers, the
// hour of an explicit clock time, then "any". A pm time is afternoon unless
// evening is said.
func deriveTimeOfDay(corrected string, clock *Clock) TimeOfDay {
	w := wordSet(corrected)
	switch {
	case w["noon"] || w["midday"] || w["lunch"] || w["lunchtime"]:
		return Midday
	case w["midnight"]:
		return Night
	case w["evening"] || w["night"] || w["tonight"] || w["evenings"]:
		return Evening
	case w["morning"] || w["mornings"]:
		return Morning
	case w["afternoon"] || w["afternoons"]:
		return Afternoon
	}
	switch {
	case meridiemAMRE.MatchString(corrected):
		return Morning
	case meridiemPMRE.MatchString(corrected):
		return Afternoon
	}
	if clock != nil {
		return bandForHour(clock.Hour)
	}
	return AnyTime
}

func bandForHour(h int) TimeOfDay {
	switch {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	case h >= 17:
		return Evening
	default:
		return AnyTime
	}
}

// words splits text into lowercase letter-only words.
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r < 'a' || r > 'z'
	})
}

func wordSet(text string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range words(text) {
		out[w] = true
	}
	return out
}

func containsAny(words map[string]bool, list []string) bool {
	for _, w := range list {
		if words[w] {
			return true
		}
	}
	return false
}
