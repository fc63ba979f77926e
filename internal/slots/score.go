package slots

import (
	"math"
	"sort"
	"strings"
)

const (
	baseScore = 100.0

	exactDateBonus   = 50.0
	perDayPenalty    = 10.0
	exactTimeBonus   = 30.0
	within30Bonus    = 20.0
	within60Bonus    = 10.0
	maxTimePenalty   = 50.0
	inRangeBonus     = 25.0
	maxRangePenalty  = 30.0
	penaltyPerMinute = 0.1
)

// dayParts maps spoken preferences to [start, end] minutes after midnight,
// using the same bands as time-of-day derivation.
var dayParts = map[string][2]int{
	"morning":   {5 * 60, 12*60 - 1},
	"afternoon": {12 * 60, 17*60 - 1},
	"evening":   {17 * 60, 24*60 - 1},
	"midday":    {11 * 60, 13 * 60},
	"noon":      {11 * 60, 13 * 60},
	"lunch":     {11 * 60, 13 * 60},
}

// Score rates how well slot fits prefs. It starts at 100, rewards or
// penalizes date, time and time-range proximity, and never goes below 0.
// Preferences the slot cannot be compared against (unparseable labels) are
// skipped. A day-part preference ("morning") scores like a time range.
func Score(slot Slot, prefs Preferences) float64 {
	score := baseScore

	if want, ok := parseDate(prefs.Date); ok {
		if got, ok := parseDate(slot.Date); ok {
			days := math.Abs(got.Sub(want).Hours() / 24)
			if days == 0 {
				score += exactDateBonus
			} else {
				score -= perDayPenalty * math.Round(days)
			}
		}
	}

	start, hasStart := startMinutes(slot.Time)

	if prefs.Time != "" && hasStart {
		if want, ok := startMinutes(prefs.Time); ok {
			diff := math.Abs(float64(start - want))
			switch {
			case diff == 0:
				score += exactTimeBonus
			case diff <= 30:
				score += within30Bonus
			case diff <= 60:
				score += within60Bonus
			default:
				score -= math.Min(diff*penaltyPerMinute, maxTimePenalty)
			}
		} else if part, ok := dayParts[strings.ToLower(strings.TrimSpace(prefs.Time))]; ok && prefs.TimeRange == nil {
			score += rangeScore(start, part[0], part[1])
		}
	}

	if prefs.TimeRange != nil && hasStart {
		lo, okLo := startMinutes(prefs.TimeRange.Start)
		hi, okHi := startMinutes(prefs.TimeRange.End)
		if okLo && okHi {
			if lo > hi {
				lo, hi = hi, lo
			}
			score += rangeScore(start, lo, hi)
		}
	}

	return math.Max(score, 0)
}

func rangeScore(start, lo, hi int) float64 {
	switch {
	case start >= lo && start <= hi:
		return inRangeBonus
	case start < lo:
		return -math.Min(float64(lo-start)*penaltyPerMinute, maxRangePenalty)
	default:
		return -math.Min(float64(start-hi)*penaltyPerMinute, maxRangePenalty)
	}
}

// Rank scores every candidate, sorts by descending score keeping retrieval
// order for ties, and returns at most limit entries with 1-based ranks.
func Rank(candidates []Slot, prefs Preferences, limit int) []ScoredSlot {
	scored := make([]ScoredSlot, len(candidates))
	for i, s := range candidates {
		scored[i] = ScoredSlot{Slot: s, Score: Score(s, prefs)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored
}
