package slots

import "sort"

const (
	// fewDates is the largest number of distinct dates summarized by day-part.
	fewDates = 3
	// SummaryTotal caps the summary when there are more dates than fewDates.
	SummaryTotal   = 6
	summaryPerDate = 2
	noonMinutes    = 12 * 60
)

type datedSlot struct {
	slot  Slot
	start int
	timed bool
	order int
}

// SelectByDayPart picks a short, representative set of slots for a voice
// summary. With at most three distinct dates it takes the earliest morning
// and the earliest afternoon slot of each date (or the two earliest when
// neither half can be determined). With more dates it spreads at most two
// slots per date round-robin up to SummaryTotal. Output is chronological.
func SelectByDayPart(candidates []Slot) []Slot {
	sorted := chronological(candidates)
	days := groupByDate(sorted)
	if len(days) == 0 {
		return []Slot{}
	}
	if len(days) > fewDates {
		return spreadAcrossDays(days, SummaryTotal, summaryPerDate)
	}

	out := make([]Slot, 0, len(days)*2)
	for _, day := range days {
		var morning, afternoon *datedSlot
		for i := range day {
			s := &day[i]
			if !s.timed {
				continue
			}
			if s.start < noonMinutes && morning == nil {
				morning = s
			}
			if s.start >= noonMinutes && afternoon == nil {
				afternoon = s
			}
		}
		if morning == nil && afternoon == nil {
			for i := 0; i < len(day) && i < 2; i++ {
				out = append(out, day[i].slot)
			}
			continue
		}
		if morning != nil {
			out = append(out, morning.slot)
		}
		if afternoon != nil {
			out = append(out, afternoon.slot)
		}
	}
	return out
}

// chronological orders by date, then start time, keeping retrieval order
// for slots whose labels cannot be parsed.
func chronological(candidates []Slot) []datedSlot {
	out := make([]datedSlot, len(candidates))
	for i, s := range candidates {
		start, ok := startMinutes(s.Time)
		out[i] = datedSlot{slot: s, start: start, timed: ok, order: i}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.slot.Date != b.slot.Date {
			return a.slot.Date < b.slot.Date
		}
		if a.timed && b.timed && a.start != b.start {
			return a.start < b.start
		}
		return a.order < b.order
	})
	return out
}

func groupByDate(sorted []datedSlot) [][]datedSlot {
	var days [][]datedSlot
	index := map[string]int{}
	for _, s := range sorted {
		if i, ok := index[s.slot.Date]; ok {
			days[i] = append(days[i], s)
			continue
		}
		index[s.slot.Date] = len(days)
		days = append(days, []datedSlot{s})
	}
	return days
}

// spreadAcrossDays takes one slot per day per round, up to maxPerDay rounds,
// until total is reached.
func spreadAcrossDays(days [][]datedSlot, total, maxPerDay int) []Slot {
	var picked []datedSlot
	for round := 0; round < maxPerDay && len(picked) < total; round++ {
		for i := range days {
			if round < len(days[i]) && len(picked) < total {
				picked = append(picked, days[i][round])
			}
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		a, b := picked[i], picked[j]
		if a.slot.Date != b.slot.Date {
			return a.slot.Date < b.slot.Date
		}
		if a.timed && b.timed {
			return a.start < b.start
		}
		return a.order < b.order
	})
	out := make([]Slot, len(picked))
	for i, p := range picked {
		out[i] = p.slot
	}
	return out
}
