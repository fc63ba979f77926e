package slots

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// slotNamespace seeds deterministic ids for records without an appointment id.
var slotNamespace = uuid.MustParse("3f9d7c1e-2a4b-4f0e-9b8a-6d5c4b3a2f10")

// BestSlot is one ranked slot as returned to the voice agent.
type BestSlot struct {
	Rank              int     `json:"rank"`
	Date              string  `json:"date"`
	Time              string  `json:"time"`
	FormattedDatetime string  `json:"formatted_datetime"`
	DayOfWeek         string  `json:"day_of_week"`
	Provider          string  `json:"provider"`
	ProviderID        string  `json:"provider_id"`
	AppointmentID     string  `json:"appointment_id"`
	Score             float64 `json:"score"`
	SlotID            string  `json:"slot_id"`
}

// SummarySlot is a day-part pick for short spoken summaries.
type SummarySlot struct {
	Date              string `json:"date"`
	Time              string `json:"time"`
	FormattedDatetime string `json:"formatted_datetime"`
	DayOfWeek         string `json:"day_of_week"`
	Provider          string `json:"provider"`
	SlotID            string `json:"slot_id"`
}

// Response is the webhook body.
type Response struct {
	Success             bool           `json:"success"`
	HasSlots            bool           `json:"has_slots"`
	TotalMatches        int            `json:"total_matches"`
	BestSlots           []BestSlot     `json:"best_slots"`
	SummarySlots        []SummarySlot  `json:"summary_slots"`
	Message             string         `json:"message"`
	ExtractionVariables map[string]any `json:"extraction_variables"`
}

// BuildResponse shapes a match result for the voice agent.
func BuildResponse(res Result, state string) Response {
	resp := Response{
		Success:      true,
		HasSlots:     res.HasSlots(),
		TotalMatches: len(res.Candidates),
		BestSlots:    make([]BestSlot, 0, len(res.Slots)),
		SummarySlots: []SummarySlot{},
	}
	for _, s := range res.Slots {
		resp.BestSlots = append(resp.BestSlots, BestSlot{
			Rank:              s.Rank,
			Date:              s.Date,
			Time:              s.Time,
			FormattedDatetime: FormatDatetime(s.Slot),
			DayOfWeek:         dayOfWeek(s.Date),
			Provider:          s.Provider,
			ProviderID:        s.ProviderID,
			AppointmentID:     s.AppointmentID,
			Score:             s.Score,
			SlotID:            SlotID(s.Slot),
		})
	}
	if len(res.Candidates) > 0 {
		for _, s := range SelectByDayPart(res.Candidates) {
			resp.SummarySlots = append(resp.SummarySlots, SummarySlot{
				Date:              s.Date,
				Time:              s.Time,
				FormattedDatetime: FormatDatetime(s),
				DayOfWeek:         dayOfWeek(s.Date),
				Provider:          s.Provider,
				SlotID:            SlotID(s),
			})
		}
	}

	resp.Message = message(resp, state)
	resp.ExtractionVariables = extractionVariables(resp, res.Candidates)
	return resp
}

// FormatDatetime renders "Friday, March 14 at 9:00 AM", or just the date
// when the time label cannot be parsed.
func FormatDatetime(s Slot) string {
	d, ok := parseDate(s.Date)
	if !ok {
		return strings.TrimSpace(s.Date + " " + s.Time)
	}
	day := d.Format("Monday, January 2")
	if start, ok := startMinutes(s.Time); ok {
		return day + " at " + formatClock(start)
	}
	return day
}

// SlotID is the appointment id when present, otherwise a stable UUID
// derived from date, time and provider.
func SlotID(s Slot) string {
	if s.AppointmentID != "" {
		return s.AppointmentID
	}
	return uuid.NewSHA1(slotNamespace, []byte(s.Date+"|"+s.Time+"|"+s.ProviderID)).String()
}

func dayOfWeek(date string) string {
	d, ok := parseDate(date)
	if !ok {
		return ""
	}
	return d.Weekday().String()
}

func message(resp Response, state string) string {
	if !resp.HasSlots {
		if state == "" {
			return "I couldn't find any available appointments."
		}
		return fmt.Sprintf("I couldn't find any available appointments in %s.", state)
	}
	best := resp.BestSlots[0]
	if resp.TotalMatches == 1 {
		return fmt.Sprintf("I found 1 available appointment: %s.", best.FormattedDatetime)
	}
	return fmt.Sprintf("I found %d available appointments. The best match is %s.", resp.TotalMatches, best.FormattedDatetime)
}

func extractionVariables(resp Response, candidates []Slot) map[string]any {
	vars := map[string]any{
		"slot_count":      resp.TotalMatches,
		"available_dates": strings.Join(distinctDates(candidates), ", "),
	}
	if resp.HasSlots {
		best := resp.BestSlots[0]
		vars["best_slot_date"] = best.Date
		vars["best_slot_time"] = best.Time
		vars["best_slot_formatted"] = best.FormattedDatetime
	}
	return vars
}

func distinctDates(candidates []Slot) []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range candidates {
		if s.Date == "" || seen[s.Date] {
			continue
		}
		seen[s.Date] = true
		out = append(out, s.Date)
	}
	return out
}
