package slots

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	dateLayout      = "2006-01-02"
	defaultTimezone = "America/New_York"
)

var clockRE = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*([ap])?\.?\s*(?:m\b\.?)?`)

// startMinutes returns minutes after midnight for the start of a slot label
// ("9:00 AM - 9:15 AM") or a preference ("14:30", "3pm", "12:00pm").
func startMinutes(label string) (int, bool) {
	start := label
	for _, sep := range []string{" - ", "-", "–", " to "} {
		if i := strings.Index(start, sep); i > 0 {
			start = start[:i]
			break
		}
	}
	m := clockRE.FindStringSubmatch(start)
	if m == nil {
		return 0, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return 0, false
	}
	switch strings.ToLower(m[3]) {
	case "a":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			hour = 0
		}
	case "p":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, false
		}
	}
	return hour*60 + minute, true
}

func parseDate(s string) (time.Time, bool) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func loadLocation(name string) *time.Location {
	if name == "" {
		name = defaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil || name == "Local" {
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	return loc
}

func formatClock(minutes int) string {
	return time.Date(2000, 1, 1, minutes/60, minutes%60, 0, 0, time.UTC).Format("3:04 PM")
}
