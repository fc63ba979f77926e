package timeparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	// Embedded zone database so IANA validation works on minimal images and Lambda.
	_ "time/tzdata"
)

// DefaultTimezone applies when the caller omits one.
const DefaultTimezone = "America/New_York"

const dateLayout = "2006-01-02"

// ErrInvalidTimezone is returned for names the zone database does not know.
var ErrInvalidTimezone = errors.New("timeparse: invalid timezone")

// LoadLocation resolves an IANA zone name, defaulting to DefaultTimezone.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultTimezone
	}
	if name == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func addDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// makeDate builds a date, refusing values time.Date would silently normalize.
func makeDate(year int, m time.Month, day int, loc *time.Location) (time.Time, bool) {
	if m < time.January || m > time.December || day < 1 || day > daysIn(m, year) {
		return time.Time{}, false
	}
	return time.Date(year, m, day, 0, 0, 0, 0, loc), true
}

// forwardDate picks the next occurrence of month/day on or after today.
func forwardDate(m time.Month, day int, today time.Time) (time.Time, bool) {
	for year := today.Year(); year <= today.Year()+4; year++ {
		d, ok := makeDate(year, m, day, today.Location())
		if ok && !d.Before(today) {
			return d, true
		}
	}
	return time.Time{}, false
}

// weekEnd is the Saturday closing the Sunday-Saturday week containing day.
func weekEnd(day time.Time) time.Time {
	return addDays(day, int(time.Saturday-day.Weekday()))
}

// nextWeekStart is the Sunday after the week containing day.
func nextWeekStart(day time.Time) time.Time {
	return addDays(weekEnd(day), 1)
}

func monthEnd(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month()+1, 0, 0, 0, 0, 0, day.Location())
}

var (
	ampmRE   = regexp.MustCompile(`\b(\d{1,2})(?:[: ](\d{2}))?\s*(a\.?m\.?|p\.?m\.?)(?:\W|$)`)
	clockRE  = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	atHourRE = regexp.MustCompile(`\b(?:at|around|by|after|before) (\d{1,2})(?:[: ](\d{2}))?\b`)
)

// extractClock finds an explicit time such as "3pm", "3:30 p.m.", "14:00" or
// "at 4". Bare hours after "at" are read as business hours: 1-7 is PM.
func extractClock(text string) *Clock {
	if m := ampmRE.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if h >= 1 && h <= 12 && minute < 60 {
			pm := strings.HasPrefix(m[3], "p")
			switch {
			case pm && h != 12:
				h += 12
			case !pm && h == 12:
				h = 0
			}
			return &Clock{Hour: h, Minute: minute}
		}
	}
	if m := clockRE.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return &Clock{Hour: h, Minute: minute}
	}
	if m := atHourRE.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if h > 23 || minute > 59 {
			return nil
		}
		if h >= 1 && h <= 7 {
			h += 12
		}
		return &Clock{Hour: h, Minute: minute}
	}
	return nil
}
