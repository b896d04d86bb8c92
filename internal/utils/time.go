package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/streakline/internal/constants"
)

// timestampLayouts are the shapes a completed_at value can take on the wire:
// date columns, timestamps with and without offsets.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	constants.DateFormat,
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == constants.DefaultTimezone {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// DayOf returns the calendar date of t in loc.
func DayOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(constants.DateFormat)
}

// Today returns today's calendar date in loc according to now.
func Today(now time.Time, loc *time.Location) string {
	return DayOf(now, loc)
}

// ParseTimestamp parses a completed_at value in any of the accepted wire shapes.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp: %q", s)
}

// CompletionDay maps a stored completion timestamp to a calendar date.
// Values sitting exactly on midnight in their own offset were written as a
// calendar date and keep it; any other instant is converted to loc first.
func CompletionDay(t time.Time, loc *time.Location) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(constants.DateFormat)
	}
	return DayOf(t, loc)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(day string) (time.Time, error) {
	return time.Parse(constants.DateFormat, day)
}
