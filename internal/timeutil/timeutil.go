// Package timeutil centralizes all wall-clock and timezone handling.
// Other packages must not call the raw system clock or host timezone:
// services take a Clock and an explicit *time.Location so scheduling and
// analytics stay deterministic under test.
package timeutil

import (
	"fmt"
	"time"
)

// DefaultTimezone is the fallback zone used when a caller supplies none.
const DefaultTimezone = "Asia/Kolkata"

// DateFormat is the wire format for calendar dates.
const DateFormat = "2006-01-02"

// Clock abstracts time.Now for testability.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	T time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return c.T }

// Location resolves an IANA timezone name, falling back to DefaultTimezone
// for an empty or unknown name. It never falls back to host-local time.
func Location(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TodayString returns now's calendar date in loc as YYYY-MM-DD.
func TodayString(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(DateFormat)
}

// DateString converts an instant to its calendar date in loc.
func DateString(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateFormat)
}

// ParseDateInZone parses a YYYY-MM-DD string as local midnight in loc.
func ParseDateInZone(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateFormat, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// IsToday reports whether t falls on now's calendar date in loc.
func IsToday(t, now time.Time, loc *time.Location) bool {
	return DateString(t, loc) == TodayString(now, loc)
}

// CombineDateAndClock builds an instant from a YYYY-MM-DD date and a
// wall-clock hour/minute in loc.
func CombineDateAndClock(date string, hour, minute int, loc *time.Location) (time.Time, error) {
	day, err := ParseDateInZone(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}

// ParseClock parses an "HH:MM" wall-clock string.
func ParseClock(clock string) (hour, minute int, err error) {
	if _, err = fmt.Sscanf(clock, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q: %w", clock, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid clock time %q", clock)
	}
	return hour, minute, nil
}

// FormatDuration renders a millisecond duration as "2h 30m" / "45m".
func FormatDuration(ms int64) string {
	hours := ms / (1000 * 60 * 60)
	minutes := (ms % (1000 * 60 * 60)) / (1000 * 60)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
