package timeutil

import (
	"fmt"
	"time"
)

// WeekdayNames maps time.Weekday order (Sunday = 0) to the lowercase names
// stored on tasks and templates.
var WeekdayNames = []string{
	"sunday",
	"monday",
	"tuesday",
	"wednesday",
	"thursday",
	"friday",
	"saturday",
}

// DayName returns the lowercase weekday name of t in loc.
func DayName(t time.Time, loc *time.Location) string {
	return WeekdayNames[int(t.In(loc).Weekday())]
}

// WeekdayIndex resolves a lowercase weekday name to its Sunday-based index.
func WeekdayIndex(day string) (int, bool) {
	for i, name := range WeekdayNames {
		if name == day {
			return i, true
		}
	}
	return 0, false
}

// IsWeekdayName reports whether day is one of the 7 lowercase weekday names.
func IsWeekdayName(day string) bool {
	_, ok := WeekdayIndex(day)
	return ok
}

// WeekRange describes the calendar span of a scheduling week.
type WeekRange struct {
	Start     time.Time // local midnight of the first day
	End       time.Time // local midnight of the day after the last day
	StartDate string    // YYYY-MM-DD
	EndDate   string    // YYYY-MM-DD of the last day (inclusive)
}

// WeekRangeOf computes the date span of a week under the fixed-4-week rule:
// week 1 = days 1-7, week 2 = 8-14, week 3 = 15-21, and week 4 runs from day
// 22 through the end of the month. Every month has exactly 4 weeks; week 4
// absorbs the 29th-31st, so callers must not assume a 7-day week 4. This is
// a deliberate scheduling convention, not an ISO week.
//
// month is 0-indexed (0 = January), matching the request surface.
func WeekRangeOf(year, month, week int, loc *time.Location) (WeekRange, error) {
	if month < 0 || month > 11 {
		return WeekRange{}, fmt.Errorf("month out of range: %d", month)
	}
	if week < 1 || week > 4 {
		return WeekRange{}, fmt.Errorf("week number out of range: %d", week)
	}

	startDay := 1 + (week-1)*7
	endDay := startDay + 6
	lastDay := daysInMonth(year, month, loc)
	if week == 4 {
		endDay = lastDay
	}

	m := time.Month(month + 1)
	start := time.Date(year, m, startDay, 0, 0, 0, 0, loc)
	end := time.Date(year, m, endDay+1, 0, 0, 0, 0, loc)
	return WeekRange{
		Start:     start,
		End:       end,
		StartDate: start.Format(DateFormat),
		EndDate:   time.Date(year, m, endDay, 0, 0, 0, 0, loc).Format(DateFormat),
	}, nil
}

// WeekOfMonth buckets a day of month with the ceil(day/7) rule used by
// monthly analytics. This intentionally disagrees with WeekRangeOf for days
// 29-31 (which the scheduling rule folds into week 4); the two schemes serve
// different call sites and are kept separate.
func WeekOfMonth(dayOfMonth int) int {
	return (dayOfMonth + 6) / 7
}

func daysInMonth(year, month int, loc *time.Location) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, loc).Day()
}
