package timeutil

import (
	"testing"
	"time"
)

func TestWeekRangeOf_FixedFourWeekRule(t *testing.T) {
	t.Parallel()

	loc := time.UTC

	tests := []struct {
		name      string
		year      int
		month     int // 0-indexed
		week      int
		startDate string
		endDate   string
	}{
		{name: "week 1 is days 1-7", year: 2024, month: 2, week: 1, startDate: "2024-03-01", endDate: "2024-03-07"},
		{name: "week 2 is days 8-14", year: 2024, month: 2, week: 2, startDate: "2024-03-08", endDate: "2024-03-14"},
		{name: "week 3 is days 15-21", year: 2024, month: 2, week: 3, startDate: "2024-03-15", endDate: "2024-03-21"},
		{name: "week 4 absorbs a 31-day month", year: 2024, month: 2, week: 4, startDate: "2024-03-22", endDate: "2024-03-31"},
		{name: "week 4 of a 30-day month", year: 2024, month: 3, week: 4, startDate: "2024-04-22", endDate: "2024-04-30"},
		{name: "week 4 of february in a leap year", year: 2024, month: 1, week: 4, startDate: "2024-02-22", endDate: "2024-02-29"},
		{name: "week 4 of february in a common year", year: 2023, month: 1, week: 4, startDate: "2023-02-22", endDate: "2023-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wr, err := WeekRangeOf(tt.year, tt.month, tt.week, loc)
			if err != nil {
				t.Fatalf("WeekRangeOf returned error: %v", err)
			}
			if wr.StartDate != tt.startDate {
				t.Errorf("StartDate = %s, want %s", wr.StartDate, tt.startDate)
			}
			if wr.EndDate != tt.endDate {
				t.Errorf("EndDate = %s, want %s", wr.EndDate, tt.endDate)
			}
			// End is exclusive: midnight after the last day.
			wantEnd, err := ParseDateInZone(tt.endDate, loc)
			if err != nil {
				t.Fatalf("ParseDateInZone: %v", err)
			}
			if !wr.End.Equal(wantEnd.AddDate(0, 0, 1)) {
				t.Errorf("End = %v, want %v", wr.End, wantEnd.AddDate(0, 0, 1))
			}
		})
	}
}

func TestWeekRangeOf_RejectsBadInput(t *testing.T) {
	t.Parallel()

	if _, err := WeekRangeOf(2024, 2, 0, time.UTC); err == nil {
		t.Error("expected error for week 0")
	}
	if _, err := WeekRangeOf(2024, 2, 5, time.UTC); err == nil {
		t.Error("expected error for week 5")
	}
	if _, err := WeekRangeOf(2024, 12, 1, time.UTC); err == nil {
		t.Error("expected error for month 12")
	}
}

func TestWeekOfMonth_DisagreesWithSchedulingRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		day  int
		week int
	}{
		{1, 1}, {7, 1}, {8, 2}, {14, 2}, {15, 3}, {21, 3}, {22, 4}, {28, 4},
		// Days 29-31 bucket into "week 5" for monthly analytics even though
		// the scheduling rule folds them into week 4.
		{29, 5}, {31, 5},
	}
	for _, tt := range tests {
		if got := WeekOfMonth(tt.day); got != tt.week {
			t.Errorf("WeekOfMonth(%d) = %d, want %d", tt.day, got, tt.week)
		}
	}
}

func TestDayName(t *testing.T) {
	t.Parallel()

	loc := Location("Asia/Kolkata")
	// 2024-03-10 is a Sunday.
	d, err := ParseDateInZone("2024-03-10", loc)
	if err != nil {
		t.Fatalf("ParseDateInZone: %v", err)
	}
	if got := DayName(d, loc); got != "sunday" {
		t.Errorf("DayName = %s, want sunday", got)
	}
	if got := DayName(d.AddDate(0, 0, 1), loc); got != "monday" {
		t.Errorf("DayName(+1d) = %s, want monday", got)
	}
}

func TestDayName_CrossesZoneBoundary(t *testing.T) {
	t.Parallel()

	// 23:30 UTC on a Saturday is already Sunday in Kolkata (UTC+5:30).
	instant := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	if got := DayName(instant, time.UTC); got != "saturday" {
		t.Errorf("DayName in UTC = %s, want saturday", got)
	}
	if got := DayName(instant, Location("Asia/Kolkata")); got != "sunday" {
		t.Errorf("DayName in Kolkata = %s, want sunday", got)
	}
}

func TestLocation_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	if got := Location("Not/AZone"); got.String() != DefaultTimezone {
		t.Errorf("Location(bad) = %s, want %s", got, DefaultTimezone)
	}
	if got := Location(""); got.String() != DefaultTimezone {
		t.Errorf("Location(empty) = %s, want %s", got, DefaultTimezone)
	}
	if got := Location("Europe/Berlin"); got.String() != "Europe/Berlin" {
		t.Errorf("Location(valid) = %s, want Europe/Berlin", got)
	}
}

func TestCombineDateAndClock(t *testing.T) {
	t.Parallel()

	loc := Location("Europe/Berlin")
	got, err := CombineDateAndClock("2024-03-10", 9, 30, loc)
	if err != nil {
		t.Fatalf("CombineDateAndClock: %v", err)
	}
	want := time.Date(2024, 3, 10, 9, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("CombineDateAndClock = %v, want %v", got, want)
	}
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{in: "09:30", hour: 9, minute: 30},
		{in: "00:00", hour: 0, minute: 0},
		{in: "23:59", hour: 23, minute: 59},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		h, m, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tt.in, err)
			continue
		}
		if h != tt.hour || m != tt.minute {
			t.Errorf("ParseClock(%q) = %d:%d, want %d:%d", tt.in, h, m, tt.hour, tt.minute)
		}
	}
}

func TestIsToday(t *testing.T) {
	t.Parallel()

	loc := Location("Asia/Kolkata")
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, loc)

	sameDay := time.Date(2024, 3, 15, 23, 0, 0, 0, loc)
	if !IsToday(sameDay, now, loc) {
		t.Error("expected same local day to be today")
	}
	yesterday := time.Date(2024, 3, 14, 23, 59, 0, 0, loc)
	if IsToday(yesterday, now, loc) {
		t.Error("expected previous day to not be today")
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0m"},
		{90000, "1m"},
		{1800000, "30m"},
		{3600000, "1h 0m"},
		{9000000, "2h 30m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.ms); got != tt.want {
			t.Errorf("FormatDuration(%d) = %s, want %s", tt.ms, got, tt.want)
		}
	}
}
