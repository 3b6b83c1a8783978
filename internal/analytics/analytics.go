// Package analytics aggregates recorded task and sleep time into weekly,
// monthly, and per-category reports. Aggregation always uses live elapsed
// time so a running task is counted up to the moment of the query.
package analytics

import (
	"sort"
	"time"

	"github.com/weekwise/weekwise/internal/models"
	"github.com/weekwise/weekwise/internal/timeutil"
)

// SleepCategory is the pseudo-category sleep sessions report under.
const SleepCategory = "Sleep"

// CategoryTotal aggregates one category's recorded and planned time.
type CategoryTotal struct {
	Category    string `json:"category"`
	TotalTime   int64  `json:"total_time"`
	PlannedTime int64  `json:"planned_time"`
	TaskCount   int    `json:"task_count"`
}

// DayTotal aggregates one calendar day.
type DayTotal struct {
	Date      string `json:"date"`
	Day       string `json:"day"`
	TotalTime int64  `json:"total_time"`
}

// WeeklyReport summarizes one scheduling week. TotalTime includes sleep;
// AveragePerDay always divides by 7, even for a month-clipped week.
type WeeklyReport struct {
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	TotalTime      int64           `json:"total_time"`
	TotalPlanned   int64           `json:"total_planned"`
	AveragePerDay  int64           `json:"average_per_day"`
	SessionCount   int             `json:"session_count"`
	ActiveTasks    int             `json:"active_tasks"`
	CompletedTasks int             `json:"completed_tasks"`
	Categories     []CategoryTotal `json:"categories"`
	Days           []DayTotal      `json:"days"`
	SleepTotal     int64           `json:"sleep_total"`
	SleepSessions  int             `json:"sleep_sessions"`
}

// WeekTotal aggregates one analytics week of a month.
type WeekTotal struct {
	Week      int   `json:"week"`
	TotalTime int64 `json:"total_time"`
}

// MonthlyReport summarizes one calendar month. Weeks are bucketed by the
// ceil(day/7) rule, so days 29-31 land in a fifth bucket; this is the
// analytics view, distinct from the 4-week scheduling convention.
type MonthlyReport struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"` // 0-indexed
	TotalTime     int64           `json:"total_time"`
	SessionCount  int             `json:"session_count"`
	Categories    []CategoryTotal `json:"categories"`
	Weeks         []WeekTotal     `json:"weeks"`
	SleepTotal    int64           `json:"sleep_total"`
	SleepSessions int             `json:"sleep_sessions"`
}

// CategoryDay aggregates one concrete date inside a category report.
type CategoryDay struct {
	Date      string `json:"date"`
	TotalTime int64  `json:"total_time"`
	Sessions  int    `json:"sessions"`
	TaskCount int    `json:"task_count"`
}

// CategoryReport summarizes one category over a date range, bucketed by
// concrete date.
type CategoryReport struct {
	Category      string        `json:"category"`
	StartDate     string        `json:"start_date"`
	EndDate       string        `json:"end_date"`
	TotalTime     int64         `json:"total_time"`
	AveragePerDay int64         `json:"average_per_day"`
	TaskCount     int           `json:"task_count"`
	WorkedCount   int           `json:"worked_count"`
	Days          []CategoryDay `json:"days"`
}

// Weekly builds the report for a scheduling week from its tasks and
// completed sleep sessions.
func Weekly(tasks []*models.Task, sleeps []*models.Sleep, weekRange timeutil.WeekRange, now time.Time, loc *time.Location) *WeeklyReport {
	report := &WeeklyReport{
		StartDate: weekRange.StartDate,
		EndDate:   weekRange.EndDate,
	}

	byCategory := make(map[string]*CategoryTotal)
	byDate := make(map[string]int64)
	for _, task := range tasks {
		elapsed := task.LiveElapsed(now)
		report.TotalTime += elapsed
		report.TotalPlanned += task.PlannedTime
		report.SessionCount += task.SessionCount()
		byDate[task.Date] += elapsed

		if task.IsActive {
			report.ActiveTasks++
		} else if !task.Untouched() {
			report.CompletedTasks++
		}

		ct, ok := byCategory[task.Category]
		if !ok {
			ct = &CategoryTotal{Category: task.Category}
			byCategory[task.Category] = ct
		}
		ct.TotalTime += elapsed
		ct.PlannedTime += task.PlannedTime
		ct.TaskCount++
	}

	for _, s := range sleeps {
		report.SleepTotal += s.Duration
		report.SleepSessions++
	}
	if report.SleepSessions > 0 {
		byCategory[SleepCategory] = &CategoryTotal{
			Category:  SleepCategory,
			TotalTime: report.SleepTotal,
			TaskCount: report.SleepSessions,
		}
	}

	// Sleep counts toward the week's total, and the average keeps its fixed
	// divisor of 7 even when the scheduling week is month-clipped.
	report.TotalTime += report.SleepTotal
	report.AveragePerDay = report.TotalTime / 7

	report.Categories = sortedCategories(byCategory)

	for d := weekRange.Start; d.Before(weekRange.End); d = d.AddDate(0, 0, 1) {
		date := timeutil.DateString(d, loc)
		report.Days = append(report.Days, DayTotal{
			Date:      date,
			Day:       timeutil.DayName(d, loc),
			TotalTime: byDate[date],
		})
	}

	return report
}

// Monthly builds the report for a calendar month from its tasks and
// completed sleep sessions. month is 0-indexed.
func Monthly(tasks []*models.Task, sleeps []*models.Sleep, year, month int, now time.Time) *MonthlyReport {
	report := &MonthlyReport{Year: year, Month: month}

	byCategory := make(map[string]*CategoryTotal)
	byWeek := make(map[int]int64)
	for _, task := range tasks {
		elapsed := task.LiveElapsed(now)
		report.TotalTime += elapsed
		report.SessionCount += task.SessionCount()

		if day, err := time.Parse(timeutil.DateFormat, task.Date); err == nil {
			byWeek[timeutil.WeekOfMonth(day.Day())] += elapsed
		}

		ct, ok := byCategory[task.Category]
		if !ok {
			ct = &CategoryTotal{Category: task.Category}
			byCategory[task.Category] = ct
		}
		ct.TotalTime += elapsed
		ct.PlannedTime += task.PlannedTime
		ct.TaskCount++
	}

	for _, s := range sleeps {
		report.SleepTotal += s.Duration
		report.SleepSessions++
		if day, err := time.Parse(timeutil.DateFormat, s.Date); err == nil {
			byWeek[timeutil.WeekOfMonth(day.Day())] += s.Duration
		}
	}
	if report.SleepSessions > 0 {
		byCategory[SleepCategory] = &CategoryTotal{
			Category:  SleepCategory,
			TotalTime: report.SleepTotal,
			TaskCount: report.SleepSessions,
		}
	}
	report.TotalTime += report.SleepTotal

	report.Categories = sortedCategories(byCategory)
	for week := 1; week <= 5; week++ {
		report.Weeks = append(report.Weeks, WeekTotal{Week: week, TotalTime: byWeek[week]})
	}
	return report
}

// Category builds the per-category report over an inclusive date range.
// AveragePerDay divides by the range length in days, not the days worked.
func Category(tasks []*models.Task, category, startDate, endDate string, now time.Time) *CategoryReport {
	report := &CategoryReport{
		Category:  category,
		StartDate: startDate,
		EndDate:   endDate,
	}

	byDate := make(map[string]*CategoryDay)
	for _, task := range tasks {
		elapsed := task.LiveElapsed(now)
		report.TotalTime += elapsed
		report.TaskCount++
		if elapsed > 0 {
			report.WorkedCount++
		}

		cd, ok := byDate[task.Date]
		if !ok {
			cd = &CategoryDay{Date: task.Date}
			byDate[task.Date] = cd
		}
		cd.TotalTime += elapsed
		cd.Sessions += task.SessionCount()
		cd.TaskCount++
	}

	report.Days = make([]CategoryDay, 0, len(byDate))
	for _, cd := range byDate {
		report.Days = append(report.Days, *cd)
	}
	sort.Slice(report.Days, func(i, j int) bool {
		return report.Days[i].Date < report.Days[j].Date
	})

	if days := rangeDays(startDate, endDate); days > 0 {
		report.AveragePerDay = report.TotalTime / int64(days)
	}
	return report
}

func sortedCategories(byCategory map[string]*CategoryTotal) []CategoryTotal {
	categories := make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		categories = append(categories, *ct)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].TotalTime != categories[j].TotalTime {
			return categories[i].TotalTime > categories[j].TotalTime
		}
		return categories[i].Category < categories[j].Category
	})
	return categories
}

func rangeDays(startDate, endDate string) int {
	start, err1 := time.Parse(timeutil.DateFormat, startDate)
	end, err2 := time.Parse(timeutil.DateFormat, endDate)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}
