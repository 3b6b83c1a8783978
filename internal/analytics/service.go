package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/weekwise/weekwise/internal/apperr"
	"github.com/weekwise/weekwise/internal/cache"
	"github.com/weekwise/weekwise/internal/database"
	"github.com/weekwise/weekwise/internal/timeutil"
	"go.uber.org/zap"
)

// Service fetches the raw rows and serves cached reports. Reports are
// cached briefly; a running task makes them moving targets, so the TTL is
// the staleness bound.
type Service struct {
	tasks  database.TaskRepositoryInterface
	sleeps database.SleepRepositoryInterface
	cache  *cache.Cache
	clock  timeutil.Clock
	log    *zap.Logger
}

// NewService creates an analytics service.
func NewService(tasks database.TaskRepositoryInterface, sleeps database.SleepRepositoryInterface, c *cache.Cache, clock timeutil.Clock, log *zap.Logger) *Service {
	return &Service{tasks: tasks, sleeps: sleeps, cache: c, clock: clock, log: log}
}

// Weekly reports on one scheduling week. month is 0-indexed.
func (s *Service) Weekly(ctx context.Context, userID uuid.UUID, year, month, week int, loc *time.Location) (*WeeklyReport, error) {
	weekRange, err := timeutil.WeekRangeOf(year, month, week, loc)
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}

	key := cache.Key(userID, "analytics", "weekly",
		fmt.Sprintf("%d-%d-%d", year, month, week), loc.String())
	var cached WeeklyReport
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	tasks, err := s.tasks.ListByDateRange(ctx, userID, weekRange.StartDate, weekRange.EndDate)
	if err != nil {
		return nil, err
	}
	sleeps, err := s.sleeps.ListCompletedByDateRange(ctx, userID, weekRange.StartDate, weekRange.EndDate)
	if err != nil {
		return nil, err
	}

	report := Weekly(tasks, sleeps, weekRange, s.clock.Now(), loc)
	s.cache.SetJSON(ctx, key, report, cache.AnalyticsTTL)
	return report, nil
}

// Monthly reports on one calendar month. month is 0-indexed.
func (s *Service) Monthly(ctx context.Context, userID uuid.UUID, year, month int, loc *time.Location) (*MonthlyReport, error) {
	if month < 0 || month > 11 {
		return nil, apperr.Validationf("month out of range: %d", month)
	}

	key := cache.Key(userID, "analytics", "monthly",
		fmt.Sprintf("%d-%d", year, month), loc.String())
	var cached MonthlyReport
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	first := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)
	firstDate := timeutil.DateString(first, loc)
	lastDate := timeutil.DateString(last, loc)
	tasks, err := s.tasks.ListByDateRange(ctx, userID, firstDate, lastDate)
	if err != nil {
		return nil, err
	}
	sleeps, err := s.sleeps.ListCompletedByDateRange(ctx, userID, firstDate, lastDate)
	if err != nil {
		return nil, err
	}

	report := Monthly(tasks, sleeps, year, month, s.clock.Now())
	s.cache.SetJSON(ctx, key, report, cache.AnalyticsTTL)
	return report, nil
}

// Category reports on one category over an inclusive date range.
func (s *Service) Category(ctx context.Context, userID uuid.UUID, category, startDate, endDate string) (*CategoryReport, error) {
	key := cache.Key(userID, "analytics", "category", category, startDate, endDate)
	var cached CategoryReport
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	tasks, err := s.tasks.ListByCategory(ctx, userID, category, startDate, endDate)
	if err != nil {
		return nil, err
	}

	report := Category(tasks, category, startDate, endDate, s.clock.Now())
	s.cache.SetJSON(ctx, key, report, cache.AnalyticsTTL)
	return report, nil
}
