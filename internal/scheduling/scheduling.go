// Package scheduling implements automatic completion of automated tasks.
// When an automated task's date has arrived (or passed) and the user never
// touched it, a synthesized session equal to its planned time is recorded
// on its behalf.
package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/weekwise/weekwise/internal/models"
	"github.com/weekwise/weekwise/internal/timeutil"
	"go.uber.org/zap"
)

// Fallback start hour for tasks with no scheduled clock times.
const defaultSessionHour = 1

// TaskCompleter is the slice of the task repository this service writes
// through.
type TaskCompleter interface {
	CompleteAutomated(ctx context.Context, taskID uuid.UUID, session models.Session, plannedTime int64) (bool, error)
}

// Service applies auto-completion to eligible tasks.
type Service struct {
	tasks TaskCompleter
	clock timeutil.Clock
	log   *zap.Logger
}

// NewService creates an auto-completion service.
func NewService(tasks TaskCompleter, clock timeutil.Clock, log *zap.Logger) *Service {
	return &Service{tasks: tasks, clock: clock, log: log}
}

// Eligible reports whether a task qualifies for auto-completion: automated,
// not currently running, has a planned duration, never worked on, and its
// date is today or earlier. String comparison works because dates are
// YYYY-MM-DD.
func Eligible(task *models.Task, today string) bool {
	return task.IsAutomated &&
		!task.IsActive &&
		task.PlannedTime > 0 &&
		task.Untouched() &&
		task.Date <= today
}

// SynthesizeSession builds the session recorded for an auto-completed task.
// When both scheduled clock times are present the session spans exactly
// them; either way the duration is the planned time, so a task scheduled
// 09:00 to 10:30 with 60 planned minutes still accrues 60 minutes.
func SynthesizeSession(task *models.Task, loc *time.Location) models.Session {
	var start, end time.Time

	if task.ScheduledStartTime != nil && task.ScheduledEndTime != nil {
		if h, m, err := timeutil.ParseClock(*task.ScheduledStartTime); err == nil {
			if t, err := timeutil.CombineDateAndClock(task.Date, h, m, loc); err == nil {
				start = t
			}
		}
		if !start.IsZero() {
			if h, m, err := timeutil.ParseClock(*task.ScheduledEndTime); err == nil {
				if t, err := timeutil.CombineDateAndClock(task.Date, h, m, loc); err == nil {
					end = t
				}
			}
		}
	}
	if start.IsZero() {
		if t, err := timeutil.CombineDateAndClock(task.Date, defaultSessionHour, 0, loc); err == nil {
			start = t
		}
	}
	if end.IsZero() {
		end = start.Add(time.Duration(task.PlannedTime) * time.Millisecond)
	}

	return models.Session{
		StartTime: start,
		EndTime:   end,
		Duration:  task.PlannedTime,
	}
}

// AutoComplete applies auto-completion to one task if it is eligible. The
// database update is conditional on the task still being untouched, so a
// concurrent manual start or a second auto-completion pass loses cleanly.
// On success the in-memory task is updated to the completed state and true
// is returned.
func (s *Service) AutoComplete(ctx context.Context, task *models.Task, loc *time.Location) (bool, error) {
	today := timeutil.TodayString(s.clock.Now(), loc)
	if !Eligible(task, today) {
		return false, nil
	}

	session := SynthesizeSession(task, loc)
	applied, err := s.tasks.CompleteAutomated(ctx, task.ID, session, task.PlannedTime)
	if err != nil {
		return false, err
	}
	if !applied {
		// Lost the race to another writer. The caller's copy is stale but
		// harmless; the next read sees the winner's state.
		return false, nil
	}

	task.Sessions = append(task.Sessions, session)
	task.TotalTime = task.PlannedTime
	task.CompletionCount++

	s.log.Info("task_auto_completed",
		zap.String("task_id", task.ID.String()),
		zap.String("date", task.Date),
		zap.Int64("planned_time", task.PlannedTime),
	)
	return true, nil
}

// AutoCompleteAll sweeps a task list, auto-completing every eligible task,
// and returns the number applied. Errors on individual tasks are logged and
// skipped so one bad row never blocks a listing.
func (s *Service) AutoCompleteAll(ctx context.Context, tasks []*models.Task, loc *time.Location) int {
	applied := 0
	for _, task := range tasks {
		ok, err := s.AutoComplete(ctx, task, loc)
		if err != nil {
			s.log.Error("auto_complete_failed",
				zap.String("task_id", task.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if ok {
			applied++
		}
	}
	return applied
}
