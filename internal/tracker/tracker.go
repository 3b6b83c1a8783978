// Package tracker implements the start/stop time accounting on tasks.
package tracker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/weekwise/weekwise/internal/apperr"
	"github.com/weekwise/weekwise/internal/models"
	"github.com/weekwise/weekwise/internal/timeutil"
	"go.uber.org/zap"
)

// OvertimeGrace is how far past its planned time an active task may run
// before it is flagged as overtime. Advisory only; nothing is stopped
// automatically.
const OvertimeGrace = time.Hour

// TaskStore is the slice of the task repository the tracker needs.
type TaskStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	GetActive(ctx context.Context, userID uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
}

// Service mutates task running state.
type Service struct {
	tasks TaskStore
	clock timeutil.Clock
	log   *zap.Logger
}

// NewService creates a tracker service.
func NewService(tasks TaskStore, clock timeutil.Clock, log *zap.Logger) *Service {
	return &Service{tasks: tasks, clock: clock, log: log}
}

// Start begins timing a task. Only today's tasks can be started, and at most
// one task runs per user: a different running task is stopped first, its
// interval folded into its totals.
func (s *Service) Start(ctx context.Context, userID, taskID uuid.UUID, loc *time.Location) (*models.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, apperr.NotFound("task", taskID.String())
	}

	now := s.clock.Now()
	if task.Date != timeutil.TodayString(now, loc) {
		return nil, apperr.Validationf("task can only be started on its scheduled date")
	}
	if task.IsActive {
		return nil, apperr.Validationf("task is already running")
	}

	if active, err := s.tasks.GetActive(ctx, userID); err == nil {
		if err := s.stop(ctx, active, now); err != nil {
			return nil, err
		}
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	task.IsActive = true
	task.StartTime = &now
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	s.log.Info("task_started",
		zap.String("task_id", task.ID.String()),
		zap.String("date", task.Date),
	)
	return task, nil
}

// Stop ends timing a task, recording the elapsed interval as a session.
func (s *Service) Stop(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, apperr.NotFound("task", taskID.String())
	}
	if !task.IsActive {
		return nil, apperr.Validationf("task is not running")
	}

	if err := s.stop(ctx, task, s.clock.Now()); err != nil {
		return nil, err
	}
	return task, nil
}

// stop folds the running interval into the task's sessions and totals. A
// missing start time (inconsistent row) just clears the active flag without
// inventing a session.
func (s *Service) stop(ctx context.Context, task *models.Task, now time.Time) error {
	if task.StartTime != nil {
		session := models.Session{
			StartTime: *task.StartTime,
			EndTime:   now,
			Duration:  now.Sub(*task.StartTime).Milliseconds(),
		}
		task.Sessions = append(task.Sessions, session)
		task.TotalTime += session.Duration
	}
	task.IsActive = false
	task.StartTime = nil

	if err := s.tasks.Update(ctx, task); err != nil {
		return err
	}

	s.log.Info("task_stopped",
		zap.String("task_id", task.ID.String()),
		zap.Int64("total_time", task.TotalTime),
	)
	return nil
}

// Overtime reports whether an active task has run more than OvertimeGrace
// past its planned time.
func Overtime(task *models.Task, now time.Time) bool {
	if !task.IsActive || task.PlannedTime <= 0 {
		return false
	}
	return task.LiveElapsed(now) > task.PlannedTime+OvertimeGrace.Milliseconds()
}
