// Package templates implements weekly task templates: named, reusable task
// patterns keyed by day of week that can be stamped onto any scheduling
// week.
package templates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/weekwise/weekwise/internal/apperr"
	"github.com/weekwise/weekwise/internal/calendar"
	"github.com/weekwise/weekwise/internal/database"
	"github.com/weekwise/weekwise/internal/models"
	"github.com/weekwise/weekwise/internal/scheduling"
	"github.com/weekwise/weekwise/internal/timeutil"
	"go.uber.org/zap"
)

// Service applies templates onto scheduling weeks.
type Service struct {
	templates database.TemplateRepositoryInterface
	tasks     database.TaskRepositoryInterface
	auto      *scheduling.Service
	cal       calendar.Service
	clock     timeutil.Clock
	log       *zap.Logger
}

// NewService creates a template service.
func NewService(
	templates database.TemplateRepositoryInterface,
	tasks database.TaskRepositoryInterface,
	auto *scheduling.Service,
	cal calendar.Service,
	clock timeutil.Clock,
	log *zap.Logger,
) *Service {
	return &Service{
		templates: templates,
		tasks:     tasks,
		auto:      auto,
		cal:       cal,
		clock:     clock,
		log:       log,
	}
}

// ApplyResult reports what an application produced.
type ApplyResult struct {
	Tasks          []*models.Task `json:"tasks"`
	Created        int            `json:"created"`
	Updated        int            `json:"updated"`
	Skipped        int            `json:"skipped"`
	CalendarEvents int            `json:"calendar_events"`
}

// Apply stamps a template onto the given scheduling week. Applying is
// idempotent and repeat-safe: a task that already exists on its target date
// is updated in place rather than duplicated, and already-worked-on tasks
// keep their recorded time.
//
// month is 0-indexed. user is needed for calendar event creation and may
// have no calendar connected; event creation is best effort.
func (s *Service) Apply(ctx context.Context, user *models.User, templateID uuid.UUID, year, month, week int, loc *time.Location) (*ApplyResult, error) {
	tpl, err := s.templates.GetByID(ctx, user.ID, templateID)
	if err != nil {
		return nil, err
	}

	weekRange, err := timeutil.WeekRangeOf(year, month, week, loc)
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}

	result := &ApplyResult{}
	for i := range tpl.Tasks {
		def := &tpl.Tasks[i]

		date, ok := dateForDay(weekRange, def.Day, loc)
		if !ok {
			// Day falls outside week 4's shortened span in a month whose
			// final week lacks that weekday occurrence.
			result.Skipped++
			continue
		}

		task, err := s.applyOne(ctx, user, def, date, loc, result)
		if err != nil {
			return nil, err
		}
		result.Tasks = append(result.Tasks, task)
	}

	s.log.Info("template_applied",
		zap.String("template_id", templateID.String()),
		zap.String("start_date", weekRange.StartDate),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// applyOne creates or refreshes the concrete task for one template entry.
func (s *Service) applyOne(ctx context.Context, user *models.User, def *models.TemplateTask, date string, loc *time.Location, result *ApplyResult) (*models.Task, error) {
	existing, err := s.tasks.GetByKey(ctx, user.ID, def.Name, def.Category, date)
	switch {
	case err == nil:
		task, err := s.updateExisting(ctx, user, existing, def, loc, result)
		if err != nil {
			return nil, err
		}
		result.Updated++
		return task, nil
	case !apperr.IsNotFound(err):
		return nil, err
	}

	task := s.newTask(user.ID, def, date, loc)
	if err := s.tasks.Create(ctx, task); err != nil {
		if apperr.IsConflict(err) {
			// A concurrent apply inserted the same key; fold into it.
			existing, ferr := s.tasks.GetByKey(ctx, user.ID, def.Name, def.Category, date)
			if ferr != nil {
				return nil, ferr
			}
			task, uerr := s.updateExisting(ctx, user, existing, def, loc, result)
			if uerr != nil {
				return nil, uerr
			}
			result.Updated++
			return task, nil
		}
		return nil, err
	}

	if _, err := s.auto.AutoComplete(ctx, task, loc); err != nil {
		s.log.Warn("template_auto_complete_failed",
			zap.String("task_id", task.ID.String()), zap.Error(err))
	}
	s.maybeCreateEvent(ctx, user, def, task, loc, result)

	result.Created++
	return task, nil
}

// updateExisting overwrites the planned fields of a task that a prior apply
// (or the user) already created on the target date. Recorded work survives:
// only an untouched task gets its completion count reset and a fresh shot
// at auto-completion. A task still missing its calendar event gets one,
// which covers a calendar connected between two applies.
func (s *Service) updateExisting(ctx context.Context, user *models.User, task *models.Task, def *models.TemplateTask, loc *time.Location, result *ApplyResult) (*models.Task, error) {
	task.PlannedTime = def.PlannedTime
	task.IsAutomated = def.IsAutomated
	task.ScheduledStartTime = def.ScheduledStartTime
	task.ScheduledEndTime = def.ScheduledEndTime
	task.NotificationsEnabled = def.AddToCalendar && def.ReminderMinutes > 0
	task.NotificationMinutes = def.ReminderMinutes
	if task.Untouched() && !task.IsActive {
		task.CompletionCount = 0
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	if _, err := s.auto.AutoComplete(ctx, task, loc); err != nil {
		s.log.Warn("template_auto_complete_failed",
			zap.String("task_id", task.ID.String()), zap.Error(err))
	}
	s.maybeCreateEvent(ctx, user, def, task, loc, result)
	return task, nil
}

func (s *Service) newTask(userID uuid.UUID, def *models.TemplateTask, date string, loc *time.Location) *models.Task {
	return &models.Task{
		ID:                   uuid.New(),
		UserID:               userID,
		Name:                 def.Name,
		Category:             def.Category,
		Date:                 date,
		Day:                  def.Day,
		Sessions:             []models.Session{},
		PlannedTime:          def.PlannedTime,
		IsAutomated:          def.IsAutomated,
		ScheduledStartTime:   def.ScheduledStartTime,
		ScheduledEndTime:     def.ScheduledEndTime,
		NotificationsEnabled: def.AddToCalendar && def.ReminderMinutes > 0,
		NotificationMinutes:  def.ReminderMinutes,
	}
}

// maybeCreateEvent creates a calendar event for a newly stamped task when
// the template asks for one and the task has concrete clock times. Failures
// are logged, never fatal: the calendar is a convenience mirror, not the
// source of truth. Storing the event id makes reapplication idempotent.
func (s *Service) maybeCreateEvent(ctx context.Context, user *models.User, def *models.TemplateTask, task *models.Task, loc *time.Location, result *ApplyResult) {
	if !def.AddToCalendar || task.CalendarEventID != nil {
		return
	}
	if def.ScheduledStartTime == nil || def.ScheduledEndTime == nil {
		return
	}

	start, err1 := clockOnDate(task.Date, *def.ScheduledStartTime, loc)
	end, err2 := clockOnDate(task.Date, *def.ScheduledEndTime, loc)
	if err1 != nil || err2 != nil {
		return
	}

	eventID, err := s.cal.CreateEvent(ctx, user, calendar.Event{
		Summary:         task.Name,
		Description:     task.Category,
		Start:           start,
		End:             end,
		Timezone:        loc.String(),
		ReminderMinutes: def.ReminderMinutes,
	})
	if err != nil {
		if err != calendar.ErrNotConnected {
			s.log.Warn("calendar_event_create_failed",
				zap.String("task_id", task.ID.String()), zap.Error(err))
		}
		return
	}

	if err := s.tasks.SetCalendarEventID(ctx, task.ID, eventID); err != nil {
		s.log.Warn("calendar_event_id_persist_failed",
			zap.String("task_id", task.ID.String()), zap.Error(err))
		return
	}
	task.CalendarEventID = &eventID
	result.CalendarEvents++
}

// dateForDay maps a weekday name to its concrete date inside the week. Week
// 4 can span more than 7 days; the first occurrence at or after the week
// start wins. A weekday with no occurrence inside the span reports false.
func dateForDay(weekRange timeutil.WeekRange, day string, loc *time.Location) (string, bool) {
	target, ok := timeutil.WeekdayIndex(day)
	if !ok {
		return "", false
	}

	startIdx := int(weekRange.Start.In(loc).Weekday())
	offset := (target - startIdx + 7) % 7
	date := weekRange.Start.AddDate(0, 0, offset)
	if !date.Before(weekRange.End) {
		return "", false
	}
	return timeutil.DateString(date, loc), true
}

func clockOnDate(date, clock string, loc *time.Location) (time.Time, error) {
	h, m, err := timeutil.ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return timeutil.CombineDateAndClock(date, h, m, loc)
}
