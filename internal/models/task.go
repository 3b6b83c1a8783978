package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is one completed start/stop interval on a task. Durations are in
// milliseconds, matching the wire format used by the clients.
type Session struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  int64     `json:"duration"`
}

// Task is a scheduled unit of work on a concrete calendar date.
//
// Category holds the category display name, not a foreign key: renaming or
// deleting a category never rewrites historical tasks.
type Task struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Date     string    `json:"date"` // YYYY-MM-DD in the owner's timezone
	Day      string    `json:"day"`  // lowercase weekday name, derived from Date

	IsActive  bool       `json:"is_active"`
	StartTime *time.Time `json:"start_time,omitempty"` // non-nil iff IsActive
	Sessions  []Session  `json:"sessions"`
	TotalTime int64      `json:"total_time"` // completed sessions only, ms

	PlannedTime     int64 `json:"planned_time"` // ms
	IsAutomated     bool  `json:"is_automated"`
	CompletionCount int   `json:"completion_count"`
	Order           int   `json:"order"`

	ScheduledStartTime *string `json:"scheduled_start_time,omitempty"` // "HH:MM"
	ScheduledEndTime   *string `json:"scheduled_end_time,omitempty"`   // "HH:MM"

	NotificationsEnabled bool `json:"notifications_enabled"`
	NotificationMinutes  int  `json:"notification_minutes"`

	CalendarEventID *string `json:"calendar_event_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LiveElapsed returns the task's total time including the currently running
// interval, as of now. This is the single time formula used everywhere a
// task's elapsed time is displayed or aggregated: stored TotalTime alone
// undercounts a running task.
func (t *Task) LiveElapsed(now time.Time) int64 {
	elapsed := t.TotalTime
	if t.IsActive && t.StartTime != nil {
		elapsed += now.Sub(*t.StartTime).Milliseconds()
	}
	return elapsed
}

// SessionCount returns the number of completed sessions plus one for the
// in-progress interval of an active task. The running interval has no
// persisted session record yet but counts for display purposes.
func (t *Task) SessionCount() int {
	n := len(t.Sessions)
	if t.IsActive {
		n++
	}
	return n
}

// Untouched reports whether the task has never been worked on.
func (t *Task) Untouched() bool {
	return t.TotalTime == 0 && len(t.Sessions) == 0
}
