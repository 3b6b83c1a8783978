package models

import (
	"time"

	"github.com/google/uuid"
)

// TemplateTask is one day-of-week-keyed task definition inside a template.
// It is a reusable pattern, not a concrete Task.
type TemplateTask struct {
	Name               string  `json:"name"`
	Category           string  `json:"category"`
	Day                string  `json:"day"` // lowercase weekday name
	PlannedTime        int64   `json:"planned_time"`
	IsAutomated        bool    `json:"is_automated"`
	ScheduledStartTime *string `json:"scheduled_start_time,omitempty"`
	ScheduledEndTime   *string `json:"scheduled_end_time,omitempty"`
	AddToCalendar      bool    `json:"add_to_calendar"`
	ReminderMinutes    int     `json:"reminder_minutes"`
}

// TaskTemplate is a named, reusable weekly task pattern. Applying it to a
// target week stamps the task definitions onto concrete calendar dates.
type TaskTemplate struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Name      string         `json:"name"` // unique per owner
	Tasks     []TemplateTask `json:"tasks"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
