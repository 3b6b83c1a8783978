package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeReminder notifies a user shortly before a task's scheduled start
	JobTypeReminder JobType = "task_reminder"
)

// Job is a unit of deferred work. RemindAt is the earliest time it should
// be processed; the delayed exchange holds it back until then.
type Job struct {
	ID         uuid.UUID  `json:"id"`
	Type       JobType    `json:"type"`
	UserID     uuid.UUID  `json:"user_id"`
	TaskID     uuid.UUID  `json:"task_id"`
	TaskName   string     `json:"task_name"`
	TaskDate   string     `json:"task_date"`
	RemindAt   *time.Time `json:"remind_at,omitempty"`  // earliest processing time (nil = immediate)
	ExpiresAt  *time.Time `json:"expires_at,omitempty"` // latest useful processing time
	CreatedAt  time.Time  `json:"created_at"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`
}

// NewReminderJob creates a reminder job for a task. remindAt is when the
// notification should fire; the reminder is worthless after the task's
// scheduled start, so that is its expiry.
func NewReminderJob(userID, taskID uuid.UUID, taskName, taskDate string, remindAt, scheduledStart time.Time) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypeReminder,
		UserID:     userID,
		TaskID:     taskID,
		TaskName:   taskName,
		TaskDate:   taskDate,
		RemindAt:   &remindAt,
		ExpiresAt:  &scheduledStart,
		CreatedAt:  time.Now(),
		MaxRetries: 3,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()
	if j.RemindAt != nil && now.Before(*j.RemindAt) {
		return false
	}
	if j.ExpiresAt != nil && now.After(*j.ExpiresAt) {
		return false
	}
	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	return j.ExpiresAt != nil && time.Now().After(*j.ExpiresAt)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
