// Package workers contains the background consumers run by the worker
// binary.
package workers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/weekwise/weekwise/internal/apperr"
	"github.com/weekwise/weekwise/internal/models"
	"github.com/weekwise/weekwise/internal/queue"
	"go.uber.org/zap"
)

// TaskLoader is the slice of the task repository the notifier needs.
type TaskLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
}

// Delivery sends a reminder to the user. The production implementation logs
// a structured event that the notification relay tails; tests swap in a
// recorder.
type Delivery interface {
	Deliver(ctx context.Context, job *queue.Job, task *models.Task) error
}

// LogDelivery emits reminders as structured log events.
type LogDelivery struct {
	Log *zap.Logger
}

// Deliver logs the reminder.
func (d *LogDelivery) Deliver(_ context.Context, job *queue.Job, task *models.Task) error {
	d.Log.Info("reminder_delivered",
		zap.String("user_id", job.UserID.String()),
		zap.String("task_id", task.ID.String()),
		zap.String("task_name", task.Name),
		zap.String("task_date", task.Date),
	)
	return nil
}

// ReminderNotifier consumes reminder jobs and delivers notifications for
// tasks that are still worth reminding about.
type ReminderNotifier struct {
	tasks    TaskLoader
	delivery Delivery
	log      *zap.Logger
}

// NewReminderNotifier creates a reminder notifier.
func NewReminderNotifier(tasks TaskLoader, delivery Delivery, log *zap.Logger) *ReminderNotifier {
	return &ReminderNotifier{tasks: tasks, delivery: delivery, log: log}
}

// ProcessJob handles one queued message. It acks messages that are done or
// permanently useless and nacks transient failures for redelivery until the
// retry budget runs out.
func (n *ReminderNotifier) ProcessJob(ctx context.Context, msg *queue.Message) error {
	job := msg.Job
	if job.Type != queue.JobTypeReminder {
		n.log.Warn("unknown_job_type", zap.String("job_type", string(job.Type)))
		return msg.Ack()
	}

	err := n.remind(ctx, job)
	if err == nil {
		return msg.Ack()
	}

	if !job.CanRetry() {
		n.log.Error("reminder_dropped_after_retries",
			zap.String("job_id", job.ID.String()),
			zap.String("task_id", job.TaskID.String()),
			zap.Error(err),
		)
		return msg.Ack()
	}

	job.IncrementRetry()
	n.log.Warn("reminder_delivery_failed_retrying",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Error(err),
	)
	return msg.Nack(true)
}

// remind loads the task and delivers the reminder if it still applies. A
// deleted task or one the user already started or finished needs no
// reminder; those outcomes are terminal, not errors.
func (n *ReminderNotifier) remind(ctx context.Context, job *queue.Job) error {
	task, err := n.tasks.GetByID(ctx, job.TaskID)
	if err != nil {
		if apperr.IsNotFound(err) {
			n.log.Debug("reminder_task_gone", zap.String("task_id", job.TaskID.String()))
			return nil
		}
		return fmt.Errorf("failed to load task for reminder: %w", err)
	}

	if !task.NotificationsEnabled {
		return nil
	}
	if task.IsActive || task.SessionCount() > 0 {
		// The user is already on it.
		return nil
	}

	return n.delivery.Deliver(ctx, job, task)
}
