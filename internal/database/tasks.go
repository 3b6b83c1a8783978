package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/weekwise/weekwise/internal/apperr"
	"github.com/weekwise/weekwise/internal/models"
)

const taskColumns = `id, user_id, name, category, date::text, day, is_active, start_time,
	sessions, total_time, planned_time, is_automated, completion_count, task_order,
	scheduled_start_time, scheduled_end_time, notifications_enabled, notification_minutes,
	calendar_event_id, created_at, updated_at`

// TaskRepository handles task persistence.
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a task. A duplicate (user, name, category, date) key is
// reported as a ConflictError so callers can fetch-and-merge.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	sessionsJSON, err := json.Marshal(sessionsOrEmpty(task.Sessions))
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	query := `
		INSERT INTO tasks (id, user_id, name, category, date, day, is_active, start_time,
			sessions, total_time, planned_time, is_automated, completion_count, task_order,
			scheduled_start_time, scheduled_end_time, notifications_enabled, notification_minutes,
			calendar_event_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $20)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		task.ID,
		task.UserID,
		task.Name,
		task.Category,
		task.Date,
		task.Day,
		task.IsActive,
		task.StartTime,
		sessionsJSON,
		task.TotalTime,
		task.PlannedTime,
		task.IsAutomated,
		task.CompletionCount,
		task.Order,
		task.ScheduledStartTime,
		task.ScheduledEndTime,
		task.NotificationsEnabled,
		task.NotificationMinutes,
		task.CalendarEventID,
		now,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflictf("task %q already exists for %s", task.Name, task.Date)
		}
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task by id.
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("task", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// GetByKey retrieves a task by its natural (owner, name, category, date) key.
func (r *TaskRepository) GetByKey(ctx context.Context, userID uuid.UUID, name, category, date string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND name = $2 AND category = $3 AND date = $4`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, userID, name, category, date))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("task", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task by key: %w", err)
	}
	return task, nil
}

// GetActive retrieves the user's currently running task, if any.
func (r *TaskRepository) GetActive(ctx context.Context, userID uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 AND is_active LIMIT 1`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("active task", "")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active task: %w", err)
	}
	return task, nil
}

// ListByDateRange returns the user's tasks with startDate <= date <= endDate,
// ordered by date, manual order, then creation time.
func (r *TaskRepository) ListByDateRange(ctx context.Context, userID uuid.UUID, startDate, endDate string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, task_order, created_at`

	rows, err := r.db.QueryContext(ctx, query, userID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListByDateRangePaginated returns one page of tasks in the range plus the
// total match count.
func (r *TaskRepository) ListByDateRangePaginated(ctx context.Context, userID uuid.UUID, startDate, endDate string, page, pageSize int) ([]*models.Task, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND date >= $2 AND date <= $3`
	if err := r.db.QueryRowContext(ctx, countQuery, userID, startDate, endDate).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, task_order, created_at
		LIMIT $4 OFFSET $5`

	rows, err := r.db.QueryContext(ctx, query, userID, startDate, endDate, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// ListByCategory returns the user's tasks in one category, optionally
// bounded by an inclusive date range, ordered by date.
func (r *TaskRepository) ListByCategory(ctx context.Context, userID uuid.UUID, category string, startDate, endDate string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND category = $2`
	args := []any{userID, category}

	if startDate != "" && endDate != "" {
		query += ` AND date >= $3 AND date <= $4`
		args = append(args, startDate, endDate)
	}
	query += ` ORDER BY date`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query category tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// Update persists all mutable task fields.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	sessionsJSON, err := json.Marshal(sessionsOrEmpty(task.Sessions))
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	query := `
		UPDATE tasks
		SET name = $2, category = $3, is_active = $4, start_time = $5, sessions = $6,
			total_time = $7, planned_time = $8, is_automated = $9, completion_count = $10,
			task_order = $11, scheduled_start_time = $12, scheduled_end_time = $13,
			notifications_enabled = $14, notification_minutes = $15, calendar_event_id = $16,
			updated_at = $17
		WHERE id = $1
		RETURNING updated_at
	`

	err = r.db.QueryRowContext(ctx, query,
		task.ID,
		task.Name,
		task.Category,
		task.IsActive,
		task.StartTime,
		sessionsJSON,
		task.TotalTime,
		task.PlannedTime,
		task.IsAutomated,
		task.CompletionCount,
		task.Order,
		task.ScheduledStartTime,
		task.ScheduledEndTime,
		task.NotificationsEnabled,
		task.NotificationMinutes,
		task.CalendarEventID,
		time.Now(),
	).Scan(&task.UpdatedAt)

	if err == sql.ErrNoRows {
		return apperr.NotFound("task", task.ID.String())
	}
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// CompleteAutomated appends the synthesized session and sets the completed
// totals in one conditional update. The guard on the untouched state makes
// concurrent auto-completion attempts race-safe: only one writer wins, the
// rest observe applied=false.
func (r *TaskRepository) CompleteAutomated(ctx context.Context, taskID uuid.UUID, session models.Session, plannedTime int64) (bool, error) {
	sessionJSON, err := json.Marshal([]models.Session{session})
	if err != nil {
		return false, fmt.Errorf("failed to marshal session: %w", err)
	}

	query := `
		UPDATE tasks
		SET sessions = sessions || $2::jsonb,
			total_time = $3,
			completion_count = completion_count + 1,
			updated_at = $4
		WHERE id = $1
			AND NOT is_active
			AND total_time = 0
			AND jsonb_array_length(sessions) = 0
	`

	result, err := r.db.ExecContext(ctx, query, taskID, sessionJSON, plannedTime, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to auto-complete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

// SetCalendarEventID stores the calendar event reference created for a task.
func (r *TaskRepository) SetCalendarEventID(ctx context.Context, taskID uuid.UUID, eventID string) error {
	query := `UPDATE tasks SET calendar_event_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, taskID, eventID, time.Now()); err != nil {
		return fmt.Errorf("failed to set calendar event id: %w", err)
	}
	return nil
}

// Delete removes a task by id.
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("task", id.String())
	}
	return nil
}

// DeleteByDate removes all of the user's tasks on one date and returns the
// deleted count.
func (r *TaskRepository) DeleteByDate(ctx context.Context, userID uuid.UUID, date string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE user_id = $1 AND date = $2`, userID, date)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks by day: %w", err)
	}
	return result.RowsAffected()
}

// DeleteByDateRange removes all of the user's tasks in the inclusive range
// and returns the deleted count.
func (r *TaskRepository) DeleteByDateRange(ctx context.Context, userID uuid.UUID, startDate, endDate string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE user_id = $1 AND date >= $2 AND date <= $3`,
		userID, startDate, endDate)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks by week: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var sessionsJSON []byte
	var startTime sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Name,
		&task.Category,
		&task.Date,
		&task.Day,
		&task.IsActive,
		&startTime,
		&sessionsJSON,
		&task.TotalTime,
		&task.PlannedTime,
		&task.IsAutomated,
		&task.CompletionCount,
		&task.Order,
		&task.ScheduledStartTime,
		&task.ScheduledEndTime,
		&task.NotificationsEnabled,
		&task.NotificationMinutes,
		&task.CalendarEventID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(sessionsJSON, &task.Sessions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sessions: %w", err)
	}
	if startTime.Valid {
		task.StartTime = &startTime.Time
	}
	return task, nil
}

func collectTasks(rows *sql.Rows) ([]*models.Task, error) {
	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

func sessionsOrEmpty(sessions []models.Session) []models.Session {
	if sessions == nil {
		return []models.Session{}
	}
	return sessions
}
