package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/weekwise/weekwise/internal/apperr"
	"github.com/weekwise/weekwise/internal/models"
)

const sleepColumns = `id, user_id, start_time, end_time, duration, is_active, date::text, created_at`

// SleepRepository handles sleep session persistence.
type SleepRepository struct {
	db *DB
}

// NewSleepRepository creates a new sleep repository.
func NewSleepRepository(db *DB) *SleepRepository {
	return &SleepRepository{db: db}
}

// Create inserts a sleep session. A partial unique index enforces at most
// one active session per user; violating it is a ConflictError.
func (r *SleepRepository) Create(ctx context.Context, s *models.Sleep) error {
	query := `
		INSERT INTO sleep_sessions (id, user_id, start_time, end_time, duration, is_active, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		s.ID, s.UserID, s.StartTime, s.EndTime, s.Duration, s.IsActive, s.Date,
	).Scan(&s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflictf("sleep session already in progress")
		}
		return fmt.Errorf("failed to create sleep session: %w", err)
	}
	return nil
}

// GetActive retrieves the user's active sleep session.
func (r *SleepRepository) GetActive(ctx context.Context, userID uuid.UUID) (*models.Sleep, error) {
	query := `SELECT ` + sleepColumns + ` FROM sleep_sessions WHERE user_id = $1 AND is_active`
	s, err := scanSleep(r.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("active sleep session", "")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active sleep session: %w", err)
	}
	return s, nil
}

// Stop finalizes the session: sets end time and duration, clears the active
// flag.
func (r *SleepRepository) Stop(ctx context.Context, s *models.Sleep) error {
	query := `
		UPDATE sleep_sessions
		SET end_time = $2, duration = $3, is_active = FALSE
		WHERE id = $1 AND is_active
	`
	result, err := r.db.ExecContext(ctx, query, s.ID, s.EndTime, s.Duration)
	if err != nil {
		return fmt.Errorf("failed to stop sleep session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("active sleep session", s.ID.String())
	}
	s.IsActive = false
	return nil
}

// ListByDateRange returns the user's sessions in the inclusive date range,
// newest first. An empty range returns all sessions.
func (r *SleepRepository) ListByDateRange(ctx context.Context, userID uuid.UUID, startDate, endDate string) ([]*models.Sleep, error) {
	query := `SELECT ` + sleepColumns + ` FROM sleep_sessions WHERE user_id = $1`
	args := []any{userID}
	if startDate != "" && endDate != "" {
		query += ` AND date >= $2 AND date <= $3`
		args = append(args, startDate, endDate)
	}
	query += ` ORDER BY start_time DESC`

	return r.list(ctx, query, args...)
}

// ListCompletedByDateRange returns only completed (stopped) sessions in the
// range; these are what analytics aggregates.
func (r *SleepRepository) ListCompletedByDateRange(ctx context.Context, userID uuid.UUID, startDate, endDate string) ([]*models.Sleep, error) {
	query := `SELECT ` + sleepColumns + ` FROM sleep_sessions WHERE user_id = $1 AND NOT is_active`
	args := []any{userID}
	if startDate != "" && endDate != "" {
		query += ` AND date >= $2 AND date <= $3`
		args = append(args, startDate, endDate)
	}
	query += ` ORDER BY start_time DESC`

	return r.list(ctx, query, args...)
}

func (r *SleepRepository) list(ctx context.Context, query string, args ...any) ([]*models.Sleep, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sleep sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Sleep
	for rows.Next() {
		s, err := scanSleep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sleep session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sleep sessions: %w", err)
	}
	return sessions, nil
}

func scanSleep(row rowScanner) (*models.Sleep, error) {
	s := &models.Sleep{}
	var endTime sql.NullTime

	err := row.Scan(&s.ID, &s.UserID, &s.StartTime, &endTime, &s.Duration, &s.IsActive, &s.Date, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		s.EndTime = &endTime.Time
	}
	return s, nil
}
