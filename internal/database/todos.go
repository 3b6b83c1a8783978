package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/weekwise/weekwise/internal/apperr"
	"github.com/weekwise/weekwise/internal/models"
)

const todoColumns = `id, user_id, text, completed, date::text, is_overdue, deadline::text,
	deleted, deleted_at, created_at, updated_at`

// TodoRepository handles todo persistence.
type TodoRepository struct {
	db *DB
}

// NewTodoRepository creates a new todo repository.
func NewTodoRepository(db *DB) *TodoRepository {
	return &TodoRepository{db: db}
}

// Create inserts a todo.
func (r *TodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	query := `
		INSERT INTO todos (id, user_id, text, completed, date, is_overdue, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		todo.ID, todo.UserID, todo.Text, todo.Completed, todo.Date, todo.IsOverdue, todo.Deadline, time.Now(),
	).Scan(&todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

// GetByID retrieves a todo by id, excluding soft-deleted records.
func (r *TodoRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND NOT deleted`
	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("todo", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return todo, nil
}

// ListCurrent returns today's todos plus incomplete todos from past dates
// (candidates for carry-forward), newest first.
func (r *TodoRepository) ListCurrent(ctx context.Context, userID uuid.UUID, today string) ([]*models.Todo, error) {
	query := `SELECT ` + todoColumns + `
		FROM todos
		WHERE user_id = $1 AND NOT deleted
			AND (date = $2 OR (date < $2 AND NOT completed))
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	var todos []*models.Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}
	return todos, nil
}

// CarryForward rewrites an overdue todo's date to today and flags it. The
// todo is moved, not duplicated.
func (r *TodoRepository) CarryForward(ctx context.Context, id uuid.UUID, today string) error {
	query := `UPDATE todos SET date = $2, is_overdue = TRUE, updated_at = $3 WHERE id = $1 AND NOT deleted`
	if _, err := r.db.ExecContext(ctx, query, id, today, time.Now()); err != nil {
		return fmt.Errorf("failed to carry forward todo: %w", err)
	}
	return nil
}

// Update persists text, completion, and deadline changes.
func (r *TodoRepository) Update(ctx context.Context, todo *models.Todo) error {
	query := `
		UPDATE todos
		SET text = $2, completed = $3, deadline = $4, updated_at = $5
		WHERE id = $1 AND NOT deleted
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, todo.ID, todo.Text, todo.Completed, todo.Deadline, time.Now()).
		Scan(&todo.UpdatedAt)
	if err == sql.ErrNoRows {
		return apperr.NotFound("todo", todo.ID.String())
	}
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	return nil
}

// SoftDelete marks a todo deleted without removing the row.
func (r *TodoRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE todos SET deleted = TRUE, deleted_at = $2 WHERE id = $1 AND NOT deleted`
	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("todo", id.String())
	}
	return nil
}

// ClearCompleted soft-deletes all of the user's completed todos and returns
// the count.
func (r *TodoRepository) ClearCompleted(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `UPDATE todos SET deleted = TRUE, deleted_at = $2 WHERE user_id = $1 AND completed AND NOT deleted`
	result, err := r.db.ExecContext(ctx, query, userID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to clear completed todos: %w", err)
	}
	return result.RowsAffected()
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	todo := &models.Todo{}
	var deletedAt sql.NullTime

	err := row.Scan(
		&todo.ID,
		&todo.UserID,
		&todo.Text,
		&todo.Completed,
		&todo.Date,
		&todo.IsOverdue,
		&todo.Deadline,
		&todo.Deleted,
		&deletedAt,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		todo.DeletedAt = &deletedAt.Time
	}
	return todo, nil
}
