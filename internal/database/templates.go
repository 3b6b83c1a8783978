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

// TemplateRepository handles task template persistence.
type TemplateRepository struct {
	db *DB
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(db *DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create inserts a template. Template names are unique per owner.
func (r *TemplateRepository) Create(ctx context.Context, tpl *models.TaskTemplate) error {
	tasksJSON, err := json.Marshal(tpl.Tasks)
	if err != nil {
		return fmt.Errorf("failed to marshal template tasks: %w", err)
	}

	query := `
		INSERT INTO task_templates (id, user_id, name, tasks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query, tpl.ID, tpl.UserID, tpl.Name, tasksJSON, time.Now()).
		Scan(&tpl.CreatedAt, &tpl.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflictf("template %q already exists", tpl.Name)
		}
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// GetByID retrieves one of the user's templates.
func (r *TemplateRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.TaskTemplate, error) {
	query := `
		SELECT id, user_id, name, tasks, created_at, updated_at
		FROM task_templates
		WHERE id = $1 AND user_id = $2
	`
	tpl, err := scanTemplate(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("template", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return tpl, nil
}

// ListByUserID returns all of the user's templates, newest first.
func (r *TemplateRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.TaskTemplate, error) {
	query := `
		SELECT id, user_id, name, tasks, created_at, updated_at
		FROM task_templates
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.TaskTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}
	return templates, nil
}

// Update persists the template name and task list.
func (r *TemplateRepository) Update(ctx context.Context, tpl *models.TaskTemplate) error {
	tasksJSON, err := json.Marshal(tpl.Tasks)
	if err != nil {
		return fmt.Errorf("failed to marshal template tasks: %w", err)
	}

	query := `
		UPDATE task_templates
		SET name = $3, tasks = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`
	err = r.db.QueryRowContext(ctx, query, tpl.ID, tpl.UserID, tpl.Name, tasksJSON, time.Now()).
		Scan(&tpl.UpdatedAt)
	if err == sql.ErrNoRows {
		return apperr.NotFound("template", tpl.ID.String())
	}
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflictf("template %q already exists", tpl.Name)
		}
		return fmt.Errorf("failed to update template: %w", err)
	}
	return nil
}

// Delete removes one of the user's templates.
func (r *TemplateRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM task_templates WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("template", id.String())
	}
	return nil
}

func scanTemplate(row rowScanner) (*models.TaskTemplate, error) {
	tpl := &models.TaskTemplate{}
	var tasksJSON []byte

	err := row.Scan(&tpl.ID, &tpl.UserID, &tpl.Name, &tasksJSON, &tpl.CreatedAt, &tpl.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tasksJSON, &tpl.Tasks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template tasks: %w", err)
	}
	return tpl, nil
}
