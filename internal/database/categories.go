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

// CategoryRepository handles category persistence.
type CategoryRepository struct {
	db *DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a category. Names are unique per owner.
func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (id, user_id, name, color, icon, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.UserID, c.Name, c.Color, c.Icon, time.Now()).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflictf("category %q already exists", c.Name)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetByID retrieves one of the user's categories.
func (r *CategoryRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Category, error) {
	query := `
		SELECT id, user_id, name, color, icon, created_at, updated_at
		FROM categories
		WHERE id = $1 AND user_id = $2
	`
	c, err := scanCategory(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("category", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// GetByName retrieves one of the user's categories by name.
func (r *CategoryRepository) GetByName(ctx context.Context, userID uuid.UUID, name string) (*models.Category, error) {
	query := `
		SELECT id, user_id, name, color, icon, created_at, updated_at
		FROM categories
		WHERE user_id = $1 AND name = $2
	`
	c, err := scanCategory(r.db.QueryRowContext(ctx, query, userID, name))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("category", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// ListByUserID returns all of the user's categories sorted by name.
func (r *CategoryRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Category, error) {
	query := `
		SELECT id, user_id, name, color, icon, created_at, updated_at
		FROM categories
		WHERE user_id = $1
		ORDER BY name ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// Update persists name, color, and icon changes.
func (r *CategoryRepository) Update(ctx context.Context, c *models.Category) error {
	query := `
		UPDATE categories
		SET name = $3, color = $4, icon = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.UserID, c.Name, c.Color, c.Icon, time.Now()).
		Scan(&c.UpdatedAt)
	if err == sql.ErrNoRows {
		return apperr.NotFound("category", c.ID.String())
	}
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflictf("category %q already exists", c.Name)
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

// Delete removes one of the user's categories. Tasks keep their category
// string; only the color and icon association is lost.
func (r *CategoryRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("category", id.String())
	}
	return nil
}

func scanCategory(row rowScanner) (*models.Category, error) {
	c := &models.Category{}
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.Icon, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}
