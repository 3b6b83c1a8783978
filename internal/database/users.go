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

const userColumns = `id, email, provider_id, name, calendar_connected,
	calendar_access_token, calendar_refresh_token, calendar_token_expiry,
	created_at, updated_at`

// UserRepository handles user persistence.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user record.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, email, provider_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, u.ID, u.Email, u.ProviderID, u.Name, time.Now()).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflictf("user already exists")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("user", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetByProviderID retrieves a user by the identity provider's subject.
func (r *UserRepository) GetByProviderID(ctx context.Context, providerID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE provider_id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, providerID))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("user", providerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// UpdateProfile refreshes email and display name from token claims.
func (r *UserRepository) UpdateProfile(ctx context.Context, u *models.User) error {
	query := `UPDATE users SET email = $2, name = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, u.ID, u.Email, u.Name, time.Now()); err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return nil
}

// SetCalendarTokens stores OAuth tokens and marks the calendar connected.
func (r *UserRepository) SetCalendarTokens(ctx context.Context, userID uuid.UUID, accessToken, refreshToken string, expiry *time.Time) error {
	query := `
		UPDATE users
		SET calendar_connected = TRUE, calendar_access_token = $2,
			calendar_refresh_token = $3, calendar_token_expiry = $4, updated_at = $5
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID, accessToken, refreshToken, expiry, time.Now()); err != nil {
		return fmt.Errorf("failed to store calendar tokens: %w", err)
	}
	return nil
}

// ClearCalendarTokens disconnects the calendar and wipes stored tokens.
func (r *UserRepository) ClearCalendarTokens(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE users
		SET calendar_connected = FALSE, calendar_access_token = '',
			calendar_refresh_token = '', calendar_token_expiry = NULL, updated_at = $2
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now()); err != nil {
		return fmt.Errorf("failed to clear calendar tokens: %w", err)
	}
	return nil
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var expiry sql.NullTime

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.ProviderID,
		&u.Name,
		&u.CalendarConnected,
		&u.CalendarAccessToken,
		&u.CalendarRefreshToken,
		&expiry,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expiry.Valid {
		u.CalendarTokenExpiry = &expiry.Time
	}
	return u, nil
}
