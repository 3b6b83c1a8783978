package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account. Identity comes from the external JWT issuer;
// ProviderID holds the token subject.
type User struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	ProviderID string    `json:"provider_id"`
	Name       string    `json:"name"`

	// Google Calendar linkage. Tokens are never serialized to clients.
	CalendarConnected    bool       `json:"calendar_connected"`
	CalendarAccessToken  string     `json:"-"`
	CalendarRefreshToken string     `json:"-"`
	CalendarTokenExpiry  *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JWTClaims holds the claims extracted from a verified access token.
type JWTClaims struct {
	Sub   string
	Email string
	Name  string
	Exp   int64
	Iat   int64
}
