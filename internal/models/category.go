package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a display grouping for tasks. Tasks reference categories by
// name only, so category lifecycle never cascades into task history.
type Category struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"` // unique per owner
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
