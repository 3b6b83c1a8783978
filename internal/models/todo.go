package models

import (
	"time"

	"github.com/google/uuid"
)

// Todo is a quick checklist item. Unlike Task it carries no time tracking.
// Incomplete todos from past dates are carried forward to today on read
// (their Date is rewritten, they are not duplicated).
type Todo struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	Date      string     `json:"date"` // YYYY-MM-DD, "today" at creation
	IsOverdue bool       `json:"is_overdue"`
	Deadline  *string    `json:"deadline,omitempty"` // optional YYYY-MM-DD
	Deleted   bool       `json:"-"`
	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
