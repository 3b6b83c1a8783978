package models

import (
	"time"

	"github.com/google/uuid"
)

// Sleep is one sleep session. At most one session per owner may be active at
// a time. Date is the day the session started and is used for bucketing into
// daily and weekly analytics.
type Sleep struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"` // nil while active
	Duration  int64      `json:"duration"`           // ms, set on stop
	IsActive  bool       `json:"is_active"`
	Date      string     `json:"date"` // YYYY-MM-DD
	CreatedAt time.Time  `json:"created_at"`
}
