// Package calendar integrates tasks with Google Calendar. The integration
// is optional: a missing OAuth client configuration disables it and every
// call reports ErrNotConnected.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/weekwise/weekwise/internal/models"
)

// ErrNotConnected is returned when the user has not linked a calendar or
// the integration is disabled server-side.
var ErrNotConnected = errors.New("calendar not connected")

// Event is the calendar-facing projection of a scheduled task.
type Event struct {
	Summary         string
	Description     string
	Start           time.Time
	End             time.Time
	Timezone        string
	ReminderMinutes int
}

// Service creates and removes calendar events on behalf of a user.
type Service interface {
	CreateEvent(ctx context.Context, user *models.User, event Event) (string, error)
	DeleteEvent(ctx context.Context, user *models.User, eventID string) error
}

// Disabled is the Service used when no OAuth client is configured.
type Disabled struct{}

// CreateEvent always reports ErrNotConnected.
func (Disabled) CreateEvent(context.Context, *models.User, Event) (string, error) {
	return "", ErrNotConnected
}

// DeleteEvent always reports ErrNotConnected.
func (Disabled) DeleteEvent(context.Context, *models.User, string) error {
	return ErrNotConnected
}
