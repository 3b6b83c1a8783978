package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/weekwise/weekwise/internal/database"
	"github.com/weekwise/weekwise/internal/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const eventsBaseURL = "https://www.googleapis.com/calendar/v3/calendars/primary/events"

// Scope needed to manage events on the user's calendars.
const calendarScope = "https://www.googleapis.com/auth/calendar.events"

// GoogleService talks to the Google Calendar v3 API with per-user OAuth
// tokens.
type GoogleService struct {
	config *oauth2.Config
	users  database.UserRepositoryInterface
	log    *zap.Logger
}

// NewGoogleService creates a calendar service from OAuth client credentials.
func NewGoogleService(clientID, clientSecret, redirectURI string, users database.UserRepositoryInterface, log *zap.Logger) *GoogleService {
	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{calendarScope},
		Endpoint:     google.Endpoint,
	}
	return &GoogleService{config: config, users: users, log: log}
}

// AuthCodeURL returns the consent URL. Offline access is requested so a
// refresh token is issued.
func (s *GoogleService) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// ExchangeCode trades an authorization code for tokens and stores them on
// the user record.
func (s *GoogleService) ExchangeCode(ctx context.Context, userID uuid.UUID, code string) error {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	var expiry *time.Time
	if !token.Expiry.IsZero() {
		expiry = &token.Expiry
	}
	if err := s.users.SetCalendarTokens(ctx, userID, token.AccessToken, token.RefreshToken, expiry); err != nil {
		return err
	}

	s.log.Info("calendar_connected", zap.String("user_id", userID.String()))
	return nil
}

// Disconnect wipes the user's stored tokens.
func (s *GoogleService) Disconnect(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.ClearCalendarTokens(ctx, userID); err != nil {
		return err
	}
	s.log.Info("calendar_disconnected", zap.String("user_id", userID.String()))
	return nil
}

// CreateEvent inserts an event on the user's primary calendar and returns
// its id.
func (s *GoogleService) CreateEvent(ctx context.Context, user *models.User, event Event) (string, error) {
	client, err := s.clientFor(ctx, user)
	if err != nil {
		return "", err
	}

	body := googleEvent{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       googleEventTime{DateTime: event.Start.Format(time.RFC3339), TimeZone: event.Timezone},
		End:         googleEventTime{DateTime: event.End.Format(time.RFC3339), TimeZone: event.Timezone},
	}
	if event.ReminderMinutes > 0 {
		body.Reminders = &googleReminders{
			UseDefault: false,
			Overrides:  []googleReminder{{Method: "popup", Minutes: event.ReminderMinutes}},
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, eventsBaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build event request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to create calendar event: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("calendar event creation returned %d: %s", resp.StatusCode, msg)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode event response: %w", err)
	}
	return created.ID, nil
}

// DeleteEvent removes an event from the user's primary calendar. An already
// deleted event is not an error.
func (s *GoogleService) DeleteEvent(ctx context.Context, user *models.User, eventID string) error {
	client, err := s.clientFor(ctx, user)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, eventsBaseURL+"/"+eventID, nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete calendar event: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil
	default:
		return fmt.Errorf("calendar event deletion returned %d", resp.StatusCode)
	}
}

// clientFor builds an authenticated HTTP client from the user's stored
// tokens. Refreshed tokens are persisted so the next call starts from the
// newest access token.
func (s *GoogleService) clientFor(ctx context.Context, user *models.User) (*http.Client, error) {
	if !user.CalendarConnected || user.CalendarRefreshToken == "" {
		return nil, ErrNotConnected
	}

	token := &oauth2.Token{
		AccessToken:  user.CalendarAccessToken,
		RefreshToken: user.CalendarRefreshToken,
	}
	if user.CalendarTokenExpiry != nil {
		token.Expiry = *user.CalendarTokenExpiry
	}

	source := s.config.TokenSource(ctx, token)
	fresh, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh calendar token: %w", err)
	}

	if fresh.AccessToken != token.AccessToken {
		expiry := fresh.Expiry
		refreshToken := fresh.RefreshToken
		if refreshToken == "" {
			refreshToken = user.CalendarRefreshToken
		}
		if err := s.users.SetCalendarTokens(ctx, user.ID, fresh.AccessToken, refreshToken, &expiry); err != nil {
			s.log.Warn("calendar_token_persist_failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}

	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(fresh)), nil
}

type googleEvent struct {
	Summary     string           `json:"summary"`
	Description string           `json:"description,omitempty"`
	Start       googleEventTime  `json:"start"`
	End         googleEventTime  `json:"end"`
	Reminders   *googleReminders `json:"reminders,omitempty"`
}

type googleEventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type googleReminders struct {
	UseDefault bool             `json:"useDefault"`
	Overrides  []googleReminder `json:"overrides,omitempty"`
}

type googleReminder struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

var _ Service = (*GoogleService)(nil)
