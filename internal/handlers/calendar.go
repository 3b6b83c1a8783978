package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/weekwise/weekwise/internal/apperr"
	"github.com/weekwise/weekwise/internal/cache"
	"github.com/weekwise/weekwise/internal/calendar"
	"github.com/weekwise/weekwise/internal/database"
	"github.com/weekwise/weekwise/internal/request"
	"github.com/weekwise/weekwise/internal/timeutil"
	"go.uber.org/zap"
)

// stateTTL bounds how long an issued OAuth state stays redeemable.
const stateTTL = 10 * time.Minute

// CalendarConnector manages the OAuth connection lifecycle for a user's
// calendar account.
type CalendarConnector interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, userID uuid.UUID, code string) error
	Disconnect(ctx context.Context, userID uuid.UUID) error
}

// CalendarHandler handles calendar connection requests
type CalendarHandler struct {
	connector CalendarConnector // nil when no OAuth credentials are configured
	events    calendar.Service
	tasks     database.TaskRepositoryInterface
	cache     *cache.Cache
	log       *zap.Logger
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(connector CalendarConnector, events calendar.Service, tasks database.TaskRepositoryInterface, c *cache.Cache, log *zap.Logger) *CalendarHandler {
	return &CalendarHandler{connector: connector, events: events, tasks: tasks, cache: c, log: log}
}

// RegisterRoutes registers calendar routes on the given router.
// The router should already have the /calendar prefix.
func (h *CalendarHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/status", h.Status).Methods("GET")
	r.HandleFunc("/auth-url", h.AuthURL).Methods("GET")
	r.HandleFunc("/callback", h.Callback).Methods("POST")
	r.HandleFunc("/events", h.CreateEvent).Methods("POST")
	r.HandleFunc("", h.Disconnect).Methods("DELETE")
}

// CalendarStatusResponse reports connection state.
type CalendarStatusResponse struct {
	Configured bool `json:"configured"`
	Connected  bool `json:"connected"`
}

// AuthURLResponse carries the Google consent URL.
type AuthURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// CallbackRequest carries the OAuth code relayed by the frontend.
type CallbackRequest struct {
	Code  string `json:"code" validate:"required,min=1,max=2048"`
	State string `json:"state" validate:"required,min=1,max=128"`
}

// Status reports whether calendar integration is configured and whether this
// user has connected an account.
func (h *CalendarHandler) Status(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, CalendarStatusResponse{
		Configured: h.connector != nil,
		Connected:  user.CalendarConnected,
	})
}

// AuthURL issues a consent URL with a single-use state token.
func (h *CalendarHandler) AuthURL(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}
	if h.connector == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Calendar integration is not configured")
		return
	}

	state, err := randomState()
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to generate state")
		return
	}

	h.cache.SetJSON(r.Context(), cache.Key(user.ID, "calendar", "state"), state, stateTTL)
	respondJSON(w, http.StatusOK, AuthURLResponse{
		URL:   h.connector.AuthCodeURL(state),
		State: state,
	})
}

// Callback exchanges the relayed OAuth code for tokens and stores them. The
// state must match the one issued to this user.
func (h *CalendarHandler) Callback(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}
	if h.connector == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Calendar integration is not configured")
		return
	}

	var req CallbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	stateKey := cache.Key(user.ID, "calendar", "state")
	var issued string
	if err := h.cache.GetJSON(ctx, stateKey, &issued); err != nil || issued != req.State {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid or expired state")
		return
	}
	h.cache.Invalidate(ctx, user.ID, "calendar")

	if err := h.connector.ExchangeCode(ctx, user.ID, req.Code); err != nil {
		h.log.Warn("calendar_connect_failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		respondAppError(w, err)
		return
	}

	h.log.Info("calendar_connected", zap.String("user_id", user.ID.String()))
	respondJSON(w, http.StatusOK, CalendarStatusResponse{Configured: true, Connected: true})
}

// Disconnect drops the stored calendar tokens.
func (h *CalendarHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}
	if h.connector == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Calendar integration is not configured")
		return
	}

	if err := h.connector.Disconnect(r.Context(), user.ID); err != nil {
		respondAppError(w, err)
		return
	}

	h.log.Info("calendar_disconnected", zap.String("user_id", user.ID.String()))
	respondJSON(w, http.StatusOK, CalendarStatusResponse{Configured: true, Connected: false})
}

// CreateEventRequest asks for a calendar event mirroring one task.
type CreateEventRequest struct {
	TaskID          uuid.UUID `json:"task_id" validate:"required"`
	ReminderMinutes int       `json:"reminder_minutes" validate:"gte=0,lte=1440"`
}

// CreateEventResponse carries the provider's event id.
type CreateEventResponse struct {
	EventID string `json:"event_id"`
}

// CreateEvent creates a calendar event for a scheduled task. The stored
// event id guards against duplicates: a task that already has one gets it
// echoed back instead of a second event.
func (h *CalendarHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	task, err := h.tasks.GetByID(ctx, req.TaskID)
	if err != nil || task.UserID != user.ID {
		respondAppError(w, apperr.NotFound("task", req.TaskID.String()))
		return
	}
	if task.CalendarEventID != nil {
		respondJSON(w, http.StatusOK, CreateEventResponse{EventID: *task.CalendarEventID})
		return
	}
	if task.ScheduledStartTime == nil || task.ScheduledEndTime == nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Task has no scheduled start and end time")
		return
	}

	loc := request.TimezoneFromContext(r)
	start, err := clockOnDate(task.Date, *task.ScheduledStartTime, loc)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid scheduled start time")
		return
	}
	end, err := clockOnDate(task.Date, *task.ScheduledEndTime, loc)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid scheduled end time")
		return
	}

	eventID, err := h.events.CreateEvent(ctx, user, calendar.Event{
		Summary:         task.Name,
		Description:     task.Category,
		Start:           start,
		End:             end,
		Timezone:        loc.String(),
		ReminderMinutes: req.ReminderMinutes,
	})
	if err != nil {
		if err == calendar.ErrNotConnected {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Calendar is not connected")
			return
		}
		respondAppError(w, apperr.Unavailable("calendar", err))
		return
	}

	if err := h.tasks.SetCalendarEventID(ctx, task.ID, eventID); err != nil {
		h.log.Warn("calendar_event_id_persist_failed",
			zap.String("task_id", task.ID.String()), zap.Error(err))
	}

	h.log.Info("calendar_event_created",
		zap.String("user_id", user.ID.String()),
		zap.String("task_id", task.ID.String()))
	respondJSON(w, http.StatusCreated, CreateEventResponse{EventID: eventID})
}

func clockOnDate(date, clock string, loc *time.Location) (time.Time, error) {
	h, m, err := timeutil.ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return timeutil.CombineDateAndClock(date, h, m, loc)
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
