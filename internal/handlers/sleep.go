package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/weekwise/weekwise/internal/apperr"
	"github.com/weekwise/weekwise/internal/database"
	"github.com/weekwise/weekwise/internal/models"
	"github.com/weekwise/weekwise/internal/request"
	"github.com/weekwise/weekwise/internal/timeutil"
	"github.com/weekwise/weekwise/internal/validation"
	"go.uber.org/zap"
)

// SleepHandler handles sleep session requests
type SleepHandler struct {
	sleeps database.SleepRepositoryInterface
	clock  timeutil.Clock
	log    *zap.Logger
}

// NewSleepHandler creates a new sleep handler
func NewSleepHandler(sleeps database.SleepRepositoryInterface, clock timeutil.Clock, log *zap.Logger) *SleepHandler {
	return &SleepHandler{sleeps: sleeps, clock: clock, log: log}
}

// RegisterRoutes registers sleep routes on the given router.
// The router should already have the /sleep prefix.
func (h *SleepHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListSessions).Methods("GET")
	r.HandleFunc("/active", h.GetActive).Methods("GET")
	r.HandleFunc("/summary", h.GetSummary).Methods("GET")
	r.HandleFunc("/start", h.StartSleep).Methods("POST")
	r.HandleFunc("/stop", h.StopSleep).Methods("POST")
}

// ActiveSleepResponse is the active sleep payload with live duration.
type ActiveSleepResponse struct {
	Session     *models.Sleep `json:"session"`
	LiveElapsed int64         `json:"live_elapsed"`
}

// StartSleep begins a sleep session. Only one may be active per user.
func (h *SleepHandler) StartSleep(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	loc := request.TimezoneFromContext(r)
	now := h.clock.Now()
	session := &models.Sleep{
		ID:        uuid.New(),
		UserID:    user.ID,
		StartTime: now,
		IsActive:  true,
		Date:      timeutil.DateString(now, loc),
	}

	if err := h.sleeps.Create(r.Context(), session); err != nil {
		respondAppError(w, err)
		return
	}

	h.log.Info("sleep_started",
		zap.String("user_id", user.ID.String()),
		zap.String("date", session.Date))
	respondJSON(w, http.StatusCreated, session)
}

// StopSleep ends the active sleep session.
func (h *SleepHandler) StopSleep(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()
	session, err := h.sleeps.GetActive(ctx, user.ID)
	if err != nil {
		if apperr.IsNotFound(err) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "No active sleep session")
			return
		}
		respondAppError(w, err)
		return
	}

	now := h.clock.Now()
	session.EndTime = &now
	session.Duration = now.Sub(session.StartTime).Milliseconds()
	session.IsActive = false

	if err := h.sleeps.Stop(ctx, session); err != nil {
		respondAppError(w, err)
		return
	}

	h.log.Info("sleep_stopped",
		zap.String("user_id", user.ID.String()),
		zap.Int64("duration_ms", session.Duration))
	respondJSON(w, http.StatusOK, session)
}

// GetActive returns the running sleep session with live duration.
func (h *SleepHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	session, err := h.sleeps.GetActive(r.Context(), user.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ActiveSleepResponse{
		Session:     session,
		LiveElapsed: h.clock.Now().Sub(session.StartTime).Milliseconds(),
	})
}

// SleepSummaryResponse aggregates completed sessions in a range.
type SleepSummaryResponse struct {
	TotalDuration   int64 `json:"total_duration"`
	AverageDuration int64 `json:"average_duration"`
	SessionCount    int   `json:"session_count"`
}

// GetSummary reports total and average sleep duration over a date range.
// The running session, if any, is excluded until it stops.
func (h *SleepHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")
	if err := validation.ValidateDateString(startDate); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := validation.ValidateDateString(endDate); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	sessions, err := h.sleeps.ListByDateRange(r.Context(), user.ID, startDate, endDate)
	if err != nil {
		respondAppError(w, err)
		return
	}

	summary := SleepSummaryResponse{}
	for _, s := range sessions {
		if s.IsActive {
			continue
		}
		summary.TotalDuration += s.Duration
		summary.SessionCount++
	}
	if summary.SessionCount > 0 {
		summary.AverageDuration = summary.TotalDuration / int64(summary.SessionCount)
	}

	respondJSON(w, http.StatusOK, summary)
}

// ListSessions lists sleep sessions in a date range.
func (h *SleepHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")
	if err := validation.ValidateDateString(startDate); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := validation.ValidateDateString(endDate); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	sessions, err := h.sleeps.ListByDateRange(r.Context(), user.ID, startDate, endDate)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if sessions == nil {
		sessions = []*models.Sleep{}
	}

	respondJSON(w, http.StatusOK, sessions)
}
