package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/weekwise/weekwise/internal/analytics"
	"github.com/weekwise/weekwise/internal/request"
	"github.com/weekwise/weekwise/internal/timeutil"
	"github.com/weekwise/weekwise/internal/validation"
	"go.uber.org/zap"
)

// AnalyticsHandler handles reporting requests
type AnalyticsHandler struct {
	analytics *analytics.Service
	clock     timeutil.Clock
	log       *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(svc *analytics.Service, clock timeutil.Clock, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: svc, clock: clock, log: log}
}

// RegisterRoutes registers analytics routes on the given router.
// The router should already have the /analytics prefix.
func (h *AnalyticsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/weekly", h.Weekly).Methods("GET")
	r.HandleFunc("/monthly", h.Monthly).Methods("GET")
	r.HandleFunc("/category", h.Category).Methods("GET")
}

// Weekly reports time per category and per day for one scheduling week.
// Month is 0-indexed, matching the rest of the week parameters.
func (h *AnalyticsHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	loc := request.TimezoneFromContext(r)
	now := h.clock.Now().In(loc)
	year := queryInt(r, "year", now.Year())
	month := queryInt(r, "month", int(now.Month())-1)
	week := queryInt(r, "week", currentWeek(now.Day()))

	if week < 1 || week > 4 {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("week number out of range: %d", week))
		return
	}

	report, err := h.analytics.Weekly(r.Context(), user.ID, year, month, week, loc)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Monthly reports time per calendar-week bucket for one month. Days 1-7 fall
// in bucket one, 8-14 in bucket two, and so on; days 29-31 land in a fifth
// bucket.
func (h *AnalyticsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	loc := request.TimezoneFromContext(r)
	now := h.clock.Now().In(loc)
	year := queryInt(r, "year", now.Year())
	month := queryInt(r, "month", int(now.Month())-1)

	report, err := h.analytics.Monthly(r.Context(), user.ID, year, month, loc)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Category reports totals for one category across a date range.
func (h *AnalyticsHandler) Category(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	category := validation.SanitizeText(r.URL.Query().Get("category"))
	if category == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "category is required")
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
	if startDate > endDate {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "start_date must not be after end_date")
		return
	}

	report, err := h.analytics.Category(r.Context(), user.ID, category, startDate, endDate)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
