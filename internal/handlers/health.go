package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/weekwise/weekwise/internal/cache"
	"github.com/weekwise/weekwise/internal/database"
	"github.com/weekwise/weekwise/internal/queue"
)

// HealthChecker handles health check requests
type HealthChecker struct {
	db        *database.DB
	cache     *cache.Cache
	reminders queue.JobQueue // nil when reminders are disabled
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(db *database.DB, c *cache.Cache, reminders queue.JobQueue) *HealthChecker {
	return &HealthChecker{db: db, cache: c, reminders: reminders}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. Basic mode only reports that the
// process is up; extended mode probes each backend. Optional backends that
// are not configured report "disabled" without failing the check.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if r.URL.Query().Get("mode") == "extended" {
		checks := make(map[string]string)

		if err := h.checkDatabase(r.Context()); err != nil {
			response.Status = "unhealthy"
			checks["database"] = "unhealthy: " + err.Error()
		} else {
			checks["database"] = "healthy"
		}

		if h.cache.Enabled() {
			if err := h.cache.Ping(r.Context()); err != nil {
				checks["cache"] = "unhealthy: " + err.Error()
			} else {
				checks["cache"] = "healthy"
			}
		} else {
			checks["cache"] = "disabled"
		}

		if h.reminders != nil {
			if err := h.reminders.HealthCheck(r.Context()); err != nil {
				checks["queue"] = "unhealthy: " + err.Error()
			} else {
				checks["queue"] = "healthy"
			}
		} else {
			checks["queue"] = "disabled"
		}

		response.Checks = checks

		statusCode := http.StatusOK
		if response.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(response)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// checkDatabase verifies the database connection
func (h *HealthChecker) checkDatabase(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return h.db.PingContext(ctx)
}
