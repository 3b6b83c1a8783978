package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/weekwise/weekwise/internal/apperr"
)

func TestRespondAppErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", apperr.Validationf("bad input"), http.StatusBadRequest},
		{"not found", apperr.NotFound("task", "abc"), http.StatusNotFound},
		{"conflict", apperr.Conflictf("duplicate"), http.StatusConflict},
		{"unavailable", apperr.Unavailable("redis", errors.New("down")), http.StatusServiceUnavailable},
		{"unknown", errors.New("driver: bad connection"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondAppError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), `"success":false`) {
				t.Errorf("body = %s, want error envelope", w.Body.String())
			}
		})
	}
}

func TestRespondAppErrorHidesInternals(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondAppError(w, errors.New("pq: connection refused at 10.0.0.5:5432"))

	if strings.Contains(w.Body.String(), "10.0.0.5") {
		t.Errorf("body leaks internal error detail: %s", w.Body.String())
	}
}

func TestSanitizeErrorMessageTruncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 300)
	got := sanitizeErrorMessage(long)
	if len(got) != 203 {
		t.Errorf("len = %d, want 203", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("message not marked as truncated: %q", got)
	}
}

func TestQueryInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		url      string
		param    string
		fallback int
		want     int
	}{
		{"present", "/x?page=3", "page", 1, 3},
		{"missing", "/x", "page", 1, 1},
		{"garbage", "/x?page=abc", "page", 1, 1},
		{"negative", "/x?page=-2", "page", 1, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest("GET", tt.url, nil)
			if got := queryInt(r, tt.param, tt.fallback); got != tt.want {
				t.Errorf("queryInt = %d, want %d", got, tt.want)
			}
		})
	}
}
