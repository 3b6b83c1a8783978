package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/weekwise/weekwise/internal/apperr"
	"github.com/weekwise/weekwise/internal/models"
	"github.com/weekwise/weekwise/internal/request"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTimezoneHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"valid zone", "America/New_York", "America/New_York"},
		{"missing header", "", "Asia/Kolkata"},
		{"garbage zone", "Not/AZone", "Asia/Kolkata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got string
			handler := Timezone("Asia/Kolkata")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = request.TimezoneFromContext(r).String()
			}))

			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set(TimezoneHeader, tt.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), r)

			if got != tt.want {
				t.Errorf("timezone = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoggingCapturesRequestFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	handler := Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	r := httptest.NewRequest("GET", "/api/v1/tasks/week", nil)
	r.Header.Set("X-Timezone", "Europe/Berlin")
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status_code"] != int64(http.StatusTeapot) {
		t.Errorf("status_code = %v, want %d", fields["status_code"], http.StatusTeapot)
	}
	if fields["timezone"] != "Europe/Berlin" {
		t.Errorf("timezone = %v, want Europe/Berlin", fields["timezone"])
	}
	if fields["client_ip"] != "203.0.113.7" {
		t.Errorf("client_ip = %v, want 203.0.113.7", fields["client_ip"])
	}
}

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"get without content type", "GET", "", http.StatusOK},
		{"post json", "POST", "application/json", http.StatusOK},
		{"post json charset", "POST", "application/json; charset=utf-8", http.StatusOK},
		{"post missing", "POST", "", http.StatusBadRequest},
		{"post wrong type", "POST", "text/plain", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := ContentType(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			r := httptest.NewRequest(tt.method, "/", nil)
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestErrorHandlerRecoversPanic(t *testing.T) {
	t.Parallel()

	handler := ErrorHandler(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/tasks", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"success":false`) {
		t.Errorf("body = %s, want error envelope", w.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	handler := SecurityHeaders(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS set over plain HTTP: %q", got)
	}
}

type fakeVerifier struct {
	claims *models.JWTClaims
	err    error
}

func (v *fakeVerifier) Verify(context.Context, string) (*models.JWTClaims, error) {
	return v.claims, v.err
}

type fakeUserStore struct {
	byProvider map[string]*models.User
	created    int
}

func (s *fakeUserStore) Create(_ context.Context, u *models.User) error {
	s.byProvider[u.ProviderID] = u
	s.created++
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range s.byProvider {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user", id.String())
}

func (s *fakeUserStore) GetByProviderID(_ context.Context, providerID string) (*models.User, error) {
	u, ok := s.byProvider[providerID]
	if !ok {
		return nil, apperr.NotFound("user", providerID)
	}
	return u, nil
}

func (s *fakeUserStore) UpdateProfile(context.Context, *models.User) error { return nil }
func (s *fakeUserStore) SetCalendarTokens(context.Context, uuid.UUID, string, string, *time.Time) error {
	return nil
}
func (s *fakeUserStore) ClearCalendarTokens(context.Context, uuid.UUID) error { return nil }

func TestAuthProvisionsNewUser(t *testing.T) {
	t.Parallel()

	verifier := &fakeVerifier{claims: &models.JWTClaims{Sub: "sub-1", Email: "a@b.c", Name: "Ada"}}
	users := &fakeUserStore{byProvider: make(map[string]*models.User)}

	var seen *models.User
	handler := Auth(verifier, users, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = request.UserFromContext(r)
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if users.created != 1 {
		t.Errorf("created = %d, want 1", users.created)
	}
	if seen == nil || seen.Email != "a@b.c" {
		t.Errorf("context user = %+v, want provisioned user", seen)
	}
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	t.Parallel()

	verifier := &fakeVerifier{claims: &models.JWTClaims{Sub: "sub-1"}}
	users := &fakeUserStore{byProvider: make(map[string]*models.User)}
	handler := Auth(verifier, users, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without auth")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthRejectsBadToken(t *testing.T) {
	t.Parallel()

	verifier := &fakeVerifier{err: errInvalidToken}
	users := &fakeUserStore{byProvider: make(map[string]*models.User)}
	handler := Auth(verifier, users, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with bad token")
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer bad")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

var errInvalidToken = apperr.Validationf("invalid token")
