package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/weekwise/weekwise/internal/models"
	"go.uber.org/zap"
)

func TestAuthMe(t *testing.T) {
	t.Parallel()

	user := testUser()
	h := NewAuthHandler(zap.NewNop())
	r := mux.NewRouter()
	h.RegisterRoutes(r.PathPrefix("/auth").Subrouter())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest("GET", "/auth/me", nil, user, time.UTC))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var got models.User
	if err := json.Unmarshal(decodeEnvelope(t, w.Body).Data, &got); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if got.ID != user.ID || got.Email != user.Email {
		t.Errorf("user = %+v, want id %s email %s", got, user.ID, user.Email)
	}
}

func TestAuthMeWithoutUser(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(zap.NewNop())
	r := mux.NewRouter()
	h.RegisterRoutes(r.PathPrefix("/auth").Subrouter())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/auth/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
