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

func newSleepTestServer(repo *fakeSleepRepo, clock *stepClock) *mux.Router {
	h := NewSleepHandler(repo, clock, zap.NewNop())
	r := mux.NewRouter()
	h.RegisterRoutes(r.PathPrefix("/sleep").Subrouter())
	return r
}

func TestSleepStartStopCycle(t *testing.T) {
	t.Parallel()

	user := testUser()
	repo := newFakeSleepRepo()
	clock := &stepClock{t: time.Date(2024, time.March, 15, 23, 0, 0, 0, time.UTC)}
	router := newSleepTestServer(repo, clock)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("POST", "/sleep/start", nil, user, time.UTC))
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d, body = %s", w.Code, w.Body.String())
	}

	var started models.Sleep
	if err := json.Unmarshal(decodeEnvelope(t, w.Body).Data, &started); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if started.Date != "2024-03-15" || !started.IsActive {
		t.Errorf("session = %+v, want active session dated 2024-03-15", started)
	}

	clock.advance(8 * time.Hour)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("POST", "/sleep/stop", nil, user, time.UTC))
	if w.Code != http.StatusOK {
		t.Fatalf("stop status = %d, body = %s", w.Code, w.Body.String())
	}

	var stopped models.Sleep
	if err := json.Unmarshal(decodeEnvelope(t, w.Body).Data, &stopped); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if stopped.Duration != (8 * time.Hour).Milliseconds() {
		t.Errorf("duration = %d, want 8 hours", stopped.Duration)
	}
	if stopped.IsActive {
		t.Error("session still active after stop")
	}
}

func TestSleepDoubleStartConflicts(t *testing.T) {
	t.Parallel()

	user := testUser()
	repo := newFakeSleepRepo()
	clock := &stepClock{t: time.Date(2024, time.March, 15, 23, 0, 0, 0, time.UTC)}
	router := newSleepTestServer(repo, clock)

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest("POST", "/sleep/start", nil, user, time.UTC))
		if w.Code != want {
			t.Errorf("start %d: status = %d, want %d", i, w.Code, want)
		}
	}
}

func TestSleepStopWithoutActiveSession(t *testing.T) {
	t.Parallel()

	user := testUser()
	clock := &stepClock{t: time.Date(2024, time.March, 15, 23, 0, 0, 0, time.UTC)}
	router := newSleepTestServer(newFakeSleepRepo(), clock)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("POST", "/sleep/stop", nil, user, time.UTC))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSleepSummary(t *testing.T) {
	t.Parallel()

	user := testUser()
	repo := newFakeSleepRepo()
	clock := &stepClock{t: time.Date(2024, time.March, 11, 23, 0, 0, 0, time.UTC)}
	router := newSleepTestServer(repo, clock)

	// Two nights: 8h and 6h.
	for _, hours := range []time.Duration{8, 6} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest("POST", "/sleep/start", nil, user, time.UTC))
		if w.Code != http.StatusCreated {
			t.Fatalf("start status = %d, body = %s", w.Code, w.Body.String())
		}
		clock.advance(hours * time.Hour)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest("POST", "/sleep/stop", nil, user, time.UTC))
		if w.Code != http.StatusOK {
			t.Fatalf("stop status = %d, body = %s", w.Code, w.Body.String())
		}
		clock.advance(12 * time.Hour)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("GET", "/sleep/summary?start_date=2024-03-11&end_date=2024-03-15", nil, user, time.UTC))
	if w.Code != http.StatusOK {
		t.Fatalf("summary status = %d, body = %s", w.Code, w.Body.String())
	}

	var summary SleepSummaryResponse
	if err := json.Unmarshal(decodeEnvelope(t, w.Body).Data, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.SessionCount != 2 {
		t.Errorf("session count = %d, want 2", summary.SessionCount)
	}
	if want := (14 * time.Hour).Milliseconds(); summary.TotalDuration != want {
		t.Errorf("total = %d, want %d", summary.TotalDuration, want)
	}
	if want := (7 * time.Hour).Milliseconds(); summary.AverageDuration != want {
		t.Errorf("average = %d, want %d", summary.AverageDuration, want)
	}
}

func TestSleepListRequiresValidRange(t *testing.T) {
	t.Parallel()

	user := testUser()
	clock := &stepClock{t: time.Date(2024, time.March, 15, 23, 0, 0, 0, time.UTC)}
	router := newSleepTestServer(newFakeSleepRepo(), clock)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("GET", "/sleep?start_date=bad&end_date=2024-03-15", nil, user, time.UTC))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
