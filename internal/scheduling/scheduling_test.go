package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/weekwise/weekwise/internal/models"
	"github.com/weekwise/weekwise/internal/timeutil"
	"go.uber.org/zap"
)

type fakeCompleter struct {
	applied  bool
	calls    int
	lastSess models.Session
	lastPlan int64
}

func (f *fakeCompleter) CompleteAutomated(_ context.Context, _ uuid.UUID, session models.Session, plannedTime int64) (bool, error) {
	f.calls++
	f.lastSess = session
	f.lastPlan = plannedTime
	return f.applied, nil
}

func automatedTask(date string, plannedTime int64) *models.Task {
	return &models.Task{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Name:        "morning reading",
		Category:    "Learning",
		Date:        date,
		Day:         "friday",
		IsAutomated: true,
		PlannedTime: plannedTime,
		Sessions:    []models.Session{},
	}
}

func TestEligible(t *testing.T) {
	t.Parallel()

	const today = "2024-03-15"

	tests := []struct {
		name   string
		mutate func(*models.Task)
		want   bool
	}{
		{"automated untouched past-or-today", func(*models.Task) {}, true},
		{"not automated", func(task *models.Task) { task.IsAutomated = false }, false},
		{"currently active", func(task *models.Task) { task.IsActive = true }, false},
		{"zero planned time", func(task *models.Task) { task.PlannedTime = 0 }, false},
		{"already has time", func(task *models.Task) { task.TotalTime = 60000 }, false},
		{"already has sessions", func(task *models.Task) {
			task.Sessions = []models.Session{{Duration: 60000}}
		}, false},
		{"future date", func(task *models.Task) { task.Date = "2024-03-16" }, false},
		{"past date", func(task *models.Task) { task.Date = "2024-03-10" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			task := automatedTask(today, 3600000)
			tt.mutate(task)
			if got := Eligible(task, today); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSynthesizeSessionScheduledClocks(t *testing.T) {
	t.Parallel()

	loc := timeutil.Location(timeutil.DefaultTimezone)
	task := automatedTask("2024-03-15", 3600000)
	start, end := "09:00", "10:30"
	task.ScheduledStartTime = &start
	task.ScheduledEndTime = &end

	session := SynthesizeSession(task, loc)

	wantStart := time.Date(2024, 3, 15, 9, 0, 0, 0, loc)
	if !session.StartTime.Equal(wantStart) {
		t.Errorf("StartTime = %v, want %v", session.StartTime, wantStart)
	}
	// The session spans the scheduled window even when it is wider than the
	// planned time; only the duration follows the planned time.
	wantEnd := time.Date(2024, 3, 15, 10, 30, 0, 0, loc)
	if !session.EndTime.Equal(wantEnd) {
		t.Errorf("EndTime = %v, want %v", session.EndTime, wantEnd)
	}
	if session.Duration != 3600000 {
		t.Errorf("Duration = %d, want 3600000", session.Duration)
	}
}

func TestSynthesizeSessionBadEndClock(t *testing.T) {
	t.Parallel()

	loc := timeutil.Location(timeutil.DefaultTimezone)
	task := automatedTask("2024-03-15", 3600000)
	start, end := "09:00", "later"
	task.ScheduledStartTime = &start
	task.ScheduledEndTime = &end

	session := SynthesizeSession(task, loc)

	wantStart := time.Date(2024, 3, 15, 9, 0, 0, 0, loc)
	if !session.StartTime.Equal(wantStart) {
		t.Errorf("StartTime = %v, want %v", session.StartTime, wantStart)
	}
	if got := session.EndTime.Sub(session.StartTime); got != time.Hour {
		t.Errorf("session span = %v, want 1h fallback for unparseable end", got)
	}
}

func TestSynthesizeSessionDefaultClock(t *testing.T) {
	t.Parallel()

	loc := timeutil.Location(timeutil.DefaultTimezone)
	task := automatedTask("2024-03-15", 1800000)

	session := SynthesizeSession(task, loc)

	wantStart := time.Date(2024, 3, 15, 1, 0, 0, 0, loc)
	if !session.StartTime.Equal(wantStart) {
		t.Errorf("StartTime = %v, want %v", session.StartTime, wantStart)
	}
	if session.Duration != 1800000 {
		t.Errorf("Duration = %d, want 1800000", session.Duration)
	}
}

func TestAutoCompleteApplies(t *testing.T) {
	t.Parallel()

	loc := timeutil.Location(timeutil.DefaultTimezone)
	clock := timeutil.FixedClock{T: time.Date(2024, 3, 15, 12, 0, 0, 0, loc)}
	repo := &fakeCompleter{applied: true}
	svc := NewService(repo, clock, zap.NewNop())

	// Created mid-month for a date earlier in the month: still completes.
	task := automatedTask("2024-03-10", 3600000)
	task.Day = "sunday"

	applied, err := svc.AutoComplete(context.Background(), task, loc)
	if err != nil {
		t.Fatalf("AutoComplete() error = %v", err)
	}
	if !applied {
		t.Fatal("AutoComplete() = false, want true")
	}
	if task.TotalTime != 3600000 {
		t.Errorf("TotalTime = %d, want 3600000", task.TotalTime)
	}
	if task.CompletionCount != 1 {
		t.Errorf("CompletionCount = %d, want 1", task.CompletionCount)
	}
	if len(task.Sessions) != 1 {
		t.Fatalf("Sessions = %d, want 1", len(task.Sessions))
	}
	if repo.lastPlan != 3600000 {
		t.Errorf("persisted planned time = %d, want 3600000", repo.lastPlan)
	}
}

func TestAutoCompleteLosesRace(t *testing.T) {
	t.Parallel()

	loc := timeutil.Location(timeutil.DefaultTimezone)
	clock := timeutil.FixedClock{T: time.Date(2024, 3, 15, 12, 0, 0, 0, loc)}
	repo := &fakeCompleter{applied: false}
	svc := NewService(repo, clock, zap.NewNop())

	task := automatedTask("2024-03-15", 3600000)

	applied, err := svc.AutoComplete(context.Background(), task, loc)
	if err != nil {
		t.Fatalf("AutoComplete() error = %v", err)
	}
	if applied {
		t.Fatal("AutoComplete() = true, want false when update not applied")
	}
	if task.TotalTime != 0 || len(task.Sessions) != 0 {
		t.Error("task mutated despite losing the conditional update")
	}
}

func TestAutoCompleteIneligibleSkipsRepo(t *testing.T) {
	t.Parallel()

	loc := timeutil.Location(timeutil.DefaultTimezone)
	clock := timeutil.FixedClock{T: time.Date(2024, 3, 15, 12, 0, 0, 0, loc)}
	repo := &fakeCompleter{applied: true}
	svc := NewService(repo, clock, zap.NewNop())

	task := automatedTask("2024-03-16", 3600000) // tomorrow

	applied, err := svc.AutoComplete(context.Background(), task, loc)
	if err != nil {
		t.Fatalf("AutoComplete() error = %v", err)
	}
	if applied {
		t.Fatal("AutoComplete() applied a future task")
	}
	if repo.calls != 0 {
		t.Errorf("repo called %d times, want 0", repo.calls)
	}
}

func TestAutoCompleteAll(t *testing.T) {
	t.Parallel()

	loc := timeutil.Location(timeutil.DefaultTimezone)
	clock := timeutil.FixedClock{T: time.Date(2024, 3, 15, 12, 0, 0, 0, loc)}
	repo := &fakeCompleter{applied: true}
	svc := NewService(repo, clock, zap.NewNop())

	manual := automatedTask("2024-03-15", 3600000)
	manual.IsAutomated = false

	tasks := []*models.Task{
		automatedTask("2024-03-14", 3600000),
		automatedTask("2024-03-15", 1800000),
		manual,
		automatedTask("2024-03-20", 3600000),
	}

	if got := svc.AutoCompleteAll(context.Background(), tasks, loc); got != 2 {
		t.Errorf("AutoCompleteAll() = %d, want 2", got)
	}
}
