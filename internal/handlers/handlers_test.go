package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/weekwise/weekwise/internal/apperr"
	"github.com/weekwise/weekwise/internal/database"
	"github.com/weekwise/weekwise/internal/models"
	"github.com/weekwise/weekwise/internal/request"
)

var (
	_ database.TaskRepositoryInterface     = (*fakeTaskRepo)(nil)
	_ database.CategoryRepositoryInterface = (*fakeCategoryRepo)(nil)
	_ database.TodoRepositoryInterface     = (*fakeTodoRepo)(nil)
	_ database.SleepRepositoryInterface    = (*fakeSleepRepo)(nil)
	_ database.TemplateRepositoryInterface = (*fakeTemplateRepo)(nil)
)

// envelope mirrors the JSON response wrapper for decoding in tests.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, body io.Reader) envelope {
	t.Helper()
	var e envelope
	if err := json.NewDecoder(body).Decode(&e); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return e
}

func testUser() *models.User {
	return &models.User{ID: uuid.New(), ProviderID: "sub-1", Email: "dev@example.com", Name: "Dev"}
}

// authedRequest builds a request carrying a user and timezone, the way the
// middleware chain would.
func authedRequest(method, target string, body any, user *models.User, loc *time.Location) *http.Request {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	r := httptest.NewRequest(method, target, reader)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	ctx := request.WithUser(r.Context(), user)
	ctx = request.WithTimezone(ctx, loc)
	return r.WithContext(ctx)
}

// stepClock is a mutable test clock.
type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time { return c.t }

func (c *stepClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// fakeTaskRepo is an in-memory TaskRepositoryInterface.
type fakeTaskRepo struct {
	tasks map[uuid.UUID]*models.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uuid.UUID]*models.Task)}
}

func (f *fakeTaskRepo) Create(_ context.Context, task *models.Task) error {
	for _, t := range f.tasks {
		if t.UserID == task.UserID && t.Name == task.Name && t.Category == task.Category && t.Date == task.Date {
			return apperr.Conflictf("task %q already exists on %s", task.Name, task.Date)
		}
	}
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, apperr.NotFound("task", id.String())
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTaskRepo) GetByKey(_ context.Context, userID uuid.UUID, name, category, date string) (*models.Task, error) {
	for _, t := range f.tasks {
		if t.UserID == userID && t.Name == name && t.Category == category && t.Date == date {
			copied := *t
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("task", name)
}

func (f *fakeTaskRepo) GetActive(_ context.Context, userID uuid.UUID) (*models.Task, error) {
	for _, t := range f.tasks {
		if t.UserID == userID && t.IsActive {
			copied := *t
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("active task", userID.String())
}

func (f *fakeTaskRepo) ListByDateRange(_ context.Context, userID uuid.UUID, startDate, endDate string) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range f.tasks {
		if t.UserID == userID && t.Date >= startDate && t.Date <= endDate {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) ListByDateRangePaginated(ctx context.Context, userID uuid.UUID, startDate, endDate string, page, pageSize int) ([]*models.Task, int, error) {
	all, err := f.ListByDateRange(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, 0, err
	}
	total := len(all)
	start := (page - 1) * pageSize
	if start >= total {
		return nil, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeTaskRepo) ListByCategory(_ context.Context, userID uuid.UUID, category, startDate, endDate string) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range f.tasks {
		if t.UserID == userID && t.Category == category && t.Date >= startDate && t.Date <= endDate {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) Update(_ context.Context, task *models.Task) error {
	if _, ok := f.tasks[task.ID]; !ok {
		return apperr.NotFound("task", task.ID.String())
	}
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskRepo) CompleteAutomated(_ context.Context, taskID uuid.UUID, session models.Session, plannedTime int64) (bool, error) {
	t, ok := f.tasks[taskID]
	if !ok {
		return false, apperr.NotFound("task", taskID.String())
	}
	if len(t.Sessions) > 0 || t.TotalTime > 0 || t.IsActive {
		return false, nil
	}
	t.Sessions = append(t.Sessions, session)
	t.TotalTime = plannedTime
	t.CompletionCount = 1
	return true, nil
}

func (f *fakeTaskRepo) SetCalendarEventID(_ context.Context, taskID uuid.UUID, eventID string) error {
	t, ok := f.tasks[taskID]
	if !ok {
		return apperr.NotFound("task", taskID.String())
	}
	t.CalendarEventID = &eventID
	return nil
}

func (f *fakeTaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.tasks[id]; !ok {
		return apperr.NotFound("task", id.String())
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskRepo) DeleteByDate(_ context.Context, userID uuid.UUID, date string) (int64, error) {
	var n int64
	for id, t := range f.tasks {
		if t.UserID == userID && t.Date == date {
			delete(f.tasks, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeTaskRepo) DeleteByDateRange(_ context.Context, userID uuid.UUID, startDate, endDate string) (int64, error) {
	var n int64
	for id, t := range f.tasks {
		if t.UserID == userID && t.Date >= startDate && t.Date <= endDate {
			delete(f.tasks, id)
			n++
		}
	}
	return n, nil
}

// fakeCategoryRepo is an in-memory CategoryRepositoryInterface.
type fakeCategoryRepo struct {
	categories map[uuid.UUID]*models.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[uuid.UUID]*models.Category)}
}

func (f *fakeCategoryRepo) Create(_ context.Context, c *models.Category) error {
	for _, existing := range f.categories {
		if existing.UserID == c.UserID && existing.Name == c.Name {
			return apperr.Conflictf("category %q already exists", c.Name)
		}
	}
	copied := *c
	f.categories[c.ID] = &copied
	return nil
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, userID, id uuid.UUID) (*models.Category, error) {
	c, ok := f.categories[id]
	if !ok || c.UserID != userID {
		return nil, apperr.NotFound("category", id.String())
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCategoryRepo) GetByName(_ context.Context, userID uuid.UUID, name string) (*models.Category, error) {
	for _, c := range f.categories {
		if c.UserID == userID && c.Name == name {
			copied := *c
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("category", name)
}

func (f *fakeCategoryRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]*models.Category, error) {
	var out []*models.Category
	for _, c := range f.categories {
		if c.UserID == userID {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeCategoryRepo) Update(_ context.Context, c *models.Category) error {
	if _, ok := f.categories[c.ID]; !ok {
		return apperr.NotFound("category", c.ID.String())
	}
	copied := *c
	f.categories[c.ID] = &copied
	return nil
}

func (f *fakeCategoryRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	c, ok := f.categories[id]
	if !ok || c.UserID != userID {
		return apperr.NotFound("category", id.String())
	}
	delete(f.categories, id)
	return nil
}

// fakeTodoRepo is an in-memory TodoRepositoryInterface.
type fakeTodoRepo struct {
	todos   map[uuid.UUID]*models.Todo
	carried int
}

func newFakeTodoRepo() *fakeTodoRepo {
	return &fakeTodoRepo{todos: make(map[uuid.UUID]*models.Todo)}
}

func (f *fakeTodoRepo) Create(_ context.Context, todo *models.Todo) error {
	copied := *todo
	f.todos[todo.ID] = &copied
	return nil
}

func (f *fakeTodoRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Todo, error) {
	t, ok := f.todos[id]
	if !ok || t.Deleted {
		return nil, apperr.NotFound("todo", id.String())
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTodoRepo) ListCurrent(_ context.Context, userID uuid.UUID, today string) ([]*models.Todo, error) {
	var out []*models.Todo
	for _, t := range f.todos {
		if t.UserID != userID || t.Deleted {
			continue
		}
		if t.Date == today || (t.Date < today && !t.Completed) {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeTodoRepo) CarryForward(_ context.Context, id uuid.UUID, today string) error {
	t, ok := f.todos[id]
	if !ok {
		return apperr.NotFound("todo", id.String())
	}
	t.Date = today
	t.IsOverdue = true
	f.carried++
	return nil
}

func (f *fakeTodoRepo) Update(_ context.Context, todo *models.Todo) error {
	if _, ok := f.todos[todo.ID]; !ok {
		return apperr.NotFound("todo", todo.ID.String())
	}
	copied := *todo
	f.todos[todo.ID] = &copied
	return nil
}

func (f *fakeTodoRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	t, ok := f.todos[id]
	if !ok {
		return apperr.NotFound("todo", id.String())
	}
	t.Deleted = true
	return nil
}

func (f *fakeTodoRepo) ClearCompleted(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, t := range f.todos {
		if t.UserID == userID && t.Completed && !t.Deleted {
			t.Deleted = true
			n++
		}
	}
	return n, nil
}

// fakeSleepRepo is an in-memory SleepRepositoryInterface.
type fakeSleepRepo struct {
	sessions map[uuid.UUID]*models.Sleep
}

func newFakeSleepRepo() *fakeSleepRepo {
	return &fakeSleepRepo{sessions: make(map[uuid.UUID]*models.Sleep)}
}

func (f *fakeSleepRepo) Create(_ context.Context, s *models.Sleep) error {
	for _, existing := range f.sessions {
		if existing.UserID == s.UserID && existing.IsActive {
			return apperr.Conflictf("a sleep session is already active")
		}
	}
	copied := *s
	f.sessions[s.ID] = &copied
	return nil
}

func (f *fakeSleepRepo) GetActive(_ context.Context, userID uuid.UUID) (*models.Sleep, error) {
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsActive {
			copied := *s
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("active sleep session", userID.String())
}

func (f *fakeSleepRepo) Stop(_ context.Context, s *models.Sleep) error {
	existing, ok := f.sessions[s.ID]
	if !ok || !existing.IsActive {
		return apperr.NotFound("active sleep session", s.ID.String())
	}
	copied := *s
	f.sessions[s.ID] = &copied
	return nil
}

func (f *fakeSleepRepo) ListByDateRange(_ context.Context, userID uuid.UUID, startDate, endDate string) ([]*models.Sleep, error) {
	var out []*models.Sleep
	for _, s := range f.sessions {
		if s.UserID == userID && s.Date >= startDate && s.Date <= endDate {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeSleepRepo) ListCompletedByDateRange(ctx context.Context, userID uuid.UUID, startDate, endDate string) ([]*models.Sleep, error) {
	all, err := f.ListByDateRange(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	var out []*models.Sleep
	for _, s := range all {
		if !s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeTemplateRepo is an in-memory TemplateRepositoryInterface.
type fakeTemplateRepo struct {
	templates map[uuid.UUID]*models.TaskTemplate
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: make(map[uuid.UUID]*models.TaskTemplate)}
}

func (f *fakeTemplateRepo) Create(_ context.Context, tpl *models.TaskTemplate) error {
	for _, existing := range f.templates {
		if existing.UserID == tpl.UserID && existing.Name == tpl.Name {
			return apperr.Conflictf("template %q already exists", tpl.Name)
		}
	}
	copied := *tpl
	f.templates[tpl.ID] = &copied
	return nil
}

func (f *fakeTemplateRepo) GetByID(_ context.Context, userID, id uuid.UUID) (*models.TaskTemplate, error) {
	tpl, ok := f.templates[id]
	if !ok || tpl.UserID != userID {
		return nil, apperr.NotFound("template", id.String())
	}
	copied := *tpl
	return &copied, nil
}

func (f *fakeTemplateRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]*models.TaskTemplate, error) {
	var out []*models.TaskTemplate
	for _, tpl := range f.templates {
		if tpl.UserID == userID {
			copied := *tpl
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeTemplateRepo) Update(_ context.Context, tpl *models.TaskTemplate) error {
	if _, ok := f.templates[tpl.ID]; !ok {
		return apperr.NotFound("template", tpl.ID.String())
	}
	copied := *tpl
	f.templates[tpl.ID] = &copied
	return nil
}

func (f *fakeTemplateRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	tpl, ok := f.templates[id]
	if !ok || tpl.UserID != userID {
		return apperr.NotFound("template", id.String())
	}
	delete(f.templates, id)
	return nil
}
