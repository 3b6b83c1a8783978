package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/weekwise/weekwise/internal/cache"
	"github.com/weekwise/weekwise/internal/database"
	"github.com/weekwise/weekwise/internal/models"
	"github.com/weekwise/weekwise/internal/queue"
	"github.com/weekwise/weekwise/internal/request"
	"github.com/weekwise/weekwise/internal/scheduling"
	"github.com/weekwise/weekwise/internal/timeutil"
	"github.com/weekwise/weekwise/internal/tracker"
	"github.com/weekwise/weekwise/internal/validation"
	"go.uber.org/zap"
)

const (
	// MaxTaskNameLength is the maximum length for task names
	MaxTaskNameLength = 200
	// DefaultPageSize is the default page size for pagination
	DefaultPageSize = 100
	// MaxPageSize is the maximum page size for pagination
	MaxPageSize = 500
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	tasks      database.TaskRepositoryInterface
	categories database.CategoryRepositoryInterface
	auto       *scheduling.Service
	tracker    *tracker.Service
	cache      *cache.Cache
	reminders  queue.JobQueue // nil when reminders are disabled
	clock      timeutil.Clock
	log        *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(
	tasks database.TaskRepositoryInterface,
	categories database.CategoryRepositoryInterface,
	auto *scheduling.Service,
	trackerSvc *tracker.Service,
	c *cache.Cache,
	reminders queue.JobQueue,
	clock timeutil.Clock,
	log *zap.Logger,
) *TaskHandler {
	return &TaskHandler{
		tasks:      tasks,
		categories: categories,
		auto:       auto,
		tracker:    trackerSvc,
		cache:      c,
		reminders:  reminders,
		clock:      clock,
		log:        log,
	}
}

// RegisterRoutes registers task routes on the given router.
// The router should already have the /tasks prefix.
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/week", h.ListWeek).Methods("GET")
	r.HandleFunc("/week", h.DeleteWeek).Methods("DELETE")
	r.HandleFunc("/range", h.ListRange).Methods("GET")
	r.HandleFunc("/day", h.DeleteDay).Methods("DELETE")
	r.HandleFunc("/active", h.GetActive).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/start", h.StartTask).Methods("PATCH")
	r.HandleFunc("/{id}/stop", h.StopTask).Methods("PATCH")
}

// CreateTaskRequest represents a create task request. Category may be given
// by id or by name; id wins when both are present.
type CreateTaskRequest struct {
	Name                 string  `json:"name" validate:"required,min=1,max=200"`
	Category             string  `json:"category" validate:"omitempty,max=100"`
	CategoryID           *string `json:"category_id,omitempty" validate:"omitempty,uuid"`
	Date                 string  `json:"date" validate:"required,datestr"`
	PlannedTime          int64   `json:"planned_time" validate:"gte=0"`
	IsAutomated          bool    `json:"is_automated"`
	Order                int     `json:"order" validate:"gte=0"`
	ScheduledStartTime   *string `json:"scheduled_start_time,omitempty" validate:"omitempty,clock"`
	ScheduledEndTime     *string `json:"scheduled_end_time,omitempty" validate:"omitempty,clock"`
	NotificationsEnabled bool    `json:"notifications_enabled"`
	NotificationMinutes  int     `json:"notification_minutes" validate:"gte=0,lte=1440"`
}

// UpdateTaskRequest represents a partial task update
type UpdateTaskRequest struct {
	Name                 *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Category             *string `json:"category,omitempty" validate:"omitempty,max=100"`
	PlannedTime          *int64  `json:"planned_time,omitempty" validate:"omitempty,gte=0"`
	IsAutomated          *bool   `json:"is_automated,omitempty"`
	Order                *int    `json:"order,omitempty" validate:"omitempty,gte=0"`
	ScheduledStartTime   *string `json:"scheduled_start_time,omitempty" validate:"omitempty,clock"`
	ScheduledEndTime     *string `json:"scheduled_end_time,omitempty" validate:"omitempty,clock"`
	NotificationsEnabled *bool   `json:"notifications_enabled,omitempty"`
	NotificationMinutes  *int    `json:"notification_minutes,omitempty" validate:"omitempty,gte=0,lte=1440"`
}

// WeekTasksResponse is the week listing payload.
type WeekTasksResponse struct {
	Tasks         []*models.Task `json:"tasks"`
	StartDate     string         `json:"start_date"`
	EndDate       string         `json:"end_date"`
	AutoCompleted int            `json:"auto_completed"`
}

// RangeTasksResponse is the paginated range listing payload.
type RangeTasksResponse struct {
	Tasks      []*models.Task `json:"tasks"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
}

// ActiveTaskResponse is the active task payload with live timing.
type ActiveTaskResponse struct {
	Task        *models.Task `json:"task"`
	LiveElapsed int64        `json:"live_elapsed"`
	Overtime    bool         `json:"overtime"`
}

// DeletedCountResponse reports bulk deletions.
type DeletedCountResponse struct {
	Deleted int64 `json:"deleted"`
}

// ListWeek lists the user's tasks for one scheduling week, applying
// auto-completion to any automated task whose time has come.
func (h *TaskHandler) ListWeek(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	loc := request.TimezoneFromContext(r)
	year, month, week, ok := h.weekParams(w, r, loc)
	if !ok {
		return
	}

	weekRange, err := timeutil.WeekRangeOf(year, month, week, loc)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	ctx := r.Context()
	today := timeutil.TodayString(h.clock.Now(), loc)
	key := weekCacheKey(user.ID, year, month, week, loc, today)
	var cached WeekTasksResponse
	if err := h.cache.GetJSON(ctx, key, &cached); err == nil {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	tasks, err := h.tasks.ListByDateRange(ctx, user.ID, weekRange.StartDate, weekRange.EndDate)
	if err != nil {
		respondAppError(w, err)
		return
	}

	applied := h.auto.AutoCompleteAll(ctx, tasks, loc)
	if applied > 0 {
		h.cache.Invalidate(ctx, user.ID, "analytics")
	}

	response := WeekTasksResponse{
		Tasks:         taskList(tasks),
		StartDate:     weekRange.StartDate,
		EndDate:       weekRange.EndDate,
		AutoCompleted: applied,
	}
	h.cache.SetJSON(ctx, key, response, cache.TasksTTL)
	respondJSON(w, http.StatusOK, response)
}

// ListRange lists the user's tasks in an arbitrary date range with
// pagination.
func (h *TaskHandler) ListRange(w http.ResponseWriter, r *http.Request) {
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
	if startDate > endDate {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "start_date must not be after end_date")
		return
	}

	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(r, "page_size", DefaultPageSize)
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	tasks, total, err := h.tasks.ListByDateRangePaginated(r.Context(), user.ID, startDate, endDate, page, pageSize)
	if err != nil {
		respondAppError(w, err)
		return
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	respondJSON(w, http.StatusOK, RangeTasksResponse{
		Tasks:      taskList(tasks),
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	})
}

// GetActive returns the currently running task with its live elapsed time
// and an overtime flag.
func (h *TaskHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	task, err := h.tasks.GetActive(r.Context(), user.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	now := h.clock.Now()
	respondJSON(w, http.StatusOK, ActiveTaskResponse{
		Task:        task,
		LiveElapsed: task.LiveElapsed(now),
		Overtime:    tracker.Overtime(task, now),
	})
}

// CreateTask creates a task on a concrete date.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = validation.SanitizeText(req.Name)
	if req.Name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Task name cannot be empty")
		return
	}

	ctx := r.Context()
	category, ok := h.resolveCategory(w, r, user.ID, req.Category, req.CategoryID)
	if !ok {
		return
	}

	loc := request.TimezoneFromContext(r)
	day, err := timeutil.ParseDateInZone(req.Date, loc)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	task := &models.Task{
		ID:                   uuid.New(),
		UserID:               user.ID,
		Name:                 req.Name,
		Category:             category,
		Date:                 req.Date,
		Day:                  timeutil.DayName(day, loc),
		Sessions:             []models.Session{},
		PlannedTime:          req.PlannedTime,
		IsAutomated:          req.IsAutomated,
		Order:                req.Order,
		ScheduledStartTime:   req.ScheduledStartTime,
		ScheduledEndTime:     req.ScheduledEndTime,
		NotificationsEnabled: req.NotificationsEnabled,
		NotificationMinutes:  req.NotificationMinutes,
	}

	if err := h.tasks.Create(ctx, task); err != nil {
		respondAppError(w, err)
		return
	}

	if _, err := h.auto.AutoComplete(ctx, task, loc); err != nil {
		h.log.Warn("auto_complete_failed", zap.String("task_id", task.ID.String()), zap.Error(err))
	}
	h.enqueueReminder(ctx, user.ID, task, loc)
	h.invalidateTaskCaches(r, user.ID)

	respondJSON(w, http.StatusCreated, task)
}

// UpdateTask applies a partial update: rename, recategorize, reorder, or
// adjust planning fields.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	taskID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	task, err := h.tasks.GetByID(ctx, taskID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if task.UserID != user.ID {
		respondJSONError(w, http.StatusNotFound, "Not Found", "task not found")
		return
	}

	if req.Name != nil {
		name := validation.SanitizeText(*req.Name)
		if name == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Task name cannot be empty")
			return
		}
		task.Name = name
	}
	if req.Category != nil {
		task.Category = validation.SanitizeText(*req.Category)
	}
	if req.PlannedTime != nil {
		task.PlannedTime = *req.PlannedTime
	}
	if req.IsAutomated != nil {
		task.IsAutomated = *req.IsAutomated
	}
	if req.Order != nil {
		task.Order = *req.Order
	}
	if req.ScheduledStartTime != nil {
		task.ScheduledStartTime = req.ScheduledStartTime
	}
	if req.ScheduledEndTime != nil {
		task.ScheduledEndTime = req.ScheduledEndTime
	}
	if req.NotificationsEnabled != nil {
		task.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.NotificationMinutes != nil {
		task.NotificationMinutes = *req.NotificationMinutes
	}

	if err := h.tasks.Update(ctx, task); err != nil {
		respondAppError(w, err)
		return
	}
	h.invalidateTaskCaches(r, user.ID)

	respondJSON(w, http.StatusOK, task)
}

// StartTask begins timing a task.
func (h *TaskHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	taskID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.tracker.Start(r.Context(), user.ID, taskID, request.TimezoneFromContext(r))
	if err != nil {
		respondAppError(w, err)
		return
	}
	h.invalidateTaskCaches(r, user.ID)

	respondJSON(w, http.StatusOK, task)
}

// StopTask ends timing a task.
func (h *TaskHandler) StopTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	taskID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.tracker.Stop(r.Context(), user.ID, taskID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	h.invalidateTaskCaches(r, user.ID)

	respondJSON(w, http.StatusOK, task)
}

// DeleteTask removes one task.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	taskID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	ctx := r.Context()
	task, err := h.tasks.GetByID(ctx, taskID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if task.UserID != user.ID {
		respondJSONError(w, http.StatusNotFound, "Not Found", "task not found")
		return
	}

	if err := h.tasks.Delete(ctx, taskID); err != nil {
		respondAppError(w, err)
		return
	}
	h.invalidateTaskCaches(r, user.ID)

	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// DeleteDay removes all of the user's tasks on one date.
func (h *TaskHandler) DeleteDay(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	date := r.URL.Query().Get("date")
	if err := validation.ValidateDateString(date); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	deleted, err := h.tasks.DeleteByDate(r.Context(), user.ID, date)
	if err != nil {
		respondAppError(w, err)
		return
	}
	h.invalidateTaskCaches(r, user.ID)

	respondJSON(w, http.StatusOK, DeletedCountResponse{Deleted: deleted})
}

// DeleteWeek removes all of the user's tasks in one scheduling week.
func (h *TaskHandler) DeleteWeek(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	loc := request.TimezoneFromContext(r)
	year, month, week, ok := h.weekParams(w, r, loc)
	if !ok {
		return
	}
	weekRange, err := timeutil.WeekRangeOf(year, month, week, loc)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	deleted, err := h.tasks.DeleteByDateRange(r.Context(), user.ID, weekRange.StartDate, weekRange.EndDate)
	if err != nil {
		respondAppError(w, err)
		return
	}
	h.invalidateTaskCaches(r, user.ID)

	respondJSON(w, http.StatusOK, DeletedCountResponse{Deleted: deleted})
}

// weekParams parses year/month/week query parameters, defaulting to the
// current week in the request timezone.
func (h *TaskHandler) weekParams(w http.ResponseWriter, r *http.Request, loc *time.Location) (year, month, week int, ok bool) {
	now := h.clock.Now().In(loc)
	year = queryInt(r, "year", now.Year())
	month = queryInt(r, "month", int(now.Month())-1)
	week = queryInt(r, "week", currentWeek(now.Day()))

	if month < 0 || month > 11 {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("month out of range: %d", month))
		return 0, 0, 0, false
	}
	if week < 1 || week > 4 {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("week number out of range: %d", week))
		return 0, 0, 0, false
	}
	return year, month, week, true
}

// currentWeek maps a day of month onto the 4-week scheduling grid; days
// 29-31 belong to week 4.
func currentWeek(dayOfMonth int) int {
	week := timeutil.WeekOfMonth(dayOfMonth)
	if week > 4 {
		week = 4
	}
	return week
}

// resolveCategory turns a category id or name into the stored category
// name. Tasks keep the display name so historical rows survive category
// deletion.
func (h *TaskHandler) resolveCategory(w http.ResponseWriter, r *http.Request, userID uuid.UUID, name string, id *string) (string, bool) {
	if id != nil {
		categoryID, err := uuid.Parse(*id)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid category_id")
			return "", false
		}
		category, err := h.categories.GetByID(r.Context(), userID, categoryID)
		if err != nil {
			respondAppError(w, err)
			return "", false
		}
		return category.Name, true
	}

	name = validation.SanitizeText(name)
	if name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Either category or category_id is required")
		return "", false
	}
	return name, true
}

// enqueueReminder schedules a pre-start notification when the task asks for
// one. Queue publication is best effort.
func (h *TaskHandler) enqueueReminder(ctx context.Context, userID uuid.UUID, task *models.Task, loc *time.Location) {
	if h.reminders == nil || !task.NotificationsEnabled || task.ScheduledStartTime == nil {
		return
	}

	hour, minute, err := timeutil.ParseClock(*task.ScheduledStartTime)
	if err != nil {
		return
	}
	start, err := timeutil.CombineDateAndClock(task.Date, hour, minute, loc)
	if err != nil {
		return
	}
	remindAt := start.Add(-time.Duration(task.NotificationMinutes) * time.Minute)
	if !remindAt.After(h.clock.Now()) {
		return
	}

	job := queue.NewReminderJob(userID, task.ID, task.Name, task.Date, remindAt, start)
	if err := h.reminders.Enqueue(ctx, job); err != nil {
		h.log.Warn("reminder_enqueue_failed", zap.String("task_id", task.ID.String()), zap.Error(err))
	}
}

// weekCacheKey keys a cached week listing. The key carries "today" because
// a cached listing is only valid for the day it was swept: auto-completion
// eligibility depends on the current date, so the key rolls over at
// midnight and forces a fresh sweep instead of serving a stale listing for
// the rest of the TTL.
func weekCacheKey(userID uuid.UUID, year, month, week int, loc *time.Location, today string) string {
	return cache.Key(userID, "tasks", "week",
		fmt.Sprintf("%d-%d-%d", year, month, week), loc.String(), today)
}

// invalidateTaskCaches drops cached task listings and analytics after any
// task mutation.
func (h *TaskHandler) invalidateTaskCaches(r *http.Request, userID uuid.UUID) {
	ctx := r.Context()
	h.cache.Invalidate(ctx, userID, "tasks")
	h.cache.Invalidate(ctx, userID, "analytics")
}

// taskList normalizes a possibly-nil slice for JSON output.
func taskList(tasks []*models.Task) []*models.Task {
	if tasks == nil {
		return []*models.Task{}
	}
	return tasks
}
