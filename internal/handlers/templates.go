package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/weekwise/weekwise/internal/cache"
	"github.com/weekwise/weekwise/internal/database"
	"github.com/weekwise/weekwise/internal/models"
	"github.com/weekwise/weekwise/internal/request"
	"github.com/weekwise/weekwise/internal/templates"
	"github.com/weekwise/weekwise/internal/validation"
	"go.uber.org/zap"
)

// MaxTemplateTasks caps how many task definitions one template may hold.
const MaxTemplateTasks = 100

// TemplateHandler handles weekly template requests
type TemplateHandler struct {
	templates database.TemplateRepositoryInterface
	applier   *templates.Service
	cache     *cache.Cache
	log       *zap.Logger
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(repo database.TemplateRepositoryInterface, applier *templates.Service, c *cache.Cache, log *zap.Logger) *TemplateHandler {
	return &TemplateHandler{templates: repo, applier: applier, cache: c, log: log}
}

// RegisterRoutes registers template routes on the given router.
// The router should already have the /templates prefix.
func (h *TemplateHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTemplates).Methods("GET")
	r.HandleFunc("", h.CreateTemplate).Methods("POST")
	r.HandleFunc("/{id}", h.GetTemplate).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTemplate).Methods("PUT")
	r.HandleFunc("/{id}", h.DeleteTemplate).Methods("DELETE")
	r.HandleFunc("/{id}/apply", h.ApplyTemplate).Methods("POST")
}

// TemplateTaskRequest is one task definition in a template payload.
type TemplateTaskRequest struct {
	Name               string  `json:"name" validate:"required,min=1,max=200"`
	Category           string  `json:"category" validate:"required,min=1,max=100"`
	Day                string  `json:"day" validate:"required,weekday"`
	PlannedTime        int64   `json:"planned_time" validate:"gte=0"`
	IsAutomated        bool    `json:"is_automated"`
	ScheduledStartTime *string `json:"scheduled_start_time,omitempty" validate:"omitempty,clock"`
	ScheduledEndTime   *string `json:"scheduled_end_time,omitempty" validate:"omitempty,clock"`
	AddToCalendar      bool    `json:"add_to_calendar"`
	ReminderMinutes    int     `json:"reminder_minutes" validate:"gte=0,lte=1440"`
}

// SaveTemplateRequest represents a create or full-update template request
type SaveTemplateRequest struct {
	Name  string                `json:"name" validate:"required,min=1,max=100"`
	Tasks []TemplateTaskRequest `json:"tasks" validate:"required,min=1,max=100,dive"`
}

// ApplyTemplateRequest names the target scheduling week.
type ApplyTemplateRequest struct {
	Year  int `json:"year" validate:"required,gte=2000,lte=2200"`
	Month int `json:"month" validate:"gte=0,lte=11"`
	Week  int `json:"week" validate:"required,gte=1,lte=4"`
}

// ListTemplates lists the user's templates.
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()
	key := cache.Key(user.ID, "templates", "list")
	var cached []*models.TaskTemplate
	if err := h.cache.GetJSON(ctx, key, &cached); err == nil {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	list, err := h.templates.ListByUserID(ctx, user.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if list == nil {
		list = []*models.TaskTemplate{}
	}

	h.cache.SetJSON(ctx, key, list, cache.TemplatesTTL)
	respondJSON(w, http.StatusOK, list)
}

// GetTemplate returns one template.
func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	templateID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	tpl, err := h.templates.GetByID(r.Context(), user.ID, templateID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tpl)
}

// CreateTemplate creates a template. Names are unique per user.
func (h *TemplateHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req SaveTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tasks, ok := h.templateTasks(w, req.Tasks)
	if !ok {
		return
	}

	tpl := &models.TaskTemplate{
		ID:     uuid.New(),
		UserID: user.ID,
		Name:   validation.SanitizeText(req.Name),
		Tasks:  tasks,
	}

	if err := h.templates.Create(r.Context(), tpl); err != nil {
		respondAppError(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), user.ID, "templates")

	respondJSON(w, http.StatusCreated, tpl)
}

// UpdateTemplate replaces a template's name and task definitions.
func (h *TemplateHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	templateID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req SaveTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tasks, ok := h.templateTasks(w, req.Tasks)
	if !ok {
		return
	}

	ctx := r.Context()
	tpl, err := h.templates.GetByID(ctx, user.ID, templateID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	tpl.Name = validation.SanitizeText(req.Name)
	tpl.Tasks = tasks

	if err := h.templates.Update(ctx, tpl); err != nil {
		respondAppError(w, err)
		return
	}
	h.cache.Invalidate(ctx, user.ID, "templates")

	respondJSON(w, http.StatusOK, tpl)
}

// DeleteTemplate deletes a template. Tasks already stamped from it are kept.
func (h *TemplateHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	templateID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.templates.Delete(r.Context(), user.ID, templateID); err != nil {
		respondAppError(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), user.ID, "templates")

	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// ApplyTemplate stamps a template onto a scheduling week. Applying the same
// template to the same week twice updates the stamped tasks in place.
func (h *TemplateHandler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	templateID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req ApplyTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	loc := request.TimezoneFromContext(r)
	result, err := h.applier.Apply(ctx, user, templateID, req.Year, req.Month, req.Week, loc)
	if err != nil {
		respondAppError(w, err)
		return
	}

	h.cache.Invalidate(ctx, user.ID, "tasks")
	h.cache.Invalidate(ctx, user.ID, "analytics")

	respondJSON(w, http.StatusOK, result)
}

// templateTasks sanitizes and converts task definition payloads.
func (h *TemplateHandler) templateTasks(w http.ResponseWriter, reqs []TemplateTaskRequest) ([]models.TemplateTask, bool) {
	tasks := make([]models.TemplateTask, 0, len(reqs))
	for _, tr := range reqs {
		name := validation.SanitizeText(tr.Name)
		category := validation.SanitizeText(tr.Category)
		if name == "" || category == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Template task name and category cannot be empty")
			return nil, false
		}
		tasks = append(tasks, models.TemplateTask{
			Name:               name,
			Category:           category,
			Day:                tr.Day,
			PlannedTime:        tr.PlannedTime,
			IsAutomated:        tr.IsAutomated,
			ScheduledStartTime: tr.ScheduledStartTime,
			ScheduledEndTime:   tr.ScheduledEndTime,
			AddToCalendar:      tr.AddToCalendar,
			ReminderMinutes:    tr.ReminderMinutes,
		})
	}
	return tasks, true
}
