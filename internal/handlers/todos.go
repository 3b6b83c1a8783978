package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/weekwise/weekwise/internal/cache"
	"github.com/weekwise/weekwise/internal/database"
	"github.com/weekwise/weekwise/internal/models"
	"github.com/weekwise/weekwise/internal/request"
	"github.com/weekwise/weekwise/internal/timeutil"
	"github.com/weekwise/weekwise/internal/validation"
	"go.uber.org/zap"
)

// MaxTodoTextLength is the maximum length for todo text
const MaxTodoTextLength = 500

// TodoHandler handles todo-related requests
type TodoHandler struct {
	todos database.TodoRepositoryInterface
	cache *cache.Cache
	clock timeutil.Clock
	log   *zap.Logger
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(todos database.TodoRepositoryInterface, c *cache.Cache, clock timeutil.Clock, log *zap.Logger) *TodoHandler {
	return &TodoHandler{todos: todos, cache: c, clock: clock, log: log}
}

// RegisterRoutes registers todo routes on the given router.
// The router should already have the /todos prefix.
func (h *TodoHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTodos).Methods("GET")
	r.HandleFunc("", h.CreateTodo).Methods("POST")
	r.HandleFunc("/completed", h.ClearCompleted).Methods("DELETE")
	r.HandleFunc("/{id}", h.UpdateTodo).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTodo).Methods("DELETE")
}

// CreateTodoRequest represents a create todo request
type CreateTodoRequest struct {
	Text     string  `json:"text" validate:"required,min=1,max=500"`
	Deadline *string `json:"deadline,omitempty" validate:"omitempty,datestr"`
}

// UpdateTodoRequest represents a partial todo update
type UpdateTodoRequest struct {
	Text      *string `json:"text,omitempty" validate:"omitempty,min=1,max=500"`
	Completed *bool   `json:"completed,omitempty"`
	Deadline  *string `json:"deadline,omitempty" validate:"omitempty,datestr"`
}

// ListTodos returns today's todos. Incomplete todos from earlier dates are
// carried forward to today and flagged overdue before the list is returned.
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()
	loc := request.TimezoneFromContext(r)
	today := timeutil.TodayString(h.clock.Now(), loc)

	key := cache.Key(user.ID, "todos", today)
	var cached []*models.Todo
	if err := h.cache.GetJSON(ctx, key, &cached); err == nil {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	todos, err := h.todos.ListCurrent(ctx, user.ID, today)
	if err != nil {
		respondAppError(w, err)
		return
	}

	carried := 0
	for _, todo := range todos {
		if todo.Date >= today || todo.Completed {
			continue
		}
		if err := h.todos.CarryForward(ctx, todo.ID, today); err != nil {
			h.log.Warn("todo_carry_forward_failed", zap.String("todo_id", todo.ID.String()), zap.Error(err))
			continue
		}
		todo.Date = today
		todo.IsOverdue = true
		carried++
	}
	if carried > 0 {
		h.log.Info("todos_carried_forward",
			zap.String("user_id", user.ID.String()),
			zap.Int("count", carried))
	}
	if todos == nil {
		todos = []*models.Todo{}
	}

	h.cache.SetJSON(ctx, key, todos, cache.TodosTTL)
	respondJSON(w, http.StatusOK, todos)
}

// CreateTodo creates a todo dated today.
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	text := validation.SanitizeText(req.Text)
	if text == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Todo text cannot be empty")
		return
	}

	loc := request.TimezoneFromContext(r)
	todo := &models.Todo{
		ID:       uuid.New(),
		UserID:   user.ID,
		Text:     text,
		Date:     timeutil.TodayString(h.clock.Now(), loc),
		Deadline: req.Deadline,
	}

	if err := h.todos.Create(r.Context(), todo); err != nil {
		respondAppError(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), user.ID, "todos")

	respondJSON(w, http.StatusCreated, todo)
}

// UpdateTodo updates a todo's text, completion, or deadline.
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	todoID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	todo, err := h.todos.GetByID(ctx, todoID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if todo.UserID != user.ID {
		respondJSONError(w, http.StatusNotFound, "Not Found", "todo not found")
		return
	}

	if req.Text != nil {
		text := validation.SanitizeText(*req.Text)
		if text == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Todo text cannot be empty")
			return
		}
		todo.Text = text
	}
	if req.Completed != nil {
		todo.Completed = *req.Completed
	}
	if req.Deadline != nil {
		todo.Deadline = req.Deadline
	}

	if err := h.todos.Update(ctx, todo); err != nil {
		respondAppError(w, err)
		return
	}
	h.cache.Invalidate(ctx, user.ID, "todos")

	respondJSON(w, http.StatusOK, todo)
}

// DeleteTodo soft-deletes a todo.
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	todoID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	ctx := r.Context()
	todo, err := h.todos.GetByID(ctx, todoID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if todo.UserID != user.ID {
		respondJSONError(w, http.StatusNotFound, "Not Found", "todo not found")
		return
	}

	if err := h.todos.SoftDelete(ctx, todoID); err != nil {
		respondAppError(w, err)
		return
	}
	h.cache.Invalidate(ctx, user.ID, "todos")

	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// ClearCompleted soft-deletes all of the user's completed todos.
func (h *TodoHandler) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	cleared, err := h.todos.ClearCompleted(r.Context(), user.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), user.ID, "todos")

	respondJSON(w, http.StatusOK, DeletedCountResponse{Deleted: cleared})
}
