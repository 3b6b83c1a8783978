package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/weekwise/weekwise/internal/cache"
	"github.com/weekwise/weekwise/internal/database"
	"github.com/weekwise/weekwise/internal/models"
	"github.com/weekwise/weekwise/internal/request"
	"github.com/weekwise/weekwise/internal/validation"
	"go.uber.org/zap"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categories database.CategoryRepositoryInterface
	cache      *cache.Cache
	log        *zap.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categories database.CategoryRepositoryInterface, c *cache.Cache, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, cache: c, log: log}
}

// RegisterRoutes registers category routes on the given router.
// The router should already have the /categories prefix.
func (h *CategoryHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListCategories).Methods("GET")
	r.HandleFunc("", h.CreateCategory).Methods("POST")
	r.HandleFunc("/{id}", h.UpdateCategory).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteCategory).Methods("DELETE")
}

// CreateCategoryRequest represents a create category request
type CreateCategoryRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Color string `json:"color" validate:"omitempty,max=32"`
	Icon  string `json:"icon" validate:"omitempty,max=64"`
}

// UpdateCategoryRequest represents a partial category update
type UpdateCategoryRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Color *string `json:"color,omitempty" validate:"omitempty,max=32"`
	Icon  *string `json:"icon,omitempty" validate:"omitempty,max=64"`
}

// ListCategories lists the user's categories ordered by name.
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	ctx := r.Context()
	key := cache.Key(user.ID, "categories", "list")
	var cached []*models.Category
	if err := h.cache.GetJSON(ctx, key, &cached); err == nil {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	categories, err := h.categories.ListByUserID(ctx, user.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if categories == nil {
		categories = []*models.Category{}
	}

	h.cache.SetJSON(ctx, key, categories, cache.CategoriesTTL)
	respondJSON(w, http.StatusOK, categories)
}

// CreateCategory creates a category. Names are unique per user.
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	name := validation.SanitizeText(req.Name)
	if name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Category name cannot be empty")
		return
	}

	category := &models.Category{
		ID:     uuid.New(),
		UserID: user.ID,
		Name:   name,
		Color:  req.Color,
		Icon:   req.Icon,
	}

	if err := h.categories.Create(r.Context(), category); err != nil {
		respondAppError(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), user.ID, "categories")

	respondJSON(w, http.StatusCreated, category)
}

// UpdateCategory updates a category's name, color, or icon. Renaming does not
// rewrite tasks that reference the old name.
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	categoryID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	category, err := h.categories.GetByID(ctx, user.ID, categoryID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	if req.Name != nil {
		name := validation.SanitizeText(*req.Name)
		if name == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Category name cannot be empty")
			return
		}
		category.Name = name
	}
	if req.Color != nil {
		category.Color = *req.Color
	}
	if req.Icon != nil {
		category.Icon = *req.Icon
	}

	if err := h.categories.Update(ctx, category); err != nil {
		respondAppError(w, err)
		return
	}
	h.cache.Invalidate(ctx, user.ID, "categories")

	respondJSON(w, http.StatusOK, category)
}

// DeleteCategory deletes a category. Existing tasks keep the category name as
// plain text.
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	categoryID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.categories.Delete(r.Context(), user.ID, categoryID); err != nil {
		respondAppError(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), user.ID, "categories")

	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
