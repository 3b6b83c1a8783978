package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/weekwise/weekwise/internal/request"
	"go.uber.org/zap"
)

// AuthHandler exposes the authenticated user's own profile.
type AuthHandler struct {
	log *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(log *zap.Logger) *AuthHandler {
	return &AuthHandler{log: log}
}

// RegisterRoutes registers auth routes on the given router.
// The router should already have the /auth prefix.
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.Me).Methods("GET")
}

// Me returns the profile the auth middleware resolved for this request.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
