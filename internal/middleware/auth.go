package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/weekwise/weekwise/internal/apperr"
	"github.com/weekwise/weekwise/internal/auth"
	"github.com/weekwise/weekwise/internal/database"
	"github.com/weekwise/weekwise/internal/models"
	"github.com/weekwise/weekwise/internal/request"
	"go.uber.org/zap"
)

// Auth validates bearer tokens and resolves the account. First sight of a
// verified subject provisions a user row; later requests refresh profile
// fields that drifted from the token claims.
func Auth(verifier auth.TokenVerifier, users database.UserRepositoryInterface, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Missing Authorization header", log)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format", log)
				return
			}

			ctx := r.Context()
			claims, err := verifier.Verify(ctx, parts[1])
			if err != nil {
				log.Debug("token_verification_failed", zap.Error(err))
				respondError(w, http.StatusUnauthorized, "Invalid or expired token", log)
				return
			}

			user, err := users.GetByProviderID(ctx, claims.Sub)
			switch {
			case apperr.IsNotFound(err):
				user = &models.User{
					ID:         uuid.New(),
					Email:      claims.Email,
					ProviderID: claims.Sub,
					Name:       claims.Name,
				}
				if err := users.Create(ctx, user); err != nil {
					log.Error("user_provisioning_failed", zap.Error(err))
					respondError(w, http.StatusInternalServerError, "Failed to create user", log)
					return
				}
				log.Info("user_provisioned", zap.String("user_id", user.ID.String()))
			case err != nil:
				log.Error("user_lookup_failed", zap.Error(err))
				respondError(w, http.StatusInternalServerError, "Database error", log)
				return
			default:
				if user.Email != claims.Email || (claims.Name != "" && user.Name != claims.Name) {
					user.Email = claims.Email
					if claims.Name != "" {
						user.Name = claims.Name
					}
					if err := users.UpdateProfile(ctx, user); err != nil {
						log.Warn("user_profile_refresh_failed", zap.Error(err))
					}
				}
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

func respondError(w http.ResponseWriter, status int, message string, log *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error("failed_to_encode_error_response", zap.Error(err))
	}
}
