package request

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/weekwise/weekwise/internal/models"
	"github.com/weekwise/weekwise/internal/timeutil"
)

type contextKey string

const (
	userContextKey     contextKey = "user"
	timezoneContextKey contextKey = "timezone"
)

// UserContextKey returns the context key used for the user. Exposed for tests that inject non-user values.
func UserContextKey() contextKey { return userContextKey }

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// WithUser returns a context with the user attached.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the user from the request context, or nil if missing or wrong type.
func UserFromContext(r *http.Request) *models.User {
	u, _ := r.Context().Value(userContextKey).(*models.User)
	return u
}

// WithTimezone returns a context with the resolved request timezone attached.
func WithTimezone(ctx context.Context, loc *time.Location) context.Context {
	return context.WithValue(ctx, timezoneContextKey, loc)
}

// TimezoneFromContext returns the request timezone. Falls back to the
// default zone when no middleware resolved one.
func TimezoneFromContext(r *http.Request) *time.Location {
	if loc, ok := r.Context().Value(timezoneContextKey).(*time.Location); ok && loc != nil {
		return loc
	}
	return timeutil.Location(timeutil.DefaultTimezone)
}
