package middleware

import (
	"net/http"
	"time"

	"github.com/weekwise/weekwise/internal/request"
	"github.com/weekwise/weekwise/internal/timeutil"
)

// TimezoneHeader carries the client's IANA timezone name. Every date
// computation for the request happens in this zone.
const TimezoneHeader = "X-Timezone"

// Timezone resolves the request timezone from the X-Timezone header. An
// absent or unknown name falls back to the configured default, never to the
// host zone.
func Timezone(defaultZone string) func(http.Handler) http.Handler {
	fallback := timeutil.Location(defaultZone)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := fallback
			if name := r.Header.Get(TimezoneHeader); name != "" {
				if parsed, err := time.LoadLocation(name); err == nil {
					loc = parsed
				}
			}
			next.ServeHTTP(w, r.WithContext(request.WithTimezone(r.Context(), loc)))
		})
	}
}
