package middleware

import (
	"net/http"
	"time"

	logpkg "github.com/weekwise/weekwise/internal/logger"
	"github.com/weekwise/weekwise/internal/request"
	"go.uber.org/zap"
)

// Logging creates logging middleware. Every request logs its caller
// timezone header alongside the usual fields, since almost all of the API's
// date math depends on it.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap ResponseWriter to capture status code
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("client_ip", request.ClientIP(r)),
				zap.Int("status_code", wrapped.statusCode),
				zap.Int64("duration_ms", duration.Milliseconds()),
			}
			if tz := r.Header.Get("X-Timezone"); tz != "" {
				fields = append(fields, zap.String("timezone", logpkg.SanitizeString(tz, 64)))
			}
			logger.Info("http_request", fields...)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
