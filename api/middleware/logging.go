package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/arcanium-studios/arcanium-backend/pkg/logger"
)

// Logging records request start and completion. Probe and scrape traffic is
// logged at debug level to keep the request log readable.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			quiet := isQuietPath(r.URL.Path)

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			if !quiet {
				logg.Debug(ctx, "request.start")
			}

			r = r.WithContext(ctx)
			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			ctx = logg.WithFields(r.Context(), map[string]any{
				"status":      rec.status,
				"bytes":       rec.bytes,
				"route":       routePattern(r),
				"duration_ms": time.Since(start).Milliseconds(),
			})
			if quiet {
				logg.Debug(ctx, "request.complete")
				return
			}
			logg.Info(ctx, "request.complete")
		})
	}
}

func isQuietPath(path string) bool {
	return strings.HasPrefix(path, "/health") || path == "/metrics"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
