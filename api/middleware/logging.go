package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kukumart/marketplace-backend/pkg/logger"
)

// quietPaths are polled by orchestrators and scrapers; they log at debug.
var quietPaths = []string{"/health", "/metrics"}

// Logging writes one access line per request once the handler returns.
// Server errors log at warn so they stand out from ordinary traffic.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)

			ctx := logg.WithFields(r.Context(), map[string]any{
				"method":      r.Method,
				"route":       routePattern(r),
				"path":        r.URL.Path,
				"status":      rec.Status(),
				"bytes":       rec.written,
				"duration_ms": time.Since(start).Milliseconds(),
			})
			switch {
			case isQuiet(r.URL.Path):
				logg.Debug(ctx, "request.complete")
			case rec.Status() >= http.StatusInternalServerError:
				logg.Warn(ctx, "request.failed")
			default:
				logg.Info(ctx, "request.complete")
			}
		})
	}
}

func isQuiet(path string) bool {
	for _, p := range quietPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// statusRecorder remembers the status and body size written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
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
	r.written += int64(n)
	return n, err
}

func (r *statusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Flush keeps server-sent event streams working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
