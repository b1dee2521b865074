package logging

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Middleware attaches logger to every request context and logs one line per
// request once the handler returns. Mount it after chi's RequestID and
// RealIP so the line carries both.
//
// Log fields:
//   - method, path, status
//   - duration_ms: request processing time in milliseconds
//   - ip: client address (X-Real-IP set by RealIP, else RemoteAddr)
//   - request_id: chi request ID when present
func Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			r = r.WithContext(WithContext(r.Context(), logger))
			next.ServeHTTP(ww, r)

			ip := r.RemoteAddr
			if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
				ip = realIP
			}

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("ip", ip),
			}
			reqLogger := FromContext(r.Context())
			switch {
			case ww.status >= http.StatusInternalServerError:
				reqLogger.Error("request", fields...)
			case ww.status >= http.StatusBadRequest:
				reqLogger.Warn("request", fields...)
			default:
				reqLogger.Info("request", fields...)
			}
		})
	}
}

// responseWriter captures the status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
