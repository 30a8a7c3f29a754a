package rest

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/exampulse/exampulse-backend/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withMiddleware wraps the mux with panic recovery, request logging, and
// request metrics.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if recovered := recover(); recovered != nil {
				s.logger.Error("panic in handler",
					zap.Any("panic", recovered),
					zap.String("path", r.URL.Path))
				http.Error(rec, `{"success":false,"error":{"code":"PANIC","message":"An unexpected error occurred"}}`, http.StatusInternalServerError)
			}
			elapsed := time.Since(started)
			// Route pattern keeps the metric's label cardinality bounded.
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			metrics.ObserveHTTP(r.Method, route, strconv.Itoa(rec.status), elapsed)
			s.logger.Debug("request served",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("elapsed", elapsed))
		}()

		next.ServeHTTP(rec, r)
	})
}
