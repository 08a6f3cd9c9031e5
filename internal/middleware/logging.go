package middleware

import (
	"net/http"
	"strconv"

	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// responseRecorder lets us capture HTTP status codes
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs every request and feeds the HTTP metrics. Routes are
// labelled by their chi pattern so ids never end up as label values.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.StartTimer()

		rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := routePattern(r)
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.statusCode)).Inc()
		timer.ObserveMS(metrics.HTTPLatency.WithLabelValues(route))

		logger.FromCtx(r.Context()).Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.statusCode),
			zap.Duration("duration", timer.Duration()),
			zap.String("remote_ip", r.RemoteAddr),
		)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
