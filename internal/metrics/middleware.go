package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware collects HTTP request metrics labelled by route pattern, so
// /v2/rpc/{id} is one series per RPC id rather than one per raw path.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Track in-flight requests
		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		// Wrap response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := routeLabel(r, rw.statusCode)
		HTTPRequestsTotal.WithLabelValues(
			r.Method,
			route,
			strconv.Itoa(rw.statusCode),
		).Inc()

		HTTPRequestDuration.WithLabelValues(
			r.Method,
			route,
		).Observe(time.Since(start).Seconds())
	})
}

// routeLabel returns the matched chi pattern with the RPC id filled in.
// Unmatched requests and unknown RPC ids share one label.
func routeLabel(r *http.Request, status int) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return UnmatchedRoute
	}
	pattern := rctx.RoutePattern()
	if pattern == "" {
		return UnmatchedRoute
	}
	if id := rctx.URLParam("id"); id != "" && status != http.StatusNotFound {
		return pattern + ":" + id
	}
	return pattern
}
