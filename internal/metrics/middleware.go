package metrics

import (
	"net/http"
	"strings"
	"time"
)

// statusWriter captures the status code written by the wrapped handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// Instrument wraps next with request counting and timing. Job status
// paths collapse to one route label so per-job ids do not blow up
// metric cardinality.
func (r *Registry) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.httpRequestsInFlight.Inc()
		defer r.httpRequestsInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, req)

		r.RecordRequest(req.Method, routeLabel(req.URL.Path), sw.status, time.Since(start).Seconds())
	})
}

func routeLabel(path string) string {
	if rest := strings.TrimPrefix(path, "/api/v1/backtest/"); rest != path && rest != "" {
		return "/api/v1/backtest/:id"
	}
	return path
}
