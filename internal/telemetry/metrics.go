// Package telemetry exposes request counters through expvar.
package telemetry

import (
	"expvar"
	"net/http"
	"time"
)

var (
	requestsTotal        = expvar.NewInt("http_requests_total")
	requestErrorsTotal   = expvar.NewInt("http_request_errors_total")
	requestLatencyMs     = expvar.NewInt("http_request_latency_ms_total")
	requestLatencyCounts = expvar.NewInt("http_request_latency_samples_total")
	requestsByRoute      = expvar.NewMap("http_requests_by_route")
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestMetricsMiddleware records request volume, error rate, and latency.
func RequestMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		requestsTotal.Add(1)
		requestsByRoute.Add(r.Method+" "+r.URL.Path, 1)
		if recorder.status >= http.StatusBadRequest {
			requestErrorsTotal.Add(1)
		}
		requestLatencyMs.Add(time.Since(start).Milliseconds())
		requestLatencyCounts.Add(1)
	})
}
