package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

// MetricsMiddleware records request count, latency and error class for the
// route named endpoint.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		code := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, float64(elapsed.Microseconds())/1000)

		if class := errorClass(rec.status); class != "" {
			metrics.RecordErrorByEndpoint(endpoint, r.Method, class)
			metrics.RecordErrorByComponent("http", class)
		}

		logger.Get().Debug(r.Context(), "request served",
			logger.String("endpoint", endpoint),
			logger.String("method", r.Method),
			logger.Int("status", rec.status),
			logger.Duration("elapsed", elapsed))
	}
}

// errorClass buckets failed statuses for the error counters. Successful
// statuses return "".
func errorClass(status int) string {
	switch {
	case status < http.StatusBadRequest:
		return ""
	case status == http.StatusServiceUnavailable:
		return "unavailable"
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusTooManyRequests:
		return "backpressure"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusUnauthorized:
		return "unauthorized"
	case status == http.StatusMethodNotAllowed:
		return "method_not_allowed"
	default:
		return "client_error"
	}
}

// statusRecorder remembers the status written through it.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rec *statusRecorder) WriteHeader(code int) {
	if !rec.wroteHeader {
		rec.status = code
		rec.wroteHeader = true
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	rec.wroteHeader = true
	return rec.ResponseWriter.Write(b)
}
