package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "todoapi_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "todoapi_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	todoOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "todoapi_todo_operations_total",
		Help: "Count of todo mutations by operation",
	}, []string{"operation"})

	authFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "todoapi_auth_failures_total",
		Help: "Count of rejected authentication attempts",
	})

	tokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "todoapi_tokens_issued_total",
		Help: "Count of auth tokens issued",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveTodoOperation increments the mutation counter for an operation.
func ObserveTodoOperation(operation string) {
	todoOperations.WithLabelValues(operation).Inc()
}

// ObserveAuthFailure records a rejected authentication attempt.
func ObserveAuthFailure() {
	authFailures.Inc()
}

// ObserveTokenIssued records an issued auth token.
func ObserveTokenIssued() {
	tokensIssued.Inc()
}
