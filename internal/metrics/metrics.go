// Package metrics holds the Prometheus collectors of the API.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "taskboard_http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskboard_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// MutationsTotal counts board mutations by operation and outcome (ok or
	// the error kind).
	MutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_mutations_total",
			Help: "Board mutations by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	AuditWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taskboard_audit_write_failures_total",
		Help: "Audit entries that could not be written after retry.",
	})

	BoardLockWait = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "taskboard_board_lock_wait_seconds",
		Help:    "Time spent waiting for a board lock.",
		Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
	})
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPInFlight, HTTPRequestsTotal, HTTPRequestDuration,
			MutationsTotal, AuditWriteFailures, BoardLockWait,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveMutation records the outcome of one mutation.
func ObserveMutation(op, outcome string) {
	MutationsTotal.WithLabelValues(op, outcome).Inc()
}

// ObserveLockWait records how long a lock acquisition took.
func ObserveLockWait(d time.Duration) {
	BoardLockWait.Observe(d.Seconds())
}
