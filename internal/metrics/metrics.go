package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Rate limiting
	RateLimitExceededTotal *prometheus.CounterVec

	// Task metrics
	TasksRunning         prometheus.Gauge
	TaskChecksTotal      *prometheus.CounterVec
	TaskCheckDuration    prometheus.Histogram
	TaskTransitionsTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			RateLimitExceededTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Requests rejected by the rate limiter",
				},
				[]string{"limiter"},
			),
			TasksRunning: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "tasks_running",
					Help: "Number of task loops currently running",
				},
			),
			TaskChecksTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "task_checks_total",
					Help: "Target checks performed by task loops",
				},
				[]string{"outcome"},
			),
			TaskCheckDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "task_check_duration_seconds",
					Help:    "Latency of a single target check",
					Buckets: prometheus.DefBuckets,
				},
			),
			TaskTransitionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "task_transitions_total",
					Help: "Task status transitions",
				},
				[]string{"status"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing on first use
func Get() *Metrics {
	return Initialize()
}
