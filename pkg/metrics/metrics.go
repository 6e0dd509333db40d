// Package metrics exposes Prometheus metrics for service discovery,
// connection and plugin HTTP traffic.
//
// # Basic Usage
//
//	metrics.ModulesLoaded.WithLabelValues("pennsieve").Inc()
//
//	timer := metrics.NewTimer()
//	err := svc.Connect(ctx)
//	metrics.ObserveConnect("pennsieve", timer.Stop(), err)
//
// All metrics are registered with the default Prometheus registry and share
// the "sparc_client" namespace.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sparc_client"

var (
	// ModulesLoaded counts service instances created, by module name
	ModulesLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "modules_loaded_total",
			Help:      "Service instances created during discovery or explicit loading",
		},
		[]string{"module"},
	)

	// UnitsSkipped counts units that failed to load during namespace enumeration
	UnitsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_skipped_total",
			Help:      "Service units skipped because they failed to load",
		},
		[]string{"unit"},
	)

	// Connects counts connect calls by module and outcome
	Connects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connects_total",
			Help:      "Service connect calls",
		},
		[]string{"module", "status"},
	)

	// ConnectLatency tracks how long connect calls take
	ConnectLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "connect_duration_seconds",
			Help:      "Service connect latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"module"},
	)

	// HTTPRequests counts plugin HTTP requests by service and status code
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests issued by service plugins",
		},
		[]string{"service", "code"},
	)
)

// Timer measures elapsed time
type Timer struct {
	start time.Time
}

// NewTimer starts a timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ObserveConnect records the outcome and latency of one connect call
func ObserveConnect(module string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	Connects.WithLabelValues(module, status).Inc()
	ConnectLatency.WithLabelValues(module).Observe(d.Seconds())
}
