package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EndpointMetrics tracks use-case latency and failures per API endpoint,
// independent of the transport-level HTTP collectors.
type EndpointMetrics struct {
	latency *prometheus.HistogramVec
	errors  *prometheus.CounterVec
	limited *prometheus.CounterVec
}

func NewEndpointMetrics(reg prometheus.Registerer) *EndpointMetrics {
	m := &EndpointMetrics{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mandipulse",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of market API endpoints",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mandipulse",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by market API endpoint",
		}, []string{"endpoint"}),
		limited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mandipulse",
			Subsystem: "api",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}, []string{"endpoint"}),
	}
	if reg != nil {
		reg.MustRegister(m.latency, m.errors, m.limited)
	}
	return m
}

// Observe records one call; failed calls also count as errors.
func (m *EndpointMetrics) Observe(endpoint string, start time.Time, failed bool) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if failed {
		m.errors.WithLabelValues(endpoint).Inc()
	}
}

func (m *EndpointMetrics) RateLimited(endpoint string) {
	if m == nil {
		return
	}
	m.limited.WithLabelValues(endpoint).Inc()
}
