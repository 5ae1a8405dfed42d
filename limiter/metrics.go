package limiter

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for limiters.
type Metrics struct {
	allowed  *prometheus.CounterVec
	rejected *prometheus.CounterVec
	keys     *prometheus.GaugeVec
}

// NewMetrics creates and registers Prometheus metrics under the given
// namespace.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		allowed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "limiter_allowed_total",
				Help:      "Number of admitted requests",
			},
			[]string{"limiter"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "limiter_rejected_total",
				Help:      "Number of rejected requests",
			},
			[]string{"limiter"},
		),
		keys: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "limiter_tracked_keys",
				Help:      "Number of keys with an active bucket",
			},
			[]string{"limiter"},
		),
	}

	prometheus.MustRegister(m.allowed, m.rejected, m.keys)

	return m
}
