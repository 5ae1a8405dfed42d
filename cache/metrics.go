package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics shared by cache instances. Instances are
// distinguished by the name given to WithMetrics.
type Metrics struct {
	hits        *prometheus.CounterVec
	misses      *prometheus.CounterVec
	evictions   *prometheus.CounterVec
	expirations *prometheus.CounterVec
	items       *prometheus.GaugeVec
}

// NewMetrics creates and registers Prometheus metrics under the given
// namespace.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Number of cache hits",
			},
			[]string{"cache"},
		),
		misses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Number of cache misses",
			},
			[]string{"cache"},
		),
		evictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_evictions_total",
				Help:      "Number of entries evicted by capacity pressure",
			},
			[]string{"cache"},
		),
		expirations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_expirations_total",
				Help:      "Number of entries removed by TTL expiry",
			},
			[]string{"cache"},
		),
		items: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cache_items",
				Help:      "Number of items in cache",
			},
			[]string{"cache"},
		),
	}

	prometheus.MustRegister(m.hits, m.misses, m.evictions, m.expirations, m.items)

	return m
}

// The helpers below are nil-safe so caches can call them unconditionally.

func (c *config) hit() {
	if c.metrics != nil {
		c.metrics.hits.WithLabelValues(c.name).Inc()
	}
}

func (c *config) miss() {
	if c.metrics != nil {
		c.metrics.misses.WithLabelValues(c.name).Inc()
	}
}

func (c *config) eviction() {
	if c.metrics != nil {
		c.metrics.evictions.WithLabelValues(c.name).Inc()
	}
}

func (c *config) expiration() {
	if c.metrics != nil {
		c.metrics.expirations.WithLabelValues(c.name).Inc()
	}
}

func (c *config) size(n int) {
	if c.metrics != nil {
		c.metrics.items.WithLabelValues(c.name).Set(float64(n))
	}
}
