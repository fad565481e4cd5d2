package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeApplied  = "applied"
	OutcomeNoop     = "noop"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// CartMetrics records cart mutation and storage activity.
type CartMetrics struct {
	mutations     *prometheus.CounterVec
	storageErrors *prometheus.CounterVec
	storageTime   *prometheus.HistogramVec
	sessions      prometheus.Gauge
}

// NewCartMetrics registers the cart metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and outcome.",
	}, []string{"op", "outcome"})
	storageErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_storage_errors_total",
		Help: "Failed cart storage calls by operation.",
	}, []string{"op"})
	storageTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_storage_duration_seconds",
		Help:    "Duration of cart storage calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_sessions_active",
		Help: "Session carts currently held in memory.",
	})
	reg.MustRegister(mutations, storageErrors, storageTime, sessions)
	return &CartMetrics{
		mutations:     mutations,
		storageErrors: storageErrors,
		storageTime:   storageTime,
		sessions:      sessions,
	}
}

// IncMutation counts a cart mutation.
func (c *CartMetrics) IncMutation(op, outcome string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// ObserveStorage records the duration of a storage call and whether it failed.
func (c *CartMetrics) ObserveStorage(op string, duration time.Duration, err error) {
	if c == nil || c.storageTime == nil {
		return
	}
	op = normalizeLabel(op)
	c.storageTime.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		c.storageErrors.WithLabelValues(op).Inc()
	}
}

// SetActiveSessions publishes the in-memory session count.
func (c *CartMetrics) SetActiveSessions(n int) {
	if c == nil || c.sessions == nil {
		return
	}
	c.sessions.Set(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
