package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics records synchronization and checkout outcomes. Refresh
// failures are swallowed by design, so the counters are the only place they
// remain visible.
type ClientMetrics struct {
	refreshFailures *prometheus.CounterVec
	mutations       *prometheus.CounterVec
	checkouts       *prometheus.CounterVec
}

// NewClientMetrics registers the client metrics on the provided registerer.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	if reg == nil {
		return &ClientMetrics{}
	}
	refreshFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_refresh_failures_total",
		Help: "Swallowed refresh failures by kind.",
	}, []string{"kind"})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_mutations_total",
		Help: "Cart mutations by operation and outcome.",
	}, []string{"op", "outcome"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_checkouts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(refreshFailures, mutations, checkouts)
	return &ClientMetrics{
		refreshFailures: refreshFailures,
		mutations:       mutations,
		checkouts:       checkouts,
	}
}

// IncRefreshFailure increments the swallowed-failure counter for the kind.
func (c *ClientMetrics) IncRefreshFailure(kind string) {
	if c == nil || c.refreshFailures == nil {
		return
	}
	c.refreshFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncMutation increments the mutation counter for the op and outcome.
func (c *ClientMetrics) IncMutation(op, outcome string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// IncCheckout increments the checkout counter for the outcome.
func (c *ClientMetrics) IncCheckout(outcome string) {
	if c == nil || c.checkouts == nil {
		return
	}
	c.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
