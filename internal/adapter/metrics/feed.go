package metrics

import "github.com/prometheus/client_golang/prometheus"

// Poll outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeOpen  = "breaker_open"
)

// FeedMetrics tracks polling of the warning and capture feeds.
type FeedMetrics struct {
	PollsTotal         *prometheus.CounterVec
	BreakerState       *prometheus.GaugeVec
	BreakerTransitions *prometheus.CounterVec
}

// NewFeedMetrics creates and registers feed metrics on the given registry.
func NewFeedMetrics(reg prometheus.Registerer) *FeedMetrics {
	m := &FeedMetrics{
		PollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "polls_total",
			Help:      "Total number of feed polls by feed and outcome.",
		}, []string{"feed", "outcome"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per feed (0=closed, 1=half-open, 2=open).",
		}, []string{"component"}),
		BreakerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "circuit_breaker_transitions_total",
			Help:      "Total number of circuit breaker state changes by target state.",
		}, []string{"component", "state"}),
	}

	reg.MustRegister(m.PollsTotal, m.BreakerState, m.BreakerTransitions)
	return m
}

// Poll records one poll of feed.
func (m *FeedMetrics) Poll(feed, outcome string) {
	if m == nil {
		return
	}
	m.PollsTotal.WithLabelValues(feed, outcome).Inc()
}

// BreakerChanged records a breaker transition. state is the numeric gauge value.
func (m *FeedMetrics) BreakerChanged(component, to string, state float64) {
	if m == nil {
		return
	}
	m.BreakerTransitions.WithLabelValues(component, to).Inc()
	m.BreakerState.WithLabelValues(component).Set(state)
}
