package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionMetrics tracks the exam session lifecycle.
type SessionMetrics struct {
	NegotiationDuration prometheus.Histogram
	NegotiationsTotal   *prometheus.CounterVec
	SubmissionSteps     *prometheus.CounterVec
	SubmissionsTotal    *prometheus.CounterVec
	RemainingSeconds    prometheus.Gauge
}

// NewSessionMetrics creates and registers session metrics on the given registry.
func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	m := &SessionMetrics{
		NegotiationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "uplink",
			Name:      "negotiation_duration_seconds",
			Help:      "Time from camera open to applied answer.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16},
		}),
		NegotiationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "uplink",
			Name:      "negotiations_total",
			Help:      "Total number of uplink negotiations by outcome.",
		}, []string{"outcome"}),
		SubmissionSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "submission",
			Name:      "steps_total",
			Help:      "Total number of submission steps by step and outcome.",
		}, []string{"step", "outcome"}),
		SubmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "submission",
			Name:      "total",
			Help:      "Total number of completed submissions by trigger.",
		}, []string{"trigger"}),
		RemainingSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "remaining_seconds",
			Help:      "Seconds left in the active exam window.",
		}),
	}

	reg.MustRegister(m.NegotiationDuration, m.NegotiationsTotal, m.SubmissionSteps, m.SubmissionsTotal, m.RemainingSeconds)
	return m
}

// Negotiated records one negotiation attempt.
func (m *SessionMetrics) Negotiated(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.NegotiationsTotal.WithLabelValues(outcome).Inc()
	m.NegotiationDuration.Observe(took.Seconds())
}

// Step records one submission step.
func (m *SessionMetrics) Step(step string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.SubmissionSteps.WithLabelValues(step, outcome).Inc()
}

// Submitted records a finished submission.
func (m *SessionMetrics) Submitted(trigger string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(trigger).Inc()
}

// Remaining sets the countdown gauge.
func (m *SessionMetrics) Remaining(seconds int) {
	if m == nil {
		return
	}
	m.RemainingSeconds.Set(float64(seconds))
}
