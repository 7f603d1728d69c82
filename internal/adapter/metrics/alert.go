package metrics

import "github.com/prometheus/client_golang/prometheus"

// AlertMetrics tracks audible cues.
type AlertMetrics struct {
	TonesTotal       *prometheus.CounterVec
	ToneFailures     *prometheus.CounterVec
	AlarmTransitions *prometheus.CounterVec
	AlarmActive      prometheus.Gauge
}

// NewAlertMetrics creates and registers alert metrics on the given registry.
func NewAlertMetrics(reg prometheus.Registerer) *AlertMetrics {
	m := &AlertMetrics{
		TonesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "tones_total",
			Help:      "Total number of cues played by kind and output tier.",
		}, []string{"kind", "tier"}),
		ToneFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "tone_failures_total",
			Help:      "Total number of cues no output tier could play.",
		}, []string{"kind"}),
		AlarmTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "alarm_transitions_total",
			Help:      "Total number of sustained alarm starts and stops.",
		}, []string{"action"}),
		AlarmActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "alarm_active",
			Help:      "1 while the sustained alarm is playing.",
		}),
	}

	reg.MustRegister(m.TonesTotal, m.ToneFailures, m.AlarmTransitions, m.AlarmActive)
	return m
}

// Served records a cue played by tier.
func (m *AlertMetrics) Served(kind, tier string) {
	if m == nil {
		return
	}
	m.TonesTotal.WithLabelValues(kind, tier).Inc()
}

// Unserved records a cue that no tier could play.
func (m *AlertMetrics) Unserved(kind string) {
	if m == nil {
		return
	}
	m.ToneFailures.WithLabelValues(kind).Inc()
}

// AlarmStarted records a transition into the sustained alarm.
func (m *AlertMetrics) AlarmStarted() {
	if m == nil {
		return
	}
	m.AlarmTransitions.WithLabelValues("start").Inc()
	m.AlarmActive.Set(1)
}

// AlarmStopped records a transition out of the sustained alarm.
func (m *AlertMetrics) AlarmStopped() {
	if m == nil {
		return
	}
	m.AlarmTransitions.WithLabelValues("stop").Inc()
	m.AlarmActive.Set(0)
}
