package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "proctor"

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ProctorMetrics bundles every collector the agent records into.
type ProctorMetrics struct {
	Feed    *FeedMetrics
	Alert   *AlertMetrics
	Session *SessionMetrics
}

// NewProctorMetrics creates and registers all agent metrics on reg.
func NewProctorMetrics(reg prometheus.Registerer) *ProctorMetrics {
	return &ProctorMetrics{
		Feed:    NewFeedMetrics(reg),
		Alert:   NewAlertMetrics(reg),
		Session: NewSessionMetrics(reg),
	}
}
