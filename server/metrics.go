package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the relay's prometheus collectors.
type Metrics struct {
	// Events counts processed protocol events by event name.
	Events *prometheus.CounterVec

	// MalformedEvents counts frames dropped for bad envelopes, unknown
	// event names, or invalid payloads.
	MalformedEvents prometheus.Counter

	// ActiveSessions tracks the number of joined sessions.
	ActiveSessions prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates the collectors on a fresh registry so tests can build
// isolated instances.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sheetsync",
			Name:      "events_total",
			Help:      "Protocol events processed, by event name.",
		}, []string{"event"}),
		MalformedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sheetsync",
			Name:      "malformed_events_total",
			Help:      "Inbound frames dropped as malformed or unknown.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sheetsync",
			Name:      "active_sessions",
			Help:      "Currently joined sessions.",
		}),
		registry: reg,
	}

	reg.MustRegister(m.Events, m.MalformedEvents, m.ActiveSessions)
	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
