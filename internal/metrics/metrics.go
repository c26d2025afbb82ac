// Package metrics exposes Prometheus collectors for FaultBoard.
//
// Each [Metrics] owns its registry so several boards (and tests) can live in
// one process without duplicate registration.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks captures and overlay interaction.
type Metrics struct {
	registry *prometheus.Registry

	captures    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	unhandled   *prometheus.CounterVec
	reports     *prometheus.CounterVec
	phase       prometheus.Gauge
}

// New creates and registers the FaultBoard collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		captures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faultboard_captures_total",
				Help: "Total number of failures captured, by channel",
			},
			[]string{"channel"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faultboard_overlay_transitions_total",
				Help: "Total number of overlay visibility changes, by target phase",
			},
			[]string{"phase"},
		),
		unhandled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faultboard_unhandled_total",
				Help: "Failures that reached default reporting because no boundary was mounted",
			},
			[]string{"channel"},
		),
		reports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faultboard_browser_reports_total",
				Help: "Browser failure reports received, by outcome",
			},
			[]string{"outcome"},
		),
		phase: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "faultboard_phase",
				Help: "Current phase: 0 clear, 1 collapsed, 2 expanded",
			},
		),
	}

	m.registry.MustRegister(m.captures, m.transitions, m.unhandled, m.reports, m.phase)
	return m
}

// RecordCapture counts a captured failure.
func (m *Metrics) RecordCapture(channel string) {
	m.captures.WithLabelValues(channel).Inc()
}

// RecordTransition counts a visibility change and updates the phase gauge.
func (m *Metrics) RecordTransition(phase string, value int) {
	m.transitions.WithLabelValues(phase).Inc()
	m.phase.Set(float64(value))
}

// SetPhase updates the phase gauge without counting a transition.
func (m *Metrics) SetPhase(value int) {
	m.phase.Set(float64(value))
}

// RecordUnhandled counts a failure that no boundary handled.
func (m *Metrics) RecordUnhandled(channel string) {
	m.unhandled.WithLabelValues(channel).Inc()
}

// RecordReport counts a browser report with its outcome
// ("handled", "unhandled", "limited", "invalid").
func (m *Metrics) RecordReport(outcome string) {
	m.reports.WithLabelValues(outcome).Inc()
}

// Reports returns the report counter for outcome.
func (m *Metrics) Reports(outcome string) prometheus.Counter {
	return m.reports.WithLabelValues(outcome)
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
