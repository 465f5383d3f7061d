// Public domain.

// Package pzmetrics collects run metrics for photoz in a prometheus
// registry.
package pzmetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the photoz collectors.  A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Registry    *prometheus.Registry
	Processed   prometheus.Counter
	Failures    prometheus.Counter
	Iterations  prometheus.Counter
	Corrections *prometheus.GaugeVec
}

// New creates collectors registered in a new registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Processed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "photoz",
			Name:      "sources_processed_total",
			Help:      "Sources fitted against the model grid.",
		}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "photoz",
			Name:      "source_failures_total",
			Help:      "Sources whose fit returned an error.",
		}),
		Iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "photoz",
			Name:      "calibration_iterations_total",
			Help:      "Completed photometric correction iterations.",
		}),
		Corrections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "photoz",
			Name:      "photometric_correction",
			Help:      "Current photometric correction by filter.",
		}, []string{"filter"}),
	}
	m.Registry.MustRegister(m.Processed, m.Failures, m.Iterations, m.Corrections)
	return m
}

// SourceDone records one fitted source.
func (m *Metrics) SourceDone(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.Failures.Inc()
		return
	}
	m.Processed.Inc()
}

// Iteration records a calibration iteration and its corrections.
func (m *Metrics) Iteration(corr map[string]float64) {
	if m == nil {
		return
	}
	m.Iterations.Inc()
	for f, v := range corr {
		m.Corrections.WithLabelValues(f).Set(v)
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
