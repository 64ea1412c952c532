// Package metrics holds the Prometheus collectors shared by the reading
// pipeline, the agent and the geo lookups.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sibyl"

// Metrics is safe to use as a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	generationAttempts *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	readings           *prometheus.CounterVec
	parseDegraded      *prometheus.CounterVec
	geoLookups         *prometheus.CounterVec
}

// New registers the collectors with reg. Passing nil uses the default
// registerer; tests should pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		generationAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "attempts_total",
			Help:      "Calls to the text-generation provider, by model and outcome.",
		}, []string{"model", "outcome"}),
		generationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Latency of a single provider call.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"model"}),
		readings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reading",
			Name:      "total",
			Help:      "Reading requests, by outcome.",
		}, []string{"outcome"}),
		parseDegraded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reading",
			Name:      "parse_degraded_total",
			Help:      "Reading fields that fell back to default text.",
		}, []string{"field"}),
		geoLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "geo",
			Name:      "lookups_total",
			Help:      "Geocoding and places lookups, by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
}

func (m *Metrics) GenerationAttempt(model, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.generationAttempts.WithLabelValues(model, outcome).Inc()
	m.generationDuration.WithLabelValues(model).Observe(seconds)
}

func (m *Metrics) Reading(outcome string) {
	if m == nil {
		return
	}
	m.readings.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ParseDegraded(fields []string) {
	if m == nil {
		return
	}
	for _, f := range fields {
		m.parseDegraded.WithLabelValues(f).Inc()
	}
}

func (m *Metrics) GeoLookup(kind, outcome string) {
	if m == nil {
		return
	}
	m.geoLookups.WithLabelValues(kind, outcome).Inc()
}
