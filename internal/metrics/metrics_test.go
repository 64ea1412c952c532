package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.GenerationAttempt("model-a", "error", 0.2)
	m.GenerationAttempt("model-b", "ok", 1.1)
	m.Reading("ok")
	m.ParseDegraded([]string{"interpretation", "affirmation"})
	m.GeoLookup("geocode", "cache_hit")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.generationAttempts.WithLabelValues("model-a", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generationAttempts.WithLabelValues("model-b", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.readings.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.parseDegraded.WithLabelValues("affirmation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.geoLookups.WithLabelValues("geocode", "cache_hit")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.GenerationAttempt("x", "ok", 1)
		m.Reading("failed")
		m.ParseDegraded([]string{"guidance"})
		m.GeoLookup("places", "error")
	})
}
