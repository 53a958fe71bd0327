package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// TestMetricsRegistered verifies that all metrics are registered in the
// default registry without panicking.
func TestMetricsRegistered(t *testing.T) {
	expected := map[string]bool{
		"lingopad_provider_requests_total":     false,
		"lingopad_provider_latency_seconds":    false,
		"lingopad_streams_active":              false,
		"lingopad_connection_retries_total":    false,
		"lingopad_temperature_fallbacks_total": false,
		"lingopad_stream_deltas_total":         false,
	}

	// Labeled counters/histograms only appear after first observation,
	// so seed everything before gathering.
	ProviderRequestsTotal.WithLabelValues("test", "test-model", "200").Inc()
	ProviderLatency.WithLabelValues("test", "test-model").Observe(0.1)
	ActiveStreams.Set(0)
	RetriesTotal.Add(0)
	TemperatureFallbacksTotal.Add(0)
	StreamDeltasTotal.Add(0)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}

	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}

	for name, found := range expected {
		if !found {
			t.Errorf("metric %q not found in default registry", name)
		}
	}
}

func TestRetriesCounterIncrements(t *testing.T) {
	before := counterValue(t, RetriesTotal)
	RetriesTotal.Inc()
	after := counterValue(t, RetriesTotal)
	if after != before+1 {
		t.Errorf("RetriesTotal = %v after Inc, want %v", after, before+1)
	}
}

func TestProviderRequestsCounterIncrements(t *testing.T) {
	c := ProviderRequestsTotal.WithLabelValues("openai", "gpt-4o", "200")
	before := counterValue(t, c)
	c.Inc()
	after := counterValue(t, c)
	if after != before+1 {
		t.Errorf("ProviderRequestsTotal = %v after Inc, want %v", after, before+1)
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("writing metric: %v", err)
	}
	return m.GetCounter().GetValue()
}
