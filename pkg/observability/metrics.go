// Package observability provides Prometheus metrics for the lingopad
// completion engine.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// ProviderRequestsTotal counts chat completion requests sent to
	// backends by provider, model, and outcome (HTTP status or
	// "network_error").
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingopad_provider_requests_total",
			Help: "Provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	// ProviderLatency records time to response headers per provider/model.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lingopad_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// ActiveStreams tracks completion streams currently being consumed.
	ActiveStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lingopad_streams_active",
			Help: "Active completion streams",
		},
	)

	// RetriesTotal counts connection-level retry attempts (the initial
	// attempt of a call is not a retry).
	RetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lingopad_connection_retries_total",
			Help: "Connection retries",
		},
	)

	// TemperatureFallbacksTotal counts calls re-sent without the
	// temperature parameter after a backend rejected it.
	TemperatureFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lingopad_temperature_fallbacks_total",
			Help: "Temperature fallback retries",
		},
	)

	// StreamDeltasTotal counts text deltas emitted to callers.
	StreamDeltasTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lingopad_stream_deltas_total",
			Help: "Stream deltas emitted",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ProviderRequestsTotal,
		ProviderLatency,
		ActiveStreams,
		RetriesTotal,
		TemperatureFallbacksTotal,
		StreamDeltasTotal,
	)
}
