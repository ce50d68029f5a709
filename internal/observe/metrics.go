// Package observe provides application-wide observability primitives for the
// FoodChain kiosk: OpenTelemetry metrics and the Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all kiosk metrics.
const meterName = "github.com/giggslabs/foodchain"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// STTDuration tracks speech-to-text transcription latency.
	STTDuration metric.Float64Histogram

	// ReplyDuration tracks utterance routing plus reply generation latency.
	ReplyDuration metric.Float64Histogram

	// TTSDuration tracks text-to-speech synthesis latency.
	TTSDuration metric.Float64Histogram

	// --- Counters ---

	// Utterances counts routed utterances. Use with attribute:
	//   attribute.String("route", ...)
	Utterances metric.Int64Counter

	// CartMutations counts cart changes. Use with attribute:
	//   attribute.String("action", ...)
	CartMutations metric.Int64Counter

	// OrdersSaved counts persistence attempts. Use with attribute:
	//   attribute.String("status", ...)
	OrdersSaved metric.Int64Counter

	// ReplyFallbacks counts order confirmations that fell back to the
	// deterministic template.
	ReplyFallbacks metric.Int64Counter

	// ProviderErrors counts provider failures. Use with attribute:
	//   attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live kiosk sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.STTDuration, err = m.Float64Histogram("foodchain.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ReplyDuration, err = m.Float64Histogram("foodchain.reply.duration",
		metric.WithDescription("Latency of utterance routing and reply generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("foodchain.tts.duration",
		metric.WithDescription("Latency of text-to-speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Utterances, err = m.Int64Counter("foodchain.utterances",
		metric.WithDescription("Total routed utterances by route."),
	); err != nil {
		return nil, err
	}
	if met.CartMutations, err = m.Int64Counter("foodchain.cart.mutations",
		metric.WithDescription("Total cart mutations by action."),
	); err != nil {
		return nil, err
	}
	if met.OrdersSaved, err = m.Int64Counter("foodchain.orders.saved",
		metric.WithDescription("Total order persistence attempts by status."),
	); err != nil {
		return nil, err
	}
	if met.ReplyFallbacks, err = m.Int64Counter("foodchain.reply.fallbacks",
		metric.WithDescription("Total order confirmations that used the deterministic template."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("foodchain.provider.errors",
		metric.WithDescription("Total provider errors by kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("foodchain.active_sessions",
		metric.WithDescription("Number of live kiosk sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordUtterance records one routed utterance.
func (m *Metrics) RecordUtterance(ctx context.Context, route string) {
	m.Utterances.Add(ctx, 1,
		metric.WithAttributes(attribute.String("route", route)),
	)
}

// RecordCartMutation records one cart change.
func (m *Metrics) RecordCartMutation(ctx context.Context, action string) {
	m.CartMutations.Add(ctx, 1,
		metric.WithAttributes(attribute.String("action", action)),
	)
}

// RecordOrderSaved records one order persistence attempt.
func (m *Metrics) RecordOrderSaved(ctx context.Context, status string) {
	m.OrdersSaved.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordProviderError records one provider failure.
func (m *Metrics) RecordProviderError(ctx context.Context, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}
