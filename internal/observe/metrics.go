// Package observe provides observability primitives for Chavr: OpenTelemetry
// metrics and the SDK provider setup.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via a standard /metrics endpoint. A package-level default
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

// meterName is the instrumentation scope name used for all Chavr metrics.
const meterName = "github.com/LiamSkop/Chavr"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// TranscriptionDuration tracks ASR inference latency per utterance.
	TranscriptionDuration metric.Float64Histogram

	// AIDuration tracks responder question-answering latency.
	AIDuration metric.Float64Histogram

	// Utterances counts utterances emitted by the segmenter.
	Utterances metric.Int64Counter

	// Transcripts counts transcription outcomes. Use with attributes:
	//   attribute.String("engine", ...), attribute.String("status", "ok"|"filtered"|"error")
	Transcripts metric.Int64Counter

	// AIRequests counts AI asks. Use with attributes:
	//   attribute.String("responder", ...), attribute.String("status", "ok"|"error")
	AIRequests metric.Int64Counter

	// EventsDropped counts events evicted from a full sink buffer.
	EventsDropped metric.Int64Counter

	// ActiveSessions tracks the number of live listening sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// local inference and network round trips.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TranscriptionDuration, err = m.Float64Histogram("chavr.transcription.duration",
		metric.WithDescription("Latency of utterance transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AIDuration, err = m.Float64Histogram("chavr.ai.duration",
		metric.WithDescription("Latency of AI question answering."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Utterances, err = m.Int64Counter("chavr.utterances",
		metric.WithDescription("Total utterances emitted by the endpoint segmenter."),
	); err != nil {
		return nil, err
	}
	if met.Transcripts, err = m.Int64Counter("chavr.transcripts",
		metric.WithDescription("Total transcription outcomes by engine and status."),
	); err != nil {
		return nil, err
	}
	if met.AIRequests, err = m.Int64Counter("chavr.ai.requests",
		metric.WithDescription("Total AI asks by responder and status."),
	); err != nil {
		return nil, err
	}
	if met.EventsDropped, err = m.Int64Counter("chavr.events.dropped",
		metric.WithDescription("Total events evicted from a full sink buffer."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("chavr.active_sessions",
		metric.WithDescription("Number of live listening sessions."),
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

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
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

// RecordTranscript records one transcription outcome with its latency.
func (m *Metrics) RecordTranscript(ctx context.Context, engine, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("engine", engine),
		attribute.String("status", status),
	)
	m.Transcripts.Add(ctx, 1, attrs)
	m.TranscriptionDuration.Record(ctx, seconds, attrs)
}

// RecordAIRequest records one AI ask with its latency.
func (m *Metrics) RecordAIRequest(ctx context.Context, responder, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("responder", responder),
		attribute.String("status", status),
	)
	m.AIRequests.Add(ctx, 1, attrs)
	m.AIDuration.Record(ctx, seconds, attrs)
}
