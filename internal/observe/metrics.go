// Package observe provides application-wide observability primitives for
// Voxhire: OpenTelemetry metrics, tracing helpers, structured logging, and
// HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still
// be scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Voxhire metrics.
const meterName = "github.com/voxhire/voxhire"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// STTDuration tracks answer transcription latency.
	STTDuration metric.Float64Histogram

	// LLMDuration tracks question-generation latency.
	LLMDuration metric.Float64Histogram

	// TTSDuration tracks question synthesis latency.
	TTSDuration metric.Float64Histogram

	// EncodeDuration tracks video encoding latency at teardown.
	EncodeDuration metric.Float64Histogram

	// --- Counters ---

	// TurnsAdvanced counts completed turn advances. Use with attribute:
	//   attribute.String("trigger", "explicit"|"silence")
	TurnsAdvanced metric.Int64Counter

	// SessionsStarted counts sessions that reached the active state.
	SessionsStarted metric.Int64Counter

	// SessionsCompleted counts sessions whose interview reached a natural
	// end. Use with attribute: attribute.String("outcome", ...).
	SessionsCompleted metric.Int64Counter

	// ProviderErrors counts collaborator failures. Use with attribute:
	//   attribute.String("kind", "stt"|"llm"|"tts"|"encode"|"store")
	ProviderErrors metric.Int64Counter

	// BreakerTrips counts circuit breakers opening around a failing backend.
	// Use with attribute: attribute.String("backend", ...)
	BreakerTrips metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live interview sessions.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
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
	if met.STTDuration, err = m.Float64Histogram("voxhire.stt.duration",
		metric.WithDescription("Latency of answer transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("voxhire.llm.duration",
		metric.WithDescription("Latency of question generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("voxhire.tts.duration",
		metric.WithDescription("Latency of question speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.EncodeDuration, err = m.Float64Histogram("voxhire.encode.duration",
		metric.WithDescription("Latency of session video encoding."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.TurnsAdvanced, err = m.Int64Counter("voxhire.turns.advanced",
		metric.WithDescription("Total completed turn advances by trigger."),
	); err != nil {
		return nil, err
	}
	if met.SessionsStarted, err = m.Int64Counter("voxhire.sessions.started",
		metric.WithDescription("Total sessions that reached the active state."),
	); err != nil {
		return nil, err
	}
	if met.SessionsCompleted, err = m.Int64Counter("voxhire.sessions.completed",
		metric.WithDescription("Total sessions finished, by outcome."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("voxhire.provider.errors",
		metric.WithDescription("Total collaborator failures by kind."),
	); err != nil {
		return nil, err
	}
	if met.BreakerTrips, err = m.Int64Counter("voxhire.breaker.trips",
		metric.WithDescription("Total circuit breaker trips by backend."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("voxhire.active_sessions",
		metric.WithDescription("Number of live interview sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("voxhire.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// Stage-duration helpers. All are nil-safe so session code can run without
// metrics in tests.

// RecordSTT records answer transcription latency since start.
func (m *Metrics) RecordSTT(ctx context.Context, start time.Time) {
	if m == nil {
		return
	}
	m.STTDuration.Record(ctx, time.Since(start).Seconds())
}

// RecordLLM records question-generation latency since start.
func (m *Metrics) RecordLLM(ctx context.Context, start time.Time) {
	if m == nil {
		return
	}
	m.LLMDuration.Record(ctx, time.Since(start).Seconds())
}

// RecordTTS records speech-synthesis latency since start.
func (m *Metrics) RecordTTS(ctx context.Context, start time.Time) {
	if m == nil {
		return
	}
	m.TTSDuration.Record(ctx, time.Since(start).Seconds())
}

// RecordEncode records video-encoding latency since start.
func (m *Metrics) RecordEncode(ctx context.Context, start time.Time) {
	if m == nil {
		return
	}
	m.EncodeDuration.Record(ctx, time.Since(start).Seconds())
}

// RecordTurnAdvanced increments the turn counter with the trigger attribute.
// Nil-safe.
func (m *Metrics) RecordTurnAdvanced(ctx context.Context, trigger string) {
	if m == nil {
		return
	}
	m.TurnsAdvanced.Add(ctx, 1, metric.WithAttributes(Attr("trigger", trigger)))
}

// RecordProviderError increments the collaborator failure counter. Nil-safe.
func (m *Metrics) RecordProviderError(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(Attr("kind", kind)))
}

// RecordBreakerTrip increments the breaker trip counter for a backend.
// Nil-safe.
func (m *Metrics) RecordBreakerTrip(ctx context.Context, backend string) {
	if m == nil {
		return
	}
	m.BreakerTrips.Add(ctx, 1, metric.WithAttributes(Attr("backend", backend)))
}

// SessionStarted records a session entering the active state. Nil-safe.
func (m *Metrics) SessionStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.SessionsStarted.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, 1)
}

// SessionFinished records a session leaving the registry. Nil-safe.
func (m *Metrics) SessionFinished(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.SessionsCompleted.Add(ctx, 1, metric.WithAttributes(Attr("outcome", outcome)))
	m.ActiveSessions.Add(ctx, -1)
}
