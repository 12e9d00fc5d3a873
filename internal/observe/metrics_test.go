package observe

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestHistogramObservation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	histograms := []struct {
		name string
		h    metric.Float64Histogram
	}{
		{"voxhire.stt.duration", m.STTDuration},
		{"voxhire.llm.duration", m.LLMDuration},
		{"voxhire.tts.duration", m.TTSDuration},
		{"voxhire.encode.duration", m.EncodeDuration},
	}
	for _, h := range histograms {
		h.h.Record(ctx, 0.123)
	}

	rm := collect(t, reader)
	for _, h := range histograms {
		md := findMetric(rm, h.name)
		if md == nil {
			t.Errorf("metric %s not recorded", h.name)
			continue
		}
		hist, ok := md.Data.(metricdata.Histogram[float64])
		if !ok || len(hist.DataPoints) != 1 {
			t.Errorf("metric %s has unexpected data %T", h.name, md.Data)
		}
	}
}

func TestRecordTurnAdvanced(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordTurnAdvanced(ctx, "explicit")
	m.RecordTurnAdvanced(ctx, "silence")
	m.RecordTurnAdvanced(ctx, "silence")

	md := findMetric(collect(t, reader), "voxhire.turns.advanced")
	if md == nil {
		t.Fatal("turns.advanced not recorded")
	}
	sum, ok := md.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected data type %T", md.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 3 {
		t.Errorf("total advances = %d, want 3", total)
	}
	if len(sum.DataPoints) != 2 {
		t.Errorf("trigger attribute series = %d, want 2", len(sum.DataPoints))
	}
}

func TestRecordBreakerTrip(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordBreakerTrip(ctx, "whisper")
	m.RecordBreakerTrip(ctx, "whisper")
	m.RecordBreakerTrip(ctx, "elevenlabs")

	md := findMetric(collect(t, reader), "voxhire.breaker.trips")
	if md == nil {
		t.Fatal("breaker.trips not recorded")
	}
	sum, ok := md.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected data type %T", md.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 3 {
		t.Errorf("total trips = %d, want 3", total)
	}
	if len(sum.DataPoints) != 2 {
		t.Errorf("backend attribute series = %d, want 2", len(sum.DataPoints))
	}
}

func TestSessionLifecycleGauge(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.SessionStarted(ctx)
	m.SessionStarted(ctx)
	m.SessionFinished(ctx, "completed")

	md := findMetric(collect(t, reader), "voxhire.active_sessions")
	if md == nil {
		t.Fatal("active_sessions not recorded")
	}
	sum, ok := md.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 {
		t.Fatalf("unexpected data %T", md.Data)
	}
	if sum.DataPoints[0].Value != 1 {
		t.Errorf("active sessions = %d, want 1", sum.DataPoints[0].Value)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	// Must not panic.
	m.RecordTurnAdvanced(ctx, "explicit")
	m.RecordProviderError(ctx, "stt")
	m.RecordBreakerTrip(ctx, "whisper")
	m.RecordSTT(ctx, time.Now())
	m.RecordLLM(ctx, time.Now())
	m.RecordTTS(ctx, time.Now())
	m.RecordEncode(ctx, time.Now())
	m.SessionStarted(ctx)
	m.SessionFinished(ctx, "completed")
}
