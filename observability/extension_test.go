package observability_test

import (
	"context"
	"log/slog"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/teacurran/WireTuner/worker-export/job"
	"github.com/teacurran/WireTuner/worker-export/observability"
)

func setupTelemetry(t *testing.T) (*observability.Telemetry, *tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	tel := observability.NewTelemetryWith(tp.Tracer("test"), mp.Meter("test"), slog.Default())
	return tel, sr, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

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

func completedJob() *job.Job {
	j := job.New("doc-123", "<svg></svg>", "/tmp/out.pdf", job.Metadata{
		ArtboardIDs:   []string{"ab-1", "ab-2"},
		ExportScope:   "current",
		ClientVersion: "0.1.0",
	})
	j.StartProcessing()
	j.MarkComplete()
	return j
}

func TestOnJobFinished_EmitsSpan(t *testing.T) {
	tel, sr, _ := setupTelemetry(t)
	j := completedJob()

	if err := tel.OnJobFinished(context.Background(), j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "pdf_export_job" {
		t.Errorf("span name = %q, want %q", spans[0].Name(), "pdf_export_job")
	}

	wantAttrs := map[string]any{
		"job_id":         j.ID.String(),
		"document_id":    "doc-123",
		"status":         "complete",
		"artboard_count": int64(2),
		"export_scope":   "current",
		"client_version": "0.1.0",
	}
	found := make(map[string]bool)
	for _, kv := range spans[0].Attributes() {
		if want, ok := wantAttrs[string(kv.Key)]; ok {
			found[string(kv.Key)] = true
			if kv.Value.AsInterface() != want {
				t.Errorf("attribute %s = %v, want %v", kv.Key, kv.Value.AsInterface(), want)
			}
		}
	}
	for key := range wantAttrs {
		if !found[key] {
			t.Errorf("attribute %s not recorded", key)
		}
	}
}

func TestOnJobFinished_RecordsDurationForTerminal(t *testing.T) {
	tel, _, reader := setupTelemetry(t)

	if err := tel.OnJobFinished(context.Background(), completedJob()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rm := collectMetrics(t, reader)
	duration := findMetric(rm, "export.job.duration")
	if duration == nil {
		t.Fatal("export.job.duration metric not found")
	}
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("expected Histogram[float64] data type")
	}
	if len(hist.DataPoints) == 0 || hist.DataPoints[0].Count != 1 {
		t.Error("expected one duration sample")
	}
}

func TestOnJobFinished_CountsExecutions(t *testing.T) {
	tel, _, reader := setupTelemetry(t)
	ctx := context.Background()

	_ = tel.OnJobFinished(ctx, completedJob())

	failed := completedJob()
	failed.MarkFailed("boom")
	_ = tel.OnJobFinished(ctx, failed)

	rm := collectMetrics(t, reader)
	executions := findMetric(rm, "export.job.executions")
	if executions == nil {
		t.Fatal("export.job.executions metric not found")
	}
	sum, ok := executions.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("expected Sum[int64] data type")
	}
	// One data point per status attribute value.
	if len(sum.DataPoints) != 2 {
		t.Errorf("expected 2 data points (complete, failed), got %d", len(sum.DataPoints))
	}
}

func TestOnJobFinished_RequeuedJobSkipsDuration(t *testing.T) {
	tel, _, reader := setupTelemetry(t)

	j := completedJob()
	j.MarkFailed("transient")
	j.Retry() // back to queued, duration undefined
	if err := tel.OnJobFinished(context.Background(), j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rm := collectMetrics(t, reader)
	if m := findMetric(rm, "export.job.duration"); m != nil {
		hist := m.Data.(metricdata.Histogram[float64])
		for _, dp := range hist.DataPoints {
			if dp.Count != 0 {
				t.Error("duration recorded for re-queued job")
			}
		}
	}
}

func TestOnHeartbeat_RecordsQueueDepth(t *testing.T) {
	tel, _, reader := setupTelemetry(t)

	if err := tel.OnHeartbeat(context.Background(), 17); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rm := collectMetrics(t, reader)
	depth := findMetric(rm, "export.queue.depth")
	if depth == nil {
		t.Fatal("export.queue.depth metric not found")
	}
	gauge, ok := depth.Data.(metricdata.Gauge[int64])
	if !ok {
		t.Fatal("expected Gauge[int64] data type")
	}
	if len(gauge.DataPoints) != 1 || gauge.DataPoints[0].Value != 17 {
		t.Errorf("gauge = %+v, want single point 17", gauge.DataPoints)
	}
}

func TestTelemetry_Name(t *testing.T) {
	tel, _, _ := setupTelemetry(t)
	if tel.Name() == "" {
		t.Error("extension name is empty")
	}
}
