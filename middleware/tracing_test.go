package middleware_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	mw "github.com/teacurran/WireTuner/worker-export/middleware"
)

func setupTestTracer() (*tracetest.SpanRecorder, trace.Tracer) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tracer := tp.Tracer("test")
	return sr, tracer
}

func TestTracing_CreatesSpan(t *testing.T) {
	sr, tracer := setupTestTracer()
	m := mw.TracingWithTracer(tracer)

	err := m(context.Background(), newTestJob(), func(_ context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "export.convert" {
		t.Errorf("expected span name %q, got %q", "export.convert", spans[0].Name())
	}
}

func TestTracing_SpanAttributes(t *testing.T) {
	sr, tracer := setupTestTracer()
	m := mw.TracingWithTracer(tracer)
	j := newTestJob()

	_ = m(context.Background(), j, func(_ context.Context) error {
		return nil
	})

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	attrs := spans[0].Attributes()
	expected := map[string]any{
		"export.job.id":      j.ID.String(),
		"export.document_id": "doc-123",
		"export.retry_count": int64(2),
		"export.output_path": "/tmp/out.pdf",
	}

	found := make(map[string]bool)
	for _, kv := range attrs {
		if want, ok := expected[string(kv.Key)]; ok {
			found[string(kv.Key)] = true
			if kv.Value.AsInterface() != want {
				t.Errorf("attribute %s = %v, want %v", kv.Key, kv.Value.AsInterface(), want)
			}
		}
	}
	for key := range expected {
		if !found[key] {
			t.Errorf("attribute %s not recorded", key)
		}
	}
}

func TestTracing_ErrorSetsStatus(t *testing.T) {
	sr, tracer := setupTestTracer()
	m := mw.TracingWithTracer(tracer)
	convErr := errors.New("svg parse error")

	err := m(context.Background(), newTestJob(), func(_ context.Context) error {
		return convErr
	})
	if !errors.Is(err, convErr) {
		t.Fatalf("expected %v, got %v", convErr, err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("span status = %v, want Error", spans[0].Status().Code)
	}
}
