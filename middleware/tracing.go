package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/teacurran/WireTuner/worker-export/job"
)

// tracerName is the instrumentation scope name for conversion tracing.
const tracerName = "github.com/teacurran/WireTuner/worker-export"

// Tracing returns middleware that wraps the conversion in an OpenTelemetry
// span. If no TracerProvider is configured globally, the default noop
// tracer is used and this middleware becomes a pass-through.
//
// Span attributes include: export.job.id, export.document_id,
// export.retry_count, export.output_path. On error, the span status is
// set to codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		ctx, span := tracer.Start(ctx, "export.convert",
			trace.WithAttributes(
				attribute.String("export.job.id", j.ID.String()),
				attribute.String("export.document_id", j.DocumentID),
				attribute.Int("export.retry_count", j.RetryCount),
				attribute.String("export.output_path", j.OutputPath),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
