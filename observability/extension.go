// Package observability provides the OpenTelemetry observer for the
// export worker. Register the Telemetry extension to emit a span and
// metrics for every finished job and a queue-depth gauge on heartbeats.
//
// If no global TracerProvider or MeterProvider is configured, the noop
// implementations are used and the extension degrades to structured
// logging only.
package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/teacurran/WireTuner/worker-export/ext"
	"github.com/teacurran/WireTuner/worker-export/job"
)

// scopeName is the instrumentation scope for export telemetry.
const scopeName = "github.com/teacurran/WireTuner/worker-export"

// slowExportThreshold is the duration past which a completed export is
// logged as a performance warning.
const slowExportThreshold = 5 * time.Second

// Compile-time interface checks.
var (
	_ ext.Extension   = (*Telemetry)(nil)
	_ ext.JobFinished = (*Telemetry)(nil)
	_ ext.Heartbeat   = (*Telemetry)(nil)
)

// Telemetry records spans, metrics, and structured logs for export
// lifecycle events.
type Telemetry struct {
	tracer     trace.Tracer
	duration   metric.Float64Histogram
	executions metric.Int64Counter
	queueDepth metric.Int64Gauge
	logger     *slog.Logger
}

// NewTelemetry creates a Telemetry extension using the global OTel
// providers.
func NewTelemetry(logger *slog.Logger) *Telemetry {
	return NewTelemetryWith(otel.Tracer(scopeName), otel.Meter(scopeName), logger)
}

// NewTelemetryWith creates a Telemetry extension with explicit tracer
// and meter. This variant allows injecting specific providers for
// testing.
func NewTelemetryWith(tracer trace.Tracer, meter metric.Meter, logger *slog.Logger) *Telemetry {
	// Create instruments once at construction time. OTel instruments are
	// safe for concurrent use; on error the API returns noop instruments
	// so the extension degrades gracefully.
	duration, dErr := meter.Float64Histogram(
		"export.job.duration",
		metric.WithDescription("End-to-end duration of export jobs in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr // noop fallback guaranteed by OTel API contract

	executions, eErr := meter.Int64Counter(
		"export.job.executions",
		metric.WithDescription("Total number of finished export attempts"),
		metric.WithUnit("{execution}"),
	)
	_ = eErr // noop fallback guaranteed by OTel API contract

	queueDepth, qErr := meter.Int64Gauge(
		"export.queue.depth",
		metric.WithDescription("Advisory number of jobs waiting in the export queue"),
		metric.WithUnit("{job}"),
	)
	_ = qErr // noop fallback guaranteed by OTel API contract

	return &Telemetry{
		tracer:     tracer,
		duration:   duration,
		executions: executions,
		queueDepth: queueDepth,
		logger:     logger,
	}
}

// Name implements ext.Extension.
func (t *Telemetry) Name() string { return "observability-telemetry" }

// OnJobFinished implements ext.JobFinished. It emits one span and one
// executions count per attempt, a duration sample for terminal outcomes,
// and mirrors the outcome into structured logs.
func (t *Telemetry) OnJobFinished(ctx context.Context, j *job.Job) error {
	attrs := []attribute.KeyValue{
		attribute.String("job_id", j.ID.String()),
		attribute.String("document_id", j.DocumentID),
		attribute.String("status", j.Status.String()),
		attribute.Int("retry_count", j.RetryCount),
		attribute.String("export_scope", j.Metadata.ExportScope),
		attribute.Int("artboard_count", len(j.Metadata.ArtboardIDs)),
		attribute.String("client_version", j.Metadata.ClientVersion),
	}

	d, terminal := j.ProcessingDuration()
	if terminal {
		attrs = append(attrs, attribute.Int64("duration_ms", d.Milliseconds()))
	}
	if j.Status == job.StatusFailed && j.Error != "" {
		attrs = append(attrs, attribute.String("error", j.Error))
	}

	_, span := t.tracer.Start(ctx, "pdf_export_job", trace.WithAttributes(attrs...))
	span.End()

	statusAttr := metric.WithAttributes(attribute.String("status", j.Status.String()))
	t.executions.Add(ctx, 1, statusAttr)

	switch {
	case terminal && j.Status == job.StatusComplete:
		t.duration.Record(ctx, d.Seconds(), statusAttr)
		t.logger.Info("export job completed",
			slog.String("job_id", j.ID.String()),
			slog.String("document_id", j.DocumentID),
			slog.Int64("duration_ms", d.Milliseconds()),
		)
		if d > slowExportThreshold {
			t.logger.Warn("export exceeded performance threshold",
				slog.String("job_id", j.ID.String()),
				slog.Int64("duration_ms", d.Milliseconds()),
				slog.Duration("threshold", slowExportThreshold),
			)
		}
	case terminal && j.Status == job.StatusFailed:
		t.duration.Record(ctx, d.Seconds(), statusAttr)
		t.logger.Warn("export job failed",
			slog.String("job_id", j.ID.String()),
			slog.String("error", j.Error),
			slog.Int("retry_count", j.RetryCount),
		)
	default:
		// Re-queued for retry; duration is not yet defined.
		t.logger.Info("export job re-queued",
			slog.String("job_id", j.ID.String()),
			slog.Int("retry_count", j.RetryCount),
		)
	}

	return nil
}

// OnHeartbeat implements ext.Heartbeat.
func (t *Telemetry) OnHeartbeat(ctx context.Context, queueLength int64) error {
	t.queueDepth.Record(ctx, queueLength)
	t.logger.Debug("worker heartbeat", slog.Int64("queue_length", queueLength))
	return nil
}
