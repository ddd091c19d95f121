// Package worker provides the conversion engine — a Processor that runs
// a single job through middleware and the converter, and a Pool that
// manages concurrent dequeue loops feeding it.
package worker

import (
	"context"
	"log/slog"

	"github.com/teacurran/WireTuner/worker-export/ext"
	"github.com/teacurran/WireTuner/worker-export/job"
	"github.com/teacurran/WireTuner/worker-export/middleware"
	"github.com/teacurran/WireTuner/worker-export/queue"
)

// Converter renders SVG content to a PDF at the given output path.
// Implementations must honor ctx cancellation.
type Converter interface {
	Convert(ctx context.Context, svgContent, outputPath string) error
}

// ConverterFunc adapts a function to the Converter interface.
type ConverterFunc func(ctx context.Context, svgContent, outputPath string) error

// Convert calls f.
func (f ConverterFunc) Convert(ctx context.Context, svgContent, outputPath string) error {
	return f(ctx, svgContent, outputPath)
}

// Processor runs a single job through the middleware chain and the
// converter, then handles retry logic, status updates, and lifecycle
// events. It is safe for concurrent use.
type Processor struct {
	client     *queue.Client
	converter  Converter
	extensions *ext.Registry
	mw         middleware.Middleware
	logger     *slog.Logger
}

// NewProcessor creates a Processor with the given dependencies.
// Middleware are applied in order; the first is the outermost wrapper.
func NewProcessor(
	client *queue.Client,
	converter Converter,
	extensions *ext.Registry,
	logger *slog.Logger,
	mws ...middleware.Middleware,
) *Processor {
	return &Processor{
		client:     client,
		converter:  converter,
		extensions: extensions,
		mw:         middleware.Chain(mws...),
		logger:     logger,
	}
}

// Process runs a job through the middleware chain and converter.
// On success: marks complete and refreshes the status slot.
// On failure with retries remaining: re-enqueues with an incremented count.
// On failure with retries exhausted: persists the terminal failed state.
// The JobFinished event fires in every case with the job's final state.
func (p *Processor) Process(ctx context.Context, j *job.Job) error {
	j.StartProcessing()
	if err := p.client.UpdateStatus(ctx, j); err != nil {
		// Status is advisory; conversion proceeds regardless.
		p.logger.Warn("failed to mark job processing",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	terminal := func(ctx context.Context) error {
		return p.converter.Convert(ctx, j.SVGContent, j.OutputPath)
	}

	err := p.mw(ctx, j, terminal)
	if err != nil {
		return p.handleFailure(ctx, j, err)
	}
	return p.handleSuccess(ctx, j)
}

func (p *Processor) handleSuccess(ctx context.Context, j *job.Job) error {
	j.MarkComplete()

	if err := p.client.UpdateStatus(ctx, j); err != nil {
		p.logger.Error("failed to update job after success",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
		p.extensions.EmitJobFinished(ctx, j)
		return err
	}

	p.logger.Info("job completed",
		slog.String("job_id", j.ID.String()),
		slog.String("document_id", j.DocumentID),
		slog.String("output_path", j.OutputPath),
	)

	p.extensions.EmitJobFinished(ctx, j)
	return nil
}

// handleFailure applies the retry policy: re-enqueue while the ceiling
// allows, otherwise persist the terminal failed state.
func (p *Processor) handleFailure(ctx context.Context, j *job.Job, convErr error) error {
	j.MarkFailed(convErr.Error())

	requeued, retryErr := p.client.RetryJob(ctx, j)
	switch {
	case retryErr != nil:
		p.logger.Error("failed to apply retry policy",
			slog.String("job_id", j.ID.String()),
			slog.String("error", retryErr.Error()),
		)
	case requeued:
		p.logger.Warn("job re-queued after failure",
			slog.String("job_id", j.ID.String()),
			slog.Int("retry_count", j.RetryCount),
			slog.Int("max_retries", job.MaxRetries),
			slog.String("error", convErr.Error()),
		)
	default:
		p.logger.Error("job failed permanently",
			slog.String("job_id", j.ID.String()),
			slog.Int("retry_count", j.RetryCount),
			slog.String("error", j.Error),
		)
	}

	p.extensions.EmitJobFinished(ctx, j)

	if retryErr != nil {
		return retryErr
	}
	return convErr
}
