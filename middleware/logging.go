package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/teacurran/WireTuner/worker-export/job"
)

// Logging returns middleware that logs conversion start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		logger.Info("conversion started",
			slog.String("job_id", j.ID.String()),
			slog.String("document_id", j.DocumentID),
			slog.String("output_path", j.OutputPath),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("conversion failed",
				slog.String("job_id", j.ID.String()),
				slog.String("document_id", j.DocumentID),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("conversion completed",
				slog.String("job_id", j.ID.String()),
				slog.String("document_id", j.DocumentID),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
