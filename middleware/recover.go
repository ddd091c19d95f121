package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/teacurran/WireTuner/worker-export/job"
)

// Recover returns middleware that recovers from panics in the converter.
// Panics are converted to errors — and so into ordinary job failures
// subject to the retry policy — and logged with a stack trace.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("converter panicked",
					slog.String("job_id", j.ID.String()),
					slog.String("document_id", j.DocumentID),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic converting job %s: %v", j.ID, r)
			}
		}()
		return next(ctx)
	}
}
