package middleware

import (
	"context"
	"time"

	"github.com/teacurran/WireTuner/worker-export/job"
)

// Timeout returns middleware that bounds a single conversion. A hung
// convert would otherwise hold a permit indefinitely; a non-zero limit
// caps that. When the deadline is exceeded the context is cancelled and
// the converter should return context.DeadlineExceeded. Zero disables
// the bound.
func Timeout(limit time.Duration) Middleware {
	return func(ctx context.Context, _ *job.Job, next Handler) error {
		if limit > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, limit)
			defer cancel()
		}
		return next(ctx)
	}
}
