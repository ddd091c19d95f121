// Package ext defines the observer capability for the export worker.
// Extensions are notified at defined lifecycle points — a job reaching a
// terminal or re-queued outcome, the periodic queue-depth heartbeat,
// shutdown — and can react to them: telemetry, audit logging, alerting.
//
// Observers are injected into the worker at construction; there is no
// process-wide registry. Each hook is a separate interface so extensions
// opt in only to the events they care about. Hook failures are logged
// and swallowed — an observer must never affect a job's outcome.
package ext

import (
	"context"

	"github.com/teacurran/WireTuner/worker-export/job"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// JobFinished is called once per processing attempt with the job's final
// in-memory state: complete, re-queued for retry, or terminally failed.
type JobFinished interface {
	OnJobFinished(ctx context.Context, j *job.Job) error
}

// Heartbeat is called periodically with the advisory queue depth.
type Heartbeat interface {
	OnHeartbeat(ctx context.Context, queueLength int64) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
