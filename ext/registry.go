package ext

import (
	"context"
	"log/slog"

	"github.com/teacurran/WireTuner/worker-export/job"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type jobFinishedEntry struct {
	name string
	hook JobFinished
}

type heartbeatEntry struct {
	name string
	hook Heartbeat
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	jobFinished []jobFinishedEntry
	heartbeat   []heartbeatEntry
	shutdown    []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(JobFinished); ok {
		r.jobFinished = append(r.jobFinished, jobFinishedEntry{name, h})
	}
	if h, ok := e.(Heartbeat); ok {
		r.heartbeat = append(r.heartbeat, heartbeatEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// EmitJobFinished notifies all extensions that implement JobFinished.
func (r *Registry) EmitJobFinished(ctx context.Context, j *job.Job) {
	for _, e := range r.jobFinished {
		if err := e.hook.OnJobFinished(ctx, j); err != nil {
			r.logHookError("OnJobFinished", e.name, err)
		}
	}
}

// EmitHeartbeat notifies all extensions that implement Heartbeat.
func (r *Registry) EmitHeartbeat(ctx context.Context, queueLength int64) {
	for _, e := range r.heartbeat {
		if err := e.hook.OnHeartbeat(ctx, queueLength); err != nil {
			r.logHookError("OnHeartbeat", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

func (r *Registry) logHookError(hook, extension string, err error) {
	r.logger.Warn("extension hook failed",
		slog.String("hook", hook),
		slog.String("extension", extension),
		slog.String("error", err.Error()),
	)
}
