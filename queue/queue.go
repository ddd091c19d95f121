package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	export "github.com/teacurran/WireTuner/worker-export"
	"github.com/teacurran/WireTuner/worker-export/id"
	"github.com/teacurran/WireTuner/worker-export/job"
	"github.com/teacurran/WireTuner/worker-export/store"
)

// Key and timing defaults shared with the producing API server.
const (
	// DefaultQueueKey is the shared FIFO list holding pending jobs.
	DefaultQueueKey = "wiretuner:export:pdf:queue"

	// DefaultStatusKeyPrefix prefixes per-job status slot keys.
	DefaultStatusKeyPrefix = "wiretuner:export:pdf:status"

	// DefaultQuarantineKey receives raw payloads that failed to decode.
	DefaultQuarantineKey = "wiretuner:export:pdf:quarantine"

	// DefaultStatusTTL is the retention window for status slots.
	DefaultStatusTTL = 24 * time.Hour

	// DefaultDequeueTimeout is the blocking-pop window per dequeue call.
	DefaultDequeueTimeout = 5 * time.Second
)

// Option configures the Client.
type Option func(*Client)

// WithQueueKey overrides the shared queue key.
func WithQueueKey(key string) Option {
	return func(c *Client) { c.queueKey = key }
}

// WithStatusKeyPrefix overrides the status slot key prefix.
func WithStatusKeyPrefix(prefix string) Option {
	return func(c *Client) { c.statusPrefix = prefix }
}

// WithQuarantineKey overrides the quarantine list key. An empty key
// disables quarantining; corrupt payloads are then dropped.
func WithQuarantineKey(key string) Option {
	return func(c *Client) { c.quarantineKey = key }
}

// WithStatusTTL overrides the status retention window.
func WithStatusTTL(ttl time.Duration) Option {
	return func(c *Client) { c.statusTTL = ttl }
}

// WithDequeueTimeout overrides the blocking-pop window.
func WithDequeueTimeout(d time.Duration) Option {
	return func(c *Client) { c.dequeueTimeout = d }
}

// WithCodec sets the job serialization codec. Defaults to JSON.
func WithCodec(codec Codec) Option {
	return func(c *Client) { c.codec = codec }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client wraps a store.Store with job-specific keying and serialization.
// It is safe for concurrent use by all dispatcher and processor
// goroutines; the underlying store multiplexes the connection.
type Client struct {
	store          store.Store
	codec          Codec
	queueKey       string
	statusPrefix   string
	quarantineKey  string
	statusTTL      time.Duration
	dequeueTimeout time.Duration
	logger         *slog.Logger
}

// New creates a queue client over the given store.
func New(s store.Store, opts ...Option) *Client {
	c := &Client{
		store:          s,
		codec:          &JSONCodec{},
		queueKey:       DefaultQueueKey,
		statusPrefix:   DefaultStatusKeyPrefix,
		quarantineKey:  DefaultQuarantineKey,
		statusTTL:      DefaultStatusTTL,
		dequeueTimeout: DefaultDequeueTimeout,
		logger:         slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// statusKey returns the status slot key for a job id.
func (c *Client) statusKey(jobID id.JobID) string {
	return c.statusPrefix + ":" + jobID.String()
}

// Enqueue pushes the job onto the shared queue and writes its status
// slot. The push is authoritative: if the status write fails afterwards,
// the error is surfaced but the job stays in the queue — status is
// advisory for pollers, not for correctness.
func (c *Client) Enqueue(ctx context.Context, j *job.Job) error {
	data, err := c.codec.Marshal(j)
	if err != nil {
		return fmt.Errorf("export/queue: marshal job %s: %w", j.ID, err)
	}

	if err := c.store.PushBack(ctx, c.queueKey, data); err != nil {
		return fmt.Errorf("export/queue: enqueue job %s: %w", j.ID, err)
	}

	if err := c.store.SetWithExpiry(ctx, c.statusKey(j.ID), data, c.statusTTL); err != nil {
		return fmt.Errorf("export/queue: write status for job %s: %w", j.ID, err)
	}

	c.logger.Info("enqueued job",
		slog.String("job_id", j.ID.String()),
		slog.String("document_id", j.DocumentID),
	)
	return nil
}

// Dequeue blocks up to the configured timeout for the next job. It
// returns (nil, nil) when the queue stays empty — callers loop on that
// without treating it as a failure. A payload that cannot be decoded is
// a hard error wrapping export.ErrCorruptPayload; the raw bytes are
// pushed to the quarantine list (best-effort) before returning.
func (c *Client) Dequeue(ctx context.Context) (*job.Job, error) {
	payload, err := c.store.PopFront(ctx, c.queueKey, c.dequeueTimeout)
	if err != nil {
		return nil, fmt.Errorf("export/queue: dequeue: %w", err)
	}
	if payload == nil {
		return nil, nil
	}

	j, err := c.codec.Unmarshal(payload)
	if err != nil {
		c.quarantine(ctx, payload)
		return nil, fmt.Errorf("export/queue: decode job: %w: %w", export.ErrCorruptPayload, err)
	}

	c.logger.Debug("dequeued job", slog.String("job_id", j.ID.String()))
	return j, nil
}

// quarantine preserves an undecodable payload for manual inspection.
// Best-effort: a quarantine failure is logged, never escalated.
func (c *Client) quarantine(ctx context.Context, payload []byte) {
	if c.quarantineKey == "" {
		return
	}
	if err := c.store.PushBack(ctx, c.quarantineKey, payload); err != nil {
		c.logger.Error("failed to quarantine corrupt payload",
			slog.String("error", err.Error()),
		)
		return
	}
	c.logger.Warn("quarantined corrupt payload",
		slog.String("key", c.quarantineKey),
		slog.Int("bytes", len(payload)),
	)
}

// UpdateStatus overwrites the job's status slot with its current full
// state and refreshes the TTL. Idempotent; callers may re-write the same
// or an advancing state.
func (c *Client) UpdateStatus(ctx context.Context, j *job.Job) error {
	data, err := c.codec.Marshal(j)
	if err != nil {
		return fmt.Errorf("export/queue: marshal status for job %s: %w", j.ID, err)
	}

	if err := c.store.SetWithExpiry(ctx, c.statusKey(j.ID), data, c.statusTTL); err != nil {
		return fmt.Errorf("export/queue: update status for job %s: %w", j.ID, err)
	}

	c.logger.Debug("updated job status",
		slog.String("job_id", j.ID.String()),
		slog.String("status", j.Status.String()),
	)
	return nil
}

// GetStatus reads the status slot for external pollers. It returns
// export.ErrNotFound if the slot never existed or its TTL elapsed;
// pollers must treat that as ambiguous (briefly-not-yet-written vs.
// expired-after-completion).
func (c *Client) GetStatus(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	payload, err := c.store.Get(ctx, c.statusKey(jobID))
	if err != nil {
		return nil, err
	}

	j, err := c.codec.Unmarshal(payload)
	if err != nil {
		return nil, fmt.Errorf("export/queue: decode status: %w: %w", export.ErrCorruptPayload, err)
	}
	return j, nil
}

// RetryJob applies the job's retry policy. If the retry is accepted the
// job goes back through a full Enqueue (fresh status write included) and
// RetryJob reports true. If refused, the terminal failed state is
// persisted and RetryJob reports false.
func (c *Client) RetryJob(ctx context.Context, j *job.Job) (bool, error) {
	if j.Retry() {
		if err := c.Enqueue(ctx, j); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := c.UpdateStatus(ctx, j); err != nil {
		return false, err
	}
	c.logger.Error("job failed after max retries",
		slog.String("job_id", j.ID.String()),
		slog.String("error", j.Error),
	)
	return false, nil
}

// Length returns the advisory queue depth.
func (c *Client) Length(ctx context.Context) (int64, error) {
	return c.store.Length(ctx, c.queueKey)
}
