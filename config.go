package export

import "time"

// Config holds configuration for the export worker.
type Config struct {
	// Concurrency is the maximum number of jobs processed concurrently.
	// It also sets the number of dequeue loops the pool runs.
	Concurrency int

	// DequeueTimeout is how long a blocking dequeue waits before
	// reporting an empty queue.
	DequeueTimeout time.Duration

	// StatusTTL is the retention window for per-job status slots.
	StatusTTL time.Duration

	// ConvertTimeout bounds a single conversion. Zero means unbounded.
	ConvertTimeout time.Duration

	// HeartbeatEvery is the number of queue-length samples between
	// heartbeat observations.
	HeartbeatEvery int

	// ShutdownTimeout is the maximum time to wait for in-flight jobs
	// during graceful shutdown. Zero means wait indefinitely.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with the reference defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:    4,
		DequeueTimeout: 5 * time.Second,
		StatusTTL:      24 * time.Hour,
		HeartbeatEvery: 10,
	}
}
