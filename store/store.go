// Package store defines the durable queue/status capability the export
// worker requires, and is implemented by the backend subpackages.
//
// The capability is deliberately small: a FIFO list with a blocking pop,
// and keyed slots with automatic expiry. Redis satisfies it natively
// (RPUSH/BLPOP/SET EX); the memory backend satisfies it in-process for
// tests; the mongo backend satisfies it with a TTL index and ordered
// deletes.
package store

import (
	"context"
	"time"
)

// Store is the durable persistence capability for job queues and status
// slots. Implementations must be safe for concurrent use by all worker
// goroutines simultaneously.
type Store interface {
	// PushBack appends a payload to the list at key, preserving FIFO
	// order relative to other pushes.
	PushBack(ctx context.Context, key string, payload []byte) error

	// PopFront removes and returns the oldest entry of the list at key,
	// blocking up to timeout. It returns (nil, nil) when the queue stays
	// empty for the full window; that is not an error. Once an entry is
	// returned the caller owns it — the store must not retain or
	// redeliver it.
	PopFront(ctx context.Context, key string, timeout time.Duration) ([]byte, error)

	// SetWithExpiry upserts the slot at key. The slot expires ttl after
	// the most recent write.
	SetWithExpiry(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Get returns the current slot value, or export.ErrNotFound if the
	// slot never existed or its TTL elapsed.
	Get(ctx context.Context, key string) ([]byte, error)

	// Length returns the approximate number of entries in the list at
	// key. Advisory only; not used for correctness.
	Length(ctx context.Context, key string) (int64, error)

	// Ping verifies the backend connection is alive.
	Ping(ctx context.Context) error
}
