package export

import "errors"

var (
	// ErrStoreClosed is returned by store operations after Close.
	ErrStoreClosed = errors.New("export: store closed")

	// ErrNotFound is returned when a job status slot does not exist or
	// its retention TTL has expired. Callers cannot distinguish the two.
	ErrNotFound = errors.New("export: job status not found")

	// ErrCorruptPayload marks a queue entry that could not be decoded.
	// It is a hard error, distinct from an empty dequeue.
	ErrCorruptPayload = errors.New("export: corrupt job payload")
)
