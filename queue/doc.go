// Package queue provides the job-aware client over a store.Store: it owns
// key naming and serialization, and exposes the queue protocol the worker
// and the producing API server share — enqueue, blocking dequeue, status
// tracking, retry re-enqueue, and the advisory length query.
//
// Status slots are advisory. They exist for external pollers; control
// flow never depends on a status read, so a failed status write degrades
// to a logged warning and concurrent writers are last-write-wins.
package queue
