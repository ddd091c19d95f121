// Package export provides the core of the WireTuner PDF export worker:
// a durable Redis-backed job queue consumed by a bounded worker pool.
//
// The worker pulls export jobs from a shared FIFO list, drives each job
// through its lifecycle (queued → processing → complete/failed), tracks
// per-job status in TTL-bound slots for external pollers, and retries
// failed conversions up to a fixed ceiling before giving up permanently.
//
// # Architecture
//
// Each subsystem lives in its own package:
//
//   - job: the persisted job record and its state machine
//   - store: the durable queue/status capability and its backends
//     (redis for production, memory for tests, mongo as an alternative)
//   - queue: the job-aware client over a store — enqueue, blocking
//     dequeue, status tracking, retry re-enqueue
//   - worker: the dispatch loops, the shared permit pool, and the
//     per-job processor
//   - ext: lifecycle observer hooks (job finished, heartbeat)
//   - observability: an OpenTelemetry extension implementing those hooks
//
// Processing is at-least-once: a crash between dequeue and the terminal
// status write may cause a duplicate dequeue. Status slots are advisory
// and last-write-wins, so reprocessing is safe.
//
// # Quick Start
//
//	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
//	q := queue.New(redisstore.New(client))
//	pool := worker.NewPool(q, worker.NewProcessor(q, conv, observers, logger), observers, logger,
//	    worker.WithConcurrency(4),
//	)
//	pool.Start(ctx)
package export
