package worker_test

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teacurran/WireTuner/worker-export/ext"
	"github.com/teacurran/WireTuner/worker-export/job"
	"github.com/teacurran/WireTuner/worker-export/middleware"
	"github.com/teacurran/WireTuner/worker-export/queue"
	"github.com/teacurran/WireTuner/worker-export/store/memory"
	"github.com/teacurran/WireTuner/worker-export/worker"
)

func setupTestProcessor(t *testing.T, conv worker.Converter, mws ...middleware.Middleware) (
	*worker.Processor, *queue.Client, *finishedExt,
) {
	t.Helper()
	logger := slog.Default()
	client := queue.New(memory.New(),
		queue.WithDequeueTimeout(20*time.Millisecond),
	)
	extensions := ext.NewRegistry(logger)
	fin := &finishedExt{}
	extensions.Register(fin)

	p := worker.NewProcessor(client, conv, extensions, logger, mws...)
	return p, client, fin
}

func TestProcessor_Success(t *testing.T) {
	p, client, fin := setupTestProcessor(t, worker.ConverterFunc(
		func(_ context.Context, _, _ string) error { return nil },
	))

	j := job.New("doc-1", "<svg/>", "/exports/doc.pdf", job.Metadata{})
	if err := client.Enqueue(context.Background(), j); err != nil {
		t.Fatalf("enqueue error: %v", err)
	}

	if err := p.Process(context.Background(), j); err != nil {
		t.Fatalf("process error: %v", err)
	}

	if j.Status != job.StatusComplete {
		t.Errorf("status = %q, want %q", j.Status, job.StatusComplete)
	}
	got, err := client.GetStatus(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("get status error: %v", err)
	}
	if got.Status != job.StatusComplete {
		t.Errorf("persisted status = %q, want %q", got.Status, job.StatusComplete)
	}
	if fin.count.Load() != 1 {
		t.Errorf("JobFinished fired %d times, want 1", fin.count.Load())
	}
	if fin.lastStatus() != job.StatusComplete {
		t.Errorf("JobFinished status = %q, want %q", fin.lastStatus(), job.StatusComplete)
	}
}

func TestProcessor_FailureRequeues(t *testing.T) {
	convErr := errors.New("rasterizer crashed")
	p, client, fin := setupTestProcessor(t, worker.ConverterFunc(
		func(_ context.Context, _, _ string) error { return convErr },
	))

	j := job.New("doc-1", "<svg/>", "/exports/doc.pdf", job.Metadata{})
	if err := client.Enqueue(context.Background(), j); err != nil {
		t.Fatalf("enqueue error: %v", err)
	}
	// Drain the queue so the re-enqueued copy is the only entry.
	if _, err := client.Dequeue(context.Background()); err != nil {
		t.Fatalf("dequeue error: %v", err)
	}

	err := p.Process(context.Background(), j)
	if !errors.Is(err, convErr) {
		t.Fatalf("process error = %v, want %v", err, convErr)
	}

	if j.Status != job.StatusQueued {
		t.Errorf("status = %q, want %q", j.Status, job.StatusQueued)
	}
	if j.RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", j.RetryCount)
	}

	requeued, err := client.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("dequeue error: %v", err)
	}
	if requeued == nil {
		t.Fatal("expected re-enqueued job")
	}
	if requeued.ID != j.ID {
		t.Errorf("re-enqueued job id = %s, want %s", requeued.ID, j.ID)
	}
	if fin.lastStatus() != job.StatusQueued {
		t.Errorf("JobFinished status = %q, want %q", fin.lastStatus(), job.StatusQueued)
	}
}

func TestProcessor_FailureAtCeiling(t *testing.T) {
	p, client, fin := setupTestProcessor(t, worker.ConverterFunc(
		func(_ context.Context, _, _ string) error { return errors.New("rasterizer crashed") },
	))

	j := job.New("doc-1", "<svg/>", "/exports/doc.pdf", job.Metadata{})
	j.RetryCount = job.MaxRetries
	if err := client.Enqueue(context.Background(), j); err != nil {
		t.Fatalf("enqueue error: %v", err)
	}

	if err := p.Process(context.Background(), j); err == nil {
		t.Fatal("expected process error")
	}

	if j.Status != job.StatusFailed {
		t.Errorf("status = %q, want %q", j.Status, job.StatusFailed)
	}
	if j.Error != job.MaxRetriesReason {
		t.Errorf("error = %q, want %q", j.Error, job.MaxRetriesReason)
	}
	got, err := client.GetStatus(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("get status error: %v", err)
	}
	if got.Status != job.StatusFailed {
		t.Errorf("persisted status = %q, want %q", got.Status, job.StatusFailed)
	}
	if fin.lastStatus() != job.StatusFailed {
		t.Errorf("JobFinished status = %q, want %q", fin.lastStatus(), job.StatusFailed)
	}
}

func TestProcessor_TimeoutMiddleware(t *testing.T) {
	p, client, _ := setupTestProcessor(t, worker.ConverterFunc(
		func(ctx context.Context, _, _ string) error {
			select {
			case <-time.After(time.Second):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	), middleware.Timeout(10*time.Millisecond))

	j := job.New("doc-1", "<svg/>", "/exports/doc.pdf", job.Metadata{})
	if err := client.Enqueue(context.Background(), j); err != nil {
		t.Fatalf("enqueue error: %v", err)
	}

	err := p.Process(context.Background(), j)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("process error = %v, want deadline exceeded", err)
	}
	if j.Status != job.StatusQueued {
		t.Errorf("status = %q, want %q (retry after timeout)", j.Status, job.StatusQueued)
	}
}

// finishedExt records each finished job's status.
type finishedExt struct {
	count atomic.Int32
	last  atomic.Value // job.Status
}

func (e *finishedExt) Name() string { return "finished-tracker" }

func (e *finishedExt) OnJobFinished(_ context.Context, j *job.Job) error {
	e.count.Add(1)
	e.last.Store(j.Status)
	return nil
}

func (e *finishedExt) lastStatus() job.Status {
	s, _ := e.last.Load().(job.Status)
	return s
}
