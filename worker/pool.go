package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	export "github.com/teacurran/WireTuner/worker-export"
	"github.com/teacurran/WireTuner/worker-export/backoff"
	"github.com/teacurran/WireTuner/worker-export/ext"
	"github.com/teacurran/WireTuner/worker-export/queue"
)

// Pool manages a set of concurrent dequeue loops that pull jobs from the
// shared queue and hand them to the Processor. Concurrency is bounded by
// a weighted semaphore sized to the loop count: each loop holds a permit
// for the duration of a conversion, so at most N jobs convert at once.
type Pool struct {
	client     *queue.Client
	processor  *Processor
	extensions *ext.Registry
	logger     *slog.Logger

	concurrency    int
	sem            *semaphore.Weighted
	errBackoff     backoff.Strategy
	heartbeatEvery int
	limiter        *rate.Limiter

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	// samples counts dequeue attempts across all loops for the
	// heartbeat cadence.
	samplesMu sync.Mutex
	samples   int
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithConcurrency sets the number of dequeue loops and the matching
// permit count. Values below 1 are clamped to 1.
func WithConcurrency(n int) PoolOption {
	return func(p *Pool) {
		if n < 1 {
			n = 1
		}
		p.concurrency = n
	}
}

// WithErrorBackoff sets the delay strategy applied after consecutive
// dequeue errors. The attempt counter resets on the first success.
func WithErrorBackoff(s backoff.Strategy) PoolOption {
	return func(p *Pool) { p.errBackoff = s }
}

// WithHeartbeatEvery sets how many dequeue attempts elapse between
// heartbeat emissions. A value below 1 disables heartbeats.
func WithHeartbeatEvery(n int) PoolOption {
	return func(p *Pool) { p.heartbeatEvery = n }
}

// WithRateLimit caps the aggregate dequeue rate across all loops.
// A nil limiter (the default) means unlimited.
func WithRateLimit(l *rate.Limiter) PoolOption {
	return func(p *Pool) { p.limiter = l }
}

// NewPool creates a worker pool.
func NewPool(
	client *queue.Client,
	processor *Processor,
	extensions *ext.Registry,
	logger *slog.Logger,
	opts ...PoolOption,
) *Pool {
	p := &Pool{
		client:         client,
		processor:      processor,
		extensions:     extensions,
		logger:         logger,
		concurrency:    4,
		errBackoff:     backoff.DefaultStrategy(),
		heartbeatEvery: 10,
		stopCh:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.sem = semaphore.NewWeighted(int64(p.concurrency))
	return p
}

// Start launches the dequeue loops. It returns immediately.
func (p *Pool) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	p.running = true

	p.logger.Info("worker pool starting",
		slog.Int("concurrency", p.concurrency),
	)

	for i := range p.concurrency {
		p.wg.Add(1)
		go p.dequeueLoop(i)
	}

	return nil
}

// Stop signals all loops to stop and waits for in-flight conversions to
// drain. If the context expires first, Stop returns the context error;
// conversions already running are not cancelled and finish on their own.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	p.logger.Info("worker pool stopping")
	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out with jobs in flight")
		p.extensions.EmitShutdown(context.Background())
		return ctx.Err()
	}

	p.extensions.EmitShutdown(context.Background())
	return nil
}

// dequeueLoop is run by each loop goroutine. On a dequeue error it backs
// off per the configured strategy; an empty queue is not an error and
// resets the attempt counter like a success does.
func (p *Pool) dequeueLoop(loop int) {
	defer p.wg.Done()

	errAttempt := 0
	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(context.Background()); err != nil {
				return
			}
		}

		j, err := p.client.Dequeue(context.Background())
		p.sampleHeartbeat()

		switch {
		case errors.Is(err, export.ErrCorruptPayload):
			// Job-level, not infra: the entry is already quarantined.
			p.logger.Error("skipping corrupt queue entry",
				slog.Int("loop", loop),
				slog.String("error", err.Error()),
			)
			continue
		case err != nil:
			errAttempt++
			p.logger.Error("dequeue error",
				slog.Int("loop", loop),
				slog.Int("attempt", errAttempt),
				slog.String("error", err.Error()),
			)
			p.sleep(p.errBackoff.Delay(errAttempt))
			continue
		}
		errAttempt = 0

		if j == nil {
			continue
		}

		if acqErr := p.sem.Acquire(context.Background(), 1); acqErr != nil {
			return
		}
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			defer p.sem.Release(1)
			if procErr := p.processor.Process(context.Background(), j); procErr != nil {
				p.logger.Debug("job processing failed",
					slog.String("job_id", j.ID.String()),
					slog.String("error", procErr.Error()),
				)
			}
		}()
	}
}

// sampleHeartbeat counts a dequeue attempt and, every Nth attempt,
// samples the queue depth and notifies heartbeat observers.
func (p *Pool) sampleHeartbeat() {
	if p.heartbeatEvery < 1 {
		return
	}

	p.samplesMu.Lock()
	p.samples++
	due := p.samples%p.heartbeatEvery == 0
	p.samplesMu.Unlock()

	if !due {
		return
	}

	depth, err := p.client.Length(context.Background())
	if err != nil {
		p.logger.Warn("failed to sample queue depth",
			slog.String("error", err.Error()),
		)
		return
	}
	p.extensions.EmitHeartbeat(context.Background(), depth)
}

func (p *Pool) sleep(d time.Duration) {
	select {
	case <-time.After(d):
	case <-p.stopCh:
	}
}
