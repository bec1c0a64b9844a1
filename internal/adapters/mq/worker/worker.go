// Package worker runs batch simulation jobs off the queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/skatepark/internal/adapters/mq/queue"
	"github.com/okian/skatepark/internal/domain/types"
	"github.com/okian/skatepark/pkg/logger"
	"github.com/okian/skatepark/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job is what workers read off the queue.
type Job = queue.Job

// Runner simulates one session for a job.
type Runner interface {
	Run(ctx context.Context, j Job) (types.Summary, error)
}

// Sink receives every job outcome. It is called from many workers at once.
type Sink interface {
	Record(ctx context.Context, j Job, sum types.Summary, err error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// InMemoryWorker runs jobs one at a time.
type InMemoryWorker struct {
	queue  Queue
	runner Runner
	sink   Sink
	name   string
	active *atomic.Int32

	shutdown chan struct{}
	done     chan struct{}

	logger  logger.Logger
	metrics *metrics.Manager
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, runner Runner, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		runner:   runner,
		sink:     sink,
		name:     "worker",
		active:   &atomic.Int32{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
		metrics:  metrics.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes jobs until the queue closes, ctx ends or Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j)
		}
	}
}

// Done is closed once Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j Job) {
	w.metrics.BatchWorkersActive(int(w.active.Add(1)))
	defer func() { w.metrics.BatchWorkersActive(int(w.active.Add(-1))) }()

	start := time.Now()
	sum, err := w.runner.Run(ctx, j)
	status := "done"
	if err != nil {
		status = "failed"
		w.metrics.Error("worker", "job_failed")
		w.logger.Error(ctx, "batch job failed", logger.String("job", j.ID), logger.Error(err))
	} else {
		w.logger.Debug(ctx, "batch job done",
			logger.String("job", j.ID),
			logger.Int("attempts", sum.Attempts),
			logger.Int("points", sum.Points),
		)
	}
	w.metrics.BatchJob(status, time.Since(start))
	w.sink.Record(ctx, j, sum, err)
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates count workers. Options apply to every worker; each still
// gets its own name.
func NewPool(count int, q Queue, runner Runner, sink Sink, opts ...Option) *Pool {
	if count < 1 {
		count = runtime.NumCPU()
	}
	base := &InMemoryWorker{logger: logger.Nop()}
	for _, opt := range opts {
		opt(base)
	}
	active := &atomic.Int32{}
	p := &Pool{workers: make([]*InMemoryWorker, count), queue: q, logger: base.logger.Named("worker-pool")}
	for i := range count {
		w := NewInMemoryWorker(q, runner, sink, append(slices.Clip(opts), WithName("worker-"+strconv.Itoa(i)))...)
		w.active = active
		p.workers[i] = w
	}
	return p
}

// Size is the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Wait blocks until every worker has returned, which happens once the queue
// is closed and drained.
func (p *Pool) Wait() {
	for _, w := range p.workers {
		<-w.done
	}
}

// Shutdown closes the queue when it can be closed and stops the workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	for _, w := range p.workers {
		close(w.shutdown)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
		}
	}
	return nil
}
