// Package queue holds batch simulation jobs waiting for a worker.
package queue

import (
	"context"
	"sync"

	"github.com/okian/skatepark/pkg/metrics"
)

const defaultQueueCapacity = 1_000

// Job asks for one independent simulated session.
type Job struct {
	ID      string
	Seed    uint64
	Kind    string
	Tier    string
	Sport   string
	Skaters int
}

// Queue provides enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job without blocking. Returns false if the queue is
	// full or closed.
	Enqueue(ctx context.Context, j Job) bool

	// Submit adds a job, waiting for room.
	Submit(ctx context.Context, j Job) error

	// Dequeue returns the channel jobs are delivered on. It is closed
	// once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	metrics  *metrics.Manager

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	once   sync.Once
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		metrics:  metrics.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)
	q.metrics.BatchQueueDepth(0)
	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.metrics.Error("queue", "closed")
		return false
	}
	select {
	case q.jobs <- j:
		q.metrics.BatchQueueDepth(len(q.jobs))
		return true
	case <-ctx.Done():
		q.metrics.Error("queue", "context_cancelled")
		return false
	default:
		q.metrics.Error("queue", "queue_full")
		return false
	}
}

// Submit blocks until the job is queued, ctx ends or the queue closes.
func (q *InMemoryQueue) Submit(ctx context.Context, j Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}
	select {
	case q.jobs <- j:
		q.metrics.BatchQueueDepth(len(q.jobs))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrClosed
	}
}

// Dequeue returns the job channel.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Job {
	return q.jobs
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	n := len(q.jobs)
	q.metrics.BatchQueueDepth(n)
	return n
}

// Close stops new jobs. Jobs already queued are still delivered.
func (q *InMemoryQueue) Close() error {
	q.once.Do(func() { close(q.done) })

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
