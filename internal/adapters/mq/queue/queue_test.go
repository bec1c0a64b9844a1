package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/skatepark/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestQueue(capacity int) *InMemoryQueue {
	m := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
	return NewInMemoryQueue(WithCapacity(capacity), WithMetrics(m))
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := newTestQueue(2)
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if !q.Enqueue(ctx, Job{ID: "run-1", Seed: 1}) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, Job{ID: "run-2", Seed: 2}) {
		t.Error("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, Job{ID: "run-3"}) {
		t.Error("expected enqueue to fail when full")
	}

	job := <-q.Dequeue(ctx)
	if job.ID != "run-1" || job.Seed != 1 {
		t.Errorf("expected run-1 first, got %+v", job)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}
}

func TestInMemoryQueue_SubmitWaitsForRoom(t *testing.T) {
	q := newTestQueue(1)
	ctx := context.Background()

	if err := q.Submit(ctx, Job{ID: "run-1"}); err != nil {
		t.Fatal(err)
	}

	submitted := make(chan error, 1)
	go func() { submitted <- q.Submit(ctx, Job{ID: "run-2"}) }()

	select {
	case err := <-submitted:
		t.Fatalf("submit should block on a full queue, returned %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	<-q.Dequeue(ctx)
	select {
	case err := <-submitted:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("submit did not resume after a dequeue")
	}

	cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := q.Submit(cctx, Job{ID: "run-3"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestInMemoryQueue_CloseReleasesBlockedSubmit(t *testing.T) {
	q := newTestQueue(1)
	ctx := context.Background()
	_ = q.Submit(ctx, Job{ID: "run-1"})

	submitted := make(chan error, 1)
	go func() { submitted <- q.Submit(ctx, Job{ID: "run-2"}) }()
	time.Sleep(10 * time.Millisecond)

	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	if err := <-submitted; !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// The queued job is still delivered, then the channel closes.
	jobs := q.Dequeue(ctx)
	if j, ok := <-jobs; !ok || j.ID != "run-1" {
		t.Errorf("expected run-1 to drain, got %+v %v", j, ok)
	}
	if _, ok := <-jobs; ok {
		t.Error("expected the channel to be closed")
	}
	if err := q.Submit(ctx, Job{}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after close, got %v", err)
	}
	if q.Enqueue(ctx, Job{}) {
		t.Error("expected enqueue to fail after closing")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := newTestQueue(16)
	ctx := context.Background()
	const producers, perProducer = 8, 50

	var consumed sync.Map
	var consumers sync.WaitGroup
	for range 4 {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for j := range q.Dequeue(ctx) {
				consumed.Store(j.ID, true)
			}
		}()
	}

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				if err := q.Submit(ctx, Job{ID: fmt.Sprintf("run-%d-%d", p, i)}); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
	_ = q.Close()
	consumers.Wait()

	n := 0
	consumed.Range(func(_, _ any) bool { n++; return true })
	if n != producers*perProducer {
		t.Errorf("expected %d jobs consumed, got %d", producers*perProducer, n)
	}
}
