package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/skatepark/internal/adapters/mq/queue"
	worker "github.com/okian/skatepark/internal/adapters/mq/worker"
	"github.com/okian/skatepark/internal/domain/types"
	"github.com/okian/skatepark/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

var errUnlucky = errors.New("unlucky seed")

// mockRunner fails seed 13 and otherwise reports seed attempts.
type mockRunner struct {
	block chan struct{}
}

func (r *mockRunner) Run(ctx context.Context, j queue.Job) (types.Summary, error) {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return types.Summary{}, ctx.Err()
		}
	}
	if j.Seed == 13 {
		return types.Summary{}, errUnlucky
	}
	return types.Summary{ID: j.ID, Seed: j.Seed, Attempts: int(j.Seed), Landed: 1}, nil
}

type mockSink struct {
	mu     sync.Mutex
	ok     map[string]types.Summary
	failed map[string]error
}

func newMockSink() *mockSink {
	return &mockSink{ok: map[string]types.Summary{}, failed: map[string]error{}}
}

func (s *mockSink) Record(_ context.Context, j queue.Job, sum types.Summary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failed[j.ID] = err
		return
	}
	s.ok[j.ID] = sum
}

func (s *mockSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ok), len(s.failed)
}

func testMetrics() *metrics.Manager {
	return metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker on a small queue", t, func() {
		m := testMetrics()
		q := queue.NewInMemoryQueue(queue.WithCapacity(8), queue.WithMetrics(m))
		sink := newMockSink()
		w := worker.NewInMemoryWorker(q, &mockRunner{}, sink, worker.WithName("w0"), worker.WithMetrics(m))

		convey.Convey("When jobs are queued and the queue is closed", func() {
			ctx := context.Background()
			for _, seed := range []uint64{1, 13, 4} {
				convey.So(q.Enqueue(ctx, queue.Job{ID: fmt.Sprintf("run-%d", seed), Seed: seed}), convey.ShouldBeTrue)
			}
			_ = q.Close()
			w.Run(ctx)

			convey.Convey("Then every job reaches the sink with its outcome", func() {
				ok, failed := sink.counts()
				convey.So(ok, convey.ShouldEqual, 2)
				convey.So(failed, convey.ShouldEqual, 1)
				convey.So(errors.Is(sink.failed["run-13"], errUnlucky), convey.ShouldBeTrue)
				convey.So(sink.ok["run-4"].Attempts, convey.ShouldEqual, 4)
			})

			convey.Convey("Then Done is closed", func() {
				closed := false
				select {
				case <-w.Done():
					closed = true
				default:
				}
				convey.So(closed, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the worker is shut down while idle", func() {
			go w.Run(context.Background())
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			convey.Convey("Then it stops promptly", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of four workers", t, func() {
		m := testMetrics()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4), queue.WithMetrics(m))
		sink := newMockSink()
		pool := worker.NewPool(4, q, &mockRunner{}, sink, worker.WithMetrics(m))
		convey.So(pool.Size(), convey.ShouldEqual, 4)

		convey.Convey("When more jobs than the queue holds are submitted", func() {
			ctx := context.Background()
			pool.Start(ctx)
			for i := range 40 {
				convey.So(q.Submit(ctx, queue.Job{ID: fmt.Sprintf("run-%d", i), Seed: uint64(i + 100)}), convey.ShouldBeNil)
			}
			_ = q.Close()
			pool.Wait()

			convey.Convey("Then all of them are run exactly once", func() {
				ok, failed := sink.counts()
				convey.So(ok, convey.ShouldEqual, 40)
				convey.So(failed, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the pool is shut down with a job in flight", func() {
			block := make(chan struct{})
			pool := worker.NewPool(2, q, &mockRunner{block: block}, sink, worker.WithMetrics(m))
			ctx := context.Background()
			pool.Start(ctx)
			convey.So(q.Enqueue(ctx, queue.Job{ID: "run-1", Seed: 1}), convey.ShouldBeTrue)
			time.AfterFunc(20*time.Millisecond, func() { close(block) })

			err := pool.Shutdown(ctx)

			convey.Convey("Then the running job finishes before shutdown returns", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				ok, _ := sink.counts()
				convey.So(ok, convey.ShouldBeLessThanOrEqualTo, 1)
			})
		})
	})
}
