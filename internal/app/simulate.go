package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/okian/skatepark/internal/adapters/mq/queue"
	"github.com/okian/skatepark/internal/adapters/mq/worker"
	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/chance"
	"github.com/okian/skatepark/internal/domain/progression"
	"github.com/okian/skatepark/internal/domain/session"
	"github.com/okian/skatepark/internal/domain/types"
	"github.com/okian/skatepark/pkg/logger"
)

// SimulateRequest describes a standalone session run to the end.
type SimulateRequest struct {
	Seed    uint64           `json:"seed"`
	Kind    session.Kind     `json:"kind"`
	Tier    progression.Tier `json:"tier"`
	Sport   catalog.Sport    `json:"sport,omitempty"`
	Skaters int              `json:"skaters"`
}

// SimulateResult is the outcome of one simulated session.
type SimulateResult struct {
	Summary types.Summary `json:"summary"`
	State   session.State `json:"state"`
}

// Simulate runs one session with freshly generated skaters to the end. It
// does not touch the registry, the pool, the leaderboard or the archive, and
// does not need Start.
func (s *Service) Simulate(ctx context.Context, req SimulateRequest) (SimulateResult, error) {
	if req.Kind == "" {
		req.Kind = session.Normal
	}
	if req.Tier == "" {
		req.Tier = progression.Beginner
	}
	kind, err := session.ParseKind(string(req.Kind))
	if err != nil {
		return SimulateResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	tier, err := progression.ParseTier(string(req.Tier))
	if err != nil {
		return SimulateResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	req.Kind, req.Tier = kind, tier
	if req.Skaters < 0 || req.Skaters > MaxGenerate {
		return SimulateResult{}, fmt.Errorf("%w: skaters must be between 0 and %d", ErrInvalidRequest, MaxGenerate)
	}
	if req.Seed == 0 {
		req.Seed = s.nextSeed()
	}

	src := chance.NewSeeded(req.Seed)
	sched := session.NewScheduler(s.catalog, s.park, src)
	n := req.Skaters
	if n == 0 {
		n = sched.Capacity()
	}
	skaters, err := s.generate(src, n, req.Sport, req.Tier)
	if err != nil {
		return SimulateResult{}, err
	}
	st, err := sched.Start(req.Kind, skaters)
	if err != nil {
		return SimulateResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	sess := session.New("sim-"+strconv.FormatUint(req.Seed, 10), req.Seed, sched, st)
	st, err = sess.Run(ctx)
	if err != nil {
		return SimulateResult{}, err
	}
	return SimulateResult{Summary: summarize(sess, st), State: st}, nil
}

// BatchRequest describes many independent simulated sessions.
type BatchRequest struct {
	Runs    int              `json:"runs"`
	Workers int              `json:"workers"`
	Seed    uint64           `json:"seed"`
	Kind    session.Kind     `json:"kind"`
	Tier    progression.Tier `json:"tier"`
	Sport   catalog.Sport    `json:"sport,omitempty"`
	Skaters int              `json:"skaters"`
}

// BatchReport aggregates a batch.
type BatchReport struct {
	Seed       uint64        `json:"seed" yaml:"seed"`
	Runs       int           `json:"runs" yaml:"runs"`
	Failed     int           `json:"failed" yaml:"failed"`
	Attempts   int           `json:"attempts" yaml:"attempts"`
	Landed     int           `json:"landed" yaml:"landed"`
	LandRate   float64       `json:"landRate" yaml:"landRate"`
	Points     int           `json:"points" yaml:"points"`
	MeanPoints float64       `json:"meanPoints" yaml:"meanPoints"`
	Retries    int           `json:"retries" yaml:"retries"`
	NoAttempts int           `json:"noAttempts" yaml:"noAttempts"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Batch runs req.Runs seeded sessions on a worker pool. Each session gets
// its own goroutine-local source, so the report depends only on the seed.
func (s *Service) Batch(ctx context.Context, req BatchRequest) (BatchReport, error) {
	if req.Runs < 1 {
		return BatchReport{}, fmt.Errorf("%w: runs must be positive", ErrInvalidRequest)
	}
	if req.Workers < 1 {
		req.Workers = s.batchWorkers
	}
	if req.Seed == 0 {
		req.Seed = s.nextSeed()
	}
	start := time.Now()

	q := queue.NewInMemoryQueue(queue.WithCapacity(min(req.Runs, s.batchQueueSize)), queue.WithMetrics(s.metrics))
	agg := &aggregate{}
	pool := worker.NewPool(min(req.Workers, req.Runs), q, simRunner{s}, agg,
		worker.WithLogger(s.logger),
		worker.WithMetrics(s.metrics),
	)
	pool.Start(ctx)

	seeds := chance.NewSeeded(req.Seed)
	var submitErr error
	for i := range req.Runs {
		j := queue.Job{
			ID:      strconv.Itoa(i),
			Seed:    uint64(seeds.IntN(math.MaxInt)) + 1,
			Kind:    string(req.Kind),
			Tier:    string(req.Tier),
			Sport:   string(req.Sport),
			Skaters: req.Skaters,
		}
		if submitErr = q.Submit(ctx, j); submitErr != nil {
			break
		}
	}
	_ = q.Close()
	pool.Wait()

	report := agg.report()
	report.Seed = req.Seed
	report.Elapsed = time.Since(start)
	if submitErr != nil {
		return report, submitErr
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	s.logger.Info(ctx, "batch finished",
		logger.Int("runs", report.Runs),
		logger.Int("failed", report.Failed),
		logger.Float64("landRate", report.LandRate),
		logger.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

// simRunner adapts Simulate to the worker pool.
type simRunner struct{ svc *Service }

func (r simRunner) Run(ctx context.Context, j queue.Job) (types.Summary, error) {
	res, err := r.svc.Simulate(ctx, SimulateRequest{
		Seed:    j.Seed,
		Kind:    session.Kind(j.Kind),
		Tier:    progression.Tier(j.Tier),
		Sport:   catalog.Sport(j.Sport),
		Skaters: j.Skaters,
	})
	if err != nil {
		return types.Summary{}, err
	}
	return res.Summary, nil
}

// aggregate is the batch sink.
type aggregate struct {
	mu sync.Mutex
	r  BatchReport
}

func (a *aggregate) Record(_ context.Context, _ queue.Job, sum types.Summary, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.r.Runs++
	if err != nil {
		a.r.Failed++
		return
	}
	a.r.Attempts += sum.Attempts
	a.r.Landed += sum.Landed
	a.r.Points += sum.Points
	a.r.Retries += sum.Retries
	a.r.NoAttempts += sum.NoAttempts
}

func (a *aggregate) report() BatchReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := a.r
	if r.Attempts > 0 {
		r.LandRate = float64(r.Landed) / float64(r.Attempts)
	}
	if ok := r.Runs - r.Failed; ok > 0 {
		r.MeanPoints = float64(r.Points) / float64(ok)
	}
	return r
}
