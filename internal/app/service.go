// Package service hosts skatepark sessions: it creates and advances them,
// keeps the recruited skater pool, credits the all-time leaderboard and
// archives ended sessions. The HTTP API and the CLI both drive it.
package service

import (
	"context"
	"math"
	"sync"
	"time"

	repository "github.com/okian/skatepark/internal/adapters/repository"
	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/chance"
	"github.com/okian/skatepark/internal/domain/dedupe"
	"github.com/okian/skatepark/internal/domain/model"
	"github.com/okian/skatepark/internal/domain/park"
	"github.com/okian/skatepark/internal/domain/progression"
	"github.com/okian/skatepark/internal/domain/roster"
	"github.com/okian/skatepark/internal/domain/types"
	"github.com/okian/skatepark/pkg/logger"
	"github.com/okian/skatepark/pkg/metrics"
)

// Archiver persists ended sessions.
type Archiver interface {
	Save(ctx context.Context, sum types.Summary, log []model.Attempt) error
	Summary(ctx context.Context, id string) (types.Summary, error)
	Sessions(ctx context.Context, limit int) ([]types.Summary, error)
	Attempts(ctx context.Context, sessionID string) ([]model.Attempt, error)
	Close() error
}

// Service implements the API dependencies for the simulator.
type Service struct {
	mu sync.RWMutex

	// Static world
	catalog *catalog.Catalog
	park    *park.Park

	// Core components
	sessions    *repository.SessionStore
	leaderboard repository.Leaderboard
	archive     Archiver
	deduper     dedupe.Deduper
	pool        *roster.Pool

	// Service-level randomness: session seeds and pool generation.
	genMu sync.Mutex
	src   chance.Source

	// Configuration
	seed           uint64
	lookahead      int
	budgets        [3]int
	pacing         time.Duration
	maxSessions    int
	dedupeSize     int
	batchWorkers   int
	batchQueueSize int

	finishedMu sync.Mutex
	finished   map[string]bool
	// recruited maps a beginner session to the one skater taken from it.
	recruited map[string]string

	started bool

	logger  logger.Logger
	metrics *metrics.Manager
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCatalog replaces the built-in trick catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithPark replaces the built-in park.
func WithPark(p *park.Park) Option {
	return func(s *Service) {
		if p != nil {
			s.park = p
		}
	}
}

// WithSeed fixes the service random source that session seeds and pool
// skaters are drawn from. Zero seeds from the clock.
func WithSeed(seed uint64) Option {
	return func(s *Service) { s.seed = seed }
}

// WithLookahead sets the library builder's search depth.
func WithLookahead(depth int) Option {
	return func(s *Service) { s.lookahead = depth }
}

// WithTierBudgets overrides the per-type budget of each tier; zero keeps
// the stock value.
func WithTierBudgets(beginner, medium, pro int) Option {
	return func(s *Service) { s.budgets = [3]int{beginner, medium, pro} }
}

// WithPacing delays every tile step of a live session's moves.
func WithPacing(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.pacing = d
		}
	}
}

// WithMaxSessions caps the sessions kept in memory.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithDedupeSize sets the number of remembered tick idempotency keys.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithBatch sets the default worker count and queue size of batch runs.
func WithBatch(workers, queueSize int) Option {
	return func(s *Service) {
		if workers > 0 {
			s.batchWorkers = workers
		}
		if queueSize > 0 {
			s.batchQueueSize = queueSize
		}
	}
}

// WithArchive enables archiving of ended sessions.
func WithArchive(a Archiver) Option {
	return func(s *Service) { s.archive = a }
}

// WithLeaderboard replaces the in-memory leaderboard.
func WithLeaderboard(l repository.Leaderboard) Option {
	return func(s *Service) { s.leaderboard = l }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		catalog:        catalog.Default(),
		park:           park.Default(),
		lookahead:      progression.DefaultLookahead,
		maxSessions:    256,
		dedupeSize:     10_000,
		batchWorkers:   4,
		batchQueueSize: 1_000,
		finished:       map[string]bool{},
		recruited:      map[string]string{},
		metrics:        metrics.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.seed == 0 {
		s.seed = uint64(time.Now().UnixNano())
	}
	s.src = chance.NewSeeded(s.seed)
	return s
}

// Start initializes the stores.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.sessions = repository.NewSessionStore(s.maxSessions)
	if s.leaderboard == nil {
		s.leaderboard = repository.NewTreapStore(repository.WithMetrics(s.metrics))
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.pool = roster.NewPool()

	s.started = true
	s.logger.Info(ctx, "skatepark service started",
		logger.Uint64("seed", s.seed),
		logger.Int("targets", len(s.park.Targets())),
		logger.Int("capacity", s.park.Capacity()),
		logger.Int("maxSessions", s.maxSessions),
		logger.Bool("archive", s.archive != nil),
	)
	return nil
}

// Stop releases the archive. Sessions are dropped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			s.logger.Error(context.Background(), "closing archive", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "skatepark service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Catalog returns the trick catalog in use.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Park returns the park in use.
func (s *Service) Park() *park.Park { return s.park }

// builder returns a library builder over src honoring the configured
// budgets and lookahead.
func (s *Service) builder(src chance.Source) *progression.Builder {
	return progression.NewBuilder(s.catalog, src,
		progression.WithLookahead(s.lookahead),
		progression.WithBudgets(s.budgets[0], s.budgets[1], s.budgets[2]),
	)
}

// nextSeed draws a session seed from the service source.
func (s *Service) nextSeed() uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return uint64(s.src.IntN(math.MaxInt)) + 1
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"maxSessions": s.maxSessions,
		"dedupeSize":  s.dedupeSize,
		"capacity":    s.park.Capacity(),
		"targets":     len(s.park.Targets()),
		"archive":     s.archive != nil,
	}
	if !s.started {
		return stats
	}

	live, ended := 0, 0
	for _, sess := range s.sessions.List() {
		if sess.EndedAt().IsZero() {
			live++
		} else {
			ended++
		}
	}
	stats["liveSessions"] = live
	stats["endedSessions"] = ended
	stats["poolSize"] = s.pool.Len()
	stats["leaderboardSkaters"] = s.leaderboard.Count(ctx)
	stats["idempotencyKeys"] = s.deduper.Size()
	return stats
}
