package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/chance"
	"github.com/okian/skatepark/internal/domain/model"
	"github.com/okian/skatepark/internal/domain/progression"
	"github.com/okian/skatepark/internal/domain/roster"
	"github.com/okian/skatepark/internal/domain/types"
	"github.com/okian/skatepark/pkg/logger"
)

// MaxGenerate caps the skaters created by one request.
const MaxGenerate = 100

// GenerateSkaters creates n skaters of the tier and adds them to the pool.
// An empty sport picks one per skater.
func (s *Service) GenerateSkaters(ctx context.Context, n int, sport catalog.Sport, tier progression.Tier) ([]model.Skater, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if n < 1 || n > MaxGenerate {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidRequest, MaxGenerate)
	}

	s.genMu.Lock()
	skaters, err := s.generate(s.src, n, sport, tier)
	s.genMu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := s.pool.Add(skaters...); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "skaters generated",
		logger.Int("count", n),
		logger.String("tier", string(tier)),
		logger.Int("pool", s.pool.Len()),
	)
	return skaters, nil
}

// generate draws n skaters from src. Callers own src.
func (s *Service) generate(src chance.Source, n int, sport catalog.Sport, tier progression.Tier) ([]model.Skater, error) {
	sports := s.catalog.Sports()
	if len(sports) == 0 {
		return nil, fmt.Errorf("%w: catalog has no sports", ErrInvalidRequest)
	}
	if sport != "" {
		i := slices.IndexFunc(sports, func(sp catalog.Sport) bool { return strings.EqualFold(string(sp), string(sport)) })
		if i < 0 {
			return nil, fmt.Errorf("%w: %w: %q", ErrInvalidRequest, catalog.ErrUnknownSport, sport)
		}
		sport = sports[i]
	}

	gen := roster.NewGenerator(s.builder(src), src)
	out := make([]model.Skater, 0, n)
	for range n {
		sp := sport
		if sp == "" {
			sp = sports[src.IntN(len(sports))]
		}
		sk, err := gen.Generate(sp, tier)
		if err != nil {
			return nil, err
		}
		s.recordSpend(sk)
		out = append(out, sk)
	}
	return out, nil
}

// Skaters lists the pool in recruitment order.
func (s *Service) Skaters() ([]model.Skater, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.pool.List(), nil
}

// Skater returns one pool skater.
func (s *Service) Skater(id string) (model.Skater, error) {
	if err := s.ready(); err != nil {
		return model.Skater{}, err
	}
	return s.pool.Get(id)
}

// Leaderboard returns the all-time top entries.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]types.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.leaderboard.TopN(ctx, limit)
}

// Rank returns a skater's all-time standing.
func (s *Service) Rank(ctx context.Context, skaterID string) (types.Entry, error) {
	if err := s.ready(); err != nil {
		return types.Entry{}, err
	}
	return s.leaderboard.Rank(ctx, skaterID)
}

// ArchivedSessions lists archived sessions, most recent first.
func (s *Service) ArchivedSessions(ctx context.Context, limit int) ([]types.Summary, error) {
	if s.archive == nil {
		return nil, ErrNoArchive
	}
	return s.archive.Sessions(ctx, limit)
}

// ArchivedSession returns one archived summary.
func (s *Service) ArchivedSession(ctx context.Context, id string) (types.Summary, error) {
	if s.archive == nil {
		return types.Summary{}, ErrNoArchive
	}
	return s.archive.Summary(ctx, id)
}

// ArchivedAttempts returns the attempt log of an archived session.
func (s *Service) ArchivedAttempts(ctx context.Context, id string) ([]model.Attempt, error) {
	if s.archive == nil {
		return nil, ErrNoArchive
	}
	if _, err := s.archive.Summary(ctx, id); err != nil {
		return nil, err
	}
	return s.archive.Attempts(ctx, id)
}
