package service

import (
	"fmt"
	"time"

	repository "github.com/okian/skatepark/internal/adapters/repository"
	"github.com/okian/skatepark/internal/config"
	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/park"
	"github.com/okian/skatepark/pkg/logger"
	"github.com/okian/skatepark/pkg/metrics"
)

// NewFromConfig builds a service from process configuration, loading the
// catalog and park overrides and opening the archive when configured.
func NewFromConfig(cfg *config.Config, log logger.Logger, m *metrics.Manager) (*Service, error) {
	opts := []Option{
		WithSeed(cfg.Seed),
		WithLookahead(cfg.LookaheadDepth),
		WithTierBudgets(cfg.TierBudgets.Beginner, cfg.TierBudgets.Medium, cfg.TierBudgets.Pro),
		WithPacing(time.Duration(cfg.TickPacingMS) * time.Millisecond),
		WithMaxSessions(cfg.MaxSessions),
		WithDedupeSize(cfg.DedupeSize),
		WithBatch(cfg.BatchWorkers, cfg.BatchQueueSize),
		WithLogger(log),
		WithMetrics(m),
	}

	if cfg.CatalogPath != "" {
		cat, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCatalog(cat))
	}

	if cfg.ObstaclesPath != "" || cfg.LayoutPath != "" {
		p, err := LoadPark(cfg.ObstaclesPath, cfg.LayoutPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithPark(p))
	}

	if cfg.ArchivePath != "" {
		a, err := repository.OpenArchive(cfg.ArchivePath, repository.WithArchiveMetrics(m))
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithArchive(a))
	}

	return New(opts...), nil
}

// LoadPark builds a park from optional obstacle and layout files, falling back
// to the built-in ones for an empty path.
func LoadPark(obstaclesPath, layoutPath string) (*park.Park, error) {
	obstacles := park.DefaultObstacles()
	if obstaclesPath != "" {
		o, err := park.LoadObstaclesFile(obstaclesPath)
		if err != nil {
			return nil, err
		}
		obstacles = o
	}
	layout := park.Default().Layout()
	if layoutPath != "" {
		l, err := park.LoadLayoutFile(layoutPath)
		if err != nil {
			return nil, err
		}
		layout = l
	}
	p, err := park.New(obstacles, layout)
	if err != nil {
		return nil, fmt.Errorf("build park: %w", err)
	}
	return p, nil
}
