// Package config defines the simulator configuration and its loader.
package config

import (
	"fmt"
	"runtime"

	"github.com/okian/skatepark/pkg/logger"
)

// TierBudgets overrides the per-type unlock budget of each tier. Zero keeps
// the builder's stock budget.
type TierBudgets struct {
	Beginner int `koanf:"beginner"`
	Medium   int `koanf:"medium"`
	Pro      int `koanf:"pro"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Seed fixes the random source. Zero seeds from the clock.
	Seed uint64 `koanf:"seed"`

	// LookaheadDepth is the library builder's search depth.
	LookaheadDepth int         `koanf:"lookahead_depth"`
	TierBudgets    TierBudgets `koanf:"tier_budgets"`

	// Optional YAML overrides of the built-in catalogs and layout.
	CatalogPath   string `koanf:"catalog_path"`
	ObstaclesPath string `koanf:"obstacles_path"`
	LayoutPath    string `koanf:"layout_path"`

	// ArchivePath is the sqlite file ended sessions are written to. Empty
	// disables the archive.
	ArchivePath string `koanf:"archive_path"`

	BatchWorkers   int `koanf:"batch_workers"`
	BatchQueueSize int `koanf:"batch_queue_size"`

	// MaxSessions caps the sessions held in memory.
	MaxSessions int `koanf:"max_sessions"`

	// DedupeSize bounds the remembered tick idempotency keys.
	DedupeSize int `koanf:"dedupe_size"`

	// TickPacingMS delays every tile step of a move, 0 runs flat out.
	TickPacingMS int `koanf:"tick_pacing_ms"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// MaxLookahead bounds LookaheadDepth; deeper searches get expensive fast.
const MaxLookahead = 4

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		LookaheadDepth:      2,
		BatchWorkers:        runtime.NumCPU(),
		BatchQueueSize:      1_000,
		MaxSessions:         256,
		DedupeSize:          10_000,
		MaxLeaderboardLimit: 100,
	}
}

// Validate checks ranges and enums.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LookaheadDepth < 0 || c.LookaheadDepth > MaxLookahead:
		return fmt.Errorf("%w: lookahead_depth %d not in 0..%d", ErrInvalidConfig, c.LookaheadDepth, MaxLookahead)
	case c.TierBudgets.Beginner < 0 || c.TierBudgets.Medium < 0 || c.TierBudgets.Pro < 0:
		return fmt.Errorf("%w: tier budgets must not be negative", ErrInvalidConfig)
	case c.BatchWorkers < 1:
		return fmt.Errorf("%w: batch_workers must be positive", ErrInvalidConfig)
	case c.BatchQueueSize < 1:
		return fmt.Errorf("%w: batch_queue_size must be positive", ErrInvalidConfig)
	case c.MaxSessions < 1:
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	case c.DedupeSize < 1:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.TickPacingMS < 0:
		return fmt.Errorf("%w: tick_pacing_ms must not be negative", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	}
	if _, err := logger.ParseFormat(c.LogFormat); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
