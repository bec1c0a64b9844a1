// Package repository holds the simulator's stores: the all-time leaderboard,
// the live session registry and the sqlite archive of ended sessions.
package repository

import (
	"context"

	"github.com/okian/skatepark/internal/domain/types"
)

// Leaderboard accumulates points per skater across sessions.
type Leaderboard interface {
	// Add credits points from one session to a skater and returns the
	// skater's new entry.
	Add(ctx context.Context, skaterID, name string, points int) (types.Entry, error)

	// Rank returns the current rank and points for a skater.
	// Returns ErrNotFound if the skater is unknown.
	Rank(ctx context.Context, skaterID string) (types.Entry, error)

	// TopN returns the top-N entries ordered by points desc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of skaters on the leaderboard.
	Count(ctx context.Context) int
}
