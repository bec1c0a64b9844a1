package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/skatepark/internal/domain/types"
)

// LeaderboardDependencies defines the interface for leaderboard operations
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, limit int) ([]types.Entry, error)
	Rank(ctx context.Context, skaterID string) (types.Entry, error)
}

// LeaderboardHandler handles leaderboard requests
type LeaderboardHandler struct {
	responder
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int, r responder) *LeaderboardHandler {
	return &LeaderboardHandler{
		responder: r,
		deps:      deps,
		maxLimit:  maxLimit,
	}
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N requests. The limit
// defaults to 10.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	n, err := limitParam(r, 10, h.maxLimit)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	entries, err := h.deps.Leaderboard(r.Context(), n)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// limitParam parses ?limit within 1..maxLimit.
func limitParam(r *http.Request, def, maxLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return min(def, maxLimit), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ErrBadRequest
	}
	if n > maxLimit {
		return 0, ErrLimitExceeded
	}
	return n, nil
}
