package api

import (
	"context"
	"net/http"
)

// StatsProvider reports service counters: live and ended sessions, pool
// size, leaderboard skaters, remembered tick keys and the configured limits.
type StatsProvider interface {
	Stats(ctx context.Context) map[string]any
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler returns a handler reading from p.
func NewStatsHandler(p StatsProvider) *StatsHandler {
	return &StatsHandler{provider: p}
}

// HandleStats writes the current counters.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.Stats(r.Context()))
}
