package api

import (
	"net/http"
)

// RankHandler handles rank requests.
type RankHandler struct {
	responder
	deps LeaderboardDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps LeaderboardDependencies, r responder) *RankHandler {
	return &RankHandler{responder: r, deps: deps}
}

// HandleGetRank handles GET /rank/{id} requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	entry, err := h.deps.Rank(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, Wrap("api.get_rank", err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
