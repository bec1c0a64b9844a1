package api

import (
	"context"
	"net/http"

	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/model"
	"github.com/okian/skatepark/internal/domain/progression"
)

// SkaterDependencies defines the pool operations the handlers call.
type SkaterDependencies interface {
	GenerateSkaters(ctx context.Context, n int, sport catalog.Sport, tier progression.Tier) ([]model.Skater, error)
	Skaters() ([]model.Skater, error)
	Skater(id string) (model.Skater, error)
}

// SkatersHandler serves /skaters.
type SkatersHandler struct {
	responder
	deps SkaterDependencies
}

type generateRequest struct {
	Count int    `json:"count"`
	Sport string `json:"sport"`
	Tier  string `json:"tier"`
}

// HandleGenerate handles POST /skaters.
func (h *SkatersHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	const op = "api.generate_skaters"
	req := generateRequest{Count: 1, Tier: string(progression.Beginner)}
	if err := decode(r, &req); err != nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	tier, err := progression.ParseTier(req.Tier)
	if err != nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	skaters, err := h.deps.GenerateSkaters(r.Context(), req.Count, catalog.Sport(req.Sport), tier)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, skaters)
}

// HandleList handles GET /skaters.
func (h *SkatersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	skaters, err := h.deps.Skaters()
	if err != nil {
		h.fail(w, r, Wrap("api.list_skaters", err))
		return
	}
	writeJSON(w, http.StatusOK, skaters)
}

// HandleGet handles GET /skaters/{id}.
func (h *SkatersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sk, err := h.deps.Skater(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, Wrap("api.get_skater", err))
		return
	}
	writeJSON(w, http.StatusOK, sk)
}
