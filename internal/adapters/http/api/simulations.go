package api

import (
	"context"
	"net/http"

	service "github.com/okian/skatepark/internal/app"
)

// MaxBatchRuns caps POST /batches.
const MaxBatchRuns = 10_000

// SimulationDependencies defines the standalone runs the handlers call.
type SimulationDependencies interface {
	Simulate(ctx context.Context, req service.SimulateRequest) (service.SimulateResult, error)
	Batch(ctx context.Context, req service.BatchRequest) (service.BatchReport, error)
}

// SimulationsHandler serves /simulations and /batches.
type SimulationsHandler struct {
	responder
	deps SimulationDependencies
}

// HandleSimulate handles POST /simulations.
func (h *SimulationsHandler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "api.simulate"
	var req service.SimulateRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Simulate(r.Context(), req)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleBatch handles POST /batches.
func (h *SimulationsHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.batch"
	var req service.BatchRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Runs > MaxBatchRuns {
		h.fail(w, r, NewKind(op, ErrLimitExceeded))
		return
	}
	rep, err := h.deps.Batch(r.Context(), req)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
