package api

import (
	"context"
	"net/http"

	"github.com/okian/skatepark/internal/domain/model"
	"github.com/okian/skatepark/internal/domain/types"
)

// ArchiveDependencies defines the archive reads the handlers call.
type ArchiveDependencies interface {
	ArchivedSessions(ctx context.Context, limit int) ([]types.Summary, error)
	ArchivedSession(ctx context.Context, id string) (types.Summary, error)
	ArchivedAttempts(ctx context.Context, id string) ([]model.Attempt, error)
}

// ArchiveHandler serves /archive.
type ArchiveHandler struct {
	responder
	deps     ArchiveDependencies
	maxLimit int
}

// HandleList handles GET /archive/sessions?limit=N.
func (h *ArchiveHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.archive_sessions"
	n, err := limitParam(r, 20, h.maxLimit)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	list, err := h.deps.ArchivedSessions(r.Context(), n)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	if list == nil {
		list = []types.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGet handles GET /archive/sessions/{id}.
func (h *ArchiveHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sum, err := h.deps.ArchivedSession(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, Wrap("api.archive_session", err))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleAttempts handles GET /archive/sessions/{id}/attempts.
func (h *ArchiveHandler) HandleAttempts(w http.ResponseWriter, r *http.Request) {
	log, err := h.deps.ArchivedAttempts(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, Wrap("api.archive_attempts", err))
		return
	}
	if log == nil {
		log = []model.Attempt{}
	}
	writeJSON(w, http.StatusOK, log)
}
