package api

import (
	"context"
	"net/http"
	"time"

	service "github.com/okian/skatepark/internal/app"
	"github.com/okian/skatepark/internal/domain/model"
	"github.com/okian/skatepark/internal/domain/session"
)

// IdempotencyHeader carries the client key of a tick request.
const IdempotencyHeader = "Idempotency-Key"

// SessionDependencies defines the session operations the handlers call.
type SessionDependencies interface {
	StartSession(ctx context.Context, req service.StartRequest) (*session.Session, error)
	Session(id string) (*session.Session, error)
	Sessions() ([]*session.Session, error)
	Tick(ctx context.Context, id, key string) (session.State, error)
	Run(ctx context.Context, id string) (session.State, error)
	End(ctx context.Context, id string) (session.State, error)
	Delete(ctx context.Context, id string) error
	Recruit(ctx context.Context, sessionID, skaterID string) (model.Skater, error)
}

// SessionsHandler serves /sessions.
type SessionsHandler struct {
	responder
	deps SessionDependencies
}

// sessionResponse is the read shape of a session.
type sessionResponse struct {
	ID             string        `json:"id"`
	Seed           uint64        `json:"seed"`
	CreatedAt      time.Time     `json:"createdAt"`
	EndedAt        *time.Time    `json:"endedAt,omitempty"`
	Running        bool          `json:"running"`
	PendingRetries int           `json:"pendingRetries"`
	State          session.State `json:"state"`
}

// sessionSummary is the list shape of a session.
type sessionSummary struct {
	ID        string        `json:"id"`
	Kind      session.Kind  `json:"kind"`
	Phase     session.Phase `json:"phase"`
	Tick      int           `json:"tick"`
	Skaters   int           `json:"skaters"`
	CreatedAt time.Time     `json:"createdAt"`
}

func newSessionResponse(sess *session.Session, st session.State) sessionResponse {
	resp := sessionResponse{
		ID:             sess.ID,
		Seed:           sess.Seed,
		CreatedAt:      sess.CreatedAt,
		Running:        sess.Running(),
		PendingRetries: st.PendingRetries(),
		State:          st,
	}
	if t := sess.EndedAt(); !t.IsZero() {
		resp.EndedAt = &t
	}
	return resp
}

// HandleCreate handles POST /sessions.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req service.StartRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	sess, err := h.deps.StartSession(r.Context(), req)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, newSessionResponse(sess, sess.Snapshot()))
}

// HandleList handles GET /sessions.
func (h *SessionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Sessions()
	if err != nil {
		h.fail(w, r, Wrap("api.list_sessions", err))
		return
	}
	out := make([]sessionSummary, 0, len(list))
	for _, sess := range list {
		st := sess.Snapshot()
		out = append(out, sessionSummary{
			ID:        sess.ID,
			Kind:      st.Kind,
			Phase:     st.Phase,
			Tick:      st.Tick,
			Skaters:   len(st.Entrants),
			CreatedAt: sess.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r, "api.get_session")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess, sess.Snapshot()))
}

// HandleDelete handles DELETE /sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, Wrap("api.delete_session", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTick handles POST /sessions/{id}/ticks. An Idempotency-Key header
// makes retries of the same request safe.
func (h *SessionsHandler) HandleTick(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "api.tick_session", func(ctx context.Context, id string) (session.State, error) {
		return h.deps.Tick(ctx, id, r.Header.Get(IdempotencyHeader))
	})
}

// HandleRun handles POST /sessions/{id}/run.
func (h *SessionsHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "api.run_session", h.deps.Run)
}

// HandleEnd handles POST /sessions/{id}/end.
func (h *SessionsHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "api.end_session", h.deps.End)
}

func (h *SessionsHandler) transition(w http.ResponseWriter, r *http.Request, op string,
	fn func(ctx context.Context, id string) (session.State, error),
) {
	id := r.PathValue("id")
	st, err := fn(r.Context(), id)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	sess, err := h.deps.Session(id)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess, st))
}

// HandleAttempts handles GET /sessions/{id}/attempts.
func (h *SessionsHandler) HandleAttempts(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, func(st session.State) any { return st.Attempts() })
}

// HandleTimeline handles GET /sessions/{id}/timeline.
func (h *SessionsHandler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, func(st session.State) any { return st.Timeline() })
}

// HandleRuns handles GET /sessions/{id}/runs.
func (h *SessionsHandler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, func(st session.State) any { return st.Runs() })
}

// positionEntry places one skater on the grid.
type positionEntry struct {
	SkaterID   string     `json:"skaterId"`
	Tile       model.Tile `json:"tile"`
	Coordinate string     `json:"coordinate"`
}

// HandlePositions handles GET /sessions/{id}/positions. While a tick runs
// the skaters are reported on the tile they have reached.
func (h *SessionsHandler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r, "api.session_positions")
	if !ok {
		return
	}
	st, pos := sess.Snapshot(), sess.Positions()
	out := make([]positionEntry, 0, len(pos))
	for _, e := range st.Entrants {
		if t, ok := pos[e.Skater.ID]; ok {
			out = append(out, positionEntry{SkaterID: e.Skater.ID, Tile: t, Coordinate: t.Coordinate()})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleScoreboard handles GET /sessions/{id}/scoreboard.
func (h *SessionsHandler) HandleScoreboard(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, func(st session.State) any {
		return struct {
			Standings []session.Standing `json:"standings"`
			Totals    session.Totals     `json:"totals"`
		}{st.Scoreboard(), st.Totals()}
	})
}

// HandleCandidates handles GET /sessions/{id}/candidates.
func (h *SessionsHandler) HandleCandidates(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, func(st session.State) any {
		c := st.Candidates()
		if c == nil {
			c = []model.Skater{}
		}
		return c
	})
}

type recruitRequest struct {
	SkaterID string `json:"skaterId"`
}

// HandleRecruit handles POST /sessions/{id}/recruit.
func (h *SessionsHandler) HandleRecruit(w http.ResponseWriter, r *http.Request) {
	const op = "api.recruit"
	var req recruitRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	picked, err := h.deps.Recruit(r.Context(), r.PathValue("id"), req.SkaterID)
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, picked)
}

func (h *SessionsHandler) view(w http.ResponseWriter, r *http.Request, fn func(session.State) any) {
	sess, ok := h.lookup(w, r, "api.session_view")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, fn(sess.Snapshot()))
}

func (h *SessionsHandler) lookup(w http.ResponseWriter, r *http.Request, op string) (*session.Session, bool) {
	sess, err := h.deps.Session(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, Wrap(op, err))
		return nil, false
	}
	return sess, true
}
