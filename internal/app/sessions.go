package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/chance"
	"github.com/okian/skatepark/internal/domain/model"
	"github.com/okian/skatepark/internal/domain/progression"
	"github.com/okian/skatepark/internal/domain/roster"
	"github.com/okian/skatepark/internal/domain/session"
	"github.com/okian/skatepark/internal/domain/types"
	"github.com/okian/skatepark/pkg/logger"
)

// StartRequest describes a new session.
type StartRequest struct {
	Kind session.Kind `json:"kind"`
	// Seed makes the session reproducible. Zero draws one.
	Seed uint64 `json:"seed,omitempty"`
	// Skaters is the number of generated skaters of a beginner session;
	// zero picks 2..capacity.
	Skaters int `json:"skaters,omitempty"`
	// Sport fixes the sport of generated skaters; empty picks per skater.
	Sport catalog.Sport `json:"sport,omitempty"`
	// SkaterIDs names the pool skaters of a normal session; empty draws up
	// to capacity at random.
	SkaterIDs []string `json:"skaterIds,omitempty"`
}

// StartSession creates, starts and registers a session.
func (s *Service) StartSession(ctx context.Context, req StartRequest) (*session.Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if req.Kind == "" {
		req.Kind = session.Normal
	}
	kind, err := session.ParseKind(string(req.Kind))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	req.Kind = kind
	if req.Seed == 0 {
		req.Seed = s.nextSeed()
	}

	src := chance.NewSeeded(req.Seed)
	opts := []session.Option{}
	if s.pacing > 0 {
		opts = append(opts, session.WithMoveObserver(pacer(s.pacing)))
	}
	sched := session.NewScheduler(s.catalog, s.park, src, opts...)

	var skaters []model.Skater
	switch req.Kind {
	case session.Beginner:
		skaters, err = s.beginners(src, sched.Capacity(), req)
	case session.Normal:
		skaters, err = s.fromPool(src, sched.Capacity(), req.SkaterIDs)
	}
	if err != nil {
		return nil, err
	}

	st, err := sched.Start(req.Kind, skaters)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	sess := session.New(uuid.NewString(), req.Seed, sched, st)
	if err := s.sessions.Put(sess); err != nil {
		s.metrics.Error("service", "store_full")
		return nil, err
	}

	s.metrics.SessionStarted(string(req.Kind))
	s.logger.Info(ctx, "session started",
		logger.String("session", sess.ID),
		logger.String("kind", string(req.Kind)),
		logger.Uint64("seed", req.Seed),
		logger.Int("skaters", len(skaters)),
	)
	return sess, nil
}

// beginners generates the skaters of a beginner session from the session's
// own source, so the roster follows from the seed.
func (s *Service) beginners(src chance.Source, capacity int, req StartRequest) ([]model.Skater, error) {
	n := req.Skaters
	switch {
	case n < 0 || n > max(capacity, 2):
		return nil, fmt.Errorf("%w: skaters must be between 0 and %d", ErrInvalidRequest, max(capacity, 2))
	case n == 0:
		n = chance.Between(src, 2, max(capacity, 2))
	}
	return s.generate(src, n, req.Sport, progression.Beginner)
}

func (s *Service) fromPool(src chance.Source, capacity int, ids []string) ([]model.Skater, error) {
	if len(ids) == 0 {
		return s.pool.Draw(src, capacity), nil
	}
	if len(ids) > capacity {
		return nil, fmt.Errorf("%w: %d skaters named, park holds %d", ErrInvalidRequest, len(ids), capacity)
	}
	out := make([]model.Skater, 0, len(ids))
	for _, id := range ids {
		sk, err := s.pool.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, sk)
	}
	return out, nil
}

// Session returns a registered session.
func (s *Service) Session(id string) (*session.Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.sessions.Get(id)
}

// Sessions lists registered sessions, oldest first.
func (s *Service) Sessions() ([]*session.Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.sessions.List(), nil
}

// Tick advances a session by one tick. A non-empty key makes the request
// idempotent: repeating it returns the current snapshot without ticking
// again, and repeating it while the first is still running fails with
// session.ErrTickRunning.
func (s *Service) Tick(ctx context.Context, id, key string) (session.State, error) {
	sess, err := s.Session(id)
	if err != nil {
		return session.State{}, err
	}
	if key == "" {
		return s.advance(ctx, sess)
	}

	dk := id + "/" + key
	res, seen := s.deduper.Claim(ctx, dk)
	if seen {
		s.metrics.TickDeduplicated()
		if res.Pending {
			return session.State{}, session.ErrTickRunning
		}
		s.logger.Debug(ctx, "repeated tick request", logger.String("session", id), logger.Int("tick", res.Tick))
		return sess.Snapshot(), nil
	}
	st, err := s.advance(ctx, sess)
	if err != nil {
		s.deduper.Release(ctx, dk)
		return st, err
	}
	s.deduper.Complete(ctx, dk, st.Tick)
	return st, nil
}

// Run ticks a session until it ends.
func (s *Service) Run(ctx context.Context, id string) (session.State, error) {
	sess, err := s.Session(id)
	if err != nil {
		return session.State{}, err
	}
	for {
		st, err := s.advance(ctx, sess)
		if err != nil || st.Phase == session.Ended {
			return st, err
		}
	}
}

// End stops a session. Ending an ended session returns its final snapshot.
func (s *Service) End(ctx context.Context, id string) (session.State, error) {
	sess, err := s.Session(id)
	if err != nil {
		return session.State{}, err
	}
	st := sess.End()
	s.finish(ctx, sess, st)
	return st, nil
}

// Delete ends a session if needed and drops it from the registry.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.End(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Delete(id); err != nil {
		return err
	}
	s.logger.Info(ctx, "session deleted", logger.String("session", id))
	return nil
}

// Recruit moves one candidate of an ended beginner session into the pool.
// Each beginner session yields a single recruit.
func (s *Service) Recruit(ctx context.Context, sessionID, skaterID string) (model.Skater, error) {
	sess, err := s.Session(sessionID)
	if err != nil {
		return model.Skater{}, err
	}
	st := sess.Snapshot()
	if st.Kind != session.Beginner {
		return model.Skater{}, ErrNotBeginner
	}
	if st.Phase != session.Ended {
		return model.Skater{}, ErrNotEnded
	}
	if skaterID == "" {
		return model.Skater{}, fmt.Errorf("%w: skater id required", ErrInvalidRequest)
	}

	var picked model.Skater
	found := false
	for _, c := range st.Candidates() {
		if c.ID == skaterID {
			picked, found = c, true
			break
		}
	}
	if !found {
		return model.Skater{}, fmt.Errorf("%w: %s", roster.ErrSkaterNotFound, skaterID)
	}

	s.finishedMu.Lock()
	defer s.finishedMu.Unlock()
	if prev, ok := s.recruited[sessionID]; ok {
		return model.Skater{}, fmt.Errorf("%w: %s took %s", ErrRecruited, sessionID, prev)
	}
	if err := s.pool.Add(picked); err != nil {
		return model.Skater{}, err
	}
	s.recruited[sessionID] = picked.ID
	s.logger.Info(ctx, "skater recruited",
		logger.String("session", sessionID),
		logger.String("skater", picked.ID),
		logger.Int("pool", s.pool.Len()),
	)
	return picked, nil
}

func (s *Service) advance(ctx context.Context, sess *session.Session) (session.State, error) {
	start := time.Now()
	st, err := sess.Tick(ctx)
	if err != nil {
		s.metrics.Error("session", errorType(err))
		return st, err
	}
	s.metrics.Tick(time.Since(start))

	for i := len(st.Log) - 1; i >= 0 && st.Log[i].Tick == st.Tick; i-- {
		a := st.Log[i]
		s.metrics.Attempt(string(a.Type), a.Landed, a.Retry, a.NoAttempt, a.Points)
	}
	s.metrics.Unassigned(len(st.Unassigned))
	s.logger.Debug(ctx, "tick",
		logger.String("session", sess.ID),
		logger.Int("tick", st.Tick),
		logger.Int("assigned", len(st.Assignments)),
		logger.Int("unassigned", len(st.Unassigned)),
	)

	if st.Phase == session.Ended {
		s.finish(ctx, sess, st)
	}
	return st, nil
}

// finish credits the leaderboard and archives an ended session. It runs once
// per session; a failed archive write is logged and does not fail the caller.
func (s *Service) finish(ctx context.Context, sess *session.Session, st session.State) {
	s.finishedMu.Lock()
	if s.finished[sess.ID] {
		s.finishedMu.Unlock()
		return
	}
	s.finished[sess.ID] = true
	s.finishedMu.Unlock()

	ctx = context.WithoutCancel(ctx)
	s.metrics.SessionEnded(string(st.Kind))

	for _, row := range st.Scoreboard() {
		if _, err := s.leaderboard.Add(ctx, row.SkaterID, row.Name, row.Points); err != nil {
			s.metrics.Error("leaderboard", errorType(err))
			s.logger.Error(ctx, "leaderboard update failed", logger.String("skater", row.SkaterID), logger.Error(err))
		}
	}

	sum := summarize(sess, st)
	if s.archive != nil {
		if err := s.archive.Save(ctx, sum, st.Log); err != nil {
			s.metrics.Error("archive", "save_failed")
			s.logger.Error(ctx, "archive write failed", logger.String("session", sess.ID), logger.Error(err))
		}
	}
	s.logger.Info(ctx, "session ended",
		logger.String("session", sess.ID),
		logger.Int("ticks", sum.Ticks),
		logger.Int("attempts", sum.Attempts),
		logger.Float64("landRate", sum.LandRate()),
		logger.Int("points", sum.Points),
	)
}

func summarize(sess *session.Session, st session.State) types.Summary {
	t := st.Totals()
	ended := sess.EndedAt()
	if ended.IsZero() {
		ended = time.Now()
	}
	return types.Summary{
		ID:         sess.ID,
		Kind:       string(st.Kind),
		Seed:       sess.Seed,
		Ticks:      st.Tick,
		Skaters:    len(st.Entrants),
		Attempts:   t.Attempts,
		Landed:     t.Landed,
		Retries:    t.Retries,
		NoAttempts: t.NoAttempts,
		Points:     t.Points,
		StartedAt:  sess.CreatedAt,
		EndedAt:    ended,
	}
}

func (s *Service) recordSpend(sk model.Skater) {
	spent := 0
	for _, t := range catalog.Types {
		spent += sk.Library.Spent(t)
	}
	s.metrics.LibrarySpend(string(sk.Tier), spent)
}

// pacer delays every tile step by d, giving up when ctx ends.
func pacer(d time.Duration) session.MoveObserver {
	return func(ctx context.Context, _ session.Move) error {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, session.ErrSessionEnded):
		return "session_ended"
	case errors.Is(err, session.ErrTickRunning):
		return "tick_running"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "context"
	default:
		return "internal"
	}
}
