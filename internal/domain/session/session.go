package session

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/okian/skatepark/internal/domain/model"
)

// Session pairs a scheduler with its current snapshot. Reads are served from
// the last committed snapshot while a tick runs, except Positions, which
// follows the skaters tile by tile. A second tick is refused until the first
// one finishes.
type Session struct {
	ID        string
	Seed      uint64
	CreatedAt time.Time

	sched   *Scheduler
	mu      sync.RWMutex
	state   State
	running bool
	endedAt time.Time
	// live holds the positions of the tick in progress.
	live map[string]model.Tile
}

// New wraps a started snapshot.
func New(id string, seed uint64, sched *Scheduler, st State) *Session {
	return &Session{ID: id, Seed: seed, CreatedAt: time.Now(), sched: sched, state: st}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Positions returns where each skater stands. During a tick it reflects the
// tile each skater has reached so far.
func (s *Session) Positions() map[string]model.Tile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.live != nil {
		return maps.Clone(s.live)
	}
	return maps.Clone(s.state.Positions)
}

func (s *Session) publish(pos map[string]model.Tile) {
	s.mu.Lock()
	s.live = maps.Clone(pos)
	s.mu.Unlock()
}

// Running reports whether a tick is in progress.
func (s *Session) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// EndedAt is when the session ended, zero while it runs.
func (s *Session) EndedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endedAt
}

// Tick advances the session by one tick.
func (s *Session) Tick(ctx context.Context) (State, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return State{}, ErrTickRunning
	}
	cur := s.state
	s.running = true
	s.mu.Unlock()

	next, err := s.sched.tick(ctx, cur, s.publish)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.live = nil
	if err != nil {
		return cur, err
	}
	if s.state.Phase == Ended {
		// ended from outside while the tick ran
		return s.state, nil
	}
	s.state = next
	if next.Phase == Ended {
		s.endedAt = time.Now()
	}
	return next, nil
}

// Run ticks until the session ends.
func (s *Session) Run(ctx context.Context) (State, error) {
	for {
		st, err := s.Tick(ctx)
		if err != nil {
			return st, err
		}
		if st.Phase == Ended {
			return st, nil
		}
	}
}

// End stops the session. Ending twice is a no-op.
func (s *Session) End() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != Ended {
		s.state = s.sched.End(s.state)
		s.endedAt = time.Now()
	}
	return s.state
}
