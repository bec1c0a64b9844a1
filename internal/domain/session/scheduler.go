// Package session runs skatepark sessions as an explicit state machine:
// Start builds the first snapshot, Tick moves one snapshot to the next and
// End stops it. All randomness comes from one source, so a session is
// reproducible from its seed.
package session

import (
	"context"
	"fmt"
	"slices"

	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/chance"
	"github.com/okian/skatepark/internal/domain/model"
	"github.com/okian/skatepark/internal/domain/scoring"
	"github.com/okian/skatepark/internal/domain/selection"
)

// Layout supplies the starting targets and every placed piece.
type Layout interface {
	Targets() []model.RunTarget
	AllPieces() []model.RunPiece
}

// Move is one tile of a skater's traversal.
type Move struct {
	Tick     int        `json:"tick"`
	SkaterID string     `json:"skaterId"`
	TargetID string     `json:"targetId"`
	Tile     model.Tile `json:"tile"`
	Step     int        `json:"step"`
	Steps    int        `json:"steps"`
}

// MoveObserver sees every tile a skater crosses. It is the only point where
// a tick waits; returning an error abandons the tick.
type MoveObserver func(ctx context.Context, m Move) error

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithResolver replaces the outcome resolver.
func WithResolver(r scoring.Resolver) Option {
	return func(s *Scheduler) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithMoveObserver sets the traversal observer.
func WithMoveObserver(o MoveObserver) Option {
	return func(s *Scheduler) { s.observer = o }
}

// WithTicks overrides the session length.
func WithTicks(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.ticks = n
		}
	}
}

// Scheduler drives the sessions of one park. It owns a single random source
// and must not be shared between goroutines.
type Scheduler struct {
	catalog  *catalog.Catalog
	targets  []model.RunTarget
	pieces   []model.RunPiece
	src      chance.Source
	selector *selection.Selector
	resolver scoring.Resolver
	observer MoveObserver
	ticks    int
}

// NewScheduler returns a scheduler for the layout. Unusable targets are
// dropped.
func NewScheduler(cat *catalog.Catalog, layout Layout, src chance.Source, opts ...Option) *Scheduler {
	s := &Scheduler{
		catalog:  cat,
		pieces:   layout.AllPieces(),
		src:      src,
		selector: selection.New(cat, src),
		resolver: scoring.NewTableResolver(src),
		ticks:    TotalTicks,
	}
	for _, t := range layout.Targets() {
		if t.Usable() {
			s.targets = append(s.targets, t)
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ticks is the session length.
func (s *Scheduler) Ticks() int { return s.ticks }

// Capacity is the number of starting spots per tick.
func (s *Scheduler) Capacity() int {
	total := 0
	for _, t := range s.targets {
		total += t.Capacity
	}
	return total
}

// Start enters the skaters and returns the first active snapshot. Energy is
// clamped to MinEnergy..MaxEnergy and arrival is drawn so the whole window
// fits in the session where possible.
func (s *Scheduler) Start(kind Kind, skaters []model.Skater) (State, error) {
	if kind != Beginner && kind != Normal {
		return State{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	st := State{
		Kind:      kind,
		Phase:     Active,
		Positions: map[string]model.Tile{},
		retries:   map[string]resume{},
	}
	seen := make(map[string]bool, len(skaters))
	for _, sk := range skaters {
		if seen[sk.ID] {
			return State{}, fmt.Errorf("%w: %s", ErrDuplicateSkater, sk.ID)
		}
		seen[sk.ID] = true
		energy := min(MaxEnergy, max(MinEnergy, sk.Energy))
		st.Entrants = append(st.Entrants, Entrant{
			Skater:  sk,
			Energy:  energy,
			Arrival: chance.Between(s.src, 1, max(1, s.ticks-energy)),
		})
	}
	return st, nil
}

// End stops a session. Pending retries are discarded.
func (s *Scheduler) End(st State) State {
	next := st.clone()
	next.Phase = Ended
	next.Assignments = nil
	next.Unassigned = nil
	next.Positions = map[string]model.Tile{}
	next.retries = map[string]resume{}
	return next
}

type run struct {
	entrant Entrant
	target  model.RunTarget
	retry   *resume
}

// Tick resolves the next tick and returns the new snapshot. On error the
// given snapshot stays current.
//
// Skaters with a pending retry keep their target first. The remaining spots
// form one pool; the other active skaters, in random order, each take a
// random spot among targets where they have something to attempt, or any
// spot when there is none. Skaters left without a spot sit the tick out.
// Retrying skaters run before the others; each group runs in random order.
func (s *Scheduler) Tick(ctx context.Context, st State) (State, error) {
	return s.tick(ctx, st, nil)
}

// tick is Tick with a hook that sees the tick's positions every time one of
// them changes. The map is only valid for the duration of the call.
func (s *Scheduler) tick(ctx context.Context, st State, moved func(map[string]model.Tile)) (State, error) {
	switch st.Phase {
	case Idle:
		return st, ErrNotStarted
	case Ended:
		return st, ErrSessionEnded
	}
	if err := ctx.Err(); err != nil {
		return st, err
	}

	next := st.clone()
	tick := st.Tick + 1
	next.Tick = tick
	next.Assignments = nil
	next.Unassigned = nil
	next.Positions = map[string]model.Tile{}
	next.retries = map[string]resume{}

	var active []Entrant
	for _, e := range st.Entrants {
		if e.ActiveAt(tick) {
			active = append(active, e)
		}
	}

	remaining := make(map[string]int, len(s.targets))
	for _, t := range s.targets {
		remaining[t.ID] = t.Capacity
	}

	var retrying, fresh []run
	var waiting []Entrant
	for _, e := range active {
		r, ok := st.retries[e.Skater.ID]
		if ok && remaining[r.targetID] > 0 {
			if t, found := s.target(r.targetID); found {
				remaining[r.targetID]--
				retrying = append(retrying, run{entrant: e, target: t, retry: &r})
				continue
			}
		}
		waiting = append(waiting, e)
	}

	var slots []model.RunTarget
	for _, t := range s.targets {
		for range remaining[t.ID] {
			slots = append(slots, t)
		}
	}
	for _, e := range chance.Shuffle(s.src, waiting) {
		if len(slots) == 0 {
			next.Unassigned = append(next.Unassigned, e.Skater.ID)
			continue
		}
		idx, _ := chance.PickIndex(s.src, slots, func(t model.RunTarget) float64 {
			if s.selector.CanAttempt(e.Skater, t) {
				return 1
			}
			return 0
		})
		fresh = append(fresh, run{entrant: e, target: slots[idx]})
		slots = slices.Delete(slots, idx, idx+1)
	}

	order := append(chance.Shuffle(s.src, retrying), chance.Shuffle(s.src, fresh)...)
	for _, r := range order {
		next.Assignments = append(next.Assignments, Assignment{
			SkaterID: r.entrant.Skater.ID,
			TargetID: r.target.ID,
			Label:    r.target.Label,
			Retry:    r.retry != nil,
		})
		next.Positions[r.entrant.Skater.ID] = r.target.Start
	}
	if moved != nil {
		moved(next.Positions)
	}

	for _, r := range order {
		s.ride(&next, tick, r)
		if err := s.traverse(ctx, &next, tick, r, moved); err != nil {
			return st, err
		}
	}

	if tick >= s.ticks {
		return s.End(next), nil
	}
	return next, nil
}

// ride resolves every plan of one skater's run and appends them to the log.
// A skater holds one retry at a time: the first bail that earns one is
// queued and resumes next tick, later ones in the run are logged without it.
func (s *Scheduler) ride(st *State, tick int, r run) {
	sk := r.entrant.Skater
	var skill float64
	if tree, ok := s.catalog.Tree(sk.Sport); ok {
		skill = sk.SkillLevel(tree)
	}
	history := model.HistoryFor(st.Log, sk.ID)

	var plans []model.Plan
	if r.retry != nil {
		plans = []model.Plan{r.retry.plan}
	} else {
		plans = s.selector.Select(selection.Request{
			Skater:     sk,
			Target:     r.target,
			ParkPieces: s.pieces,
			History:    history,
			Progress:   r.entrant.Progress(tick),
		})
	}

	for _, p := range plans {
		out := s.resolver.Resolve(scoring.Input{
			Plan:          p,
			Skill:         skill,
			Steeze:        sk.Steeze,
			Determination: sk.Determination,
			AlreadyLanded: !p.NoAttempt && history.Landed[p.ComboKey],
		})
		if _, queued := st.retries[sk.ID]; queued {
			out.Retry = false
		}
		rec := model.NewAttempt(tick, sk.ID, r.target.ID, p, out)
		rec.Seq = len(st.Log) + 1
		st.Log = append(st.Log, rec)
		if out.Landed {
			history.Landed[p.ComboKey] = true
		}
		if out.Retry {
			st.retries[sk.ID] = resume{targetID: r.target.ID, plan: p.Retry()}
		}
	}
}

// traverse walks the skater across the target's tiles.
func (s *Scheduler) traverse(ctx context.Context, st *State, tick int, r run, moved func(map[string]model.Tile)) error {
	id := r.entrant.Skater.ID
	for i, tile := range r.target.Tiles {
		st.Positions[id] = tile
		if moved != nil {
			moved(st.Positions)
		}
		if s.observer == nil {
			continue
		}
		err := s.observer(ctx, Move{
			Tick:     tick,
			SkaterID: id,
			TargetID: r.target.ID,
			Tile:     tile,
			Step:     i + 1,
			Steps:    len(r.target.Tiles),
		})
		if err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (s *Scheduler) target(id string) (model.RunTarget, bool) {
	i := slices.IndexFunc(s.targets, func(t model.RunTarget) bool { return t.ID == id })
	if i < 0 {
		return model.RunTarget{}, false
	}
	return s.targets[i], true
}
