package session

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/okian/skatepark/internal/domain/model"
)

// TotalTicks is the length of a session.
const TotalTicks = 20

// Energy bounds for session timing.
const (
	MinEnergy = 1
	MaxEnergy = 15
)

// Kind is the type of session.
type Kind string

// Session kinds. Beginner sessions bring generated skaters that can be
// recruited once the session ends; normal sessions use recruited skaters.
const (
	Beginner Kind = "beginner"
	Normal   Kind = "normal"
)

// ParseKind accepts a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{Beginner, Normal} {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Phase is the state machine position of a session.
type Phase int

// Phases. A running tick is tracked by Session, not by the snapshot.
const (
	Idle Phase = iota
	Active
	Ended
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Ended:
		return "ended"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Entrant is a skater with its session window.
type Entrant struct {
	Skater  model.Skater `json:"skater"`
	Arrival int          `json:"arrival"`
	Energy  int          `json:"energy"`
}

// Departure is the last tick the skater rides.
func (e Entrant) Departure() int { return e.Arrival + e.Energy - 1 }

// ActiveAt reports whether the skater rides at tick.
func (e Entrant) ActiveAt(tick int) bool {
	return e.Arrival <= tick && tick < e.Arrival+e.Energy
}

// Progress is the fraction of the window used before tick, 0..1.
func (e Entrant) Progress(tick int) float64 {
	if e.Energy <= 0 {
		return 1
	}
	return min(1, max(0, float64(tick-e.Arrival)/float64(e.Energy)))
}

// Assignment places a skater on a target for one tick.
type Assignment struct {
	SkaterID string `json:"skaterId"`
	TargetID string `json:"targetId"`
	Label    string `json:"label"`
	Retry    bool   `json:"retry,omitempty"`
}

// resume is a pending re-attempt consumed at the start of the next tick.
type resume struct {
	targetID string
	plan     model.Plan
}

// State is an immutable session snapshot. Scheduler transitions return new
// snapshots and never modify the one they are given.
type State struct {
	Kind        Kind                  `json:"kind"`
	Phase       Phase                 `json:"phase"`
	Tick        int                   `json:"tick"`
	Entrants    []Entrant             `json:"entrants"`
	Assignments []Assignment          `json:"assignments"`
	Unassigned  []string              `json:"unassigned"`
	Positions   map[string]model.Tile `json:"positions"`
	Log         []model.Attempt       `json:"log"`

	retries map[string]resume
}

// Entrant looks a skater up by id.
func (s State) Entrant(id string) (Entrant, bool) {
	i := slices.IndexFunc(s.Entrants, func(e Entrant) bool { return e.Skater.ID == id })
	if i < 0 {
		return Entrant{}, false
	}
	return s.Entrants[i], true
}

// PendingRetries is the number of re-attempts queued for the next tick.
func (s State) PendingRetries() int { return len(s.retries) }

// Attempts returns a copy of the attempt log.
func (s State) Attempts() []model.Attempt { return slices.Clone(s.Log) }

// Candidates returns the skaters that can be recruited from an ended
// beginner session.
func (s State) Candidates() []model.Skater {
	if s.Kind != Beginner || s.Phase != Ended {
		return nil
	}
	out := make([]model.Skater, 0, len(s.Entrants))
	for _, e := range s.Entrants {
		out = append(out, e.Skater)
	}
	return out
}

func (s State) clone() State {
	next := s
	next.Log = slices.Clip(s.Log)
	next.Positions = maps.Clone(s.Positions)
	next.retries = maps.Clone(s.retries)
	return next
}
