package model

import (
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/okian/skatepark/internal/domain/catalog"
)

// MaxAttempts is how many tries one opportunity gets, retries included.
const MaxAttempts = 3

// Plan is one planned trick attempt. A plan with NoAttempt set is the
// explicit marker used when nothing is attemptable anywhere on the park.
type Plan struct {
	NoAttempt        bool               `json:"noAttempt,omitempty"`
	Piece            string             `json:"piece,omitempty"`
	Coordinate       string             `json:"coordinate,omitempty"`
	PieceDifficulty  int                `json:"pieceDifficulty"`
	Type             catalog.TrickType  `json:"type,omitempty"`
	Core             string             `json:"core,omitempty"`
	CoreLevel        int                `json:"coreLevel,omitempty"`
	Modifiers        []catalog.Modifier `json:"modifiers,omitempty"`
	TrickName        string             `json:"trickName,omitempty"`
	ComboKey         string             `json:"comboKey,omitempty"`
	Switch           bool               `json:"switch,omitempty"`
	SwitchPenaltyPct int                `json:"switchPenaltyPct,omitempty"`
	Opportunity      int                `json:"opportunity"`
	Attempt          int                `json:"attempt"`
	Bias             float64            `json:"bias"`
}

// NoAttemptPlan returns the marker plan.
func NoAttemptPlan(opportunity int) Plan {
	return Plan{NoAttempt: true, Opportunity: opportunity, Attempt: 1}
}

// ModifierLevels sums the modifier levels.
func (p Plan) ModifierLevels() int {
	total := 0
	for _, m := range p.Modifiers {
		total += m.Level
	}
	return total
}

// ModifierNames returns the modifier names in plan order.
func (p Plan) ModifierNames() []string {
	out := make([]string, 0, len(p.Modifiers))
	for _, m := range p.Modifiers {
		out = append(out, m.Name)
	}
	return out
}

// Retry returns the same plan queued as the next attempt.
func (p Plan) Retry() Plan {
	p.Modifiers = slices.Clone(p.Modifiers)
	p.Attempt++
	return p
}

// ComboKey hashes piece, coordinate, type, core and the sorted modifier
// names. Modifier order does not change the key.
func ComboKey(piece, coordinate string, t catalog.TrickType, core string, modifiers []string) string {
	mods := slices.Clone(modifiers)
	slices.Sort(mods)
	var b strings.Builder
	b.WriteString(piece)
	b.WriteByte(0x1f)
	b.WriteString(coordinate)
	b.WriteByte(0x1f)
	b.WriteString(string(t))
	b.WriteByte(0x1f)
	b.WriteString(core)
	for _, m := range mods {
		b.WriteByte(0x1e)
		b.WriteString(m)
	}
	return strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}

// Outcome is the resolved result of one plan.
type Outcome struct {
	Difficulty float64 `json:"difficulty"`
	Chance     float64 `json:"chance"`
	LandChance int     `json:"landChance"`
	Roll       int     `json:"roll"`
	Landed     bool    `json:"landed"`
	Control    int     `json:"control"`
	Steeze     int     `json:"steeze"`
	Points     int     `json:"points"`
	Retry      bool    `json:"retry"`
}

// Attempt is an immutable attempt-log record.
type Attempt struct {
	Seq        int               `json:"seq"`
	Tick       int               `json:"tick"`
	SkaterID   string            `json:"skaterId"`
	TargetID   string            `json:"targetId"`
	NoAttempt  bool              `json:"noAttempt,omitempty"`
	Piece      string            `json:"piece,omitempty"`
	Coordinate string            `json:"coordinate,omitempty"`
	Type       catalog.TrickType `json:"type,omitempty"`
	Core       string            `json:"core,omitempty"`
	Modifiers  []string          `json:"modifiers,omitempty"`
	TrickName  string            `json:"trickName,omitempty"`
	ComboKey   string            `json:"comboKey,omitempty"`
	Switch     bool              `json:"switch,omitempty"`
	Attempt    int               `json:"attempt"`
	Landed     bool              `json:"landed"`
	Control    int               `json:"control"`
	Steeze     int               `json:"steeze"`
	Points     int               `json:"points"`
	Retry      bool              `json:"retry"`
}

// NewAttempt builds the log record for a resolved plan.
func NewAttempt(tick int, skaterID, targetID string, p Plan, o Outcome) Attempt {
	return Attempt{
		Tick:       tick,
		SkaterID:   skaterID,
		TargetID:   targetID,
		NoAttempt:  p.NoAttempt,
		Piece:      p.Piece,
		Coordinate: p.Coordinate,
		Type:       p.Type,
		Core:       p.Core,
		Modifiers:  p.ModifierNames(),
		TrickName:  p.TrickName,
		ComboKey:   p.ComboKey,
		Switch:     p.Switch,
		Attempt:    p.Attempt,
		Landed:     o.Landed,
		Control:    o.Control,
		Steeze:     o.Steeze,
		Points:     o.Points,
		Retry:      o.Retry,
	}
}

// History is one skater's view of the attempt log.
type History struct {
	Attempted map[string]bool
	Landed    map[string]bool
}

// HistoryFor collects the combo keys a skater has attempted and landed.
func HistoryFor(log []Attempt, skaterID string) History {
	h := History{Attempted: map[string]bool{}, Landed: map[string]bool{}}
	for _, a := range log {
		if a.SkaterID != skaterID || a.NoAttempt {
			continue
		}
		h.Attempted[a.ComboKey] = true
		if a.Landed {
			h.Landed[a.ComboKey] = true
		}
	}
	return h
}
