// Package catalog holds the static trick trees: per sport, per trick type, a
// list of core tricks each carrying modifier nodes (variants and upgrades).
//
// The catalog is immutable once built. Cross-branch locks ("this modifier needs
// core X of another type") form a dependency graph that is validated for
// dangling references and cycles when a Tree is constructed.
package catalog

import (
	"fmt"
	"strings"
)

// Sport identifies the discipline a skater rides.
type Sport string

// Supported sports.
const (
	Rollerblader Sport = "Rollerblader"
	Skateboarder Sport = "Skateboarder"
)

// Sports lists the supported sports in display order.
var Sports = []Sport{Rollerblader, Skateboarder}

// ParseSport accepts a sport name case-insensitively.
func ParseSport(s string) (Sport, error) {
	for _, sp := range Sports {
		if strings.EqualFold(string(sp), strings.TrimSpace(s)) {
			return sp, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSport, s)
}

// TrickType is a trick category with its own rating and difficulty scale.
type TrickType string

// Trick types shared by both sports.
const (
	Stall  TrickType = "stall"
	Grind  TrickType = "grind"
	Tech   TrickType = "tech"
	Spin   TrickType = "spin"
	BigAir TrickType = "bigAir"
)

// Types lists every trick type in catalog order.
var Types = []TrickType{Stall, Grind, Tech, Spin, BigAir}

// Placement says where a modifier's name goes relative to the core name.
type Placement int

// Placements.
const (
	Before Placement = iota
	Replace
	After
)

func (p Placement) String() string {
	switch p {
	case Before:
		return "before"
	case Replace:
		return "replace"
	case After:
		return "after"
	default:
		return fmt.Sprintf("placement(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Placement) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts the long names and the short codes A, B, B<n> and R.
func (p *Placement) UnmarshalText(b []byte) error {
	v, _, err := ParsePlacement(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParsePlacement parses a placement and, for Before codes like "B2", the
// ordering slot among Before modifiers (0 when unspecified).
func ParsePlacement(s string) (Placement, int, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	switch raw {
	case "before", "b":
		return Before, 0, nil
	case "replace", "r":
		return Replace, 0, nil
	case "after", "a":
		return After, 0, nil
	}
	if strings.HasPrefix(raw, "b") {
		var slot int
		if _, err := fmt.Sscanf(raw[1:], "%d", &slot); err == nil && slot > 0 {
			return Before, slot, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrBadPlacement, s)
}

// CoreRef names a core within one sport's tree.
type CoreRef struct {
	Type TrickType `json:"type" yaml:"type"`
	Core string    `json:"core" yaml:"core"`
}

func (r CoreRef) String() string { return string(r.Type) + "/" + r.Core }

// Modifier is a variant or upgrade hanging off a core.
type Modifier struct {
	Name      string    `json:"name"`
	Level     int       `json:"level"`
	Cost      int       `json:"cost"`
	Placement Placement `json:"placement"`
	// Slot orders Before modifiers; 0 means unordered.
	Slot int `json:"slot,omitempty"`
	// ParentVariant is the variant this node belongs to. A variant is its own
	// parent; modifiers sharing a parent are mutually exclusive in one attempt.
	ParentVariant string   `json:"parentVariant"`
	LockedBy      *CoreRef `json:"lockedBy,omitempty"`
}

// Key identifies a modifier within its core.
func (m Modifier) Key() string {
	parent := m.ParentVariant
	if parent == "" {
		parent = m.Name
	}
	return parent + "|" + m.Name
}

// IsUpgrade reports whether the modifier hangs off another variant.
func (m Modifier) IsUpgrade() bool {
	return m.ParentVariant != "" && m.ParentVariant != m.Name
}

// Core is a base trick of one type.
type Core struct {
	Type      TrickType  `json:"type"`
	Name      string     `json:"name"`
	Level     int        `json:"level"`
	Cost      int        `json:"cost"`
	Modifiers []Modifier `json:"modifiers"`
}

// Ref returns the core's reference.
func (c Core) Ref() CoreRef { return CoreRef{Type: c.Type, Core: c.Name} }

// Modifier looks a modifier up by key.
func (c Core) Modifier(key string) (Modifier, bool) {
	for _, m := range c.Modifiers {
		if m.Key() == key {
			return m, true
		}
	}
	return Modifier{}, false
}

// NodeID addresses either a core (Modifier empty) or one of its modifiers.
type NodeID struct {
	Type     TrickType `json:"type"`
	Core     string    `json:"core"`
	Modifier string    `json:"modifier,omitempty"`
}

// IsCore reports whether the node is a core node.
func (n NodeID) IsCore() bool { return n.Modifier == "" }

// CoreRef returns the core the node belongs to.
func (n NodeID) CoreRef() CoreRef { return CoreRef{Type: n.Type, Core: n.Core} }

func (n NodeID) String() string {
	if n.IsCore() {
		return "core|" + string(n.Type) + "|" + n.Core
	}
	return "mod|" + string(n.Type) + "|" + n.Core + "|" + n.Modifier
}

// CoreNode builds the NodeID of a core.
func CoreNode(t TrickType, core string) NodeID { return NodeID{Type: t, Core: core} }

// ModifierNode builds the NodeID of a modifier.
func ModifierNode(t TrickType, core string, m Modifier) NodeID {
	return NodeID{Type: t, Core: core, Modifier: m.Key()}
}

// Catalog maps each sport to its tree.
type Catalog struct {
	trees map[Sport]*Tree
}

// New builds a catalog from validated trees.
func New(trees ...*Tree) *Catalog {
	c := &Catalog{trees: make(map[Sport]*Tree, len(trees))}
	for _, t := range trees {
		c.trees[t.Sport()] = t
	}
	return c
}

// Tree returns the tree for a sport.
func (c *Catalog) Tree(s Sport) (*Tree, bool) {
	if c == nil {
		return nil, false
	}
	t, ok := c.trees[s]
	return t, ok
}

// Sports lists the sports present in the catalog.
func (c *Catalog) Sports() []Sport {
	out := make([]Sport, 0, len(c.trees))
	for _, s := range Sports {
		if _, ok := c.trees[s]; ok {
			out = append(out, s)
		}
	}
	for s := range c.trees {
		known := false
		for _, k := range Sports {
			if k == s {
				known = true
			}
		}
		if !known {
			out = append(out, s)
		}
	}
	return out
}
