package catalog

import (
	"fmt"
	"slices"
	"strings"
)

// Tree is one sport's validated trick tree.
type Tree struct {
	sport      Sport
	types      []TrickType
	cores      map[TrickType][]Core
	dependents map[CoreRef][]NodeID
	maxSpend   map[TrickType]int
}

// NewTree groups cores by type, validates them and indexes the lock graph.
// Core order within a type is kept as given.
func NewTree(sport Sport, cores []Core) (*Tree, error) {
	t := &Tree{
		sport:      sport,
		cores:      make(map[TrickType][]Core),
		dependents: make(map[CoreRef][]NodeID),
		maxSpend:   make(map[TrickType]int),
	}

	var extra []TrickType
	for _, c := range cores {
		if err := validateCore(c); err != nil {
			return nil, fmt.Errorf("%s: %w", sport, err)
		}
		if _, dup := t.lookup(c.Ref()); dup {
			return nil, fmt.Errorf("%w: %s core %s", ErrDuplicateNode, sport, c.Ref())
		}
		if _, seen := t.cores[c.Type]; !seen && !slices.Contains(Types, c.Type) {
			extra = append(extra, c.Type)
		}
		t.cores[c.Type] = append(t.cores[c.Type], c)
		t.maxSpend[c.Type] += c.Cost
		for _, m := range c.Modifiers {
			t.maxSpend[c.Type] += m.Cost
		}
	}
	for _, tt := range Types {
		if _, ok := t.cores[tt]; ok {
			t.types = append(t.types, tt)
		}
	}
	t.types = append(t.types, extra...)

	for _, tt := range t.types {
		for _, c := range t.cores[tt] {
			for _, m := range c.Modifiers {
				if m.LockedBy == nil {
					continue
				}
				if _, ok := t.lookup(*m.LockedBy); !ok {
					return nil, fmt.Errorf("%w: %s %s/%s needs %s", ErrDanglingLock, sport, c.Ref(), m.Name, *m.LockedBy)
				}
				t.dependents[*m.LockedBy] = append(t.dependents[*m.LockedBy], ModifierNode(c.Type, c.Name, m))
			}
		}
	}
	if err := t.checkLockCycles(); err != nil {
		return nil, fmt.Errorf("%s: %w", sport, err)
	}
	return t, nil
}

func validateCore(c Core) error {
	if c.Name == "" || c.Type == "" {
		return fmt.Errorf("%w: core needs a type and a name", ErrInvalidNode)
	}
	if c.Level < 1 || c.Cost < 1 {
		return fmt.Errorf("%w: core %s needs positive level and cost", ErrInvalidNode, c.Ref())
	}
	keys := make(map[string]bool, len(c.Modifiers))
	variants := make(map[string]bool, len(c.Modifiers))
	for _, m := range c.Modifiers {
		if !m.IsUpgrade() {
			variants[m.Name] = true
		}
	}
	for _, m := range c.Modifiers {
		if m.Name == "" || m.Level < 1 || m.Cost < 1 {
			return fmt.Errorf("%w: modifier %q on %s", ErrInvalidNode, m.Name, c.Ref())
		}
		if keys[m.Key()] {
			return fmt.Errorf("%w: modifier %s on %s", ErrDuplicateNode, m.Key(), c.Ref())
		}
		keys[m.Key()] = true
		if m.IsUpgrade() && !variants[m.ParentVariant] {
			return fmt.Errorf("%w: %s on %s", ErrMissingVariant, m.Key(), c.Ref())
		}
	}
	return nil
}

// checkLockCycles walks the core graph where an edge A -> B means some
// modifier of A is locked by B.
func (t *Tree) checkLockCycles() error {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[CoreRef]int)
	var path []CoreRef

	var visit func(CoreRef) error
	visit = func(ref CoreRef) error {
		state[ref] = inProgress
		path = append(path, ref)
		c, _ := t.lookup(ref)
		for _, m := range c.Modifiers {
			if m.LockedBy == nil {
				continue
			}
			next := *m.LockedBy
			switch state[next] {
			case inProgress:
				start := slices.Index(path, next)
				names := make([]string, 0, len(path)-start+1)
				for _, p := range path[start:] {
					names = append(names, p.String())
				}
				names = append(names, next.String())
				return fmt.Errorf("%w: %s", ErrLockCycle, strings.Join(names, " -> "))
			case unvisited:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		state[ref] = done
		return nil
	}

	for _, tt := range t.types {
		for _, c := range t.cores[tt] {
			if state[c.Ref()] == unvisited {
				if err := visit(c.Ref()); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (t *Tree) lookup(ref CoreRef) (Core, bool) {
	for _, c := range t.cores[ref.Type] {
		if c.Name == ref.Core {
			return c, true
		}
	}
	return Core{}, false
}

// Sport returns the tree's sport.
func (t *Tree) Sport() Sport { return t.sport }

// Types returns the trick types present in the tree.
func (t *Tree) Types() []TrickType { return slices.Clone(t.types) }

// Cores returns the cores of a type in catalog order. The slice is shared and
// must not be modified.
func (t *Tree) Cores(tt TrickType) []Core { return t.cores[tt] }

// Core looks a core up.
func (t *Tree) Core(ref CoreRef) (Core, bool) { return t.lookup(ref) }

// Modifier looks a modifier up by core and key.
func (t *Tree) Modifier(ref CoreRef, key string) (Modifier, bool) {
	c, ok := t.lookup(ref)
	if !ok {
		return Modifier{}, false
	}
	return c.Modifier(key)
}

// CoresAtLevel returns the cores of a type with the given level.
func (t *Tree) CoresAtLevel(tt TrickType, level int) []Core {
	var out []Core
	for _, c := range t.cores[tt] {
		if c.Level == level {
			out = append(out, c)
		}
	}
	return out
}

// Dependents returns the modifiers locked by a core.
func (t *Tree) Dependents(ref CoreRef) []NodeID { return slices.Clone(t.dependents[ref]) }

// MaxSpend is the total cost of every node of a type.
func (t *Tree) MaxSpend(tt TrickType) int { return t.maxSpend[tt] }

// Nodes lists every node of a type: each core followed by its modifiers.
func (t *Tree) Nodes(tt TrickType) []NodeID {
	var out []NodeID
	for _, c := range t.cores[tt] {
		out = append(out, CoreNode(tt, c.Name))
		for _, m := range c.Modifiers {
			out = append(out, ModifierNode(tt, c.Name, m))
		}
	}
	return out
}
