package progression

import (
	"fmt"

	"github.com/okian/skatepark/internal/domain/catalog"
)

// Reason explains an Availability.
type Reason string

// Availability reasons.
const (
	ReasonAvailable       Reason = "available"
	ReasonOwned           Reason = "owned"
	ReasonUnknownNode     Reason = "unknown_node"
	ReasonPreviousLevel   Reason = "previous_level_required"
	ReasonCoreRequired    Reason = "core_required"
	ReasonVariantRequired Reason = "variant_required"
	ReasonLocked          Reason = "locked"
)

// Availability is the answer to "can this node be unlocked now".
type Availability struct {
	Available bool   `json:"available"`
	Reason    Reason `json:"reason"`
	Cost      int    `json:"cost"`
}

// Check reports whether node can be unlocked for lib.
//
// A level-1 core is available unless owned. A level-L core needs every core of
// level L-1 in the same type. A modifier needs its core, its parent variant
// when it is an upgrade, and its lock core when it has one.
func Check(tree *catalog.Tree, lib Library, node catalog.NodeID) Availability {
	core, ok := tree.Core(node.CoreRef())
	if !ok {
		return Availability{Reason: ReasonUnknownNode}
	}

	if node.IsCore() {
		a := Availability{Cost: core.Cost}
		if lib.HasCore(core.Ref()) {
			a.Reason = ReasonOwned
			return a
		}
		for _, prev := range tree.CoresAtLevel(core.Type, core.Level-1) {
			if !lib.HasCore(prev.Ref()) {
				a.Reason = ReasonPreviousLevel
				return a
			}
		}
		a.Available, a.Reason = true, ReasonAvailable
		return a
	}

	mod, ok := core.Modifier(node.Modifier)
	if !ok {
		return Availability{Reason: ReasonUnknownNode}
	}
	a := Availability{Cost: mod.Cost}
	i := lib.index(core.Ref())
	switch {
	case i < 0:
		a.Reason = ReasonCoreRequired
	case lib.entries[i].HasModifier(mod.Key()):
		a.Reason = ReasonOwned
	case mod.IsUpgrade() && !lib.entries[i].HasModifier(mod.ParentVariant+"|"+mod.ParentVariant):
		a.Reason = ReasonVariantRequired
	case mod.LockedBy != nil && !lib.HasCore(*mod.LockedBy):
		a.Reason = ReasonLocked
	default:
		a.Available, a.Reason = true, ReasonAvailable
	}
	return a
}

// Unlock buys node for lib. It returns a new library and the cost spent, or
// the unchanged library with ok false when Check says the node is not
// available. lib itself is never modified.
func Unlock(tree *catalog.Tree, lib Library, node catalog.NodeID) (Library, int, bool) {
	a := Check(tree, lib, node)
	if !a.Available {
		return lib, 0, false
	}
	core, _ := tree.Core(node.CoreRef())

	next := Library{entries: make([]Entry, 0, len(lib.entries)+1)}
	for _, e := range lib.entries {
		next.entries = append(next.entries, e.clone())
	}

	if node.IsCore() {
		next.entries = append(next.entries, Entry{
			Type:      core.Type,
			Core:      core.Name,
			CoreLevel: core.Level,
			CoreCost:  core.Cost,
		})
		return next, a.Cost, true
	}

	mod, _ := core.Modifier(node.Modifier)
	i := next.index(core.Ref())
	next.entries[i].Modifiers = append(next.entries[i].Modifiers, mod)
	return next, a.Cost, true
}

// Validate checks that every entry exists in the tree and that every modifier
// satisfies its core, parent variant and lock requirements.
func Validate(tree *catalog.Tree, lib Library) error {
	for _, e := range lib.entries {
		core, ok := tree.Core(e.Ref())
		if !ok {
			return fmt.Errorf("%w: unknown core %s", ErrInvalidLibrary, e.Ref())
		}
		if e.CoreLevel != core.Level || e.CoreCost != core.Cost {
			return fmt.Errorf("%w: core %s does not match the catalog", ErrInvalidLibrary, e.Ref())
		}
		for _, m := range e.Modifiers {
			cm, ok := core.Modifier(m.Key())
			if !ok {
				return fmt.Errorf("%w: unknown modifier %s on %s", ErrInvalidLibrary, m.Key(), e.Ref())
			}
			if cm.IsUpgrade() && !e.HasModifier(cm.ParentVariant+"|"+cm.ParentVariant) {
				return fmt.Errorf("%w: %s on %s without its variant", ErrInvalidLibrary, m.Key(), e.Ref())
			}
			if cm.LockedBy != nil && !lib.HasCore(*cm.LockedBy) {
				return fmt.Errorf("%w: %s on %s is locked by %s", ErrInvalidLibrary, m.Key(), e.Ref(), *cm.LockedBy)
			}
		}
	}
	return nil
}
