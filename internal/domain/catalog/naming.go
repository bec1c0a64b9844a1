package catalog

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

// TrickName renders the display name of a core with a set of modifiers.
// Before modifiers lead, ordered by slot (unslotted last) then name; the
// highest-level Replace modifier takes the core's place; After modifiers trail
// in the order given.
func TrickName(core string, mods []Modifier) string {
	var before, after []Modifier
	var replace *Modifier
	for i := range mods {
		m := mods[i]
		switch m.Placement {
		case Before:
			before = append(before, m)
		case After:
			after = append(after, m)
		case Replace:
			if replace == nil || m.Level > replace.Level {
				replace = &mods[i]
			}
		}
	}

	slotOrder := func(m Modifier) int {
		if m.Slot > 0 {
			return m.Slot
		}
		return math.MaxInt
	}
	slices.SortStableFunc(before, func(a, b Modifier) int {
		if d := cmp.Compare(slotOrder(a), slotOrder(b)); d != 0 {
			return d
		}
		return strings.Compare(a.Name, b.Name)
	})

	parts := make([]string, 0, len(mods)+1)
	for _, m := range before {
		parts = append(parts, m.Name)
	}
	if replace != nil {
		parts = append(parts, replace.Name)
	} else {
		parts = append(parts, core)
	}
	for _, m := range after {
		parts = append(parts, m.Name)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
