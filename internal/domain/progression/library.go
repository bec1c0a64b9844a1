// Package progression answers whether a trick node can be unlocked for a
// library, performs copy-on-write unlocks and builds libraries procedurally
// from a per-type budget.
package progression

import (
	"encoding/json"
	"slices"
	"sort"
	"strings"

	"github.com/okian/skatepark/internal/domain/catalog"
)

// Entry is one unlocked core with the modifiers bought for it.
type Entry struct {
	Type      catalog.TrickType  `json:"type"`
	Core      string             `json:"core"`
	CoreLevel int                `json:"coreLevel"`
	CoreCost  int                `json:"coreCost"`
	Modifiers []catalog.Modifier `json:"modifiers"`
}

// Ref returns the entry's core reference.
func (e Entry) Ref() catalog.CoreRef { return catalog.CoreRef{Type: e.Type, Core: e.Core} }

// HasModifier reports whether the entry owns a modifier key.
func (e Entry) HasModifier(key string) bool {
	for _, m := range e.Modifiers {
		if m.Key() == key {
			return true
		}
	}
	return false
}

// Spent is the core cost plus every bought modifier.
func (e Entry) Spent() int {
	total := e.CoreCost
	for _, m := range e.Modifiers {
		total += m.Cost
	}
	return total
}

func (e Entry) clone() Entry {
	e.Modifiers = slices.Clone(e.Modifiers)
	return e
}

// Library is a skater's unlocked tricks. The zero value is an empty library.
// A Library is never modified in place; Unlock returns a new one.
type Library struct {
	entries []Entry
}

// NewLibrary builds a library from entries, copying them.
func NewLibrary(entries ...Entry) Library {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.clone())
	}
	return Library{entries: out}
}

// Entries returns a copy of the entries in unlock order.
func (l Library) Entries() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.clone())
	}
	return out
}

// Len is the number of owned nodes, cores and modifiers together.
func (l Library) Len() int {
	n := len(l.entries)
	for _, e := range l.entries {
		n += len(e.Modifiers)
	}
	return n
}

// Entry returns the entry for a core.
func (l Library) Entry(ref catalog.CoreRef) (Entry, bool) {
	if i := l.index(ref); i >= 0 {
		return l.entries[i].clone(), true
	}
	return Entry{}, false
}

// HasCore reports whether a core is owned.
func (l Library) HasCore(ref catalog.CoreRef) bool { return l.index(ref) >= 0 }

// Has reports whether a node is owned.
func (l Library) Has(n catalog.NodeID) bool {
	i := l.index(n.CoreRef())
	if i < 0 {
		return false
	}
	if n.IsCore() {
		return true
	}
	return l.entries[i].HasModifier(n.Modifier)
}

// Cores returns the entries of one type in unlock order.
func (l Library) Cores(t catalog.TrickType) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.Type == t {
			out = append(out, e.clone())
		}
	}
	return out
}

// Spent is the total cost spent in a type.
func (l Library) Spent(t catalog.TrickType) int {
	total := 0
	for _, e := range l.entries {
		if e.Type == t {
			total += e.Spent()
		}
	}
	return total
}

// signature identifies the owned nodes of one type independent of unlock
// order. Used as a memo key by the builder.
func (l Library) signature(t catalog.TrickType) string {
	var ids []string
	for _, e := range l.entries {
		if e.Type != t {
			continue
		}
		ids = append(ids, e.Core)
		for _, m := range e.Modifiers {
			ids = append(ids, e.Core+"\x1f"+m.Key())
		}
	}
	sort.Strings(ids)
	return strings.Join(ids, "\x1e")
}

func (l Library) index(ref catalog.CoreRef) int {
	for i, e := range l.entries {
		if e.Type == ref.Type && e.Core == ref.Core {
			return i
		}
	}
	return -1
}

// MarshalJSON encodes the library as an array of entries.
func (l Library) MarshalJSON() ([]byte, error) {
	if l.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.entries)
}

// UnmarshalJSON decodes an array of entries.
func (l *Library) UnmarshalJSON(b []byte) error {
	var entries []Entry
	if err := json.Unmarshal(b, &entries); err != nil {
		return err
	}
	l.entries = entries
	return nil
}
