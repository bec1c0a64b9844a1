package progression

import (
	"fmt"
	"strings"

	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/chance"
)

// Tier selects how broad a generated library is.
type Tier string

// Tiers.
const (
	Beginner Tier = "beginner"
	Medium   Tier = "medium"
	Pro      Tier = "pro"
)

// Tiers lists every tier from weakest to strongest.
var Tiers = []Tier{Beginner, Medium, Pro}

// ParseTier accepts a tier name case-insensitively.
func ParseTier(s string) (Tier, error) {
	for _, t := range Tiers {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

// Profile is the spending plan of a tier.
type Profile struct {
	// Budget is spent separately in every trick type.
	Budget int `json:"budget"`
	// MaxCoreLevel caps the cores the builder may buy.
	MaxCoreLevel int `json:"maxCoreLevel"`
	// RequiredCoreLevel cores and below are bought before anything else.
	RequiredCoreLevel int `json:"requiredCoreLevel"`
}

// DefaultProfiles returns the stock tier profiles.
func DefaultProfiles() map[Tier]Profile {
	return map[Tier]Profile{
		Beginner: {Budget: 20, MaxCoreLevel: 1, RequiredCoreLevel: 0},
		Medium:   {Budget: 70, MaxCoreLevel: 2, RequiredCoreLevel: 2},
		Pro:      {Budget: 160, MaxCoreLevel: 3, RequiredCoreLevel: 2},
	}
}

// DefaultLookahead is the search depth used when none is configured.
const DefaultLookahead = 2

// Builder generates libraries. A Builder draws from a single random source and
// is not safe for concurrent use.
type Builder struct {
	catalog  *catalog.Catalog
	src      chance.Source
	profiles map[Tier]Profile
	depth    int
}

// Option configures a Builder.
type Option func(*Builder)

// WithProfiles replaces the tier profiles.
func WithProfiles(p map[Tier]Profile) Option {
	return func(b *Builder) {
		for t, prof := range p {
			b.profiles[t] = prof
		}
	}
}

// WithBudgets overrides only the per-type budget of each tier. Zero keeps the
// stock value.
func WithBudgets(beginner, medium, pro int) Option {
	return func(b *Builder) {
		for t, v := range map[Tier]int{Beginner: beginner, Medium: medium, Pro: pro} {
			if v > 0 {
				p := b.profiles[t]
				p.Budget = v
				b.profiles[t] = p
			}
		}
	}
}

// WithLookahead sets how many unlocks ahead the builder searches before
// committing to one. Zero picks uniformly among affordable unlocks; a
// negative depth searches exhaustively, which only suits small trees.
func WithLookahead(depth int) Option {
	return func(b *Builder) { b.depth = depth }
}

// NewBuilder returns a builder over cat drawing from src.
func NewBuilder(cat *catalog.Catalog, src chance.Source, opts ...Option) *Builder {
	b := &Builder{
		catalog:  cat,
		src:      src,
		profiles: DefaultProfiles(),
		depth:    DefaultLookahead,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Profile returns the profile of a tier.
func (b *Builder) Profile(t Tier) (Profile, bool) {
	p, ok := b.profiles[t]
	return p, ok
}

// Build generates a library for sport at tier.
func (b *Builder) Build(sport catalog.Sport, tier Tier) (Library, error) {
	tree, ok := b.catalog.Tree(sport)
	if !ok {
		return Library{}, fmt.Errorf("%w: %s", ErrUnknownSport, sport)
	}
	p, ok := b.profiles[tier]
	if !ok {
		return Library{}, fmt.Errorf("%w: %s", ErrUnknownTier, tier)
	}
	lib := Library{}
	order := buildOrder(tree)
	// Later types can unlock modifiers of earlier ones, so keep sweeping until
	// no type can spend any more of what it has left.
	for {
		grew := false
		for _, t := range order {
			rest := p
			rest.Budget = p.Budget - lib.Spent(t)
			if rest.Budget <= 0 {
				continue
			}
			var spent int
			if lib, spent = b.SpendType(tree, lib, t, rest); spent > 0 {
				grew = true
			}
		}
		if !grew {
			return lib, nil
		}
	}
}

// SpendType spends p.Budget in one trick type starting from lib and returns
// the grown library with the amount spent. Required cores go first in level
// order; after that the builder keeps choosing among affordable unlocks until
// none is left.
func (b *Builder) SpendType(tree *catalog.Tree, lib Library, t catalog.TrickType, p Profile) (Library, int) {
	budget, spent := p.Budget, 0

	for level := 1; level <= p.RequiredCoreLevel && level <= p.MaxCoreLevel; level++ {
		for _, c := range chance.Shuffle(b.src, tree.CoresAtLevel(t, level)) {
			if c.Cost > budget {
				continue
			}
			if next, cost, ok := Unlock(tree, lib, catalog.CoreNode(t, c.Name)); ok {
				lib, budget, spent = next, budget-cost, spent+cost
			}
		}
	}

	s := newSearch(tree, t, p)
	for budget > 0 {
		acts := s.actions(lib, budget)
		if len(acts) == 0 {
			break
		}
		pick := acts[0]
		if b.depth == 0 {
			pick = acts[b.src.IntN(len(acts))]
		} else {
			var top []action
			best := -1
			for _, a := range acts {
				next, _, _ := Unlock(tree, lib, a.node)
				v := a.cost + s.best(next, budget-a.cost, b.depth-1)
				switch {
				case v > best:
					best, top = v, []action{a}
				case v == best:
					top = append(top, a)
				}
			}
			pick = top[b.src.IntN(len(top))]
		}
		next, cost, ok := Unlock(tree, lib, pick.node)
		if !ok || cost < 1 {
			break
		}
		lib, budget, spent = next, budget-cost, spent+cost
	}
	return lib, spent
}

type action struct {
	node catalog.NodeID
	cost int
}

type memoKey struct {
	sig    string
	budget int
	depth  int
}

// search finds the best reachable spend in one type.
type search struct {
	tree    *catalog.Tree
	typ     catalog.TrickType
	profile Profile
	nodes   []catalog.NodeID
	memo    map[memoKey]int
}

func newSearch(tree *catalog.Tree, t catalog.TrickType, p Profile) *search {
	return &search{tree: tree, typ: t, profile: p, nodes: tree.Nodes(t), memo: make(map[memoKey]int)}
}

// permitted applies the tier's core cap. Modifiers are never capped: they
// hang off owned cores, which already passed the cap.
func (s *search) permitted(n catalog.NodeID) bool {
	if !n.IsCore() {
		return true
	}
	core, ok := s.tree.Core(n.CoreRef())
	return ok && core.Level <= s.profile.MaxCoreLevel
}

func (s *search) cost(lib Library, n catalog.NodeID, budget int) (int, bool) {
	if !s.permitted(n) {
		return 0, false
	}
	a := Check(s.tree, lib, n)
	return a.Cost, a.Available && a.Cost <= budget
}

func (s *search) actions(lib Library, budget int) []action {
	var out []action
	for _, n := range s.nodes {
		if c, ok := s.cost(lib, n, budget); ok {
			out = append(out, action{node: n, cost: c})
		}
	}
	return out
}

// best is the largest spend reachable from lib within budget. Past the depth
// horizon the rest of the budget is assumed spendable as long as anything is
// still affordable, so shallow searches only steer away from visible dead
// ends.
func (s *search) best(lib Library, budget, depth int) int {
	if budget <= 0 {
		return 0
	}
	var key memoKey
	if depth != 0 {
		key = memoKey{sig: lib.signature(s.typ), budget: budget, depth: depth}
		if v, ok := s.memo[key]; ok {
			return v
		}
	}
	nextDepth := depth - 1
	if depth < 0 {
		nextDepth = depth
	}
	best := 0
	for _, n := range s.nodes {
		c, ok := s.cost(lib, n, budget)
		if !ok {
			continue
		}
		if depth == 0 {
			return budget
		}
		next, _, _ := Unlock(s.tree, lib, n)
		if v := c + s.best(next, budget-c, nextDepth); v > best {
			best = v
		}
		if best == budget {
			break
		}
	}
	if depth != 0 {
		s.memo[key] = best
	}
	return best
}

// buildOrder puts types whose cores lock other types' modifiers first so the
// locked modifiers are reachable when their own type is spent. Falls back to
// tree order when locks run both ways between types.
func buildOrder(tree *catalog.Tree) []catalog.TrickType {
	types := tree.Types()
	before := make(map[catalog.TrickType]map[catalog.TrickType]bool, len(types))
	for _, t := range types {
		for _, c := range tree.Cores(t) {
			for _, dep := range tree.Dependents(c.Ref()) {
				if dep.Type == t {
					continue
				}
				if before[dep.Type] == nil {
					before[dep.Type] = make(map[catalog.TrickType]bool)
				}
				before[dep.Type][t] = true
			}
		}
	}

	var out []catalog.TrickType
	placed := make(map[catalog.TrickType]bool, len(types))
	for len(out) < len(types) {
		progressed := false
		for _, t := range types {
			if placed[t] {
				continue
			}
			ready := true
			for need := range before[t] {
				if !placed[need] {
					ready = false
					break
				}
			}
			if ready {
				out = append(out, t)
				placed[t] = true
				progressed = true
				break
			}
		}
		if !progressed {
			return types
		}
	}
	return out
}
