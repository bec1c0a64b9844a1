// Package selection plans the trick attempts of one skater's run: which piece,
// which trick type, core and modifier combo, and whether to ride switch.
package selection

import (
	"slices"

	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/chance"
	"github.com/okian/skatepark/internal/domain/model"
)

// Request carries everything one selection needs.
type Request struct {
	Skater model.Skater
	Target model.RunTarget
	// ParkPieces is every piece on the park, used when the run has nothing
	// fresh or nothing attemptable.
	ParkPieces []model.RunPiece
	// History is the skater's own session history.
	History model.History
	// Progress is the fraction of the skater's energy already used, 0..1.
	Progress float64
}

// Selector chooses attempt plans. It draws from one random source and is not
// safe for concurrent use.
type Selector struct {
	catalog *catalog.Catalog
	src     chance.Source
}

// New returns a selector.
func New(cat *catalog.Catalog, src chance.Source) *Selector {
	return &Selector{catalog: cat, src: src}
}

// CanAttempt reports whether the skater has anything attemptable on the
// target's own pieces.
func (s *Selector) CanAttempt(skater model.Skater, target model.RunTarget) bool {
	tree, ok := s.catalog.Tree(skater.Sport)
	if !ok {
		return false
	}
	v := newSkaterView(tree, skater)
	return slices.ContainsFunc(target.Pieces, v.eligible)
}

// Select returns one plan per trick opportunity of the chosen piece.
//
// The piece is drawn from the run's attemptable pieces weighted by
// opportunities, widening to the whole park when the run has none. When
// nothing is attemptable anywhere the result is made of no-attempt plans,
// one per opportunity of a run piece, or a single one when the run has no
// opportunities at all.
func (s *Selector) Select(req Request) []model.Plan {
	tree, ok := s.catalog.Tree(req.Skater.Sport)
	if !ok {
		return s.noAttempt(req.Target)
	}
	v := newSkaterView(tree, req.Skater)

	candidates := filterPieces(req.Target.Pieces, v.eligible)
	if len(candidates) == 0 {
		candidates = filterPieces(req.ParkPieces, v.eligible)
	}
	if len(candidates) == 0 {
		return s.noAttempt(req.Target)
	}
	chosen, _ := chance.Pick(s.src, candidates, opportunityWeight)

	others := filterPieces(req.ParkPieces, func(p model.RunPiece) bool {
		return p.Key() != chosen.Key() && v.eligible(p)
	})

	used := make(map[string]bool, len(req.History.Attempted))
	for k := range req.History.Attempted {
		used[k] = true
	}
	usedInRun := map[string]bool{}
	fresh := func(o option) bool { return !used[o.comboKey] && !usedInRun[o.comboKey] }

	count := chosen.Opportunities
	plans := make([]model.Plan, 0, count)
	chosenOpts := v.options(chosen)
	for i := range count {
		bias := Bias(req.Progress, i, count)
		pool := filter(chosenOpts, fresh)
		if len(pool) == 0 {
			pool = s.freshElsewhere(v, others, fresh)
		}
		if len(pool) == 0 {
			pool = filter(chosenOpts, func(o option) bool { return !usedInRun[o.comboKey] })
		}
		if len(pool) == 0 {
			pool = chosenOpts
		}
		o, ok := s.pick(v, pool, bias)
		if !ok {
			plans = append(plans, model.NoAttemptPlan(i+1))
			continue
		}
		usedInRun[o.comboKey] = true
		plans = append(plans, s.plan(v, o, i+1, bias))
	}
	return plans
}

// freshElsewhere draws another park piece that still has fresh combos,
// weighted by opportunities, and returns its fresh combos.
func (s *Selector) freshElsewhere(v skaterView, pieces []model.RunPiece, fresh func(option) bool) []option {
	type candidate struct {
		piece model.RunPiece
		opts  []option
	}
	var cands []candidate
	for _, p := range pieces {
		if opts := filter(v.options(p), fresh); len(opts) > 0 {
			cands = append(cands, candidate{piece: p, opts: opts})
		}
	}
	c, ok := chance.Pick(s.src, cands, func(c candidate) float64 { return opportunityWeight(c.piece) })
	if !ok {
		return nil
	}
	return c.opts
}

// pick walks type, core, combo size and combo, each a weighted draw.
func (s *Selector) pick(v skaterView, pool []option, bias float64) (option, bool) {
	if len(pool) == 0 {
		return option{}, false
	}

	var types []catalog.TrickType
	for _, o := range pool {
		if !slices.Contains(types, o.typ) {
			types = append(types, o.typ)
		}
	}
	weights := make(map[catalog.TrickType]float64, len(types))
	for i, w := range TypeWeights(types, v.ratings) {
		weights[types[i]] = w
	}
	typ, _ := chance.Pick(s.src, types, func(t catalog.TrickType) float64 { return weights[t] })
	pool = filter(pool, func(o option) bool { return o.typ == typ })

	var cores []option
	for _, o := range pool {
		if !slices.ContainsFunc(cores, func(c option) bool { return c.entry.Core == o.entry.Core }) {
			cores = append(cores, o)
		}
	}
	core, _ := chance.Pick(s.src, cores, func(o option) float64 { return 1 + bias*o.coreScore })
	pool = filter(pool, func(o option) bool { return o.entry.Core == core.entry.Core })

	var sizes []int
	for _, o := range pool {
		if !slices.Contains(sizes, len(o.mods)) {
			sizes = append(sizes, len(o.mods))
		}
	}
	size, _ := chance.Pick(s.src, sizes, func(n int) float64 { return sizeWeight(n, bias) })
	pool = filter(pool, func(o option) bool { return len(o.mods) == size })

	return chance.Pick(s.src, pool, func(o option) float64 { return 1 + bias*float64(o.levels) })
}

func (s *Selector) plan(v skaterView, o option, opportunity int, bias float64) model.Plan {
	p := model.Plan{
		Piece:           o.piece.Name,
		Coordinate:      o.piece.Coordinate,
		PieceDifficulty: o.diff,
		Type:            o.typ,
		Core:            o.entry.Core,
		CoreLevel:       o.entry.CoreLevel,
		Modifiers:       slices.Clone(o.mods),
		TrickName:       catalog.TrickName(o.entry.Core, o.mods),
		ComboKey:        o.comboKey,
		Opportunity:     opportunity,
		Attempt:         1,
		Bias:            bias,
	}
	rating := v.skater.SwitchRating
	if chance.Percent(s.src) <= SwitchChance(rating) {
		p.Switch = true
		p.SwitchPenaltyPct = SwitchPenalty(rating)
	}
	return p
}

func (s *Selector) noAttempt(target model.RunTarget) []model.Plan {
	withOpps := filterPieces(target.Pieces, func(p model.RunPiece) bool { return p.Opportunities > 0 })
	p, ok := chance.Pick(s.src, withOpps, opportunityWeight)
	if !ok {
		return []model.Plan{model.NoAttemptPlan(1)}
	}
	plans := make([]model.Plan, 0, p.Opportunities)
	for i := range p.Opportunities {
		plans = append(plans, model.NoAttemptPlan(i+1))
	}
	return plans
}

func opportunityWeight(p model.RunPiece) float64 { return float64(max(1, p.Opportunities)) }

func filterPieces(pieces []model.RunPiece, keep func(model.RunPiece) bool) []model.RunPiece {
	var out []model.RunPiece
	for _, p := range pieces {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
