package selection

import (
	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/model"
	"github.com/okian/skatepark/internal/domain/progression"
)

// option is one concrete trick a skater could do on a piece.
type option struct {
	piece     model.RunPiece
	typ       catalog.TrickType
	diff      int
	entry     progression.Entry
	mods      []catalog.Modifier
	levels    int
	comboKey  string
	coreScore float64
}

// skaterView caches what selection needs to know about one skater.
type skaterView struct {
	skater  model.Skater
	skill   float64
	ratings map[catalog.TrickType]float64
}

func newSkaterView(tree *catalog.Tree, s model.Skater) skaterView {
	return skaterView{
		skater:  s,
		skill:   progression.SkillLevel(tree, s.Library),
		ratings: progression.TypeRatings(tree, s.Library),
	}
}

// Attemptable is the skill gate: a piece rated d for a type needs a skill
// level of at least (d-2)*10.
func Attemptable(skill float64, difficulty int) bool {
	return skill >= float64(difficulty-2)*10
}

// eligibleTypes lists the types the skater can try on the piece: rated for
// the sport, passing the skill gate, with at least one owned core.
func (v skaterView) eligibleTypes(p model.RunPiece) []catalog.TrickType {
	if p.Opportunities < 1 {
		return nil
	}
	var out []catalog.TrickType
	for _, t := range p.Types(v.skater.Sport) {
		d, _ := p.DifficultyFor(v.skater.Sport, t)
		if !Attemptable(v.skill, d) {
			continue
		}
		if len(v.skater.Library.Cores(t)) == 0 {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (v skaterView) eligible(p model.RunPiece) bool {
	return len(v.eligibleTypes(p)) > 0
}

// options enumerates every core and modifier combo of size 0, 1 or 2 the
// skater owns on the piece. Two modifiers of the same variant branch never
// pair up.
func (v skaterView) options(p model.RunPiece) []option {
	var out []option
	for _, t := range v.eligibleTypes(p) {
		d, _ := p.DifficultyFor(v.skater.Sport, t)
		for _, e := range v.skater.Library.Cores(t) {
			score := coreScore(e)
			add := func(mods ...catalog.Modifier) {
				names := make([]string, 0, len(mods))
				levels := 0
				for _, m := range mods {
					names = append(names, m.Name)
					levels += m.Level
				}
				out = append(out, option{
					piece:     p,
					typ:       t,
					diff:      d,
					entry:     e,
					mods:      mods,
					levels:    levels,
					comboKey:  model.ComboKey(p.Name, p.Coordinate, t, e.Core, names),
					coreScore: score,
				})
			}
			add()
			for i, a := range e.Modifiers {
				add(a)
				for _, b := range e.Modifiers[i+1:] {
					if a.ParentVariant == b.ParentVariant {
						continue
					}
					add(a, b)
				}
			}
		}
	}
	return out
}

// coreScore is coreLevel*2 plus the two highest modifier levels plus half a
// point per modifier.
func coreScore(e progression.Entry) float64 {
	first, second := 0, 0
	for _, m := range e.Modifiers {
		switch {
		case m.Level > first:
			first, second = m.Level, first
		case m.Level > second:
			second = m.Level
		}
	}
	return float64(e.CoreLevel*2+first+second) + float64(len(e.Modifiers))*0.5
}

func filter(opts []option, keep func(option) bool) []option {
	var out []option
	for _, o := range opts {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}
