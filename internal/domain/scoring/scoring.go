// Package scoring turns an attempt plan into an outcome: the land roll, the
// control and steeze scores, the points and the retry decision.
package scoring

import (
	"math"

	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/chance"
	"github.com/okian/skatepark/internal/domain/model"
)

// Scoring constants.
const (
	coreLevelWeight      = 5
	pieceDifficultyStep  = 9
	flatLandPenalty      = 5
	pieceLandPenalty     = 2
	defaultSteezeNoise   = 3
	repeatPointsFactor   = 0.8
	switchPointsFactor   = 1.2
	minSteeze, maxSteeze = 1, 100
)

// Option applies a configuration option to the TableResolver.
type Option func(*TableResolver)

// WithSteezeNoise sets the symmetric noise added to steeze scores. Negative
// values are ignored.
func WithSteezeNoise(n int) Option {
	return func(r *TableResolver) {
		if n >= 0 {
			r.noise = n
		}
	}
}

// Input is everything a resolution needs.
type Input struct {
	Plan          model.Plan
	Skill         float64
	Steeze        int // skater steeze rating 1..10
	Determination int // 1..100
	// AlreadyLanded is set when the same combo key was landed earlier in the
	// session.
	AlreadyLanded bool
}

// Resolver resolves attempt plans.
type Resolver interface {
	Resolve(in Input) model.Outcome
}

// TableResolver resolves plans with the fixed outcome tables. It draws from
// one random source and is not safe for concurrent use.
type TableResolver struct {
	src   chance.Source
	noise int
}

// NewTableResolver returns a resolver drawing from src.
func NewTableResolver(src chance.Source, opts ...Option) *TableResolver {
	r := &TableResolver{src: src, noise: defaultSteezeNoise}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve rolls the plan. No-attempt plans come back bailed, pointless and
// never retried.
func (r *TableResolver) Resolve(in Input) model.Outcome {
	if in.Plan.NoAttempt {
		return model.Outcome{Steeze: minSteeze}
	}

	diff := Difficulty(in.Plan)
	land := LandChance(diff, in.Skill, in.Plan.PieceDifficulty)
	out := model.Outcome{
		Difficulty: diff,
		Chance:     math.Max(0, diff-in.Skill),
		LandChance: land,
		Roll:       chance.Percent(r.src),
	}
	out.Landed = out.Roll <= land

	if !out.Landed {
		out.Control, out.Steeze = 0, minSteeze
		out.Retry = in.Plan.Attempt < model.MaxAttempts && chance.Percent(r.src) <= in.Determination
		return out
	}

	lo, hi := ControlRange(land)
	out.Control = chance.Between(r.src, lo, hi)
	noise := 0
	if r.noise > 0 {
		noise = chance.Between(r.src, -r.noise, r.noise)
	}
	out.Steeze = SteezeScore(in.Steeze, out.Control, noise)
	out.Points = Points(in.Plan, out.Steeze, in.AlreadyLanded)
	return out
}

// Difficulty is coreLevel*5 plus the modifier levels plus 9 per piece
// difficulty point above 1, raised by the switch penalty when riding switch.
func Difficulty(p model.Plan) float64 {
	d := float64(p.CoreLevel*coreLevelWeight + p.ModifierLevels() + max(0, p.PieceDifficulty-1)*pieceDifficultyStep)
	if p.Switch {
		d *= float64(100+p.SwitchPenaltyPct) / 100
	}
	return d
}

// LandChance maps the shortfall of skill against difficulty onto the land
// table, then takes the flat and per-piece-difficulty penalties.
func LandChance(difficulty, skill float64, pieceDifficulty int) int {
	shortfall := math.Max(0, difficulty-skill)
	var base int
	switch {
	case shortfall <= 0:
		base = 95
	case shortfall <= 5:
		base = 90
	case shortfall <= 10:
		base = 70
	case shortfall <= 15:
		base = 50
	case shortfall <= 25:
		base = 30
	case shortfall <= 50:
		base = 10
	default:
		base = 1
	}
	pct := base - flatLandPenalty - pieceLandPenalty*max(0, pieceDifficulty-1)
	return min(100, max(0, pct))
}

// ControlRange is the inclusive control score range for a land chance.
func ControlRange(landChance int) (int, int) {
	switch {
	case landChance >= 85:
		return 75, 100
	case landChance >= 65:
		return 60, 95
	case landChance >= 45:
		return 45, 90
	case landChance >= 25:
		return 30, 85
	case landChance >= 5:
		return 20, 80
	default:
		return 10, 70
	}
}

// SteezeScore starts at rating*10 and moves with control around the 90, 80,
// 70 and 50 marks, plus noise, clamped to 1..100.
func SteezeScore(rating, control, noise int) int {
	c := float64(control)
	var adj float64
	switch {
	case control >= 90:
		adj = 12 + (c - 90)
	case control >= 80:
		adj = 6 + 0.6*(c-80)
	case control >= 70:
		adj = 0.6 * (c - 70)
	case control >= 50:
		adj = -0.4 * (70 - c)
	default:
		adj = -8 - 0.5*(50-c)
	}
	v := int(math.Round(float64(rating*10)+adj)) + noise
	return min(maxSteeze, max(minSteeze, v))
}

var typeBasePoints = map[catalog.TrickType]int{
	catalog.Stall:  10,
	catalog.Grind:  12,
	catalog.Tech:   14,
	catalog.Spin:   12,
	catalog.BigAir: 16,
}

var coreLevelBonus = map[int]int{1: 0, 2: 8, 3: 18}

// modifierBand buckets the summed modifier levels.
func modifierBand(levels int) int {
	switch {
	case levels <= 0:
		return 0
	case levels <= 2:
		return 5
	case levels <= 4:
		return 10
	case levels <= 6:
		return 16
	case levels <= 8:
		return 24
	default:
		return 34
	}
}

// BasePoints looks up the points of a trick before piece and style scaling.
func BasePoints(t catalog.TrickType, coreLevel, modifierLevels int) int {
	base, ok := typeBasePoints[t]
	if !ok {
		base = 10
	}
	bonus, ok := coreLevelBonus[coreLevel]
	if !ok && coreLevel > 3 {
		bonus = coreLevelBonus[3] + 10*(coreLevel-3)
	}
	return base + bonus + modifierBand(modifierLevels)
}

// Points scales the base points by piece difficulty and steeze, discounts a
// combo landed before and rewards switch.
func Points(p model.Plan, steeze int, alreadyLanded bool) int {
	pts := float64(BasePoints(p.Type, p.CoreLevel, p.ModifierLevels()))
	pts *= float64(p.PieceDifficulty)/2 + float64(steeze)/10
	if alreadyLanded {
		pts *= repeatPointsFactor
	}
	if p.Switch {
		pts *= switchPointsFactor
	}
	return int(math.Round(pts))
}
