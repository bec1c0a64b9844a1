// Package roster generates skaters and keeps the pool of recruited ones.
package roster

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/chance"
	"github.com/okian/skatepark/internal/domain/model"
	"github.com/okian/skatepark/internal/domain/progression"
)

var (
	firstNames = []string{"Alex", "Mia", "Noah", "Zoe", "Liam", "Eva", "Jade", "Cole", "Ivy", "Finn"}
	lastNames  = []string{"Mercer", "Hart", "Price", "Quinn", "Ford", "Stone", "Vale", "Bishop", "Reed", "Cross"}
)

// Generated attribute ranges.
const (
	minEnergy, maxEnergy = 3, 10
	energySkew           = 1.75
	maxDetermination     = 100
	maxSteeze            = 10
	maxStartSwitch       = 3
)

// Generator creates skaters with builder-made libraries. It shares the
// builder's random stream and is not safe for concurrent use.
type Generator struct {
	builder *progression.Builder
	src     chance.Source
}

// NewGenerator returns a generator drawing attributes from src.
func NewGenerator(b *progression.Builder, src chance.Source) *Generator {
	return &Generator{builder: b, src: src}
}

// Generate creates one skater of the sport at the tier.
func (g *Generator) Generate(sport catalog.Sport, tier progression.Tier) (model.Skater, error) {
	lib, err := g.builder.Build(sport, tier)
	if err != nil {
		return model.Skater{}, fmt.Errorf("generate %s %s skater: %w", tier, sport, err)
	}
	id, err := uuid.NewRandomFromReader(chance.Reader{Src: g.src})
	if err != nil {
		return model.Skater{}, fmt.Errorf("generate skater id: %w", err)
	}
	name := firstNames[g.src.IntN(len(firstNames))] + " " + lastNames[g.src.IntN(len(lastNames))]
	return model.Skater{
		ID:            id.String(),
		Name:          name,
		Initials:      Initials(name),
		Sport:         sport,
		Tier:          tier,
		Energy:        skewedLow(g.src, minEnergy, maxEnergy, energySkew),
		Determination: chance.Between(g.src, 1, maxDetermination),
		Steeze:        chance.Between(g.src, 1, maxSteeze),
		SwitchRating:  chance.Between(g.src, 1, maxStartSwitch),
		Library:       lib,
	}, nil
}

// GenerateN creates n skaters.
func (g *Generator) GenerateN(n int, sport catalog.Sport, tier progression.Tier) ([]model.Skater, error) {
	out := make([]model.Skater, 0, max(0, n))
	for range n {
		s, err := g.Generate(sport, tier)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Initials takes the first letter of the first two words, upper-cased.
func Initials(name string) string {
	var b strings.Builder
	for i, w := range strings.Fields(name) {
		if i == 2 {
			break
		}
		r := []rune(w)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	return b.String()
}

// skewedLow draws from lo..hi with the mass pushed toward lo by raising a
// uniform draw to power.
func skewedLow(src chance.Source, lo, hi int, power float64) int {
	v := lo + int(math.Pow(src.Float64(), power)*float64(hi-lo+1))
	return min(hi, v)
}
