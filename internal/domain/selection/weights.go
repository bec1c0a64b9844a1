package selection

import "github.com/okian/skatepark/internal/domain/catalog"

// Stance tables indexed by switch rating 1..10. A better switch rating means
// switch comes up less often and costs less when it does.
var (
	switchChancePct  = [...]int{40, 36, 32, 28, 24, 20, 16, 12, 8, 5}
	switchPenaltyPct = [...]int{50, 45, 40, 35, 30, 25, 20, 15, 10, 5}
)

func clampRating(r int) int {
	switch {
	case r < 1:
		return 1
	case r > len(switchChancePct):
		return len(switchChancePct)
	}
	return r
}

// SwitchChance is the percent chance of riding switch for a rating.
func SwitchChance(rating int) int { return switchChancePct[clampRating(rating)-1] }

// SwitchPenalty is the percent difficulty increase of riding switch.
func SwitchPenalty(rating int) int { return switchPenaltyPct[clampRating(rating)-1] }

// TypeWeights normalizes the ratings of the given types into weights. When a
// type takes more than half, it is capped at 0.5 and the remainder is shared
// among the rest in proportion to their ratings.
func TypeWeights(types []catalog.TrickType, ratings map[catalog.TrickType]float64) []float64 {
	n := len(types)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []float64{1}
	}

	w := make([]float64, n)
	total := 0.0
	for i, t := range types {
		w[i] = max(0, ratings[t])
		total += w[i]
	}
	for i := range w {
		if total > 0 {
			w[i] /= total
		} else {
			w[i] = 1 / float64(n)
		}
	}

	best := 0
	for i := range w {
		if w[i] > w[best] {
			best = i
		}
	}
	if w[best] <= 0.5 {
		return w
	}

	rest := 0.0
	for i := range w {
		if i != best {
			rest += w[i]
		}
	}
	for i := range w {
		switch {
		case i == best:
			w[i] = 0.5
		case rest > 0:
			w[i] = w[i] / rest * 0.5
		default:
			w[i] = 0.5 / float64(n-1)
		}
	}
	return w
}

// sizeWeight leans toward bigger combos as bias grows.
func sizeWeight(size int, bias float64) float64 {
	switch size {
	case 0:
		return 1 - 0.7*bias
	case 1:
		return 1
	default:
		return 0.5 + 1.5*bias
	}
}

// Bias escalates through a run: half from how much of the skater's energy
// is used up, half from the position within the run.
func Bias(progress float64, index, count int) float64 {
	pos := 0.0
	if count > 1 {
		pos = float64(index) / float64(count-1)
	}
	return clamp01(0.5*clamp01(progress) + 0.5*pos)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
