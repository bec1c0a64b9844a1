package progression

import "github.com/okian/skatepark/internal/domain/catalog"

// TypeRatings is, per trick type of the tree, the share of that type's
// catalog cost the library has spent, on a 0..100 scale.
func TypeRatings(tree *catalog.Tree, lib Library) map[catalog.TrickType]float64 {
	types := tree.Types()
	out := make(map[catalog.TrickType]float64, len(types))
	for _, t := range types {
		max := tree.MaxSpend(t)
		if max <= 0 {
			out[t] = 0
			continue
		}
		out[t] = float64(lib.Spent(t)) / float64(max) * 100
	}
	return out
}

// SkillLevel is the mean of the type ratings.
func SkillLevel(tree *catalog.Tree, lib Library) float64 {
	types := tree.Types()
	if len(types) == 0 {
		return 0
	}
	ratings := TypeRatings(tree, lib)
	// Summed in tree order so the result does not depend on map iteration.
	total := 0.0
	for _, t := range types {
		total += ratings[t]
	}
	return total / float64(len(types))
}
