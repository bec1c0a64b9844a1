// Package model contains the records passed between the simulation layers:
// skaters, run targets, attempt plans and attempt records.
package model

import (
	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/progression"
)

// Skater is a roster member. Ratings and skill level are derived from the
// library on demand.
type Skater struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Initials      string              `json:"initials"`
	Sport         catalog.Sport       `json:"sport"`
	Tier          progression.Tier    `json:"tier"`
	Energy        int                 `json:"energy"`        // ticks on the clock
	Determination int                 `json:"determination"` // 1..100, retry chance
	Steeze        int                 `json:"steeze"`        // 1..10
	SwitchRating  int                 `json:"switchRating"`  // 1..10
	Library       progression.Library `json:"library"`
}

// TypeRatings derives the per-type ratings from the library.
func (s Skater) TypeRatings(tree *catalog.Tree) map[catalog.TrickType]float64 {
	return progression.TypeRatings(tree, s.Library)
}

// SkillLevel derives the skill level from the library.
func (s Skater) SkillLevel(tree *catalog.Tree) float64 {
	return progression.SkillLevel(tree, s.Library)
}
