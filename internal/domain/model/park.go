package model

import (
	"strconv"

	"github.com/okian/skatepark/internal/domain/catalog"
)

// Tile is a grid cell.
type Tile struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// Coordinate renders the tile as a letter row and 1-based column, e.g. "B3".
func (t Tile) Coordinate() string {
	if t.Row < 0 || t.Row > 25 || t.Col < 0 {
		return "?" + strconv.Itoa(t.Row) + ":" + strconv.Itoa(t.Col)
	}
	return string(rune('A'+t.Row)) + strconv.Itoa(t.Col+1)
}

// Difficulty maps sport then trick type to a 0..10 rating. A missing entry
// means the type cannot be done on the piece.
type Difficulty map[catalog.Sport]map[catalog.TrickType]int

// RunPiece is an obstacle along a run.
type RunPiece struct {
	Name          string     `json:"name"`
	Coordinate    string     `json:"coordinate"`
	Opportunities int        `json:"opportunities"`
	Difficulty    Difficulty `json:"difficulty"`
}

// Key identifies the piece within a park.
func (p RunPiece) Key() string { return p.Name + "|" + p.Coordinate }

// DifficultyFor returns the rating of a trick type for a sport.
func (p RunPiece) DifficultyFor(sport catalog.Sport, t catalog.TrickType) (int, bool) {
	byType, ok := p.Difficulty[sport]
	if !ok {
		return 0, false
	}
	d, ok := byType[t]
	return d, ok
}

// Types returns the trick types rated for a sport, in catalog order.
func (p RunPiece) Types(sport catalog.Sport) []catalog.TrickType {
	var out []catalog.TrickType
	for _, t := range catalog.Types {
		if _, ok := p.DifficultyFor(sport, t); ok {
			out = append(out, t)
		}
	}
	return out
}

// TargetKind says whether a target launches a standalone piece or a route.
type TargetKind string

// Target kinds.
const (
	Standalone TargetKind = "standalone"
	Route      TargetKind = "route"
)

// RunTarget is a capacity-limited launch point with the tiles a skater
// crosses and the pieces met along the way.
type RunTarget struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Kind     TargetKind `json:"kind"`
	Capacity int        `json:"capacity"`
	Start    Tile       `json:"start"`
	Tiles    []Tile     `json:"tiles"`
	Pieces   []RunPiece `json:"pieces"`
}

// Usable reports whether the target can take skaters at all.
func (t RunTarget) Usable() bool { return t.Capacity > 0 && len(t.Tiles) > 0 }
