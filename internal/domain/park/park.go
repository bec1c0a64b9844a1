package park

import (
	"fmt"
	"strconv"

	"github.com/okian/skatepark/internal/domain/model"
)

// Park is a validated layout with its derived run targets.
type Park struct {
	layout  Layout
	targets []model.RunTarget
	pieces  []model.RunPiece
}

// New places the layout's pieces, checking bounds, overlaps and route shape,
// and derives the starting targets.
//
// A standalone piece gives one target covering its footprint. Every route
// piece with the Start role gives a target covering the route from that
// piece on. Targets without capacity or tiles are left out.
func New(obstacles *Obstacles, layout Layout) (*Park, error) {
	if layout.GridSize < MinGridSize || layout.GridSize > MaxGridSize {
		return nil, fmt.Errorf("%w: %d not in %d..%d", ErrGridSize, layout.GridSize, MinGridSize, MaxGridSize)
	}
	p := &Park{layout: layout}
	occupied := map[model.Tile]string{}
	occupy := func(name string, t model.Tile) error {
		if t.Row < 0 || t.Col < 0 || t.Row >= layout.GridSize || t.Col >= layout.GridSize {
			return fmt.Errorf("%w: %q at %s", ErrOutOfBounds, name, t.Coordinate())
		}
		if other, ok := occupied[t]; ok {
			return fmt.Errorf("%w: %q and %q at %s", ErrOverlap, name, other, t.Coordinate())
		}
		occupied[t] = name
		return nil
	}

	for i, pl := range layout.Standalone {
		ob, ok := obstacles.Get(pl.Piece)
		if !ok || ob.Kind != KindStandalone {
			return nil, fmt.Errorf("%w: standalone %q", ErrUnknownPiece, pl.Piece)
		}
		tiles := footprint(pl.At, ob.Size)
		for _, t := range tiles {
			if err := occupy(ob.Name, t); err != nil {
				return nil, err
			}
		}
		piece := runPiece(ob, pl.At)
		p.pieces = append(p.pieces, piece)
		p.targets = append(p.targets, model.RunTarget{
			ID:       "standalone-" + strconv.Itoa(i+1),
			Label:    ob.Name + " (" + pl.At.Coordinate() + ")",
			Kind:     model.Standalone,
			Capacity: ob.StartingSpots,
			Start:    pl.At,
			Tiles:    tiles,
			Pieces:   []model.RunPiece{piece},
		})
	}

	for r, route := range layout.Routes {
		obs, err := routeObstacles(obstacles, route)
		if err != nil {
			return nil, err
		}
		tiles := make([]model.Tile, len(route.Pieces))
		pieces := make([]model.RunPiece, len(route.Pieces))
		for i, pl := range route.Pieces {
			if err := occupy(obs[i].Name, pl.At); err != nil {
				return nil, err
			}
			tiles[i] = pl.At
			pieces[i] = runPiece(obs[i], pl.At)
		}
		p.pieces = append(p.pieces, pieces...)
		for i, ob := range obs {
			if !ob.HasRole(RoleStart) {
				continue
			}
			p.targets = append(p.targets, model.RunTarget{
				ID:       "route-" + strconv.Itoa(r+1) + "-" + strconv.Itoa(i+1),
				Label:    route.Name + " (" + ob.Name + " " + tiles[i].Coordinate() + ")",
				Kind:     model.Route,
				Capacity: ob.StartingSpots,
				Start:    tiles[i],
				Tiles:    tiles[i:],
				Pieces:   pieces[i:],
			})
		}
	}

	usable := p.targets[:0]
	for _, t := range p.targets {
		if t.Usable() {
			usable = append(usable, t)
		}
	}
	p.targets = usable
	return p, nil
}

// routeObstacles resolves a route's pieces and checks its shape: it starts
// with a Start piece, only its last piece may be an End, and it runs in a
// straight line of adjacent tiles.
func routeObstacles(obstacles *Obstacles, route RouteLayout) ([]Obstacle, error) {
	if len(route.Pieces) == 0 {
		return nil, fmt.Errorf("%w: %q has no pieces", ErrBadRoute, route.Name)
	}
	obs := make([]Obstacle, len(route.Pieces))
	for i, pl := range route.Pieces {
		ob, ok := obstacles.Get(pl.Piece)
		if !ok || ob.Kind != KindRoute {
			return nil, fmt.Errorf("%w: route piece %q", ErrUnknownPiece, pl.Piece)
		}
		obs[i] = ob
	}
	if !obs[0].HasRole(RoleStart) {
		return nil, fmt.Errorf("%w: %q must begin with a start piece", ErrBadRoute, route.Name)
	}
	for _, ob := range obs[:len(obs)-1] {
		if ob.HasRole(RoleEnd) && !ob.HasRole(RoleMiddle) && !ob.HasRole(RoleStart) {
			return nil, fmt.Errorf("%w: %q continues past end piece %q", ErrBadRoute, route.Name, ob.Name)
		}
	}
	if len(route.Pieces) > 1 {
		first, second := route.Pieces[0].At, route.Pieces[1].At
		dr, dc := second.Row-first.Row, second.Col-first.Col
		if abs(dr)+abs(dc) != 1 {
			return nil, fmt.Errorf("%w: %q is not a line of adjacent tiles", ErrBadRoute, route.Name)
		}
		for i := 1; i < len(route.Pieces); i++ {
			prev, cur := route.Pieces[i-1].At, route.Pieces[i].At
			if cur.Row-prev.Row != dr || cur.Col-prev.Col != dc {
				return nil, fmt.Errorf("%w: %q bends at %s", ErrBadRoute, route.Name, cur.Coordinate())
			}
		}
	}
	return obs, nil
}

func footprint(topLeft model.Tile, size Size) []model.Tile {
	tiles := make([]model.Tile, 0, size.Rows*size.Cols)
	for r := range size.Rows {
		for c := range size.Cols {
			tiles = append(tiles, model.Tile{Row: topLeft.Row + r, Col: topLeft.Col + c})
		}
	}
	return tiles
}

func runPiece(ob Obstacle, at model.Tile) model.RunPiece {
	return model.RunPiece{
		Name:          ob.Name,
		Coordinate:    at.Coordinate(),
		Opportunities: ob.Opportunities,
		Difficulty:    ob.Difficulty,
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Layout returns the layout the park was built from.
func (p *Park) Layout() Layout { return p.layout }

// Targets returns the usable starting targets: standalone pieces first in
// layout order, then route starts.
func (p *Park) Targets() []model.RunTarget {
	out := make([]model.RunTarget, len(p.targets))
	copy(out, p.targets)
	return out
}

// Target looks a target up by id.
func (p *Park) Target(id string) (model.RunTarget, bool) {
	for _, t := range p.targets {
		if t.ID == id {
			return t, true
		}
	}
	return model.RunTarget{}, false
}

// AllPieces returns every placed piece, used for park-wide fallback.
func (p *Park) AllPieces() []model.RunPiece {
	out := make([]model.RunPiece, len(p.pieces))
	copy(out, p.pieces)
	return out
}

// Capacity is the total number of starting spots across usable targets.
func (p *Park) Capacity() int {
	total := 0
	for _, t := range p.targets {
		total += t.Capacity
	}
	return total
}
