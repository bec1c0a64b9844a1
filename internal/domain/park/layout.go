package park

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/okian/skatepark/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// Grid size bounds.
const (
	MinGridSize = 3
	MaxGridSize = 10
)

// Placement puts an obstacle on a tile. For standalone pieces the tile is
// the top-left corner of the footprint.
type Placement struct {
	Piece string     `json:"piece"`
	At    model.Tile `json:"at"`
}

// RouteLayout is an ordered line of route pieces.
type RouteLayout struct {
	Name   string      `json:"name"`
	Pieces []Placement `json:"pieces"`
}

// Layout is a park as drawn: a square grid with placed pieces and routes.
type Layout struct {
	GridSize   int           `json:"gridSize"`
	Standalone []Placement   `json:"standalone"`
	Routes     []RouteLayout `json:"routes"`
}

// The layout file refers to pieces by name and tiles by coordinate:
//
//	grid: 6
//	standalone:
//	  - {piece: "Standalone Example 2x2", at: A1}
//	routes:
//	  - name: "Main Line"
//	    pieces:
//	      - {piece: "Drop In", at: C1}
//	      - {piece: "Flat Rail", at: C2}
type layoutFile struct {
	Grid       int        `yaml:"grid"`
	Standalone []placeDoc `yaml:"standalone"`
	Routes     []routeDoc `yaml:"routes"`
}

type placeDoc struct {
	Piece string `yaml:"piece"`
	At    string `yaml:"at"`
}

type routeDoc struct {
	Name   string     `yaml:"name"`
	Pieces []placeDoc `yaml:"pieces"`
}

// LoadLayoutFile reads a layout file.
func LoadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("%w: %w", ErrLoadLayout, err)
	}
	return ParseLayout(data)
}

// ParseLayout decodes a YAML layout. Pieces are checked against the
// obstacles only when the park is built.
func ParseLayout(data []byte) (Layout, error) {
	var f layoutFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Layout{}, fmt.Errorf("%w: %w", ErrLoadLayout, err)
	}
	l := Layout{GridSize: f.Grid}
	for _, d := range f.Standalone {
		p, err := d.placement()
		if err != nil {
			return Layout{}, err
		}
		l.Standalone = append(l.Standalone, p)
	}
	for i, r := range f.Routes {
		rl := RouteLayout{Name: r.Name}
		if rl.Name == "" {
			rl.Name = "Route " + strconv.Itoa(i+1)
		}
		for _, d := range r.Pieces {
			p, err := d.placement()
			if err != nil {
				return Layout{}, err
			}
			rl.Pieces = append(rl.Pieces, p)
		}
		l.Routes = append(l.Routes, rl)
	}
	return l, nil
}

func (d placeDoc) placement() (Placement, error) {
	t, err := ParseCoordinate(d.At)
	if err != nil {
		return Placement{}, fmt.Errorf("%w: %q: %w", ErrLoadLayout, d.Piece, err)
	}
	return Placement{Piece: d.Piece, At: t}, nil
}

// ParseCoordinate reads an "A1"-style coordinate: a row letter and a
// 1-based column.
func ParseCoordinate(s string) (model.Tile, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 || s[0] < 'A' || s[0] > 'Z' {
		return model.Tile{}, fmt.Errorf("%w: %q", ErrBadCoordinate, s)
	}
	col, err := strconv.Atoi(s[1:])
	if err != nil || col < 1 {
		return model.Tile{}, fmt.Errorf("%w: %q", ErrBadCoordinate, s)
	}
	return model.Tile{Row: int(s[0] - 'A'), Col: col - 1}, nil
}
