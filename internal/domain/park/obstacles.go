// Package park turns a grid layout of placed obstacles into the run targets a
// session schedules skaters onto.
//
// Standalone pieces occupy a rectangular footprint and launch skaters from
// their top-left tile. Route pieces sit one per tile along a straight line;
// every piece with the Start role launches a run over the rest of the route.
package park

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// Kind separates standalone obstacles from route segments.
type Kind string

// Obstacle kinds.
const (
	KindStandalone Kind = "standalone"
	KindRoute      Kind = "route"
)

// Role is the part a route piece can play in a route.
type Role string

// Route roles.
const (
	RoleStart  Role = "Start"
	RoleMiddle Role = "Middle"
	RoleEnd    Role = "End"
)

// Size is a footprint in tiles.
type Size struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

func (s Size) String() string { return strconv.Itoa(s.Rows) + "x" + strconv.Itoa(s.Cols) }

// Obstacle is a catalog entry that can be placed on the grid.
type Obstacle struct {
	Name          string           `json:"name"`
	Kind          Kind             `json:"kind"`
	Size          Size             `json:"size"`
	Roles         []Role           `json:"roles,omitempty"`
	StartingSpots int              `json:"startingSpots"`
	Opportunities int              `json:"opportunities"`
	Difficulty    model.Difficulty `json:"difficulty"`
}

// HasRole reports whether a route piece can play the role.
func (o Obstacle) HasRole(r Role) bool { return slices.Contains(o.Roles, r) }

// Obstacles is the set of placeable pieces keyed by name.
type Obstacles struct {
	byName map[string]Obstacle
	order  []string
}

// NewObstacles validates and indexes obstacles.
func NewObstacles(list ...Obstacle) (*Obstacles, error) {
	o := &Obstacles{byName: make(map[string]Obstacle, len(list))}
	for _, ob := range list {
		if err := validateObstacle(ob); err != nil {
			return nil, err
		}
		if _, dup := o.byName[ob.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate piece %q", ErrLoadObstacles, ob.Name)
		}
		o.byName[ob.Name] = ob
		o.order = append(o.order, ob.Name)
	}
	return o, nil
}

// Get returns the obstacle with the given name.
func (o *Obstacles) Get(name string) (Obstacle, bool) {
	ob, ok := o.byName[name]
	return ob, ok
}

// All returns the obstacles in load order.
func (o *Obstacles) All() []Obstacle {
	out := make([]Obstacle, 0, len(o.order))
	for _, n := range o.order {
		out = append(out, o.byName[n])
	}
	return out
}

func validateObstacle(ob Obstacle) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %q: %s", ErrLoadObstacles, ob.Name, fmt.Sprintf(format, args...))
	}
	switch {
	case strings.TrimSpace(ob.Name) == "":
		return fmt.Errorf("%w: piece without a name", ErrLoadObstacles)
	case ob.StartingSpots < 0:
		return fail("negative starting spots")
	case ob.Opportunities < 0:
		return fail("negative trick opportunities")
	}
	switch ob.Kind {
	case KindStandalone:
		if ob.Size.Rows < 1 || ob.Size.Cols < 1 {
			return fail("bad size %s", ob.Size)
		}
	case KindRoute:
		if len(ob.Roles) == 0 {
			return fail("route piece without roles")
		}
	default:
		return fail("unknown kind %q", ob.Kind)
	}
	for sport, byType := range ob.Difficulty {
		for t, d := range byType {
			if d < 0 || d > 10 {
				return fail("%s %s difficulty %d outside 0..10", sport, t, d)
			}
		}
	}
	return nil
}

// The obstacle file lists standalone and route pieces:
//
//	standalone:
//	  - name: "Standalone Example 2x2"
//	    size: 2x2
//	    spots: 2
//	    opportunities: 2
//	    difficulty:
//	      Rollerblader: {stall: 2, grind: 3}
//	route:
//	  - name: "Drop In"
//	    roles: [Start]
//	    spots: 2
type obstacleFile struct {
	Standalone []obstacleDoc `yaml:"standalone"`
	Route      []obstacleDoc `yaml:"route"`
}

type obstacleDoc struct {
	Name          string                    `yaml:"name"`
	Size          string                    `yaml:"size"`
	Roles         []string                  `yaml:"roles"`
	Spots         int                       `yaml:"spots"`
	Opportunities int                       `yaml:"opportunities"`
	Difficulty    map[string]map[string]int `yaml:"difficulty"`
}

// LoadObstaclesFile reads and validates an obstacle file.
func LoadObstaclesFile(path string) (*Obstacles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadObstacles, err)
	}
	return ParseObstacles(data)
}

// ParseObstacles decodes and validates YAML obstacles.
func ParseObstacles(data []byte) (*Obstacles, error) {
	var f obstacleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadObstacles, err)
	}
	var list []Obstacle
	for _, d := range f.Standalone {
		size, err := parseSize(d.Size)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrLoadObstacles, d.Name, err)
		}
		ob, err := d.obstacle(KindStandalone, size)
		if err != nil {
			return nil, err
		}
		list = append(list, ob)
	}
	for _, d := range f.Route {
		ob, err := d.obstacle(KindRoute, Size{Rows: 1, Cols: 1})
		if err != nil {
			return nil, err
		}
		for _, r := range d.Roles {
			role, err := parseRole(r)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %w", ErrLoadObstacles, d.Name, err)
			}
			ob.Roles = append(ob.Roles, role)
		}
		list = append(list, ob)
	}
	return NewObstacles(list...)
}

func (d obstacleDoc) obstacle(kind Kind, size Size) (Obstacle, error) {
	diff := make(model.Difficulty, len(d.Difficulty))
	for sportName, byType := range d.Difficulty {
		sport, err := catalog.ParseSport(sportName)
		if err != nil {
			return Obstacle{}, fmt.Errorf("%w: %q: %w", ErrLoadObstacles, d.Name, err)
		}
		ratings := make(map[catalog.TrickType]int, len(byType))
		for typeName, v := range byType {
			t := catalog.TrickType(typeName)
			if !slices.Contains(catalog.Types, t) {
				return Obstacle{}, fmt.Errorf("%w: %q: unknown trick type %q", ErrLoadObstacles, d.Name, typeName)
			}
			ratings[t] = v
		}
		diff[sport] = ratings
	}
	return Obstacle{
		Name:          d.Name,
		Kind:          kind,
		Size:          size,
		StartingSpots: d.Spots,
		Opportunities: d.Opportunities,
		Difficulty:    diff,
	}, nil
}

// parseSize reads "RxC".
func parseSize(s string) (Size, error) {
	rows, cols, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Size{}, fmt.Errorf("bad size %q", s)
	}
	r, err1 := strconv.Atoi(rows)
	c, err2 := strconv.Atoi(cols)
	if err1 != nil || err2 != nil || r < 1 || c < 1 {
		return Size{}, fmt.Errorf("bad size %q", s)
	}
	return Size{Rows: r, Cols: c}, nil
}

func parseRole(s string) (Role, error) {
	for _, r := range []Role{RoleStart, RoleMiddle, RoleEnd} {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown route role %q", s)
}
