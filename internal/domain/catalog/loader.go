package catalog

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// The on-disk format is keyed by sport, then by trick type:
//
//	Skateboarder:
//	  stall:
//	    - core: "Nose Stall"
//	      level: 2
//	      cost: 10
//	      modifiers:
//	        - {name: "Shuv", level: 3, at: B}
//	        - {name: "Kickflip", level: 5, at: B, parent: "Shuv", lock: tech/Kickflip}
type document map[string]map[string][]coreDoc

type coreDoc struct {
	Core      string        `yaml:"core"`
	Level     int           `yaml:"level"`
	Cost      int           `yaml:"cost"`
	Modifiers []modifierDoc `yaml:"modifiers"`
}

type modifierDoc struct {
	Name   string `yaml:"name"`
	Level  int    `yaml:"level"`
	Cost   int    `yaml:"cost"`
	At     string `yaml:"at"`
	Parent string `yaml:"parent"`
	Lock   string `yaml:"lock"`
}

// LoadFile reads and validates a catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("%w: no sports defined", ErrLoadCatalog)
	}

	sports := make([]string, 0, len(doc))
	for s := range doc {
		sports = append(sports, s)
	}
	slices.Sort(sports)

	trees := make([]*Tree, 0, len(doc))
	for _, name := range sports {
		sport, err := ParseSport(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
		}
		cores, err := toCores(doc[name])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadCatalog, sport, err)
		}
		tree, err := NewTree(sport, cores)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
		}
		trees = append(trees, tree)
	}
	return New(trees...), nil
}

func toCores(byType map[string][]coreDoc) ([]Core, error) {
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	// Known types first in canonical order, then anything else by name.
	slices.SortFunc(types, func(a, b string) int {
		ia, ib := slices.Index(Types, TrickType(a)), slices.Index(Types, TrickType(b))
		switch {
		case ia >= 0 && ib >= 0:
			return ia - ib
		case ia >= 0:
			return -1
		case ib >= 0:
			return 1
		}
		return strings.Compare(a, b)
	})

	var out []Core
	for _, t := range types {
		for _, cd := range byType[t] {
			c := Core{
				Type:  TrickType(t),
				Name:  cd.Core,
				Level: cd.Level,
				Cost:  cd.Cost,
			}
			for _, md := range cd.Modifiers {
				m, err := toModifier(md)
				if err != nil {
					return nil, fmt.Errorf("%s/%s: %w", t, cd.Core, err)
				}
				c.Modifiers = append(c.Modifiers, m)
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func toModifier(md modifierDoc) (Modifier, error) {
	placement, slot, err := ParsePlacement(md.At)
	if err != nil {
		return Modifier{}, err
	}
	m := Modifier{
		Name:          md.Name,
		Level:         md.Level,
		Cost:          md.Cost,
		Placement:     placement,
		Slot:          slot,
		ParentVariant: md.Parent,
	}
	if m.Cost == 0 {
		m.Cost = m.Level
	}
	if m.ParentVariant == "" {
		m.ParentVariant = m.Name
	}
	if md.Lock != "" {
		typ, core, ok := strings.Cut(md.Lock, "/")
		if !ok || typ == "" || core == "" {
			return Modifier{}, fmt.Errorf("%w: lock %q on %s", ErrInvalidNode, md.Lock, md.Name)
		}
		m.LockedBy = &CoreRef{Type: TrickType(typ), Core: core}
	}
	return m, nil
}
