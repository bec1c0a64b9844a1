package catalog

import (
	_ "embed"
	"sync"
)

//go:embed tricks.yaml
var defaultTricks []byte

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return Parse(defaultTricks)
})

// Default returns the built-in Rollerblader and Skateboarder trees.
// It panics if the embedded data fails validation.
func Default() *Catalog {
	c, err := defaultCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultYAML returns a copy of the embedded catalog source.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultTricks))
	copy(out, defaultTricks)
	return out
}
