package park

import (
	_ "embed"
	"sync"
)

var (
	//go:embed obstacles.yaml
	defaultObstacles []byte
	//go:embed layout.yaml
	defaultLayout []byte
)

var defaultPark = sync.OnceValues(func() (*Park, error) {
	obs, err := ParseObstacles(defaultObstacles)
	if err != nil {
		return nil, err
	}
	layout, err := ParseLayout(defaultLayout)
	if err != nil {
		return nil, err
	}
	return New(obs, layout)
})

// DefaultObstacles returns the built-in obstacle set.
func DefaultObstacles() *Obstacles {
	obs, err := ParseObstacles(defaultObstacles)
	if err != nil {
		panic(err)
	}
	return obs
}

// Default returns the built-in demo park. It panics if the embedded data
// fails validation.
func Default() *Park {
	p, err := defaultPark()
	if err != nil {
		panic(err)
	}
	return p
}
