// Package chance provides the random source and the weighted sampling
// primitive shared by the library builder, the attempt selector, the outcome
// resolver and the session scheduler.
package chance

import (
	"math/rand/v2"
)

// Source is the only randomness the simulation consumes. A fixed seed gives a
// fully reproducible session.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n). It panics if n <= 0.
	IntN(n int) int
}

type seeded struct {
	r *rand.Rand
}

// NewSeeded returns a deterministic PCG-backed source.
func NewSeeded(seed uint64) Source {
	return &seeded{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))} //nolint:gosec // simulation randomness
}

func (s *seeded) Float64() float64 { return s.r.Float64() }
func (s *seeded) IntN(n int) int   { return s.r.IntN(n) }

// Between returns a uniform integer in [lo, hi]. If hi < lo it returns lo.
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// Percent rolls a uniform integer in [1, 100].
func Percent(src Source) int {
	return src.IntN(100) + 1
}

// Shuffle returns a shuffled copy of items (Fisher-Yates).
func Shuffle[T any](src Source, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Pick samples one item with probability proportional to weight(item).
// Negative weights count as zero. When every weight is zero the choice falls
// back to uniform. The second return value is false only for an empty slice.
func Pick[T any](src Source, items []T, weight func(T) float64) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	weights := make([]float64, len(items))
	total := 0.0
	for i, it := range items {
		w := weight(it)
		if w < 0 {
			w = 0
		}
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return items[src.IntN(len(items))], true
	}
	roll := src.Float64() * total
	for i, w := range weights {
		roll -= w
		if roll < 0 {
			return items[i], true
		}
	}
	// float drift: return the last item carrying weight
	for i := len(items) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return items[i], true
		}
	}
	return items[len(items)-1], true
}

// PickIndex is Pick over indices, for callers that need the position.
func PickIndex[T any](src Source, items []T, weight func(T) float64) (int, bool) {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	return Pick(src, idx, func(i int) float64 { return weight(items[i]) })
}

// Reader adapts a Source to io.Reader so byte-oriented consumers (uuid
// generation) stay on the seeded stream.
type Reader struct {
	Src Source
}

func (r Reader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.Src.IntN(256))
	}
	return len(p), nil
}
