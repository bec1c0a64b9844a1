package roster

import (
	"fmt"
	"sync"

	"github.com/okian/skatepark/internal/domain/chance"
	"github.com/okian/skatepark/internal/domain/model"
)

// Pool holds the recruited skaters available to normal sessions. It is safe
// for concurrent use.
type Pool struct {
	mu      sync.RWMutex
	skaters []model.Skater
	byID    map[string]int
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{byID: map[string]int{}}
}

// Add appends skaters, rejecting ids already present.
func (p *Pool) Add(skaters ...model.Skater) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range skaters {
		if _, ok := p.byID[s.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, s.ID)
		}
	}
	for _, s := range skaters {
		p.byID[s.ID] = len(p.skaters)
		p.skaters = append(p.skaters, s)
	}
	return nil
}

// Get returns a skater by id.
func (p *Pool) Get(id string) (model.Skater, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i, ok := p.byID[id]
	if !ok {
		return model.Skater{}, fmt.Errorf("%w: %s", ErrSkaterNotFound, id)
	}
	return p.skaters[i], nil
}

// List returns the skaters in recruitment order.
func (p *Pool) List() []model.Skater {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]model.Skater, len(p.skaters))
	copy(out, p.skaters)
	return out
}

// Len is the pool size.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.skaters)
}

// Draw returns up to n distinct skaters in random order.
func (p *Pool) Draw(src chance.Source, n int) []model.Skater {
	all := chance.Shuffle(src, p.List())
	return all[:min(max(0, n), len(all))]
}
