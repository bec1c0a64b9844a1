// Package dedupe remembers tick idempotency keys so a retried request does
// not advance a session twice.
package dedupe

import (
	"context"
	"sync"
)

// Result is what a key produced. Pending is set between Claim and Complete.
type Result struct {
	Tick    int
	Pending bool
}

// Deduper tracks idempotency keys.
type Deduper interface {
	// Claim atomically checks whether key was seen. If it was, the recorded
	// result is returned with seen=true. Otherwise key is recorded as
	// pending and seen is false.
	Claim(ctx context.Context, key string) (res Result, seen bool)

	// Complete stores the tick a claimed key produced.
	Complete(ctx context.Context, key string, tick int)

	// Release forgets a key whose request failed so it can be retried.
	Release(ctx context.Context, key string)

	Size() int
}

// inMemoryDeduper keeps keys in a map and evicts the oldest once maxSize is
// reached. The ring holds keys in claim order; released keys leave a stale
// slot that eviction skips.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]Result
	ring    []string
	next    int
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: 10_000}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]Result)
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) Claim(_ context.Context, key string) (Result, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if r, ok := d.seen[key]; ok {
		return r, true
	}
	if d.maxSize > 0 {
		if old := d.ring[d.next]; old != "" {
			delete(d.seen, old)
		}
		d.ring[d.next] = key
		d.next = (d.next + 1) % d.maxSize
	}
	d.seen[key] = Result{Pending: true}
	return Result{}, false
}

func (d *inMemoryDeduper) Complete(_ context.Context, key string, tick int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		d.seen[key] = Result{Tick: tick}
	}
}

func (d *inMemoryDeduper) Release(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; !ok {
		return
	}
	delete(d.seen, key)
	for i, k := range d.ring {
		if k == key {
			d.ring[i] = ""
			break
		}
	}
}

// Size returns the current number of keys.
func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
