package repository

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/okian/skatepark/internal/domain/types"
	"github.com/okian/skatepark/pkg/metrics"
)

// Treap-based, in-memory Leaderboard.
//
// Ordering: points DESC, then skaterID ASC. "less" means ranks earlier, so an
// in-order walk yields the leaderboard from best to worst. Priorities are the
// xxhash of the skater id, which keeps the tree balanced in expectation and
// the shape reproducible.

type node struct {
	id     string
	points int
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aPoints int, aID string, bPoints int, bID string) bool {
	if aPoints != bPoints {
		return aPoints > bPoints
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, points int) *node {
	if n == nil {
		return &node{id: id, points: points, prio: xxhash.Sum64String(id), size: 1}
	}
	if less(points, id, n.points, n.id) {
		n.left = insert(n.left, id, points)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, points)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, points int) *node {
	if n == nil {
		return nil
	}
	switch {
	case points == n.points && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, points)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, points)
		}
	case less(points, id, n.points, n.id):
		n.left = deleteNode(n.left, id, points)
	default:
		n.right = deleteNode(n.right, id, points)
	}
	fix(n)
	return n
}

// countAbove counts entries with strictly more points.
func countAbove(n *node, points int) int {
	c := 0
	for n != nil {
		if n.points > points {
			c += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return c
}

// record is what the store keeps per skater besides the tree key.
type record struct {
	name     string
	points   int
	sessions int
}

// Snapshot is an immutable view of the leading entries, published after
// every write so TopN reads within the cache take no lock.
type Snapshot struct {
	TopCache []types.Entry
	Total    int
}

// TreapStore implements Leaderboard.
type TreapStore struct {
	mu           sync.RWMutex
	root         *node
	byID         map[string]record
	topCacheSize int
	metrics      *metrics.Manager

	snapshot atomic.Pointer[Snapshot]
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:         make(map[string]record),
		topCacheSize: 100,
		metrics:      metrics.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(&Snapshot{})
	return s
}

// Add credits points to a skater in O(log n) expected time.
func (s *TreapStore) Add(ctx context.Context, skaterID, name string, points int) (types.Entry, error) {
	if err := ctx.Err(); err != nil {
		return types.Entry{}, err
	}
	if points < 0 {
		return types.Entry{}, ErrInvalidPoints
	}

	s.mu.Lock()
	rec, ok := s.byID[skaterID]
	if ok {
		s.root = deleteNode(s.root, skaterID, rec.points)
	}
	rec.points += points
	rec.sessions++
	if name != "" {
		rec.name = name
	}
	s.byID[skaterID] = rec
	s.root = insert(s.root, skaterID, rec.points)
	entry := s.entry(skaterID, rec)
	s.publishSnapshotLocked()
	size := len(s.byID)
	s.mu.Unlock()

	s.metrics.LeaderboardUpdate(size)
	return entry, nil
}

// Rank returns a skater's entry in O(log n). Equal points share a rank.
func (s *TreapStore) Rank(ctx context.Context, skaterID string) (types.Entry, error) {
	if err := ctx.Err(); err != nil {
		return types.Entry{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[skaterID]
	if !ok {
		return types.Entry{}, ErrNotFound
	}
	return s.entry(skaterID, rec), nil
}

// TopN returns the top N entries ordered by points desc.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	snap := s.snapshot.Load()
	if n <= len(snap.TopCache) || len(snap.TopCache) == snap.Total {
		return append([]types.Entry(nil), snap.TopCache[:min(n, len(snap.TopCache))]...), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Entry, 0, min(n, len(s.byID)))
	s.collect(s.root, n, &out)
	assignRanks(out)
	return out, nil
}

// Count returns the number of skaters.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Snapshot returns the last published snapshot.
func (s *TreapStore) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

func (s *TreapStore) entry(id string, rec record) types.Entry {
	return types.Entry{
		Rank:     1 + countAbove(s.root, rec.points),
		SkaterID: id,
		Name:     rec.name,
		Points:   rec.points,
		Sessions: rec.sessions,
	}
}

// collect appends up to limit entries in rank order.
func (s *TreapStore) collect(n *node, limit int, out *[]types.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	s.collect(n.left, limit, out)
	if len(*out) < limit {
		rec := s.byID[n.id]
		*out = append(*out, types.Entry{SkaterID: n.id, Name: rec.name, Points: rec.points, Sessions: rec.sessions})
	}
	s.collect(n.right, limit, out)
}

// publishSnapshotLocked rebuilds the top cache. Caller holds the write lock.
func (s *TreapStore) publishSnapshotLocked() {
	top := make([]types.Entry, 0, min(s.topCacheSize, len(s.byID)))
	s.collect(s.root, s.topCacheSize, &top)
	assignRanks(top)
	s.snapshot.Store(&Snapshot{TopCache: top, Total: len(s.byID)})
}

// assignRanks gives entries in rank order their standing; ties share the
// rank of the first entry with those points.
func assignRanks(entries []types.Entry) {
	for i := range entries {
		if i > 0 && entries[i].Points == entries[i-1].Points {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
