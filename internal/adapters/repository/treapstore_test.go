package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"

	"github.com/okian/skatepark/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestStore(opts ...Option) *TreapStore {
	m := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
	return NewTreapStore(append([]Option{WithMetrics(m)}, opts...)...)
}

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	entry, err := store.Add(ctx, "s1", "Mia Hart", 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 1 || entry.Points != 120 || entry.Sessions != 1 {
		t.Errorf("unexpected entry %+v", entry)
	}

	entry, err = store.Add(ctx, "s1", "", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Points != 150 || entry.Sessions != 2 || entry.Name != "Mia Hart" {
		t.Errorf("points should accumulate and keep the name, got %+v", entry)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	if _, err := store.Rank(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.TopN(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
	if _, err := store.Add(ctx, "s2", "", -1); !errors.Is(err, ErrInvalidPoints) {
		t.Errorf("expected ErrInvalidPoints, got %v", err)
	}
}

func TestTreapStore_OrderingAndTies(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	for id, pts := range map[string]int{"c": 50, "a": 90, "b": 50, "d": 10} {
		if _, err := store.Add(ctx, id, id, pts); err != nil {
			t.Fatal(err)
		}
	}

	top, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		id   string
		rank int
	}{{"a", 1}, {"b", 2}, {"c", 2}, {"d", 4}}
	if len(top) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(top))
	}
	for i, w := range want {
		if top[i].SkaterID != w.id || top[i].Rank != w.rank {
			t.Errorf("position %d: got %s rank %d, want %s rank %d", i, top[i].SkaterID, top[i].Rank, w.id, w.rank)
		}
	}

	for _, w := range want {
		e, err := store.Rank(ctx, w.id)
		if err != nil {
			t.Fatal(err)
		}
		if e.Rank != w.rank {
			t.Errorf("Rank(%s) = %d, want %d", w.id, e.Rank, w.rank)
		}
	}
}

func TestTreapStore_TopNBeyondCache(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(WithTopCacheSize(3))

	for i := range 10 {
		if _, err := store.Add(ctx, fmt.Sprintf("s%02d", i), "", i*10); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(store.Snapshot().TopCache); got != 3 {
		t.Errorf("snapshot should cache 3 entries, got %d", got)
	}

	top, err := store.TopN(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 5 || top[0].SkaterID != "s09" || top[4].SkaterID != "s05" || top[4].Rank != 5 {
		t.Errorf("unexpected top five %+v", top)
	}

	cached, _ := store.TopN(ctx, 2)
	if len(cached) != 2 || cached[1].SkaterID != "s08" {
		t.Errorf("unexpected cached top two %+v", cached)
	}
}

func TestTreapStore_RankMatchesSort(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	r := rand.New(rand.NewPCG(7, 7))

	points := map[string]int{}
	for range 500 {
		id := fmt.Sprintf("s%d", r.IntN(200))
		p := r.IntN(50)
		points[id] += p
		if _, err := store.Add(ctx, id, "", p); err != nil {
			t.Fatal(err)
		}
	}

	ids := make([]string, 0, len(points))
	for id := range points {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if points[ids[i]] != points[ids[j]] {
			return points[ids[i]] > points[ids[j]]
		}
		return ids[i] < ids[j]
	})

	all, err := store.TopN(ctx, len(ids))
	if err != nil {
		t.Fatal(err)
	}
	for i, id := range ids {
		if all[i].SkaterID != id || all[i].Points != points[id] {
			t.Fatalf("position %d: got %s/%d want %s/%d", i, all[i].SkaterID, all[i].Points, id, points[id])
		}
		e, _ := store.Rank(ctx, id)
		if e.Rank != all[i].Rank {
			t.Fatalf("Rank(%s) = %d, TopN says %d", id, e.Rank, all[i].Rank)
		}
	}
}

func TestTreapStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				id := fmt.Sprintf("w%d-%d", w, i%10)
				if _, err := store.Add(ctx, id, "", 1); err != nil {
					t.Error(err)
					return
				}
				_, _ = store.TopN(ctx, 5)
			}
		}()
	}
	wg.Wait()

	if count := store.Count(ctx); count != 80 {
		t.Errorf("expected 80 skaters, got %d", count)
	}
	e, err := store.Rank(ctx, "w0-0")
	if err != nil {
		t.Fatal(err)
	}
	if e.Points != 10 || e.Sessions != 10 {
		t.Errorf("unexpected entry %+v", e)
	}
}

func TestTreapStore_ContextCancellation(t *testing.T) {
	store := newTestStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Add(ctx, "s1", "", 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if store.Count(context.Background()) != 0 {
		t.Error("a cancelled add must not write")
	}
}

func BenchmarkTreapStore_Add(b *testing.B) {
	ctx := context.Background()
	store := newTestStore()
	r := rand.New(rand.NewPCG(1, 2))
	b.ResetTimer()
	for b.Loop() {
		_, _ = store.Add(ctx, fmt.Sprintf("s%d", r.IntN(10_000)), "", r.IntN(100))
	}
}

func BenchmarkTreapStore_Rank(b *testing.B) {
	ctx := context.Background()
	store := newTestStore()
	for i := range 10_000 {
		_, _ = store.Add(ctx, fmt.Sprintf("s%d", i), "", i%500)
	}
	b.ResetTimer()
	for i := 0; b.Loop(); i++ {
		_, _ = store.Rank(ctx, fmt.Sprintf("s%d", i%10_000))
	}
}
