package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/okian/gigmatch/internal/domain/dataset"
	"github.com/okian/gigmatch/internal/domain/scoring"
)

const freelancersCSV = "Freelancer_ID,Hourly_Rate,Skills,Completed_Projects,Experience,Availability\n" +
	"A,10,python,Shop,Backend,2 weeks\n" +
	"B,20,java,Bank,Enterprise,1 month\n"

func mustFit(t *testing.T) *scoring.Model {
	t.Helper()
	ds, err := dataset.Load(context.Background(), strings.NewReader(freelancersCSV), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m, err := scoring.Fit(context.Background(), ds)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	return m
}

func TestSnapshotStore_LoadBeforeSwap(t *testing.T) {
	s := NewSnapshotStore()
	if _, err := s.Load(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if got := s.History(context.Background()); len(got) != 0 {
		t.Errorf("expected empty history, got %d entries", len(got))
	}
}

func TestSnapshotStore_Swap(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore()
	first, second := mustFit(t), mustFit(t)

	prev, err := s.Swap(ctx, first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prev != nil {
		t.Errorf("expected no previous snapshot, got %s", prev.Version)
	}

	held, _ := s.Load(ctx)

	prev, err = s.Swap(ctx, second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prev != first {
		t.Error("expected the first snapshot to be returned")
	}

	cur, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cur.Version != second.Version {
		t.Errorf("expected version %s, got %s", second.Version, cur.Version)
	}
	if held.Version != first.Version {
		t.Error("snapshot held by a reader changed under it")
	}
	if s.Swaps() != 2 {
		t.Errorf("expected 2 swaps, got %d", s.Swaps())
	}

	h := s.History(ctx)
	if len(h) != 2 || h[0].Version != second.Version || h[1].Version != first.Version {
		t.Errorf("unexpected history: %+v", h)
	}
	if h[0].Freelancers != 2 {
		t.Errorf("expected 2 freelancers, got %d", h[0].Freelancers)
	}
}

func TestSnapshotStore_SwapNil(t *testing.T) {
	s := NewSnapshotStore()
	if _, err := s.Swap(context.Background(), nil); !errors.Is(err, ErrNilSnapshot) {
		t.Fatalf("expected ErrNilSnapshot, got %v", err)
	}
	if s.Swaps() != 0 {
		t.Error("nil swap must not count")
	}
}

func TestSnapshotStore_HistoryBound(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore(WithHistorySize(2))
	var last *scoring.Model
	for range 4 {
		last = mustFit(t)
		if _, err := s.Swap(ctx, last); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	h := s.History(ctx)
	if len(h) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(h))
	}
	if h[0].Version != last.Version {
		t.Errorf("expected newest first")
	}
}

func TestSnapshotStore_ConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore()
	models := []*scoring.Model{mustFit(t), mustFit(t), mustFit(t)}
	if _, err := s.Swap(ctx, models[0]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				m, err := s.Load(ctx)
				if err != nil || m == nil {
					t.Errorf("load failed: %v", err)
					return
				}
			}
		}()
	}
	for _, m := range models[1:] {
		if _, err := s.Swap(ctx, m); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	wg.Wait()
}

func TestInfoOf(t *testing.T) {
	if got := InfoOf(nil); got.Version != "" || got.Freelancers != 0 {
		t.Errorf("expected zero info, got %+v", got)
	}
	m := mustFit(t)
	info := InfoOf(m)
	if info.Version != m.Version || info.Vocabulary != m.Vocabulary() || info.Clients != 0 {
		t.Errorf("unexpected info %+v", info)
	}
}
