package repository

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/gigmatch/internal/domain/scoring"
	"github.com/okian/gigmatch/pkg/metrics"
)

const defaultHistorySize = 8

// SnapshotStore keeps the active snapshot behind an atomic pointer. Loads are
// lock-free; the swap history is guarded by a mutex off the read path.
type SnapshotStore struct {
	current atomic.Pointer[scoring.Model]
	swaps   atomic.Uint64

	mu          sync.Mutex
	history     []Info
	historySize int
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{historySize: defaultHistorySize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the active snapshot.
func (s *SnapshotStore) Load(_ context.Context) (*scoring.Model, error) {
	m := s.current.Load()
	if m == nil {
		return nil, ErrNotReady
	}
	return m, nil
}

// Swap installs m and returns the snapshot it replaced, nil on the first swap.
func (s *SnapshotStore) Swap(_ context.Context, m *scoring.Model) (*scoring.Model, error) {
	if m == nil {
		metrics.RecordErrorByComponent("repository", "nil_snapshot")
		return nil, ErrNilSnapshot
	}
	prev := s.current.Swap(m)
	s.swaps.Add(1)

	info := InfoOf(m)
	s.mu.Lock()
	s.history = append([]Info{info}, s.history...)
	if len(s.history) > s.historySize {
		s.history = s.history[:s.historySize]
	}
	s.mu.Unlock()

	metrics.UpdateSnapshot(info.Freelancers, info.Clients, info.Vocabulary, m.Collaborative(), info.FittedAt)
	return prev, nil
}

// History returns the most recent swaps, newest first.
func (s *SnapshotStore) History(_ context.Context) []Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Info, len(s.history))
	copy(out, s.history)
	return out
}

// Swaps returns the number of successful swaps.
func (s *SnapshotStore) Swaps() uint64 {
	return s.swaps.Load()
}

var _ Store = (*SnapshotStore)(nil)
