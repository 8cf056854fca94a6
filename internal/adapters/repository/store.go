// Package repository holds the active model snapshot and swaps it atomically.
package repository

import (
	"context"
	"time"

	"github.com/okian/gigmatch/internal/domain/scoring"
)

// Info summarizes a snapshot for status reporting.
type Info struct {
	Version      string    `json:"version"`
	FittedAt     time.Time `json:"fitted_at"`
	Freelancers  int       `json:"freelancers"`
	Interactions int       `json:"interactions"`
	Clients      int       `json:"clients"`
	Vocabulary   int       `json:"vocabulary"`
}

// InfoOf summarizes m.
func InfoOf(m *scoring.Model) Info {
	if m == nil {
		return Info{}
	}
	return Info{
		Version:      m.Version,
		FittedAt:     m.FittedAt,
		Freelancers:  m.Freelancers(),
		Interactions: m.Interactions(),
		Clients:      m.Clients(),
		Vocabulary:   m.Vocabulary(),
	}
}

// Store provides access to the active snapshot.
type Store interface {
	// Load returns the active snapshot or ErrNotReady before the first swap.
	Load(ctx context.Context) (*scoring.Model, error)

	// Swap installs m as the active snapshot and returns the previous one.
	// Readers holding the previous snapshot keep using it safely.
	Swap(ctx context.Context, m *scoring.Model) (*scoring.Model, error)

	// History returns the most recent swaps, newest first.
	History(ctx context.Context) []Info
}
