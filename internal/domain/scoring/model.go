package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gigmatch/internal/domain/collab"
	"github.com/okian/gigmatch/internal/domain/dataset"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/textindex"
)

// FitOption configures Fit.
type FitOption func(*fitConfig)

type fitConfig struct {
	maxDF float64
	rank  int
	now   func() time.Time
}

// WithMaxDF sets the document-frequency ceiling of the vocabulary.
func WithMaxDF(p float64) FitOption {
	return func(c *fitConfig) {
		if p > 0 && p <= 1 {
			c.maxDF = p
		}
	}
}

// WithRank sets the number of latent components kept by the collaborative model.
func WithRank(k int) FitOption {
	return func(c *fitConfig) {
		if k >= 1 {
			c.rank = k
		}
	}
}

// WithClock overrides the time source used for FittedAt.
func WithClock(now func() time.Time) FitOption {
	return func(c *fitConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// Model is an immutable fitted snapshot: the freelancer table, its vocabulary,
// the three per-freelancer vectors and the optional collaborative model. It is
// shared read-only by concurrent queries and replaced wholesale on reload.
type Model struct {
	Version  string
	FittedAt time.Time

	freelancers []model.Freelancer
	index       *textindex.Index
	skills      []textindex.Vector
	projects    []textindex.Vector
	experience  []textindex.Vector
	weeks       []int
	weeksOK     []bool

	collab       *collab.Model
	interactions int
}

// Fit builds a snapshot from a loaded dataset. Collaborative failures are
// reported as dataset.ErrDataLoad so the caller keeps its previous snapshot.
func Fit(ctx context.Context, ds *dataset.Dataset, opts ...FitOption) (*Model, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: no dataset", dataset.ErrDataLoad)
	}
	cfg := fitConfig{maxDF: 0.8, rank: collab.DefaultRank, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	for i := range ds.Freelancers {
		if r := ds.Freelancers[i].HourlyRate; math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
			return nil, fmt.Errorf("%w: freelancer %s: invalid hourly rate %v", dataset.ErrDataLoad, ds.Freelancers[i].ID, r)
		}
	}

	n := len(ds.Freelancers)
	skillDocs := make([]string, n)
	for i := range ds.Freelancers {
		skillDocs[i] = strings.Join(ds.Freelancers[i].Skills, " ")
	}
	idx := textindex.Fit(skillDocs, textindex.WithMinDF(1), textindex.WithMaxDF(cfg.maxDF))

	m := &Model{
		Version:      uuid.NewString(),
		freelancers:  ds.Freelancers,
		index:        idx,
		skills:       make([]textindex.Vector, n),
		projects:     make([]textindex.Vector, n),
		experience:   make([]textindex.Vector, n),
		weeks:        make([]int, n),
		weeksOK:      make([]bool, n),
		interactions: len(ds.Interactions),
	}
	for i := range ds.Freelancers {
		f := &ds.Freelancers[i]
		m.skills[i] = idx.Transform(skillDocs[i])
		m.projects[i] = idx.Transform(f.ProjectsCombined)
		m.experience[i] = idx.TransformTokens(f.Experience)
		m.weeks[i], m.weeksOK[i] = ParseWeeks(f.Availability)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fit cancelled: %w", err)
	}

	cm, err := collab.Fit(ds.Interactions, collab.WithRank(cfg.rank))
	if err != nil {
		return nil, fmt.Errorf("%w: collaborative model: %w", dataset.ErrDataLoad, err)
	}
	m.collab = cm
	m.FittedAt = cfg.now()
	return m, nil
}

// Freelancers returns the number of freelancers in the snapshot.
func (m *Model) Freelancers() int {
	if m == nil {
		return 0
	}
	return len(m.freelancers)
}

// Interactions returns the number of interaction rows the snapshot was fitted on.
func (m *Model) Interactions() int {
	if m == nil {
		return 0
	}
	return m.interactions
}

// Clients returns the number of clients known to the collaborative model.
func (m *Model) Clients() int {
	if m == nil {
		return 0
	}
	return m.collab.Clients()
}

// Vocabulary returns the number of terms in the fitted vocabulary.
func (m *Model) Vocabulary() int {
	if m == nil {
		return 0
	}
	return m.index.Size()
}

// Collaborative reports whether a collaborative model was fitted.
func (m *Model) Collaborative() bool {
	return m != nil && m.collab != nil
}

// KnowsClient reports whether the client contributes a collaborative signal.
func (m *Model) KnowsClient(clientID string) bool {
	return m != nil && m.collab.KnowsClient(clientID)
}
