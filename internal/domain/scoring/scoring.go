// Package scoring ranks freelancers for a query against a fitted snapshot.
//
// Scoring is a pure function of (snapshot, query). All per-freelancer values
// live in request-scoped buffers so any number of queries may run in parallel
// against the same snapshot.
package scoring

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/okian/gigmatch/internal/domain/filter"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/textindex"
	"github.com/okian/gigmatch/internal/domain/types"
)

// DefaultTopN is the maximum number of recommendations returned.
const DefaultTopN = 5

// Option configures an Engine.
type Option func(*Engine)

// WithTopN sets the maximum number of recommendations.
func WithTopN(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.topN = n
		}
	}
}

// Engine scores queries. It holds no per-request state.
type Engine struct {
	topN int
}

// NewEngine creates an engine with the given options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{topN: DefaultTopN}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type candidate struct {
	pos   int
	score float64
}

// Score ranks the freelancers of m for q.
func (e *Engine) Score(ctx context.Context, m *Model, q model.Query) (types.Result, error) {
	skills := model.CleanSkills(q.Skills)
	if len(skills) == 0 {
		return types.Result{}, fmt.Errorf("%w: at least one skill is required", ErrQuery)
	}
	if q.Budget != nil && (*q.Budget < 0 || math.IsNaN(*q.Budget)) {
		return types.Result{}, fmt.Errorf("%w: budget must be a non-negative number", ErrQuery)
	}
	if m == nil {
		return types.Result{}, ErrModelNotReady
	}
	expr, err := filter.Compile(q.Filter)
	if err != nil {
		return types.Result{}, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	if err := ctx.Err(); err != nil {
		return types.Result{}, fmt.Errorf("score cancelled: %w", err)
	}

	res := types.Result{ModelVersion: m.Version, Recommendations: []types.Recommendation{}}
	if len(m.freelancers) == 0 {
		res.Status = types.StatusNoData
		return res, nil
	}

	job := m.index.Transform(strings.Join(skills, " "))
	cf, withCF := m.collab.PredictForClient(q.ClientID)
	w := EffectiveWeights(withCF)
	res.CollaborativeWeight = w.Collaborative
	requested, hasTimeline := ParseWeeks(q.Timeline)

	cands := make([]candidate, 0, len(m.freelancers))
	for i := range m.freelancers {
		f := &m.freelancers[i]
		if q.Budget != nil && f.HourlyRate > *q.Budget {
			continue
		}
		ok, err := expr.Match(f)
		if err != nil {
			return types.Result{}, fmt.Errorf("%w: %w", ErrQuery, err)
		}
		if !ok {
			continue
		}

		s := Signals{
			Skills:       textindex.Cosine(job, m.skills[i]),
			Projects:     textindex.Cosine(job, m.projects[i]),
			Experience:   textindex.Cosine(job, m.experience[i]),
			Availability: availabilityNeutral,
		}
		if hasTimeline && m.weeksOK[i] {
			s.Availability = availabilityFor(m.weeks[i], requested)
		}
		if withCF {
			s.Collaborative = cf[f.ID]
		}
		cands = append(cands, candidate{pos: i, score: w.Blend(s)})
	}

	if len(cands) == 0 {
		res.Status = types.StatusNoMatch
		return res, nil
	}

	slices.SortFunc(cands, func(a, b candidate) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return strings.Compare(m.freelancers[a.pos].ID, m.freelancers[b.pos].ID)
	})
	res.Candidates = len(cands)
	if len(cands) > e.topN {
		cands = cands[:e.topN]
	}

	res.Status = types.StatusOK
	res.Recommendations = make([]types.Recommendation, 0, len(cands))
	for _, c := range cands {
		f := &m.freelancers[c.pos]
		res.Recommendations = append(res.Recommendations, types.Recommendation{
			FreelancerID:      f.ID,
			HourlyRate:        f.HourlyRate,
			Skills:            slices.Clone(f.Skills),
			CompletedProjects: slices.Clone(f.CompletedProjects),
			Experience:        slices.Clone(f.Experience),
			Availability:      f.Availability,
			Score:             c.score,
		})
	}
	return res, nil
}
