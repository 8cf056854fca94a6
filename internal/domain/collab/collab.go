// Package collab learns a collaborative-filtering signal from client ratings
// by reconstructing the client x freelancer rating matrix from its leading
// singular triplets.
package collab

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/gigmatch/internal/domain/model"
	"gonum.org/v1/gonum/mat"
)

// DefaultRank is the number of latent components kept by Fit.
const DefaultRank = 5

// Option configures Fit.
type Option func(*config)

type config struct {
	rank int
}

// WithRank overrides the number of latent components.
func WithRank(rank int) Option {
	return func(c *config) {
		if rank > 0 {
			c.rank = rank
		}
	}
}

// RatingMatrix is a dense client x freelancer matrix. Missing ratings are 0.
// Rows and Cols fix the ordering shared with the reconstruction.
type RatingMatrix struct {
	Rows   []string // client ids, ascending
	Cols   []string // freelancer ids, ascending
	Values *mat.Dense
}

// BuildMatrix averages duplicate (client, freelancer) ratings and lays them
// out densely. It returns nil when there are no interactions.
func BuildMatrix(interactions []model.Interaction) *RatingMatrix {
	if len(interactions) == 0 {
		return nil
	}

	type pair struct{ client, freelancer string }
	type agg struct {
		sum   float64
		count int
	}
	cells := make(map[pair]*agg)
	clients := make(map[string]struct{})
	freelancers := make(map[string]struct{})
	for _, in := range interactions {
		p := pair{in.ClientID, in.FreelancerID}
		a, ok := cells[p]
		if !ok {
			a = &agg{}
			cells[p] = a
		}
		a.sum += in.Rating
		a.count++
		clients[in.ClientID] = struct{}{}
		freelancers[in.FreelancerID] = struct{}{}
	}

	rm := &RatingMatrix{
		Rows: sortedKeys(clients),
		Cols: sortedKeys(freelancers),
	}
	rowOf := indexOf(rm.Rows)
	colOf := indexOf(rm.Cols)
	rm.Values = mat.NewDense(len(rm.Rows), len(rm.Cols), nil)
	for p, a := range cells {
		rm.Values.Set(rowOf[p.client], colOf[p.freelancer], a.sum/float64(a.count))
	}
	return rm
}

// Model holds the reconstructed rating matrix. It is read-only after Fit.
type Model struct {
	rows          map[string]int
	cols          []string
	reconstructed *mat.Dense
	rank          int
}

// Fit factorizes the aggregated rating matrix and keeps its rank-k
// reconstruction. It returns a nil model and no error when there are no
// interactions.
func Fit(interactions []model.Interaction, opts ...Option) (*Model, error) {
	cfg := config{rank: DefaultRank}
	for _, opt := range opts {
		opt(&cfg)
	}

	for _, it := range interactions {
		if math.IsNaN(it.Rating) || math.IsInf(it.Rating, 0) {
			return nil, fmt.Errorf("%w: client %s freelancer %s: %v", ErrInvalidRating, it.ClientID, it.FreelancerID, it.Rating)
		}
	}

	rm := BuildMatrix(interactions)
	if rm == nil {
		return nil, nil
	}

	recon, k, err := reconstruct(rm.Values, cfg.rank)
	if err != nil {
		return nil, err
	}
	return &Model{
		rows:          indexOf(rm.Rows),
		cols:          rm.Cols,
		reconstructed: recon,
		rank:          k,
	}, nil
}

// reconstruct returns U_k * S_k * V_k^T for k = min(rank, rows, cols).
func reconstruct(a *mat.Dense, rank int) (*mat.Dense, int, error) {
	r, c := a.Dims()
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, 0, fmt.Errorf("%w: %dx%d rating matrix", ErrFactorize, r, c)
	}

	k := min(rank, r, c)
	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	uk := u.Slice(0, r, 0, k)
	vk := v.Slice(0, c, 0, k)
	sk := mat.NewDiagDense(k, values[:k])

	var us, out mat.Dense
	us.Mul(uk, sk)
	out.Mul(&us, vk.T())
	return &out, k, nil
}

// PredictForClient returns the client's reconstructed row divided by the row
// maximum, keyed by freelancer id. The divisor falls back to 1 when the
// maximum is not positive; values are not clamped and may be negative. The
// second result is false when the model is nil or the client was not seen
// during Fit.
func (m *Model) PredictForClient(clientID string) (map[string]float64, bool) {
	if m == nil || clientID == "" {
		return nil, false
	}
	row, ok := m.rows[clientID]
	if !ok {
		return nil, false
	}

	raw := m.reconstructed.RawRowView(row)
	peak := raw[0]
	for _, x := range raw[1:] {
		if x > peak {
			peak = x
		}
	}
	if peak <= 0 {
		peak = 1
	}

	out := make(map[string]float64, len(m.cols))
	for j, id := range m.cols {
		out[id] = raw[j] / peak
	}
	return out, true
}

// Clients returns the number of clients seen during Fit.
func (m *Model) Clients() int {
	if m == nil {
		return 0
	}
	return len(m.rows)
}

// Rank returns the number of latent components actually kept.
func (m *Model) Rank() int {
	if m == nil {
		return 0
	}
	return m.rank
}

// KnowsClient reports whether the client was seen during Fit.
func (m *Model) KnowsClient(clientID string) bool {
	if m == nil {
		return false
	}
	_, ok := m.rows[clientID]
	return ok
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func indexOf(keys []string) map[string]int {
	out := make(map[string]int, len(keys))
	for i, k := range keys {
		out[k] = i
	}
	return out
}
