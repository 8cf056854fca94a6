package synthetic

import (
	"context"
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/gigmatch/internal/domain/dataset"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/pkg/logger"
)

// File names written by WriteFiles.
const (
	FreelancersFile  = "freelancers.csv"
	InteractionsFile = "interactions.csv"
)

const (
	maxRating         = 5
	maxListItems      = 3
	filePermission    = 0o600
	dirPermission     = 0o750
	ctxCheckEvery     = 256
	centsPerUnit      = 100
	listSeparator     = ", "
	clientIDFormat    = "C%04d"
	rateFormatDecimal = 2
)

// Generate builds a dataset from p. Equal profiles yield equal datasets.
func Generate(ctx context.Context, p Profile) (*dataset.Dataset, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:], p.Seed)
	src := rand.NewChaCha8(seed)
	rng := rand.New(src)

	freelancers := make([]model.Freelancer, 0, p.Freelancers)
	for i := range p.Freelancers {
		if i%ctxCheckEvery == 0 && ctx.Err() != nil {
			return nil, fmt.Errorf("generation cancelled: %w", ctx.Err())
		}
		id, err := uuid.NewRandomFromReader(src)
		if err != nil {
			return nil, fmt.Errorf("freelancer id: %w", err)
		}
		projects := pick(rng, p.Projects, maxListItems)
		freelancers = append(freelancers, model.Freelancer{
			ID:                id.String(),
			HourlyRate:        rate(rng, p.RateMin, p.RateMax),
			Skills:            pick(rng, p.Skills, p.SkillsPerFreelancer),
			CompletedProjects: projects,
			ProjectsCombined:  strings.Join(projects, " "),
			Experience:        pick(rng, p.Experience, maxListItems),
			Availability:      p.Availability[rng.IntN(len(p.Availability))],
		})
	}

	var interactions []model.Interaction
	if p.Clients > 0 && p.RatingsPerClient > 0 {
		interactions = make([]model.Interaction, 0, p.Clients*p.RatingsPerClient)
		for c := range p.Clients {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("generation cancelled: %w", ctx.Err())
			}
			client := fmt.Sprintf(clientIDFormat, c+1)
			for _, j := range rng.Perm(len(freelancers))[:p.RatingsPerClient] {
				interactions = append(interactions, model.Interaction{
					ClientID:     client,
					FreelancerID: freelancers[j].ID,
					Rating:       float64(1 + rng.IntN(maxRating)),
				})
			}
		}
	}

	logger.Get().Debug(ctx, "synthetic dataset generated",
		logger.Int("freelancers", len(freelancers)),
		logger.Int("interactions", len(interactions)),
	)
	return &dataset.Dataset{Freelancers: freelancers, Interactions: interactions}, nil
}

// pick draws between 1 and limit distinct entries of pool in pool order.
func pick(rng *rand.Rand, pool []string, limit int) []string {
	n := 1 + rng.IntN(min(limit, len(pool)))
	idx := rng.Perm(len(pool))[:n]
	slices.Sort(idx)
	out := make([]string, n)
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}

func rate(rng *rand.Rand, lo, hi float64) float64 {
	return math.Round((lo+rng.Float64()*(hi-lo))*centsPerUnit) / centsPerUnit
}

// WriteFreelancers encodes freelancers as CSV with the loader's header.
func WriteFreelancers(w io.Writer, freelancers []model.Freelancer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		dataset.ColFreelancerID, dataset.ColHourlyRate, dataset.ColSkills,
		dataset.ColCompletedProjects, dataset.ColExperience, dataset.ColAvailability,
	}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, f := range freelancers {
		if err := cw.Write([]string{
			f.ID,
			strconv.FormatFloat(f.HourlyRate, 'f', rateFormatDecimal, 64),
			strings.Join(f.Skills, listSeparator),
			strings.Join(f.CompletedProjects, listSeparator),
			strings.Join(f.Experience, listSeparator),
			f.Availability,
		}); err != nil {
			return fmt.Errorf("write freelancer %s: %w", f.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteInteractions encodes interactions as CSV with the loader's header.
func WriteInteractions(w io.Writer, interactions []model.Interaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{dataset.ColClientID, dataset.ColFreelancerID, dataset.ColRating}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, it := range interactions {
		if err := cw.Write([]string{
			it.ClientID,
			it.FreelancerID,
			strconv.FormatFloat(it.Rating, 'f', -1, 64),
		}); err != nil {
			return fmt.Errorf("write interaction %s/%s: %w", it.ClientID, it.FreelancerID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFiles writes ds into dir and returns the resulting sources. The
// interactions file is only written when ds has interactions.
func WriteFiles(ctx context.Context, dir string, ds *dataset.Dataset) (model.Sources, error) {
	if err := os.MkdirAll(dir, dirPermission); err != nil {
		return model.Sources{}, fmt.Errorf("create %s: %w", dir, err)
	}

	src := model.Sources{FreelancersPath: filepath.Join(dir, FreelancersFile)}
	if err := writeFile(src.FreelancersPath, func(w io.Writer) error {
		return WriteFreelancers(w, ds.Freelancers)
	}); err != nil {
		return model.Sources{}, err
	}

	if len(ds.Interactions) > 0 {
		src.InteractionsPath = filepath.Join(dir, InteractionsFile)
		if err := writeFile(src.InteractionsPath, func(w io.Writer) error {
			return WriteInteractions(w, ds.Interactions)
		}); err != nil {
			return model.Sources{}, err
		}
	}

	logger.Get().Info(ctx, "synthetic dataset written",
		logger.String("freelancers", src.FreelancersPath),
		logger.String("interactions", src.InteractionsPath),
	)
	return src, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
