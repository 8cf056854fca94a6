// Package dataset loads freelancer and interaction tables from CSV sources
// and validates them against the expected schema.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/okian/gigmatch/internal/domain/model"
)

// Freelancer columns.
const (
	ColFreelancerID      = "Freelancer_ID"
	ColHourlyRate        = "Hourly_Rate"
	ColSkills            = "Skills"
	ColCompletedProjects = "Completed_Projects"
	ColExperience        = "Experience"
	ColAvailability      = "Availability"
)

// Interaction columns.
const (
	ColClientID = "Client_ID"
	ColRating   = "Rating"
)

var (
	freelancerColumns  = []string{ColFreelancerID, ColHourlyRate, ColSkills, ColCompletedProjects, ColExperience, ColAvailability}
	interactionColumns = []string{ColClientID, ColFreelancerID, ColRating}
)

const utf8BOM = "\ufeff"

// Dataset holds the loaded tables. It is never mutated after Load returns.
type Dataset struct {
	Freelancers  []model.Freelancer
	Interactions []model.Interaction // nil when no interaction source was given
}

// HasInteractions reports whether an interaction source was supplied.
func (d *Dataset) HasInteractions() bool {
	return d != nil && d.Interactions != nil
}

// LoadFiles opens the given paths and loads them. An empty interactionsPath
// disables the collaborative signal; a non-empty path that cannot be opened
// is an error like a missing freelancers file.
func LoadFiles(ctx context.Context, freelancersPath, interactionsPath string) (*Dataset, error) {
	if strings.TrimSpace(freelancersPath) == "" {
		return nil, fmt.Errorf("%w: freelancers source not configured", ErrDataLoad)
	}
	ff, err := os.Open(freelancersPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open freelancers: %w", ErrDataLoad, err)
	}
	defer func() { _ = ff.Close() }()

	var interactions io.Reader
	if strings.TrimSpace(interactionsPath) != "" {
		fi, err := os.Open(interactionsPath)
		if err != nil {
			return nil, fmt.Errorf("%w: open interactions: %w", ErrDataLoad, err)
		}
		defer func() { _ = fi.Close() }()
		interactions = fi
	}

	return Load(ctx, ff, interactions)
}

// Load reads both tables. interactions may be nil.
func Load(ctx context.Context, freelancers, interactions io.Reader) (*Dataset, error) {
	if freelancers == nil {
		return nil, fmt.Errorf("%w: freelancers source missing", ErrDataLoad)
	}

	fl, err := readFreelancers(ctx, freelancers)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{Freelancers: fl}

	if interactions != nil {
		in, err := readInteractions(ctx, interactions)
		if err != nil {
			return nil, err
		}
		ds.Interactions = in
	}
	return ds, nil
}

func readFreelancers(ctx context.Context, r io.Reader) ([]model.Freelancer, error) {
	rows, idx, err := readTable(r, "freelancers", freelancerColumns)
	if err != nil {
		return nil, err
	}

	out := make([]model.Freelancer, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		if i%1024 == 0 && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrDataLoad, ctx.Err())
		}
		line := i + 2 // header is line 1

		id := strings.TrimSpace(row[idx[ColFreelancerID]])
		if id == "" {
			return nil, rowError("freelancers", line, ColFreelancerID, errors.New("empty identifier"))
		}
		if _, dup := seen[id]; dup {
			return nil, rowError("freelancers", line, ColFreelancerID, fmt.Errorf("duplicate identifier %q", id))
		}
		seen[id] = struct{}{}

		rate, err := strconv.ParseFloat(strings.TrimSpace(row[idx[ColHourlyRate]]), 64)
		if err != nil {
			return nil, rowError("freelancers", line, ColHourlyRate, err)
		}
		if math.IsNaN(rate) || math.IsInf(rate, 0) {
			return nil, rowError("freelancers", line, ColHourlyRate, fmt.Errorf("non-finite rate %v", rate))
		}
		if rate < 0 {
			return nil, rowError("freelancers", line, ColHourlyRate, fmt.Errorf("negative rate %v", rate))
		}

		projects := model.SplitList(row[idx[ColCompletedProjects]])
		out = append(out, model.Freelancer{
			ID:                id,
			HourlyRate:        rate,
			Skills:            model.SplitList(row[idx[ColSkills]]),
			CompletedProjects: projects,
			ProjectsCombined:  strings.Join(projects, " "),
			Experience:        model.SplitList(row[idx[ColExperience]]),
			Availability:      strings.TrimSpace(row[idx[ColAvailability]]),
		})
	}
	return out, nil
}

func readInteractions(ctx context.Context, r io.Reader) ([]model.Interaction, error) {
	rows, idx, err := readTable(r, "interactions", interactionColumns)
	if err != nil {
		return nil, err
	}

	out := make([]model.Interaction, 0, len(rows))
	for i, row := range rows {
		if i%1024 == 0 && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrDataLoad, ctx.Err())
		}
		line := i + 2

		client := strings.TrimSpace(row[idx[ColClientID]])
		freelancer := strings.TrimSpace(row[idx[ColFreelancerID]])
		if client == "" || freelancer == "" {
			return nil, rowError("interactions", line, ColClientID, errors.New("empty client or freelancer identifier"))
		}
		rating, err := strconv.ParseFloat(strings.TrimSpace(row[idx[ColRating]]), 64)
		if err != nil {
			return nil, rowError("interactions", line, ColRating, err)
		}
		if math.IsNaN(rating) || math.IsInf(rating, 0) {
			return nil, rowError("interactions", line, ColRating, fmt.Errorf("non-finite rating %v", rating))
		}
		out = append(out, model.Interaction{ClientID: client, FreelancerID: freelancer, Rating: rating})
	}
	return out, nil
}

// readTable parses a CSV table, checks the header for the required columns and
// returns the data rows along with a column-name-to-index map.
func readTable(r io.Reader, table string, required []string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: %s: missing header row", ErrDataLoad, table)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrDataLoad, table, err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		idx[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s: %w: %s", ErrDataLoad, table, ErrMissingColumn, strings.Join(missing, ", "))
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrDataLoad, table, err)
	}
	for i, row := range rows {
		if len(row) < len(header) {
			return nil, nil, rowError(table, i+2, "", fmt.Errorf("expected %d fields, got %d", len(header), len(row)))
		}
	}
	return rows, idx, nil
}

func rowError(table string, line int, column string, err error) error {
	if column == "" {
		return fmt.Errorf("%w: %s line %d: %w", ErrDataLoad, table, line, err)
	}
	return fmt.Errorf("%w: %s line %d column %s: %w", ErrDataLoad, table, line, column, err)
}
