// Package synthetic generates freelancer and interaction tables for local
// demos and tests. Output is fully determined by the profile seed.
package synthetic

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile describes the shape of a generated dataset.
type Profile struct {
	Seed uint64 `yaml:"seed"`

	Freelancers int `yaml:"freelancers"`
	Clients     int `yaml:"clients"`

	// RatingsPerClient is the number of distinct freelancers each client rates.
	RatingsPerClient int `yaml:"ratings_per_client"`

	// SkillsPerFreelancer bounds how many skills are drawn per freelancer.
	SkillsPerFreelancer int `yaml:"skills_per_freelancer"`

	RateMin float64 `yaml:"rate_min"`
	RateMax float64 `yaml:"rate_max"`

	Skills       []string `yaml:"skills"`
	Projects     []string `yaml:"projects"`
	Experience   []string `yaml:"experience"`
	Availability []string `yaml:"availability"`
}

// DefaultProfile returns a small profile suitable for local runs.
func DefaultProfile() Profile {
	return Profile{
		Seed:                42,
		Freelancers:         200,
		Clients:             50,
		RatingsPerClient:    6,
		SkillsPerFreelancer: 4,
		RateMin:             15,
		RateMax:             120,
		Skills: []string{
			"Python", "Django", "Flask", "JavaScript", "React", "Node.js",
			"Go", "Kubernetes", "Docker", "AWS", "SQL", "PostgreSQL",
			"Machine Learning", "Data Analysis", "Figma", "UI Design",
			"Java", "Spring", "Swift", "Kotlin",
		},
		Projects: []string{
			"E-commerce Website", "Mobile Banking App", "Inventory System",
			"Recommendation Engine", "Chat Application", "Analytics Dashboard",
			"Booking Platform", "CRM Integration", "Landing Page", "API Gateway",
		},
		Experience: []string{
			"Backend Development", "Frontend Development", "DevOps",
			"Data Science", "Mobile Development", "Product Design",
			"Cloud Architecture", "QA Automation",
		},
		Availability: []string{
			"1 week", "2 weeks", "3 weeks", "1 month", "2 months", "Immediately",
		},
	}
}

// LoadProfile reads a YAML profile. Fields absent from the file keep their
// DefaultProfile values.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: read %s: %w", ErrLoadProfile, path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("%w: parse %s: %w", ErrLoadProfile, path, err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate checks that p can generate a dataset the loader accepts.
func (p Profile) Validate() error {
	switch {
	case p.Freelancers <= 0:
		return fmt.Errorf("%w: freelancers must be positive", ErrInvalidProfile)
	case p.Clients < 0:
		return fmt.Errorf("%w: clients must not be negative", ErrInvalidProfile)
	case p.RatingsPerClient < 0 || p.RatingsPerClient > p.Freelancers:
		return fmt.Errorf("%w: ratings_per_client must be within [0, freelancers]", ErrInvalidProfile)
	case p.SkillsPerFreelancer <= 0:
		return fmt.Errorf("%w: skills_per_freelancer must be positive", ErrInvalidProfile)
	case p.RateMin < 0 || p.RateMax < p.RateMin:
		return fmt.Errorf("%w: rate range [%v, %v] is invalid", ErrInvalidProfile, p.RateMin, p.RateMax)
	}
	pools := map[string][]string{
		"skills":       p.Skills,
		"projects":     p.Projects,
		"experience":   p.Experience,
		"availability": p.Availability,
	}
	for name, pool := range pools {
		if len(pool) == 0 {
			return fmt.Errorf("%w: %s pool is empty", ErrInvalidProfile, name)
		}
		for _, v := range pool {
			if strings.TrimSpace(v) == "" || strings.Contains(v, ",") {
				return fmt.Errorf("%w: %s entry %q must be non-blank and comma free", ErrInvalidProfile, name, v)
			}
		}
	}
	return nil
}
