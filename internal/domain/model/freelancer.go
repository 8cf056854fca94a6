// Package model contains domain models passed between layers.
package model

import "strings"

// Freelancer is one row of the freelancer dataset. List fields are split once
// at load time and never mutated afterwards.
type Freelancer struct {
	ID                string
	HourlyRate        float64
	Skills            []string
	CompletedProjects []string
	ProjectsCombined  string // CompletedProjects joined by a single space
	Experience        []string
	Availability      string // free text, e.g. "3 weeks" or "2 months"
}

// Interaction is a single client rating of a freelancer.
type Interaction struct {
	ClientID     string
	FreelancerID string
	Rating       float64
}

// Query describes a job to match freelancers against.
type Query struct {
	Skills   []string
	Budget   *float64 // nil means no ceiling
	Timeline string   // empty means unspecified
	ClientID string   // empty means anonymous
	Filter   string   // optional boolean expression over freelancer fields
}

// SplitList splits a comma separated cell into trimmed, non-empty tokens.
func SplitList(cell string) []string {
	parts := strings.Split(cell, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CleanSkills trims every skill and drops blanks.
func CleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
