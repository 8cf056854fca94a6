// Package types contains the result shapes returned to callers.
package types

// Status distinguishes the soft outcomes of a recommendation query.
type Status string

const (
	StatusOK      Status = "ok"
	StatusNoMatch Status = "no-match"
	StatusNoData  Status = "no-data"
)

// Recommendation is the projection of a freelancer returned to callers.
type Recommendation struct {
	FreelancerID      string   `json:"freelancer_id"`
	HourlyRate        float64  `json:"hourly_rate"`
	Skills            []string `json:"skills"`
	CompletedProjects []string `json:"completed_projects"`
	Experience        []string `json:"experience"`
	Availability      string   `json:"availability"`
	Score             float64  `json:"score"`
}

// Result is the outcome of a recommendation query. Recommendations is empty
// unless Status is StatusOK.
type Result struct {
	Status              Status           `json:"status"`
	Recommendations     []Recommendation `json:"recommendations"`
	CollaborativeWeight float64          `json:"collaborative_weight"`
	ModelVersion        string           `json:"model_version,omitempty"`

	// Candidates counts the freelancers that passed the filters, before the
	// result was cut to the top entries.
	Candidates int `json:"candidates"`
}
