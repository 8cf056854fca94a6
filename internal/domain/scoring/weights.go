package scoring

import (
	"strconv"
	"strings"
)

// Blend weights. The content weights sum to 1 and are scaled by
// 1-collaborativeShare when a collaborative signal exists.
const (
	skillsWeight       = 0.35
	projectsWeight     = 0.35
	experienceWeight   = 0.20
	availabilityWeight = 0.10
	collaborativeShare = 0.15

	availabilityMet     = 1.0
	availabilityShort   = 0.2
	availabilityNeutral = 0.5

	weeksPerMonth     = 4
	maxTimeframeWeeks = 10000
)

// Weights are the effective blend weights of one query.
type Weights struct {
	Skills        float64 `json:"skills"`
	Projects      float64 `json:"projects"`
	Experience    float64 `json:"experience"`
	Availability  float64 `json:"availability"`
	Collaborative float64 `json:"collaborative"`
}

// EffectiveWeights returns the blend weights with or without the
// collaborative term.
func EffectiveWeights(collaborative bool) Weights {
	content, cf := 1.0, 0.0
	if collaborative {
		content, cf = 1-collaborativeShare, collaborativeShare
	}
	return Weights{
		Skills:        skillsWeight * content,
		Projects:      projectsWeight * content,
		Experience:    experienceWeight * content,
		Availability:  availabilityWeight * content,
		Collaborative: cf,
	}
}

// Sum returns the total of all five weights.
func (w Weights) Sum() float64 {
	return w.Skills + w.Projects + w.Experience + w.Availability + w.Collaborative
}

// Signals are the per-freelancer inputs to the blend.
type Signals struct {
	Skills        float64
	Projects      float64
	Experience    float64
	Availability  float64
	Collaborative float64
}

// Blend returns the weighted sum of s.
func (w Weights) Blend(s Signals) float64 {
	return w.Skills*s.Skills +
		w.Projects*s.Projects +
		w.Experience*s.Experience +
		w.Availability*s.Availability +
		w.Collaborative*s.Collaborative
}

// ParseWeeks reads a timeframe such as "3 weeks" or "2 months" as a week
// count. The leading field must be an integer; text mentioning "week" is taken
// as weeks and anything else as months of four weeks. Counts outside
// [0, maxTimeframeWeeks] are unparsable.
func ParseWeeks(s string) (int, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return 0, false
	}
	if !strings.Contains(strings.ToLower(s), "week") {
		if n > maxTimeframeWeeks/weeksPerMonth {
			return 0, false
		}
		n *= weeksPerMonth
	}
	if n > maxTimeframeWeeks {
		return 0, false
	}
	return n, true
}

// AvailabilityScore compares a freelancer's availability with a requested
// timeline. Either side missing or unparsable yields the neutral score.
func AvailabilityScore(availability, timeline string) float64 {
	requested, ok := ParseWeeks(timeline)
	if !ok {
		return availabilityNeutral
	}
	available, ok := ParseWeeks(availability)
	if !ok {
		return availabilityNeutral
	}
	return availabilityFor(available, requested)
}

func availabilityFor(available, requested int) float64 {
	if available >= requested {
		return availabilityMet
	}
	return availabilityShort
}
