// Package matching ranks hospitals for a patient using the Adaptive Medical
// Priority Parameters (AMPP): a weighted blend of specialty fit, proximity and
// capacity whose weights depend on whether the patient is critical.
//
// Everything in this package is pure. A Scorer only reads its arguments and is
// safe for concurrent use.
package matching

import (
	"math"
	"strings"

	"tero/internal/models"
)

// MatchReason explains which branch of the weight table produced a score.
type MatchReason string

const (
	ReasonProximity      MatchReason = "proximity"
	ReasonSpecialtyMatch MatchReason = "specialty match"
	ReasonCriticalNeed   MatchReason = "critical specialty need"
	ReasonBalanced       MatchReason = "balanced"
)

// MatchResult is the outcome of scoring one hospital.
type MatchResult struct {
	MatchScore         int         `json:"match_score"`
	MatchReason        MatchReason `json:"match_reason"`
	Promoted           bool        `json:"promoted"`
	MatchedSpecialties []string    `json:"matched_specialties,omitempty"`
}

// Scorer computes match results with a fixed set of parameters.
type Scorer struct {
	params Params
}

// NewScorer creates a scorer. Invalid parameters fall back to DefaultParams so
// that scoring never fails; callers that load params from config should call
// Params.Validate first.
func NewScorer(params Params) *Scorer {
	if params.Validate() != nil {
		params = DefaultParams()
	}
	return &Scorer{params: params}
}

// Params returns the parameters the scorer uses.
func (s *Scorer) Params() Params {
	return s.params
}

var defaultScorer = NewScorer(DefaultParams())

// CalculateHospitalMatch scores a hospital with the default parameters.
func CalculateHospitalMatch(h models.Hospital, requiredSpecialties []string, isCritical bool) MatchResult {
	return defaultScorer.Score(h, requiredSpecialties, isCritical)
}

// Score computes the match result for one hospital.
//
// Malformed numbers never cause a failure: a negative or non-finite distance
// is treated as out of range, a negative or non-finite wait time as zero and a
// negative bed count as zero.
func (s *Scorer) Score(h models.Hospital, requiredSpecialties []string, isCritical bool) MatchResult {
	p := s.params
	distance, beds, waitTime := sanitize(h)

	proximityScore := math.Max(0, p.MaxProximityScore-distance*p.ProximityDecay)
	// capacityScore is capped above but has no floor.
	capacityScore := math.Min(p.MaxCapacityScore, float64(beds)-waitTime/p.WaitTimeImpact)

	if len(requiredSpecialties) == 0 {
		total := proximityScore*p.NoSpecialtyProximityWeight + capacityScore*p.NoSpecialtyCapacityWeight
		return MatchResult{
			MatchScore:  round(total),
			MatchReason: ReasonProximity,
		}
	}

	matched := MatchSpecialties(h.Specialties, requiredSpecialties)
	if len(matched) == 0 {
		total := proximityScore*p.NoSpecialtyProximityWeight + capacityScore*p.NoSpecialtyCapacityWeight
		return MatchResult{
			MatchScore:  round(total),
			MatchReason: ReasonBalanced,
		}
	}

	specialtyScore := p.MaxSpecialtyScore * (float64(len(matched)) / float64(len(requiredSpecialties)))

	if isCritical {
		total := specialtyScore*p.CriticalSpecialtyWeight +
			proximityScore*p.CriticalProximityWeight +
			capacityScore*p.CriticalCapacityWeight +
			p.CriticalMatchBonus
		return MatchResult{
			MatchScore:         round(total),
			MatchReason:        ReasonCriticalNeed,
			Promoted:           true,
			MatchedSpecialties: matched,
		}
	}

	total := specialtyScore*p.StandardSpecialtyWeight +
		proximityScore*p.StandardProximityWeight +
		capacityScore*p.StandardCapacityWeight
	score := round(total)
	return MatchResult{
		MatchScore:         score,
		MatchReason:        ReasonSpecialtyMatch,
		Promoted:           score >= p.PerfectMatchThreshold,
		MatchedSpecialties: matched,
	}
}

// MatchSpecialties returns the hospital specialties that contain at least one
// of the required tags as a case-insensitive substring, in hospital order.
func MatchSpecialties(hospitalSpecialties, required []string) []string {
	if len(required) == 0 {
		return nil
	}
	tags := make([]string, len(required))
	for i, tag := range required {
		tags[i] = strings.ToLower(tag)
	}

	var matched []string
	for _, specialty := range hospitalSpecialties {
		lower := strings.ToLower(specialty)
		for _, tag := range tags {
			if strings.Contains(lower, tag) {
				matched = append(matched, specialty)
				break
			}
		}
	}
	return matched
}

func sanitize(h models.Hospital) (distance float64, beds int, waitTime float64) {
	distance = h.Distance
	if math.IsNaN(distance) || math.IsInf(distance, 0) || distance < 0 {
		distance = math.Inf(1)
	}
	beds = h.AvailableBeds
	if beds < 0 {
		beds = 0
	}
	waitTime = h.WaitTime
	if math.IsNaN(waitTime) || math.IsInf(waitTime, 0) || waitTime < 0 {
		waitTime = 0
	}
	return distance, beds, waitTime
}

// round rounds half up, matching the scoring table's reference values.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}
