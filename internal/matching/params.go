package matching

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid matching parameters")

// Params are the Adaptive Medical Priority Parameters. Every field is a tuning
// knob; DefaultParams returns the production values.
type Params struct {
	CriticalSpecialtyWeight    float64 `yaml:"critical_specialty_weight" json:"critical_specialty_weight"`
	CriticalProximityWeight    float64 `yaml:"critical_proximity_weight" json:"critical_proximity_weight"`
	CriticalCapacityWeight     float64 `yaml:"critical_capacity_weight" json:"critical_capacity_weight"`
	StandardSpecialtyWeight    float64 `yaml:"standard_specialty_weight" json:"standard_specialty_weight"`
	StandardProximityWeight    float64 `yaml:"standard_proximity_weight" json:"standard_proximity_weight"`
	StandardCapacityWeight     float64 `yaml:"standard_capacity_weight" json:"standard_capacity_weight"`
	NoSpecialtyProximityWeight float64 `yaml:"no_specialty_proximity_weight" json:"no_specialty_proximity_weight"`
	NoSpecialtyCapacityWeight  float64 `yaml:"no_specialty_capacity_weight" json:"no_specialty_capacity_weight"`

	// MaxProximityScore is the proximity credit at distance zero. Each
	// kilometre costs ProximityDecay points.
	MaxProximityScore float64 `yaml:"max_proximity_score" json:"max_proximity_score"`
	ProximityDecay    float64 `yaml:"proximity_decay" json:"proximity_decay"`

	// WaitTimeImpact divides the wait time (minutes) before it is subtracted
	// from the bed count.
	WaitTimeImpact   float64 `yaml:"wait_time_impact" json:"wait_time_impact"`
	MaxCapacityScore float64 `yaml:"max_capacity_score" json:"max_capacity_score"`

	MaxSpecialtyScore     float64 `yaml:"max_specialty_score" json:"max_specialty_score"`
	CriticalMatchBonus    float64 `yaml:"critical_match_bonus" json:"critical_match_bonus"`
	PerfectMatchThreshold int     `yaml:"perfect_match_threshold" json:"perfect_match_threshold"`
}

// DefaultParams returns the standard AMPP weight table.
func DefaultParams() Params {
	return Params{
		CriticalSpecialtyWeight:    0.7,
		CriticalProximityWeight:    0.2,
		CriticalCapacityWeight:     0.1,
		StandardSpecialtyWeight:    0.5,
		StandardProximityWeight:    0.4,
		StandardCapacityWeight:     0.1,
		NoSpecialtyProximityWeight: 0.8,
		NoSpecialtyCapacityWeight:  0.2,
		MaxProximityScore:          40,
		ProximityDecay:             4,
		WaitTimeImpact:             10,
		MaxCapacityScore:           10,
		MaxSpecialtyScore:          50,
		CriticalMatchBonus:         10,
		PerfectMatchThreshold:      90,
	}
}

// Validate checks that the parameters can produce finite scores.
func (p Params) Validate() error {
	weights := map[string]float64{
		"critical_specialty_weight":     p.CriticalSpecialtyWeight,
		"critical_proximity_weight":     p.CriticalProximityWeight,
		"critical_capacity_weight":      p.CriticalCapacityWeight,
		"standard_specialty_weight":     p.StandardSpecialtyWeight,
		"standard_proximity_weight":     p.StandardProximityWeight,
		"standard_capacity_weight":      p.StandardCapacityWeight,
		"no_specialty_proximity_weight": p.NoSpecialtyProximityWeight,
		"no_specialty_capacity_weight":  p.NoSpecialtyCapacityWeight,
		"proximity_decay":               p.ProximityDecay,
		"max_capacity_score":            p.MaxCapacityScore,
		"max_specialty_score":           p.MaxSpecialtyScore,
		"critical_match_bonus":          p.CriticalMatchBonus,
	}
	for name, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidParams, name, w)
		}
	}
	if !(p.MaxProximityScore > 0) || math.IsInf(p.MaxProximityScore, 0) {
		return fmt.Errorf("%w: max_proximity_score must be positive", ErrInvalidParams)
	}
	if !(p.WaitTimeImpact > 0) || math.IsInf(p.WaitTimeImpact, 0) {
		return fmt.Errorf("%w: wait_time_impact must be positive", ErrInvalidParams)
	}
	return nil
}
