package matching

import (
	"sort"

	"tero/internal/models"
	"tero/internal/triage"
)

// RankedHospital is a hospital annotated with its match result.
type RankedHospital struct {
	models.Hospital
	MatchResult
}

// Rank scores every hospital and returns them ordered by descending match
// score. Hospitals with equal scores keep their input order.
func (s *Scorer) Rank(hospitals []models.Hospital, requiredSpecialties []string, isCritical bool) []RankedHospital {
	ranked := make([]RankedHospital, len(hospitals))
	for i, h := range hospitals {
		ranked[i] = RankedHospital{
			Hospital:    h,
			MatchResult: s.Score(h, requiredSpecialties, isCritical),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MatchScore > ranked[j].MatchScore
	})

	return ranked
}

// RankHospitals ranks hospitals with the default parameters.
func RankHospitals(hospitals []models.Hospital, requiredSpecialties []string, isCritical bool) []RankedHospital {
	return defaultScorer.Rank(hospitals, requiredSpecialties, isCritical)
}

// MatchHospitalsToPatient derives the patient's requirements from an
// assessment and ranks the hospitals against them.
func (s *Scorer) MatchHospitalsToPatient(hospitals []models.Hospital, assessment *models.Assessment) []RankedHospital {
	if assessment == nil {
		return s.Rank(hospitals, nil, false)
	}
	return s.Rank(hospitals, assessment.SpecialtyTags, IsCritical(assessment))
}

// IsCritical reports whether the assessment counts as critical for matching:
// flagged by the caller, classified RED, or over a vital-sign threshold.
func IsCritical(assessment *models.Assessment) bool {
	if assessment == nil {
		return false
	}
	return assessment.IsLifeThreatening() || triage.IsCritical(assessment.Vitals)
}
