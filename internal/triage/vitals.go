package triage

import (
	"fmt"

	"tero/internal/models"
)

// Vital-sign thresholds beyond which a patient is considered critical.
const (
	MaxHeartRate  = 120
	MinHeartRate  = 50
	MaxSystolicBP = 180
	MinSystolicBP = 90
	MinSpO2       = 92
	MinGCS        = 9
)

// IsCritical reports whether any measured vital sign is past its threshold.
// Vitals that were not measured never make a patient critical.
func IsCritical(v models.Vitals) bool {
	return len(CriticalReasons(v)) > 0
}

// CriticalReasons lists every threshold the vitals cross.
func CriticalReasons(v models.Vitals) []string {
	var reasons []string

	if v.HeartRate != nil {
		switch hr := *v.HeartRate; {
		case hr > MaxHeartRate:
			reasons = append(reasons, fmt.Sprintf("tachycardia (HR %.0f)", hr))
		case hr < MinHeartRate:
			reasons = append(reasons, fmt.Sprintf("bradycardia (HR %.0f)", hr))
		}
	}

	if v.BPSystolic != nil {
		switch sbp := *v.BPSystolic; {
		case sbp > MaxSystolicBP:
			reasons = append(reasons, fmt.Sprintf("hypertensive crisis (SBP %.0f)", sbp))
		case sbp < MinSystolicBP:
			reasons = append(reasons, fmt.Sprintf("hypotension (SBP %.0f)", sbp))
		}
	}

	if v.SpO2 != nil && *v.SpO2 < MinSpO2 {
		reasons = append(reasons, fmt.Sprintf("hypoxia (SpO2 %.0f%%)", *v.SpO2))
	}

	if v.GCS != nil && *v.GCS < MinGCS {
		reasons = append(reasons, fmt.Sprintf("depressed consciousness (GCS %.0f)", *v.GCS))
	}

	return reasons
}
