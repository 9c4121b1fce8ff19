package models

import (
	"time"

	"github.com/google/uuid"
)

// TriageCode represents the severity level of a medical emergency
type TriageCode string

const (
	// CodeRed represents life-threatening emergencies requiring immediate intervention
	CodeRed TriageCode = "RED"

	// CodeYellow represents urgent but not immediately life-threatening situations
	CodeYellow TriageCode = "YELLOW"

	// CodeGreen represents non-urgent cases requiring medical attention
	CodeGreen TriageCode = "GREEN"

	// CodeUnknown represents situations that could not be classified
	CodeUnknown TriageCode = "UNKNOWN"
)

// ParseTriageCode maps a free-form code to a TriageCode, returning CodeUnknown
// for anything it does not recognise.
func ParseTriageCode(s string) TriageCode {
	switch TriageCode(s) {
	case CodeRed, CodeYellow, CodeGreen:
		return TriageCode(s)
	}
	switch s {
	case "red", "Red", "critical":
		return CodeRed
	case "yellow", "Yellow", "urgent":
		return CodeYellow
	case "green", "Green":
		return CodeGreen
	}
	return CodeUnknown
}

// Vitals holds the vital signs recorded by the paramedic. A nil field means the
// value was not measured.
type Vitals struct {
	HeartRate       *float64 `json:"heart_rate,omitempty" yaml:"heart_rate,omitempty"`
	BPSystolic      *float64 `json:"bp_systolic,omitempty" yaml:"bp_systolic,omitempty"`
	BPDiastolic     *float64 `json:"bp_diastolic,omitempty" yaml:"bp_diastolic,omitempty"`
	SpO2            *float64 `json:"spo2,omitempty" yaml:"spo2,omitempty"`
	RespiratoryRate *float64 `json:"respiratory_rate,omitempty" yaml:"respiratory_rate,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	GCS             *float64 `json:"gcs,omitempty" yaml:"gcs,omitempty"`
}

// Measured reports whether at least one vital sign is present.
func (v Vitals) Measured() bool {
	return v.HeartRate != nil || v.BPSystolic != nil || v.BPDiastolic != nil ||
		v.SpO2 != nil || v.RespiratoryRate != nil || v.Temperature != nil || v.GCS != nil
}

// Value returns a pointer to f, for filling Vitals fields.
func Value(f float64) *float64 {
	return &f
}

// Assessment is a patient assessment made in the field. It carries everything
// the matcher needs to derive criticality and the required specialties.
type Assessment struct {
	ID            string            `json:"id"`
	Notes         string            `json:"notes,omitempty"`
	Vitals        Vitals            `json:"vitals"`
	SpecialtyTags []string          `json:"specialty_tags,omitempty"`
	Code          TriageCode        `json:"code"`
	Confidence    float64           `json:"confidence"`
	Critical      bool              `json:"is_critical"`
	Location      *Location         `json:"location,omitempty"`
	City          string            `json:"city,omitempty"`
	PatientInfo   *PatientInfo      `json:"patient_info,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// PatientInfo contains basic information about the patient
type PatientInfo struct {
	Name      string   `json:"name,omitempty"`
	Age       int      `json:"age,omitempty"`
	Gender    string   `json:"gender,omitempty"`
	Allergies []string `json:"allergies,omitempty"`
}

// NewAssessment creates a new assessment with default values
func NewAssessment(notes string) *Assessment {
	return &Assessment{
		ID:        "assessment-" + uuid.NewString(),
		Notes:     notes,
		Code:      CodeUnknown,
		Timestamp: time.Now(),
		Metadata:  make(map[string]string),
	}
}

// SetTriageCode sets the triage code and confidence level
func (a *Assessment) SetTriageCode(code TriageCode, confidence float64) {
	a.Code = code
	a.Confidence = confidence
}

// IsLifeThreatening returns true if the assessment is flagged critical or
// classified RED.
func (a *Assessment) IsLifeThreatening() bool {
	return a.Critical || a.Code == CodeRed
}
