package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tero/internal/ai"
	"tero/internal/models"
	"tero/internal/triage"
)

// ErrEmptyNotes is returned when there is no text to process.
var ErrEmptyNotes = errors.New("notes are required")

const extractionSchema = `{
	"vitals": {
		"type": "object",
		"properties": {
			"heart_rate": {"type": "number"},
			"bp_systolic": {"type": "number"},
			"bp_diastolic": {"type": "number"},
			"spo2": {"type": "number"},
			"respiratory_rate": {"type": "number"},
			"temperature": {"type": "number"},
			"gcs": {"type": "number"}
		},
		"description": "Only vitals explicitly stated in the notes"
	},
	"specialty_tags": {
		"type": "array",
		"items": {"type": "string"},
		"description": "Hospital specialties the patient needs, e.g. Cardiology, Neurology, Trauma, Burns, Pediatrics"
	},
	"triage_code": {
		"type": "string",
		"enum": ["RED", "YELLOW", "GREEN", "UNKNOWN"]
	},
	"confidence": {"type": "number", "description": "0.0-1.0"},
	"is_critical": {"type": "boolean"},
	"summary": {"type": "string", "description": "One or two sentence hand-off summary"}
}`

type extraction struct {
	Vitals        models.Vitals `json:"vitals"`
	SpecialtyTags []string      `json:"specialty_tags"`
	TriageCode    string        `json:"triage_code"`
	Confidence    float64       `json:"confidence"`
	Critical      bool          `json:"is_critical"`
	Summary       string        `json:"summary"`
}

// AssessmentProcessor turns free-text paramedic notes into an Assessment.
// With a model it asks for a structured extraction; the rule-based tagger and
// vitals parser always run and fill whatever the model left out.
type AssessmentProcessor struct {
	model   ai.Model
	tagger  *triage.SpecialtyTagger
	timeout time.Duration
	log     zerolog.Logger
}

// NewAssessmentProcessor creates a processor. model may be nil.
func NewAssessmentProcessor(model ai.Model, tagger *triage.SpecialtyTagger, timeout time.Duration, log zerolog.Logger) *AssessmentProcessor {
	if tagger == nil {
		tagger = triage.NewSpecialtyTagger(nil)
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &AssessmentProcessor{
		model:   model,
		tagger:  tagger,
		timeout: timeout,
		log:     log.With().Str("component", "assessment_processor").Logger(),
	}
}

// ProcessNotes builds an assessment from notes. Model failures are logged and
// the rule-based result is returned instead.
func (p *AssessmentProcessor) ProcessNotes(ctx context.Context, notes string) (*models.Assessment, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, ErrEmptyNotes
	}

	a := models.NewAssessment(notes)
	a.Vitals = triage.ExtractVitals(notes)
	tags := p.tagger.Tag(notes)
	a.Metadata["extraction"] = "rules"

	if p.model != nil {
		ext, err := p.extract(ctx, notes)
		if err != nil {
			p.log.Warn().Err(err).Str("model", p.model.Name()).Msg("model extraction failed, using rules")
		} else {
			a.Vitals = triage.MergeVitals(ext.Vitals, a.Vitals)
			tags = triage.Merge(ext.SpecialtyTags, tags)
			if code := models.ParseTriageCode(strings.ToUpper(ext.TriageCode)); code != models.CodeUnknown {
				a.SetTriageCode(code, clamp01(ext.Confidence))
			}
			a.Critical = ext.Critical
			if ext.Summary != "" {
				a.Metadata["summary"] = ext.Summary
			}
			a.Metadata["extraction"] = "model"
			a.Metadata["model"] = p.model.Name()
		}
	}

	a.SpecialtyTags = tags
	return a, nil
}

func (p *AssessmentProcessor) extract(ctx context.Context, notes string) (*extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	prompt := fmt.Sprintf(`These are field notes from a paramedic: %q

Extract the patient's vital signs, the hospital specialties they need and a triage code
(RED: life-threatening, YELLOW: urgent, GREEN: non-urgent).
Include only information that can be clearly inferred from the notes.`, notes)

	resp, err := p.model.ProcessTextWithJSON(ctx, prompt, extractionSchema)
	if err != nil {
		return nil, err
	}

	var ext extraction
	if err := json.Unmarshal([]byte(resp.Content), &ext); err != nil {
		return nil, fmt.Errorf("failed to parse extraction: %w", err)
	}
	return &ext, nil
}

func clamp01(f float64) float64 {
	switch {
	case f < 0 || math.IsNaN(f):
		return 0
	case f > 1:
		return 1
	}
	return f
}
