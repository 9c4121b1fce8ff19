package api

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tero/internal/ai"
	"tero/internal/models"
)

func TestProcessNotes_RulesOnly(t *testing.T) {
	p := NewAssessmentProcessor(nil, nil, 0, zerolog.Nop())

	a, err := p.ProcessNotes(context.Background(), "  Road traffic accident, severe bleeding. Pulse 130, SpO2 90%  ")
	require.NoError(t, err)

	assert.Equal(t, "Road traffic accident, severe bleeding. Pulse 130, SpO2 90%", a.Notes)
	assert.Equal(t, []string{"Trauma"}, a.SpecialtyTags)
	require.NotNil(t, a.Vitals.HeartRate)
	assert.Equal(t, 130.0, *a.Vitals.HeartRate)
	require.NotNil(t, a.Vitals.SpO2)
	assert.Equal(t, 90.0, *a.Vitals.SpO2)
	assert.Equal(t, models.CodeUnknown, a.Code)
	assert.Equal(t, "rules", a.Metadata["extraction"])
}

func TestProcessNotes_ModelMergesWithRules(t *testing.T) {
	model := &fakeModel{content: `{
		"vitals": {"heart_rate": 150, "gcs": 13},
		"specialty_tags": ["cardiology", "Emergency Medicine"],
		"triage_code": "yellow",
		"confidence": 1.7,
		"summary": "Palpitations with chest pain"
	}`}
	p := NewAssessmentProcessor(model, nil, 0, zerolog.Nop())

	a, err := p.ProcessNotes(context.Background(), "chest pain and palpitations, HR 140, BP 100/60")
	require.NoError(t, err)

	// model values win, rules fill the gaps
	assert.Equal(t, 150.0, *a.Vitals.HeartRate)
	assert.Equal(t, 13.0, *a.Vitals.GCS)
	assert.Equal(t, 100.0, *a.Vitals.BPSystolic)

	assert.Equal(t, []string{"cardiology", "Emergency Medicine"}, a.SpecialtyTags)
	assert.Equal(t, models.CodeYellow, a.Code)
	assert.Equal(t, 1.0, a.Confidence)
	assert.Equal(t, "Palpitations with chest pain", a.Metadata["summary"])
	assert.Equal(t, "model", a.Metadata["extraction"])
	assert.Equal(t, "fake", a.Metadata["model"])
}

func TestProcessNotes_ModelFailureFallsBack(t *testing.T) {
	for _, model := range []ai.Model{
		&fakeModel{err: ai.ErrRateLimitExceeded},
		&fakeModel{content: `["not", "an", "object"]`},
	} {
		p := NewAssessmentProcessor(model, nil, 0, zerolog.Nop())

		a, err := p.ProcessNotes(context.Background(), "suspected stroke, facial droop")
		require.NoError(t, err)
		assert.Equal(t, []string{"Neurology"}, a.SpecialtyTags)
		assert.Equal(t, "rules", a.Metadata["extraction"])
	}
}

func TestProcessNotes_Empty(t *testing.T) {
	p := NewAssessmentProcessor(nil, nil, 0, zerolog.Nop())
	_, err := p.ProcessNotes(context.Background(), " \n\t ")
	assert.True(t, errors.Is(err, ErrEmptyNotes))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-1))
	assert.Equal(t, 0.4, clamp01(0.4))
	assert.Equal(t, 1.0, clamp01(3))
}
