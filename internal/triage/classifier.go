package triage

import (
	"context"

	"tero/internal/models"
)

// Classifier defines the interface for patient assessment classification
type Classifier interface {
	// Classify analyzes an assessment and returns a triage code and confidence level
	Classify(ctx context.Context, assessment *models.Assessment) (models.TriageCode, float64, error)
}

// ClassifierConfig contains configuration options for the classifier
type ClassifierConfig struct {
	Threshold    float64
	FallbackCode models.TriageCode
}
