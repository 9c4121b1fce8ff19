package triage

import (
	"context"
	"math"

	"tero/internal/models"
)

// RuleBasedClassifier classifies assessments from their vital signs and a
// keyword scan of the paramedic's notes.
type RuleBasedClassifier struct {
	redKeywords    *Keywords
	yellowKeywords *Keywords
	greenKeywords  *Keywords
	threshold      float64
	fallbackCode   models.TriageCode
}

// NewRuleBasedClassifier creates a new rule-based classifier
func NewRuleBasedClassifier(config ClassifierConfig) *RuleBasedClassifier {
	if config.Threshold == 0 {
		config.Threshold = 0.5
	}

	return &RuleBasedClassifier{
		redKeywords: CompileKeywords([]string{
			"not breathing", "cardiac arrest", "heart attack", "stroke", "unconscious",
			"unresponsive", "severe bleeding", "choking", "drowning", "seizure",
			"anaphylaxis", "overdose", "gunshot", "polytrauma",
		}),
		yellowKeywords: CompileKeywords([]string{
			"fracture", "broken bone", "deep cut", "burn", "concussion", "severe pain",
			"high fever", "difficulty breathing", "chest pain", "allergic reaction",
			"labour", "labor pain",
		}),
		greenKeywords: CompileKeywords([]string{
			"minor cut", "sprain", "mild fever", "rash", "cold symptoms",
			"ear pain", "sore throat", "minor burn", "minor headache",
		}),
		threshold:    config.Threshold,
		fallbackCode: config.FallbackCode,
	}
}

// Classify implements the Classifier interface
func (c *RuleBasedClassifier) Classify(ctx context.Context, assessment *models.Assessment) (models.TriageCode, float64, error) {
	if IsCritical(assessment.Vitals) {
		return models.CodeRed, 0.95, nil
	}

	notes := Normalize(assessment.Notes)

	// Red keywords win over everything else
	redScore := c.calculateScore(notes, c.redKeywords)
	if redScore >= c.threshold {
		return models.CodeRed, redScore, nil
	}

	// Qualified green phrases ("minor burn") are taken out before the yellow
	// scan so their stem does not escalate them.
	yellowScore := c.calculateScore(c.greenKeywords.Remove(notes), c.yellowKeywords)
	if yellowScore >= c.threshold {
		return models.CodeYellow, yellowScore, nil
	}

	greenScore := c.calculateScore(notes, c.greenKeywords)
	if greenScore >= c.threshold {
		return models.CodeGreen, greenScore, nil
	}

	if c.fallbackCode != "" {
		return c.fallbackCode, 0.3, nil // Low confidence
	}

	return models.CodeUnknown, 0.0, nil
}

// calculateScore turns keyword hits into a confidence: one hit is 0.5, each
// further hit halves the remaining doubt.
func (c *RuleBasedClassifier) calculateScore(text string, keywords *Keywords) float64 {
	matches := len(keywords.Match(text))
	if matches == 0 {
		return 0.0
	}
	return 1 - math.Pow(0.5, float64(matches))
}
