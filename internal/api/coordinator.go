package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tero/internal/directory"
	"tero/internal/matching"
	"tero/internal/models"
	"tero/internal/tools"
	"tero/internal/triage"
)

// ErrInvalidAssessment is returned for assessments the coordinator cannot match.
var ErrInvalidAssessment = errors.New("invalid assessment")

// SummaryGenerator writes the hand-off text for the receiving team.
type SummaryGenerator interface {
	GenerateSummary(ctx context.Context, assessment *models.Assessment, matches []matching.RankedHospital) (string, error)
}

// CoordinatorConfig contains configuration for the match coordinator
type CoordinatorConfig struct {
	// TopN caps the number of hospitals returned; zero returns all.
	TopN          int
	MaxDistanceKm float64
	Timeout       time.Duration
}

// MatchOptions override the coordinator defaults for one request.
type MatchOptions struct {
	TopN          int
	MaxDistanceKm float64
	ReserveBed    bool
}

// MatchResponse is the coordinated answer for one assessment.
type MatchResponse struct {
	AssessmentID        string                    `json:"assessment_id"`
	Code                models.TriageCode         `json:"code"`
	Confidence          float64                   `json:"confidence"`
	Critical            bool                      `json:"is_critical"`
	CriticalReasons     []string                  `json:"critical_reasons,omitempty"`
	RequiredSpecialties []string                  `json:"required_specialties"`
	Matches             []matching.RankedHospital `json:"matches"`
	Summary             string                    `json:"summary"`
	Timestamp           string                    `json:"timestamp"`
	ToolResponses       []*tools.ToolResponse     `json:"tool_responses,omitempty"`
}

// MatchCoordinator runs triage, candidate selection, ranking and the dispatch
// tools for an assessment.
type MatchCoordinator struct {
	directory        *directory.Directory
	scorer           *matching.Scorer
	classifier       triage.Classifier
	tagger           *triage.SpecialtyTagger
	toolRegistry     tools.ToolRegistry
	summaryGenerator SummaryGenerator
	config           CoordinatorConfig
	log              zerolog.Logger
}

// NewMatchCoordinator creates a coordinator. A nil tagger uses the default
// rules and a nil summary generator uses DefaultSummaryGenerator.
func NewMatchCoordinator(
	dir *directory.Directory,
	scorer *matching.Scorer,
	classifier triage.Classifier,
	tagger *triage.SpecialtyTagger,
	toolRegistry tools.ToolRegistry,
	summaryGenerator SummaryGenerator,
	config CoordinatorConfig,
	log zerolog.Logger,
) *MatchCoordinator {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if tagger == nil {
		tagger = triage.NewSpecialtyTagger(nil)
	}
	if summaryGenerator == nil {
		summaryGenerator = &DefaultSummaryGenerator{}
	}
	if toolRegistry == nil {
		toolRegistry = tools.NewToolRegistry()
	}

	return &MatchCoordinator{
		directory:        dir,
		scorer:           scorer,
		classifier:       classifier,
		tagger:           tagger,
		toolRegistry:     toolRegistry,
		summaryGenerator: summaryGenerator,
		config:           config,
		log:              log.With().Str("component", "coordinator").Logger(),
	}
}

// Match ranks the directory's hospitals for the assessment. The assessment is
// completed in place: missing tags, vitals and triage code are derived from
// the notes.
func (c *MatchCoordinator) Match(ctx context.Context, assessment *models.Assessment, opts MatchOptions) (*MatchResponse, error) {
	if assessment == nil {
		return nil, fmt.Errorf("%w: assessment is required", ErrInvalidAssessment)
	}
	if opts.TopN < 0 || opts.MaxDistanceKm < 0 {
		return nil, fmt.Errorf("%w: top_n and max_distance_km must not be negative", ErrInvalidAssessment)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	c.prepare(ctx, assessment)

	maxKm := c.config.MaxDistanceKm
	if opts.MaxDistanceKm > 0 {
		maxKm = opts.MaxDistanceKm
	}
	candidates, err := c.directory.Candidates(ctx, directory.Query{
		Origin:        assessment.Location,
		City:          assessment.City,
		MaxDistanceKm: maxKm,
	})
	if err != nil {
		return nil, err
	}

	ranked := c.scorer.Rank(candidates, assessment.SpecialtyTags, assessment.Critical)
	topN := c.config.TopN
	if opts.TopN > 0 {
		topN = opts.TopN
	}
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	summary, err := c.summaryGenerator.GenerateSummary(ctx, assessment, ranked)
	if err != nil {
		c.log.Warn().Err(err).Str("assessment_id", assessment.ID).Msg("summary generation failed")
		summary = fmt.Sprintf("Assessment %s (Code %s). %d hospitals ranked.",
			assessment.ID, assessment.Code, len(ranked))
	}

	plan := &tools.DispatchPlan{
		Assessment: assessment,
		Matches:    ranked,
		Summary:    summary,
		ReserveBed: opts.ReserveBed,
	}
	toolResponses := c.runTools(ctx, plan)

	c.log.Info().
		Str("assessment_id", assessment.ID).
		Str("code", string(assessment.Code)).
		Bool("critical", assessment.Critical).
		Strs("specialties", assessment.SpecialtyTags).
		Int("candidates", len(candidates)).
		Int("returned", len(ranked)).
		Msg("assessment matched")

	matches := ranked
	if matches == nil {
		matches = []matching.RankedHospital{}
	}
	required := assessment.SpecialtyTags
	if required == nil {
		required = []string{}
	}

	return &MatchResponse{
		AssessmentID:        assessment.ID,
		Code:                assessment.Code,
		Confidence:          assessment.Confidence,
		Critical:            assessment.Critical,
		CriticalReasons:     triage.CriticalReasons(assessment.Vitals),
		RequiredSpecialties: required,
		Matches:             matches,
		Summary:             summary,
		Timestamp:           time.Now().UTC().Format(time.RFC3339),
		ToolResponses:       toolResponses,
	}, nil
}

// prepare fills in what the caller left out.
func (c *MatchCoordinator) prepare(ctx context.Context, a *models.Assessment) {
	if a.ID == "" {
		a.ID = "assessment-" + uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	if a.Metadata == nil {
		a.Metadata = make(map[string]string)
	}

	if a.Notes != "" {
		a.Vitals = triage.MergeVitals(a.Vitals, triage.ExtractVitals(a.Notes))
		if len(a.SpecialtyTags) == 0 {
			a.SpecialtyTags = c.tagger.Tag(a.Notes)
		}
	}

	a.Code = models.ParseTriageCode(string(a.Code))
	if a.Code == models.CodeUnknown && c.classifier != nil {
		code, confidence, err := c.classifier.Classify(ctx, a)
		if err != nil {
			c.log.Warn().Err(err).Str("assessment_id", a.ID).Msg("classification failed")
		} else {
			a.SetTriageCode(code, confidence)
		}
	}

	a.Critical = matching.IsCritical(a)
}

// runTools executes every applicable tool in registration order. A failing
// tool is reported in its response and does not stop the others.
func (c *MatchCoordinator) runTools(ctx context.Context, plan *tools.DispatchPlan) []*tools.ToolResponse {
	var responses []*tools.ToolResponse
	for _, tool := range c.toolRegistry.GetApplicable(plan) {
		resp, err := tool.Execute(ctx, plan)
		if err != nil {
			c.log.Warn().Err(err).Str("tool", tool.Name()).Msg("tool failed")
			responses = append(responses, &tools.ToolResponse{
				ToolName:  tool.Name(),
				Success:   false,
				Message:   err.Error(),
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
			continue
		}
		responses = append(responses, resp)
	}
	return responses
}
