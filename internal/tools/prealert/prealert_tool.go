package prealert

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tero/internal/tools"
	"tero/internal/triage"
)

const toolName = "prealert"

// ErrNoMatch is returned when the plan has no ranked hospital to alert.
var ErrNoMatch = errors.New("no matched hospital to alert")

// Tool sends a pre-arrival alert to the top ranked hospital.
type Tool struct {
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
}

// NewTool creates a pre-alert tool delivering through notifier.
func NewTool(notifier Notifier, log zerolog.Logger) *Tool {
	return &Tool{
		notifier: notifier,
		log:      log.With().Str("tool", toolName).Logger(),
		now:      time.Now,
	}
}

func (t *Tool) Name() string {
	return toolName
}

// IsApplicable is true for critical patients and for promoted top matches.
func (t *Tool) IsApplicable(plan *tools.DispatchPlan) bool {
	top := plan.Top()
	if top == nil {
		return false
	}
	return plan.Critical() || top.Promoted
}

func (t *Tool) Execute(ctx context.Context, plan *tools.DispatchPlan) (*tools.ToolResponse, error) {
	top := plan.Top()
	if top == nil {
		return nil, ErrNoMatch
	}

	alert := Alert{
		AlertID:            uuid.NewString(),
		HospitalID:         top.ID,
		HospitalName:       top.Name,
		Critical:           plan.Critical(),
		MatchScore:         top.MatchScore,
		MatchedSpecialties: top.MatchedSpecialties,
		ETAMinutes:         top.ETA,
		Summary:            plan.Summary,
		SentAt:             t.now().UTC(),
	}
	if a := plan.Assessment; a != nil {
		alert.AssessmentID = a.ID
		alert.TriageCode = string(a.Code)
		alert.CriticalReasons = triage.CriticalReasons(a.Vitals)
		if alert.Summary == "" {
			alert.Summary = a.Notes
		}
	}

	if err := t.notifier.Notify(ctx, alert); err != nil {
		t.log.Warn().Err(err).Str("hospital_id", top.ID).Msg("pre-alert not delivered")
		return nil, fmt.Errorf("failed to alert %s: %w", top.ID, err)
	}

	t.log.Info().
		Str("alert_id", alert.AlertID).
		Str("hospital_id", top.ID).
		Bool("critical", alert.Critical).
		Msg("pre-alert sent")

	return tools.NewResponse(toolName, "Pre-arrival alert sent to "+top.Name, map[string]string{
		"alert_id":    alert.AlertID,
		"hospital_id": top.ID,
		"match_score": strconv.Itoa(top.MatchScore),
	}), nil
}
