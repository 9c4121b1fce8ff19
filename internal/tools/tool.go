package tools

import (
	"context"
	"time"

	"tero/internal/matching"
	"tero/internal/models"
)

// ToolResponse is the outcome of one dispatch tool.
type ToolResponse struct {
	ToolName  string            `json:"tool_name"`
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// NewResponse builds a successful response stamped with the current time.
func NewResponse(tool, message string, data map[string]string) *ToolResponse {
	return &ToolResponse{
		ToolName:  tool,
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// DispatchPlan is what the tools act on once hospitals have been ranked.
type DispatchPlan struct {
	Assessment *models.Assessment
	// Matches is ordered best first.
	Matches []matching.RankedHospital
	// Summary is the human readable hand-off text, if one was generated.
	Summary string
	// ReserveBed asks the reservation tool to hold a bed at the top match.
	ReserveBed bool
}

// Top returns the best match, or nil when nothing was ranked.
func (p *DispatchPlan) Top() *matching.RankedHospital {
	if p == nil || len(p.Matches) == 0 {
		return nil
	}
	return &p.Matches[0]
}

// Critical reports whether the patient is life-threatening.
func (p *DispatchPlan) Critical() bool {
	return p != nil && p.Assessment != nil && p.Assessment.IsLifeThreatening()
}

// DispatchTool is a side effect run after matching.
type DispatchTool interface {
	// Name returns the name of the tool
	Name() string

	// IsApplicable determines if the tool should run for the given plan
	IsApplicable(plan *DispatchPlan) bool

	// Execute runs the tool
	Execute(ctx context.Context, plan *DispatchPlan) (*ToolResponse, error)
}

// ToolRegistry maintains the available dispatch tools
type ToolRegistry interface {
	Register(tool DispatchTool) error
	GetAll() []DispatchTool
	GetApplicable(plan *DispatchPlan) []DispatchTool
}
