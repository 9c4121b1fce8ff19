package reservation

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"tero/internal/directory"
	"tero/internal/tools"
)

const toolName = "reservation"

// Tool holds one bed at the top ranked hospital.
type Tool struct {
	store directory.Store
	log   zerolog.Logger
}

// NewTool creates a reservation tool backed by store.
func NewTool(store directory.Store, log zerolog.Logger) *Tool {
	return &Tool{
		store: store,
		log:   log.With().Str("tool", toolName).Logger(),
	}
}

func (t *Tool) Name() string {
	return toolName
}

// IsApplicable is true when the caller asked for a reservation and there is a match.
func (t *Tool) IsApplicable(plan *tools.DispatchPlan) bool {
	return plan != nil && plan.ReserveBed && plan.Top() != nil
}

func (t *Tool) Execute(ctx context.Context, plan *tools.DispatchPlan) (*tools.ToolResponse, error) {
	top := plan.Top()
	if top == nil {
		return nil, fmt.Errorf("reservation: no matched hospital")
	}

	h, err := t.store.ReserveBed(ctx, top.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve bed at %s: %w", top.ID, err)
	}
	top.AvailableBeds = h.AvailableBeds

	t.log.Info().
		Str("hospital_id", h.ID).
		Int("beds_left", h.AvailableBeds).
		Msg("bed reserved")

	return tools.NewResponse(toolName, "Bed reserved at "+h.Name, map[string]string{
		"hospital_id":    h.ID,
		"available_beds": strconv.Itoa(h.AvailableBeds),
	}), nil
}
