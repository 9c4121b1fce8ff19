package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tero/internal/matching"
	"tero/internal/models"
	"tero/internal/triage"
)

// DefaultSummaryGenerator renders a plain-text hand-off summary.
type DefaultSummaryGenerator struct {
	// Now is used for the generation timestamp; nil means time.Now.
	Now func() time.Time
}

// GenerateSummary generates a human-readable summary of the assessment and
// the recommended hospital.
func (g *DefaultSummaryGenerator) GenerateSummary(ctx context.Context, a *models.Assessment, matches []matching.RankedHospital) (string, error) {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "PATIENT ALERT: %s - %s\n", getPriorityText(a.Code, a.Critical), a.Code)

	if text := a.Metadata["summary"]; text != "" {
		fmt.Fprintf(&sb, "Summary: %s\n", text)
	} else if a.Notes != "" {
		fmt.Fprintf(&sb, "Notes: %s\n", a.Notes)
	}

	if !a.Vitals.Measured() {
		sb.WriteString("Vitals: not recorded\n")
	} else if reasons := triage.CriticalReasons(a.Vitals); len(reasons) > 0 {
		fmt.Fprintf(&sb, "Critical findings: %s\n", strings.Join(reasons, ", "))
	}
	if len(a.SpecialtyTags) > 0 {
		fmt.Fprintf(&sb, "Specialties needed: %s\n", strings.Join(a.SpecialtyTags, ", "))
	}

	if p := a.PatientInfo; p != nil {
		sb.WriteString("\nPATIENT INFO:\n")
		if p.Name != "" {
			fmt.Fprintf(&sb, "Name: %s\n", p.Name)
		}
		if p.Age > 0 {
			fmt.Fprintf(&sb, "Age: %d\n", p.Age)
		}
		if p.Gender != "" {
			fmt.Fprintf(&sb, "Gender: %s\n", p.Gender)
		}
		if len(p.Allergies) > 0 {
			fmt.Fprintf(&sb, "Allergies: %s\n", strings.Join(p.Allergies, ", "))
		}
	}

	if len(matches) == 0 {
		sb.WriteString("\nNo hospital matched the search criteria.\n")
	} else {
		top := matches[0]
		fmt.Fprintf(&sb, "\nRECOMMENDED: %s (score %d, %s)\n", top.Name, top.MatchScore, top.MatchReason)
		if top.Distance > 0 {
			fmt.Fprintf(&sb, "Distance: %.1f km, ETA %.0f min\n", top.Distance, top.ETA)
		}
		fmt.Fprintf(&sb, "Beds available: %d, current wait %.0f min\n", top.AvailableBeds, top.WaitTime)
		if len(matches) > 1 {
			alternatives := make([]string, 0, len(matches)-1)
			for _, m := range matches[1:] {
				alternatives = append(alternatives, fmt.Sprintf("%s (%d)", m.Name, m.MatchScore))
			}
			fmt.Fprintf(&sb, "Alternatives: %s\n", strings.Join(alternatives, ", "))
		}
	}

	fmt.Fprintf(&sb, "\nGenerated at: %s\n", now().UTC().Format(time.RFC3339))
	return sb.String(), nil
}

func getPriorityText(code models.TriageCode, critical bool) string {
	switch {
	case code == models.CodeRed || critical:
		return "CRITICAL - IMMEDIATE RESPONSE REQUIRED"
	case code == models.CodeYellow:
		return "URGENT - PROMPT RESPONSE REQUIRED"
	case code == models.CodeGreen:
		return "NON-URGENT - STANDARD RESPONSE"
	default:
		return "UNCLASSIFIED"
	}
}
