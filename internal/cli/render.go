package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"tero/internal/matching"
	"tero/internal/models"
)

func renderMatches(out io.Writer, ranked []matching.RankedHospital) error {
	if len(ranked) == 0 {
		_, err := fmt.Fprintln(out, "No hospitals matched.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tNAME\tSCORE\tREASON\tKM\tBEDS\tWAIT\tMATCHED")
	for i, r := range ranked {
		name := r.Name
		if r.Promoted {
			name += " *"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%.1f\t%d\t%.0f\t%s\n",
			i+1, r.ID, name, r.MatchScore, r.MatchReason, r.Distance, r.AvailableBeds, r.WaitTime, joinOrDash(r.MatchedSpecialties))
	}
	return tw.Flush()
}

func renderHospitals(out io.Writer, hospitals []models.Hospital) error {
	if len(hospitals) == 0 {
		_, err := fmt.Fprintln(out, "No hospitals found.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCITY\tBEDS\tWAIT\tSPECIALTIES")
	for _, h := range hospitals {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.0f\t%s\n",
			h.ID, h.Name, h.City, h.AvailableBeds, h.WaitTime, joinOrDash(h.Specialties))
	}
	return tw.Flush()
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
