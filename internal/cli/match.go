package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tero/internal/api"
	"tero/internal/directory"
	"tero/internal/geo"
	"tero/internal/matching"
	"tero/internal/models"
	"tero/internal/triage"
)

type matchFlags struct {
	specialties []string
	critical    bool
	notes       string
	city        string
	lat, lng    float64
	maxKm       float64
	top         int
	file        string
	reserve     bool
	asJSON      bool
}

func newMatchCommand(st *state) *cobra.Command {
	var f matchFlags

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Rank hospitals for a patient",
		Long: `Rank hospitals for a patient by specialty fit, proximity and capacity.

Hospitals come from the directory, or from a YAML/JSON file with --file.
Specialties can be given directly or derived from --notes.`,
		Example: `  tero match --city Bengaluru --specialty Cardiology --critical
  tero match --notes "child with seizure, GCS 7" --lat 19.07 --lng 72.87
  tero match --file hospitals.yaml --specialty cardio --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			origin, err := originFromFlags(cmd, f.lat, f.lng)
			if err != nil {
				return err
			}
			if f.top < 0 || f.maxKm < 0 {
				return fmt.Errorf("--top and --max-km must not be negative")
			}

			a := models.NewAssessment(strings.TrimSpace(f.notes))
			a.SpecialtyTags = f.specialties
			a.Critical = f.critical
			a.Location = origin
			a.City = f.city

			if f.file != "" {
				return matchFile(cmd.OutOrStdout(), st, a, f)
			}
			return matchDirectory(cmd, st, a, f)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&f.specialties, "specialty", "s", nil, "Required specialty (repeatable or comma separated)")
	flags.BoolVar(&f.critical, "critical", false, "Treat the patient as critical")
	flags.StringVarP(&f.notes, "notes", "n", "", "Free-text paramedic notes")
	flags.StringVar(&f.city, "city", "", "Restrict to a city")
	flags.Float64Var(&f.lat, "lat", 0, "Patient latitude")
	flags.Float64Var(&f.lng, "lng", 0, "Patient longitude")
	flags.Float64Var(&f.maxKm, "max-km", 0, "Drop hospitals further than this (default from config)")
	flags.IntVar(&f.top, "top", 0, "Number of hospitals to show (default from config)")
	flags.StringVarP(&f.file, "file", "f", "", "Rank the hospitals in this YAML/JSON file instead of the directory")
	flags.BoolVar(&f.reserve, "reserve", false, "Reserve a bed at the best match")
	flags.BoolVar(&f.asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

// matchFile ranks hospitals from a file with the scorer alone. The directory
// and dispatch tools are not involved.
func matchFile(out io.Writer, st *state, a *models.Assessment, f matchFlags) error {
	if f.reserve {
		return fmt.Errorf("--reserve needs the directory and cannot be used with --file")
	}

	hospitals, err := directory.LoadHospitalsFile(f.file)
	if err != nil {
		return err
	}

	if a.Notes != "" {
		a.Vitals = triage.ExtractVitals(a.Notes)
		if len(a.SpecialtyTags) == 0 {
			a.SpecialtyTags = triage.NewSpecialtyTagger(nil).Tag(a.Notes)
		}
	}

	candidates := hospitals[:0]
	for _, h := range hospitals {
		if a.City != "" && !strings.EqualFold(h.City, a.City) {
			continue
		}
		if a.Location != nil {
			h.Distance = geo.Haversine(*a.Location, h.Location)
			h.ETA = geo.ETA(h.Distance, st.cfg.Matching.SpeedKmh)
			if f.maxKm > 0 && h.Distance > f.maxKm {
				continue
			}
		}
		candidates = append(candidates, h)
	}

	scorer := matching.NewScorer(st.cfg.Matching.Params)
	ranked := scorer.MatchHospitalsToPatient(candidates, a)
	if f.top > 0 && len(ranked) > f.top {
		ranked = ranked[:f.top]
	}

	if f.asJSON {
		return writeJSON(out, map[string]interface{}{
			"required_specialties": a.SpecialtyTags,
			"is_critical":          matching.IsCritical(a),
			"matches":              ranked,
		})
	}
	fmt.Fprintf(out, "Specialties: %s  Critical: %t\n\n", joinOrDash(a.SpecialtyTags), matching.IsCritical(a))
	return renderMatches(out, ranked)
}

func matchDirectory(cmd *cobra.Command, st *state, a *models.Assessment, f matchFlags) error {
	ctx := cmd.Context()
	app, err := BuildApp(ctx, st.cfg, st.log)
	if err != nil {
		return err
	}
	defer app.Close()

	if a.Notes != "" && len(a.SpecialtyTags) == 0 {
		extracted, err := app.Processor.ProcessNotes(ctx, a.Notes)
		if err != nil {
			return err
		}
		extracted.Location, extracted.City = a.Location, a.City
		extracted.Critical = extracted.Critical || a.Critical
		a = extracted
	}

	resp, err := app.Coordinator.Match(ctx, a, api.MatchOptions{
		TopN:          f.top,
		MaxDistanceKm: f.maxKm,
		ReserveBed:    f.reserve,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f.asJSON {
		return writeJSON(out, resp)
	}

	fmt.Fprintf(out, "Code: %s  Critical: %t  Specialties: %s\n", resp.Code, resp.Critical, joinOrDash(resp.RequiredSpecialties))
	for _, reason := range resp.CriticalReasons {
		fmt.Fprintf(out, " - %s\n", reason)
	}
	fmt.Fprintln(out)
	if err := renderMatches(out, resp.Matches); err != nil {
		return err
	}
	for _, tr := range resp.ToolResponses {
		status := "ok"
		if !tr.Success {
			status = "failed"
		}
		fmt.Fprintf(out, "\n[%s] %s: %s", tr.ToolName, status, tr.Message)
	}
	if len(resp.ToolResponses) > 0 {
		fmt.Fprintln(out)
	}
	return nil
}

func originFromFlags(cmd *cobra.Command, lat, lng float64) (*models.Location, error) {
	latSet, lngSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lng")
	if !latSet && !lngSet {
		return nil, nil
	}
	if latSet != lngSet {
		return nil, fmt.Errorf("--lat and --lng must be given together")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("coordinates out of range: %v,%v", lat, lng)
	}
	return &models.Location{Latitude: lat, Longitude: lng}, nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
