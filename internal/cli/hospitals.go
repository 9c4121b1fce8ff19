package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tero/internal/directory"
)

func newHospitalsCommand(st *state) *cobra.Command {
	var (
		city   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "hospitals",
		Short: "List the hospital directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := BuildApp(ctx, st.cfg, st.log)
			if err != nil {
				return err
			}
			defer app.Close()

			hospitals, err := app.Directory.Candidates(ctx, directory.Query{City: city})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, hospitals)
			}
			return renderHospitals(out, hospitals)
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "Only list hospitals in this city")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	cmd.AddCommand(newHospitalsImportCommand(st))
	return cmd
}

func newHospitalsImportCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Add or replace directory hospitals from a YAML/JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hospitals, err := directory.LoadHospitalsFile(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := BuildApp(ctx, st.cfg, st.log)
			if err != nil {
				return err
			}
			defer app.Close()

			for _, h := range hospitals {
				if err := app.Store.Upsert(ctx, h); err != nil {
					return err
				}
			}
			cities, err := app.Store.Cities(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d hospitals. Directory cities: %s\n", len(hospitals), joinOrDash(cities))
			return nil
		},
	}
}
