package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tero/internal/config"
	"tero/internal/logger"
)

// Options holds CLI-level configuration.
type Options struct {
	ConfigPath string
	LogLevel   string
	Pretty     bool
}

type state struct {
	opts Options
	cfg  config.Config
	log  zerolog.Logger
}

// NewRootCmd wires the cobra root command.
func NewRootCmd() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:   "tero",
		Short: "TERO - emergency hospital matching",
		Long:  "TERO ranks receiving hospitals for a patient by specialty fit, proximity and capacity.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&st.opts.ConfigPath, "config", "c", "", "Path to a YAML config file (default $TERO_CONFIG)")
	flags.StringVar(&st.opts.LogLevel, "log-level", "", "Override the configured log level")
	flags.BoolVar(&st.opts.Pretty, "pretty", false, "Human readable log output")

	root.AddCommand(newServeCommand(st))
	root.AddCommand(newMatchCommand(st))
	root.AddCommand(newHospitalsCommand(st))
	return root
}

func (s *state) load() error {
	if err := config.LoadEnv(); err != nil && !errors.Is(err, config.ErrEnvFileNotFound) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(s.opts.ConfigPath)
	if err != nil {
		return err
	}
	if s.opts.LogLevel != "" {
		cfg.Log.Level = s.opts.LogLevel
	}
	if s.opts.Pretty {
		cfg.Log.Pretty = true
	}

	s.cfg = cfg
	s.log = logger.New(cfg.Log.Level, cfg.Log.Pretty)
	return nil
}
