package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"tero/internal/ai"
	"tero/internal/api"
	"tero/internal/config"
	"tero/internal/directory"
	"tero/internal/matching"
	"tero/internal/models"
	"tero/internal/tools"
	"tero/internal/tools/prealert"
	"tero/internal/tools/reservation"
	"tero/internal/triage"
)

// App holds the wired service components.
type App struct {
	Config      config.Config
	Log         zerolog.Logger
	Store       *directory.SQLiteStore
	Directory   *directory.Directory
	Scorer      *matching.Scorer
	Coordinator *api.MatchCoordinator
	Processor   *api.AssessmentProcessor
	Handler     *api.Handler

	closers []func() error
}

// BuildApp opens the hospital store and wires every component from cfg.
func BuildApp(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	store, err := directory.OpenSQLite(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Log: log, Store: store}
	app.closers = append(app.closers, store.Close)

	if cfg.Database.Seed {
		hospitals, err := directory.LoadSeed()
		if err != nil {
			app.Close()
			return nil, err
		}
		n, err := store.Seed(ctx, hospitals)
		if err != nil {
			app.Close()
			return nil, err
		}
		log.Info().Int("inserted", n).Int("bundled", len(hospitals)).Msg("hospital directory seeded")
	}

	app.Directory = directory.New(store, cfg.Matching.SpeedKmh, log)
	app.Scorer = matching.NewScorer(cfg.Matching.Params)

	registry := tools.NewToolRegistry()
	notifier, err := app.buildNotifier()
	if err != nil {
		app.Close()
		return nil, err
	}
	// Reservation runs first so the hospital is alerted about a held bed.
	if err := registry.Register(reservation.NewTool(store, log)); err != nil {
		app.Close()
		return nil, err
	}
	if notifier != nil {
		if err := registry.Register(prealert.NewTool(notifier, log)); err != nil {
			app.Close()
			return nil, err
		}
	}

	model, err := buildModel(cfg.AI)
	if err != nil {
		app.Close()
		return nil, err
	}
	if model != nil {
		log.Info().Str("model", model.Name()).Str("type", string(model.Type())).Msg("AI extraction enabled")
	}

	classifier := triage.NewRuleBasedClassifier(triage.ClassifierConfig{
		Threshold:    0.5,
		FallbackCode: models.CodeYellow,
	})

	app.Coordinator = api.NewMatchCoordinator(
		app.Directory,
		app.Scorer,
		classifier,
		triage.NewSpecialtyTagger(nil),
		registry,
		&api.DefaultSummaryGenerator{},
		api.CoordinatorConfig{
			TopN:          cfg.Matching.TopN,
			MaxDistanceKm: cfg.Matching.MaxDistanceKm,
			Timeout:       cfg.Server.RequestTimeout,
		},
		log,
	)
	app.Processor = api.NewAssessmentProcessor(model, nil, cfg.AI.Timeout, log)
	app.Handler = api.NewHandler(app.Coordinator, app.Processor, app.Directory, app.Scorer, cfg.Server.RequestTimeout, log)

	return app, nil
}

func (a *App) buildNotifier() (prealert.Notifier, error) {
	n := a.Config.Notifications
	switch n.Mode {
	case "http":
		return prealert.NewHTTPNotifier(prealert.HTTPConfig{
			Endpoint:      n.Endpoint,
			APIKey:        n.APIKey,
			RetryAttempts: n.RetryAttempts,
			RetryInterval: n.RetryInterval,
		}, nil), nil
	case "nats":
		notifier, err := prealert.DialNATS(n.NATSURL, n.SubjectPrefix)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, notifier.Close)
		return notifier, nil
	default:
		return nil, nil
	}
}

func buildModel(cfg config.AIConfig) (ai.Model, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	provider, err := ai.NewProvider(ai.ModelType(cfg.ModelType), ai.ModelConfig{
		APIKey:    cfg.APIKey,
		Endpoint:  cfg.Endpoint,
		ModelName: cfg.ModelName,
		MaxTokens: cfg.MaxTokens,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("configure AI model: %w", err)
	}
	return provider.DefaultModel(), nil
}

// Close releases the store and any broker connection, last opened first.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
