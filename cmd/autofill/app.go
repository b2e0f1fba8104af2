package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-autofill/internal/api"
	"github.com/jonathan/resume-autofill/internal/config"
	"github.com/jonathan/resume-autofill/internal/coordinator"
	"github.com/jonathan/resume-autofill/internal/logger"
	"github.com/jonathan/resume-autofill/internal/metrics"
	"github.com/jonathan/resume-autofill/internal/observability"
	"github.com/jonathan/resume-autofill/internal/schemas"
	"github.com/jonathan/resume-autofill/internal/session"
	"github.com/jonathan/resume-autofill/internal/storage"
)

// app is the wiring shared by every subcommand that talks to the coordinator.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	client   *api.Client
	sessions *session.Manager
	coord    *coordinator.Coordinator
	stores   []storage.Store
	out      io.Writer
	printer  *observability.Printer
}

// loadConfig layers flags over the config file over the environment.
func loadConfig() (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}

	if configPath != "" {
		file, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		if err := file.Validate(); err != nil {
			return cfg, err
		}
		cfg = file.MergeWithDefaults(cfg)
	}

	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setupLogging loads the configuration and installs the global logger.
func setupLogging(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger.SetupDefault(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel), nil
}

// newApp opens both storage scopes and starts a coordinator. recorder may be nil.
func newApp(cmd *cobra.Command, recorder metrics.Recorder) (*app, error) {
	cfg, log, err := setupLogging(cmd)
	if err != nil {
		return nil, err
	}

	stateDir, err := cfg.ResolveStateDir()
	if err != nil {
		return nil, err
	}
	if cfg.SessionBackend == storage.BackendSQLite || cfg.LocalBackend == storage.BackendSQLite {
		if err := os.MkdirAll(stateDir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create state directory %s: %w", stateDir, err)
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a := &app{cfg: cfg, logger: log, out: cmd.OutOrStdout()}
	a.printer = observability.NewPrinter(a.out)

	sessionStore, err := storage.Open(ctx, cfg.SessionStore(stateDir))
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	a.stores = append(a.stores, sessionStore)
	localStore, err := storage.Open(ctx, cfg.LocalStore(stateDir))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	a.stores = append(a.stores, localStore)

	a.sessions = session.NewManager(sessionStore, localStore, session.WithLogger(log))
	a.client = api.New(api.Options{
		BaseURL:  cfg.APIBaseURL,
		RPS:      cfg.APIRPS,
		Recorder: recorder,
		Logger:   log,
	})
	a.coord = coordinator.New(a.client, a.sessions, coordinator.Options{
		Logger:         log,
		Recorder:       recorder,
		ValidateResume: schemas.ValidateResume,
	})
	log.Debug("coordinator started", "api", cfg.APIBaseURL, "session_backend", cfg.SessionBackend, "local_backend", cfg.LocalBackend)
	return a, nil
}

// Close stops the coordinator and closes the stores.
func (a *app) Close() {
	if a.coord != nil {
		a.coord.Close()
	}
	for _, s := range a.stores {
		if err := s.Close(); err != nil {
			a.logger.Warn("failed to close store", "error", err)
		}
	}
}

// run dispatches one command. With --json the raw result is printed and a
// failed result still returns its error; otherwise render gets successful
// results only.
func (a *app) run(ctx context.Context, t coordinator.CommandType, payload any, render func(coordinator.Result) error) error {
	cmd, err := coordinator.NewCommand(t, payload)
	if err != nil {
		return err
	}
	res := a.coord.Dispatch(ctx, cmd)
	if jsonOutput {
		if err := a.printJSON(res); err != nil {
			return err
		}
		return res.Err()
	}
	if err := res.Err(); err != nil {
		return err
	}
	if render == nil {
		return nil
	}
	return render(res)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withApp adapts a RunE body that needs an app.
func withApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, nil)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd.Context(), a, args)
	}
}
