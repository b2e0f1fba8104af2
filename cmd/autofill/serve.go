package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-autofill/internal/metrics"
	"github.com/jonathan/resume-autofill/internal/server"
	"github.com/jonathan/resume-autofill/internal/server/ratelimit"
)

var (
	serveAddr    string
	serveToken   string
	serveOrigins []string
	serveMetrics bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the command protocol over local HTTP",
	Long: `Serve the coordinator over HTTP so page scripts and other tools share the
CLI's session. Routes:
  POST /api/command              dispatch a raw command, answer with its result
  GET  /api/status               CHECK_AUTH
  GET  /api/preferences          GET_PREFERENCES
  PUT  /api/preferences/{key}    SET_PREFERENCE with {"value": bool}
  GET  /health
Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, "+server.DefaultAddr+")")
	serveCmd.Flags().StringVar(&serveToken, "token", "", "Bearer token required on /api routes")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "allow-origin", nil, "Allowed CORS origin (repeatable; default any)")
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", false, "Expose Prometheus metrics on GET /metrics")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	var (
		registry *prometheus.Registry
		recorder metrics.Recorder
	)
	if serveMetrics {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewCollector(registry)
	}

	a, err := newApp(cmd, recorder)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := server.Config{
		Addr:           a.cfg.ServeAddr,
		Token:          a.cfg.ServeToken,
		AllowedOrigins: serveOrigins,
		RateLimit:      ratelimit.LoadConfig(),
		Logger:         a.logger,
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if serveToken != "" {
		cfg.Token = serveToken
	}
	if registry != nil {
		cfg.Metrics = metrics.Handler(registry)
	}
	if cfg.Token == "" {
		a.logger.Warn("serving without a token; any local process can use the session")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(a.coord, cfg).ListenAndServe(ctx)
}
