package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-autofill/internal/autofill"
	"github.com/jonathan/resume-autofill/internal/fetch"
	"github.com/jonathan/resume-autofill/internal/metrics"
	"github.com/jonathan/resume-autofill/internal/types"
	"github.com/jonathan/resume-autofill/internal/watch"
)

var (
	watchURL         string
	watchMetricsAddr string
	watchHeaded      bool
	watchNoPDF       bool
	watchTailor      bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open a page in Chrome and add a fill button when its application form appears",
	Long: `Open a page in Chrome, watch it for the application form and insert a
"Resume Auto-Fill" button next to it. Clicking the button fills the form.
Runs until interrupted or the browser closes.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchURL, "url", "", "URL of the application page (required)")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	watchCmd.Flags().BoolVar(&watchHeaded, "headed", true, "Show the Chrome window")
	watchCmd.Flags().BoolVar(&watchNoPDF, "no-pdf", false, "Do not attach the resume PDF")
	watchCmd.Flags().BoolVar(&watchTailor, "tailor", false, "Request a resume tailored to the job description")
	_ = watchCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	var (
		registry *prometheus.Registry
		recorder metrics.Recorder
	)
	if watchMetricsAddr != "" {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewCollector(registry)
	}

	a, err := newApp(cmd, recorder)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if registry != nil {
		srv := &http.Server{
			Addr:              watchMetricsAddr,
			Handler:           metrics.Handler(registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			a.logger.Info("serving metrics", "addr", watchMetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	opts := fetch.DefaultBrowserOptions()
	opts.Headless = !watchHeaded
	opts.ExecPath = a.cfg.ChromePath
	opts.Logger = a.logger
	browser, err := fetch.OpenBrowser(ctx, watchURL, opts)
	if err != nil {
		return err
	}
	defer browser.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-browser.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	prefs, err := a.coord.Preferences(ctx)
	if err != nil {
		a.logger.Warn("using default preferences", "error", err)
		prefs = types.DefaultPreferences()
	}

	runner := autofill.NewRunner(a.coord, autofill.Options{
		AttachPDF: !(watchNoPDF || a.cfg.NoPDF),
		Tailor: func(*fetch.JobDescription) bool {
			if watchTailor {
				_ = browser.SetTriggerLabel(ctx, watch.LabelTailoring)
			}
			return watchTailor
		},
		Recorder: recorder,
		Logger:   a.logger,
	})

	var busy atomic.Bool
	onTrigger := func(formPath string) {
		if !busy.CompareAndSwap(false, true) {
			return
		}
		defer busy.Store(false)
		defer func() { _ = browser.SetTriggerLabel(ctx, watch.DefaultTriggerLabel) }()

		a.logger.Info("trigger clicked", "selector", formPath)
		_ = browser.SetTriggerLabel(ctx, watch.LabelFilling)
		page, err := browser.Snapshot(ctx)
		if err != nil {
			a.logger.Error("failed to snapshot page", "error", err)
			return
		}
		outcome, err := runner.Trigger(ctx, page, browser)
		if err != nil {
			return
		}
		a.logger.Info("form filled", "filled", outcome.Report.Count(), "attached", len(outcome.Attach.Attached), "tailor", outcome.Tailor)
	}
	if err := browser.Bind(ctx, watch.TriggerBinding, onTrigger); err != nil {
		return err
	}

	w := watch.New(browser, prefs, watch.Options{
		Platform: fetch.DetectPlatform(watchURL),
		Logger:   a.logger,
	})
	if err := watch.Observe(ctx, browser, w); err != nil {
		return err
	}
	if err := w.Run(ctx); err != nil {
		return err
	}
	if w.State() == watch.StateIdle && ctx.Err() == nil {
		a.logger.Info("nothing to watch on this page; use 'autofill fill --browser' instead")
	}
	return nil
}
