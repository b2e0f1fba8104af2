package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-autofill/internal/autofill"
	"github.com/jonathan/resume-autofill/internal/classify"
	"github.com/jonathan/resume-autofill/internal/config"
	"github.com/jonathan/resume-autofill/internal/dom"
	"github.com/jonathan/resume-autofill/internal/fetch"
	"github.com/jonathan/resume-autofill/internal/fill"
	"github.com/jonathan/resume-autofill/internal/observability"
	"github.com/jonathan/resume-autofill/internal/upload"
)

// pageFlags locate the page detect and fill work on.
type pageFlags struct {
	file    string
	url     string
	pageURL string
	browser bool
	headed  bool
}

func (f *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "Path to a saved HTML page")
	cmd.Flags().StringVar(&f.url, "url", "", "URL of the application page")
	cmd.Flags().StringVar(&f.pageURL, "page-url", "", "Original URL of a saved page, for platform detection")
	cmd.Flags().BoolVar(&f.browser, "browser", false, "Load --url in headless Chrome")
	cmd.Flags().BoolVar(&f.headed, "headed", false, "Show the Chrome window (implies --browser)")
}

func (f *pageFlags) validate() error {
	if (f.file == "") == (f.url == "") {
		return fmt.Errorf("use exactly one of --file or --url")
	}
	if (f.browser || f.headed) && f.url == "" {
		return fmt.Errorf("--browser requires --url")
	}
	return nil
}

// loadedPage is a page snapshot plus the surface writes go through.
type loadedPage struct {
	page    *dom.Page
	surface fill.Surface
	static  *fill.StaticSurface
	browser *fetch.Browser
}

func (p *loadedPage) Close() {
	if p.browser != nil {
		p.browser.Close()
	}
}

// HTML renders the page as it stands after writes.
func (p *loadedPage) HTML(ctx context.Context) (string, error) {
	if p.browser != nil {
		page, err := p.browser.Snapshot(ctx)
		if err != nil {
			return "", err
		}
		return page.HTML()
	}
	return p.static.HTML()
}

func openPage(ctx context.Context, f *pageFlags, cfg config.Config, log *slog.Logger) (*loadedPage, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	if f.browser || f.headed {
		opts := fetch.DefaultBrowserOptions()
		opts.Headless = !f.headed
		opts.ExecPath = cfg.ChromePath
		opts.Logger = log
		b, err := fetch.OpenBrowser(ctx, f.url, opts)
		if err != nil {
			return nil, err
		}
		page, err := b.Snapshot(ctx)
		if err != nil {
			b.Close()
			return nil, err
		}
		return &loadedPage{page: page, surface: b, browser: b}, nil
	}

	var (
		page *dom.Page
		err  error
	)
	if f.file != "" {
		page, err = fetch.File(f.file, f.pageURL)
	} else {
		page, err = fetch.Snapshot(ctx, f.url, fetch.DefaultOptions())
	}
	if err != nil {
		return nil, err
	}
	static := fill.NewStaticSurface(page)
	return &loadedPage{page: page, surface: static, static: static}, nil
}

var detectFlags pageFlags

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Show how each input on a page would be classified",
	Long:  "Show the detected platform, the job description, the field each input maps to, and the resume upload targets.",
	Args:  cobra.NoArgs,
	RunE:  runDetect,
}

var (
	fillFlags  pageFlags
	fillOut    string
	fillNoPDF  bool
	fillTailor bool
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill the application form on a page from the cached resume",
	Args:  cobra.NoArgs,
	RunE:  runFill,
}

func init() {
	detectFlags.register(detectCmd)

	fillFlags.register(fillCmd)
	fillCmd.Flags().StringVarP(&fillOut, "out", "o", "", "Write the filled page HTML to this file")
	fillCmd.Flags().BoolVar(&fillNoPDF, "no-pdf", false, "Do not attach the resume PDF")
	fillCmd.Flags().BoolVar(&fillTailor, "tailor", false, "Request a resume tailored to the job description")

	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(fillCmd)
}

func runDetect(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setupLogging(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	lp, err := openPage(ctx, &detectFlags, cfg, log)
	if err != nil {
		return err
	}
	defer lp.Close()

	printDetection(cmd.OutOrStdout(), lp.page, log)
	return nil
}

func printDetection(out io.Writer, page *dom.Page, log *slog.Logger) {
	platform := fetch.DetectPlatform(page.URL())
	forms := fetch.FindForms(page, platform)
	_, _ = fmt.Fprintf(out, "Platform:  %s\n", platform)
	_, _ = fmt.Fprintf(out, "Framework: %s\n", fill.DetectFramework(page))
	_, _ = fmt.Fprintf(out, "Forms:     %d\n\n", len(forms))

	printer := observability.NewPrinter(out)
	if jd, ok := fetch.NewJobDescriptionExtractor().Extract(page, platform); ok {
		printer.PrintJobDescription(jd)
	}
	printer.PrintDetections(classify.New(nil, log).Scan(page))
	printer.PrintUploadVerdicts(upload.New(upload.DefaultRules(), log).Evaluate(page))
}

func runFill(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	lp, err := openPage(ctx, &fillFlags, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer lp.Close()

	// A static page is written out right away, so a timed highlight would
	// be saved into the output.
	runner := autofill.NewRunner(a.coord, autofill.Options{
		AttachPDF:   !(fillNoPDF || a.cfg.NoPDF),
		Tailor:      func(*fetch.JobDescription) bool { return fillTailor },
		NoHighlight: lp.static != nil,
		Logger:      a.logger,
	})
	outcome, runErr := runner.Trigger(ctx, lp.page, lp.surface)
	printOutcome(a.printer, a.out, outcome)
	if runErr != nil {
		return runErr
	}

	if fillOut != "" {
		html, err := lp.HTML(ctx)
		if err != nil {
			return fmt.Errorf("failed to render page: %w", err)
		}
		if err := os.WriteFile(fillOut, []byte(html), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		_, _ = fmt.Fprintf(a.out, "Output: %s\n", fillOut)
	}
	return nil
}

func printOutcome(printer *observability.Printer, out io.Writer, o *autofill.Outcome) {
	if o == nil {
		return
	}
	_, _ = fmt.Fprintf(out, "Platform:  %s\n", o.Platform)
	if o.Framework != "" {
		_, _ = fmt.Fprintf(out, "Framework: %s\n", o.Framework)
	}
	if o.JobDescription != nil {
		_, _ = fmt.Fprintf(out, "Tailor:    %t\n", o.Tailor)
	}
	if o.Level == fill.LevelSuccess {
		printer.PrintFillReport(o.Report, o.Attach)
	}
	_, _ = fmt.Fprintln(out, o.Message)
}
