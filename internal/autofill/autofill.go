// Package autofill runs one fill pass on a page: it asks the coordinator for
// the resume, maps it to field values, classifies the page inputs, writes
// the values, attaches the resume PDF and reports the outcome on the page.
package autofill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/resume-autofill/internal/classify"
	"github.com/jonathan/resume-autofill/internal/coordinator"
	"github.com/jonathan/resume-autofill/internal/dom"
	"github.com/jonathan/resume-autofill/internal/fetch"
	"github.com/jonathan/resume-autofill/internal/fill"
	"github.com/jonathan/resume-autofill/internal/mapping"
	"github.com/jonathan/resume-autofill/internal/metrics"
	"github.com/jonathan/resume-autofill/internal/types"
	"github.com/jonathan/resume-autofill/internal/upload"
)

// Messages shown on the page after a pass.
const (
	MsgLoginRequired = "Please log in to the extension first"
	MsgRefreshPage   = "Extension was updated. Please refresh this page and try again."
	MsgFailed        = "Failed to auto-fill. Please try again."
	MsgNoForm        = "No form found"
)

// FilledMessage is the success message for n written fields.
func FilledMessage(n int) string {
	return fmt.Sprintf("Filled %d fields", n)
}

// Backend is what a fill pass needs from the coordinator.
type Backend interface {
	ResumeData(ctx context.Context) (*coordinator.ResumeData, error)
	ResumePDF(ctx context.Context) (*types.ResumePDF, error)
	Preferences(ctx context.Context) (types.Preferences, error)
}

var _ Backend = (*coordinator.Coordinator)(nil)

// Options configures a Runner.
type Options struct {
	// AttachPDF downloads the resume and attaches it to upload inputs.
	AttachPDF bool
	// Tailor is asked whether to request a tailored resume when the page
	// carries a job description. Nil never tailors.
	Tailor func(jd *fetch.JobDescription) bool

	Classifier *classify.Classifier
	Uploads    *upload.Classifier
	Extractor  *fetch.JobDescriptionExtractor

	// NoHighlight turns the filled-field highlight off regardless of
	// preferences. Set it for surfaces that are saved rather than watched.
	NoHighlight bool

	Now       func() time.Time
	AfterFunc func(d time.Duration, f func())
	Logger    *slog.Logger
	Recorder  metrics.Recorder
}

// Runner executes fill passes.
type Runner struct {
	backend Backend
	opts    Options
}

// NewRunner creates a Runner.
func NewRunner(backend Backend, opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.New(nil, opts.Logger)
	}
	if opts.Uploads == nil {
		opts.Uploads = upload.New(upload.DefaultRules(), opts.Logger)
	}
	if opts.Extractor == nil {
		opts.Extractor = fetch.NewJobDescriptionExtractor()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Recorder = metrics.OrNop(opts.Recorder)
	return &Runner{backend: backend, opts: opts}
}

// Outcome describes one fill pass.
type Outcome struct {
	Platform       fetch.Platform
	Framework      fill.Framework
	JobDescription *fetch.JobDescription
	Tailor         bool
	FromCache      bool
	Mapped         *types.MappedFields
	Detections     []classify.Detection
	Report         fill.Report
	Attach         fill.AttachReport
	Message        string
	Level          string
}

// Trigger runs a pass only when the page shows an application form.
func (r *Runner) Trigger(ctx context.Context, page *dom.Page, surface fill.Surface) (*Outcome, error) {
	platform := fetch.DetectPlatform(page.URL())
	forms := fetch.FindForms(page, platform)
	if !platform.Supported() {
		forms = page.Find("form")
	}
	if len(forms) == 0 {
		return &Outcome{Platform: platform, Message: MsgNoForm, Level: fill.LevelError},
			&types.DOMMatchError{Message: MsgNoForm, Selector: fetch.FormSelector(platform)}
	}
	return r.Run(ctx, page, surface)
}

// Run fills every recognised input on page through surface. The returned
// error is set when the pass could not start; per-field problems are in
// Outcome.Report.
func (r *Runner) Run(ctx context.Context, page *dom.Page, surface fill.Surface) (*Outcome, error) {
	log := r.opts.Logger
	out := &Outcome{
		Platform:  fetch.DetectPlatform(page.URL()),
		Framework: fill.DetectFramework(page),
	}
	log.Info("starting auto-fill", "platform", out.Platform, "framework", out.Framework)

	if jd, ok := r.opts.Extractor.Extract(page, out.Platform); ok {
		out.JobDescription = jd
		if r.opts.Tailor != nil {
			out.Tailor = r.opts.Tailor(jd)
		}
		log.Debug("job description found", "selector", jd.Selector, "chars", len(jd.Text), "tailor", out.Tailor)
	}

	prefs, err := r.backend.Preferences(ctx)
	if err != nil {
		if types.ErrorKind(err) == types.KindLifecycle {
			return r.abort(ctx, surface, out, err)
		}
		log.Warn("using default preferences", "error", err)
		prefs = types.DefaultPreferences()
	}
	engine := fill.NewEngine(surface, fill.Options{
		Notifier:  fill.NotifierFor(out.Framework),
		Highlight: prefs.HighlightFilledFields && !r.opts.NoHighlight,
		Logger:    log,
		Recorder:  r.opts.Recorder,
		AfterFunc: r.opts.AfterFunc,
	})

	data, err := r.backend.ResumeData(ctx)
	if err != nil {
		return r.abortWith(ctx, engine, out, err)
	}
	out.FromCache = data.FromCache
	out.Mapped = mapping.NormalizeAt(data.ResumeData, r.opts.Now())

	out.Detections = r.opts.Classifier.Scan(page)
	out.Report = engine.FillAll(ctx, out.Detections, out.Mapped)
	for _, e := range out.Report.Errors {
		if types.ErrorKind(e) == types.KindLifecycle {
			return r.abortWith(ctx, engine, out, e)
		}
	}

	if r.opts.AttachPDF {
		r.attach(ctx, engine, page, out)
	}

	out.Message = FilledMessage(out.Report.Count())
	out.Level = fill.LevelSuccess
	engine.Notify(ctx, out.Message, out.Level)
	log.Info("auto-fill finished", "filled", out.Report.Count(), "skipped", len(out.Report.Skipped), "attached", len(out.Attach.Attached))
	return out, nil
}

func (r *Runner) attach(ctx context.Context, engine *fill.Engine, page *dom.Page, out *Outcome) {
	targets := r.opts.Uploads.Targets(page)
	if len(targets) == 0 {
		return
	}
	pdf, err := r.backend.ResumePDF(ctx)
	if err != nil {
		r.opts.Logger.Warn("resume PDF unavailable", "error", err, "kind", types.ErrorKind(err))
		return
	}
	out.Attach = engine.Attach(ctx, targets, fill.File{
		Name:     pdf.Filename,
		MIMEType: types.PDFMimeType,
		Data:     pdf.Data,
	})
}

func (r *Runner) abort(ctx context.Context, surface fill.Surface, out *Outcome, err error) (*Outcome, error) {
	return r.abortWith(ctx, fill.NewEngine(surface, fill.Options{Logger: r.opts.Logger}), out, err)
}

func (r *Runner) abortWith(ctx context.Context, engine *fill.Engine, out *Outcome, err error) (*Outcome, error) {
	out.Message = FailureMessage(err)
	out.Level = fill.LevelError
	r.opts.Logger.Error("auto-fill failed", "error", err, "kind", types.ErrorKind(err))
	engine.Notify(context.WithoutCancel(ctx), out.Message, out.Level)
	return out, err
}

// FailureMessage picks the page message for a failed pass.
func FailureMessage(err error) string {
	switch types.ErrorKind(err) {
	case types.KindAuth:
		return MsgLoginRequired
	case types.KindLifecycle:
		return MsgRefreshPage
	}
	var domErr *types.DOMMatchError
	if errors.As(err, &domErr) {
		return MsgNoForm
	}
	return MsgFailed
}
