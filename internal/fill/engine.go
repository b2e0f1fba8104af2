package fill

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonathan/resume-autofill/internal/classify"
	"github.com/jonathan/resume-autofill/internal/dom"
	"github.com/jonathan/resume-autofill/internal/metrics"
	"github.com/jonathan/resume-autofill/internal/types"
)

const (
	// HighlightClass marks a freshly filled element.
	HighlightClass = "autofill-filled"
	// HighlightDuration is how long the highlight stays on.
	HighlightDuration = 2 * time.Second
)

// Options configure an Engine.
type Options struct {
	Notifier  Notifier
	Highlight bool
	Logger    *slog.Logger
	Recorder  metrics.Recorder
	// AfterFunc schedules highlight removal; time.AfterFunc when nil.
	AfterFunc func(d time.Duration, f func())
}

// Engine applies classified values to a Surface.
type Engine struct {
	surface   Surface
	notifier  Notifier
	highlight bool
	logger    *slog.Logger
	recorder  metrics.Recorder
	afterFunc func(time.Duration, func())
}

// NewEngine creates an Engine writing to surface.
func NewEngine(surface Surface, opts Options) *Engine {
	e := &Engine{
		surface:   surface,
		notifier:  opts.Notifier,
		highlight: opts.Highlight,
		logger:    opts.Logger,
		recorder:  metrics.OrNop(opts.Recorder),
		afterFunc: opts.AfterFunc,
	}
	if e.notifier == nil {
		e.notifier = EventNotifier{Mode: SetAssign}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.afterFunc == nil {
		e.afterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return e
}

// Fill writes value into el. Selects take the first matching option and
// only receive a change event; a select with no matching option is left
// unchanged and reported as a DOMMatchError.
func (e *Engine) Fill(ctx context.Context, el *dom.Element, value string) error {
	path := el.Path()
	if el.IsSelect() {
		opt, ok := classify.MatchOption(el.Options(), value)
		if !ok {
			return &types.DOMMatchError{Message: "no option matches " + value, Selector: path}
		}
		if err := e.surface.SetValue(ctx, path, opt.Value, SetAssign); err != nil {
			return err
		}
		return e.surface.Dispatch(ctx, path, EventChange)
	}
	return e.notifier.NotifyChange(ctx, e.surface, path, value)
}

// FilledField records one successful write.
type FilledField struct {
	Field   types.FieldName
	Element string
	Value   string
}

// Report summarises a fill pass.
type Report struct {
	Filled  []FilledField
	Skipped []FilledField
	Errors  []error
}

// Count is the number of fields written.
func (r Report) Count() int { return len(r.Filled) }

// FillAll writes the mapped value of every matched detection. Detections
// whose field maps to an empty value are skipped.
func (e *Engine) FillAll(ctx context.Context, detections []classify.Detection, mapped *types.MappedFields) Report {
	var report Report
	for _, d := range detections {
		if !d.Matched() {
			continue
		}
		if err := ctx.Err(); err != nil {
			report.Errors = append(report.Errors, &types.ExtensionLifecycleError{Message: "fill abandoned", Cause: err})
			return report
		}
		value := mapped.Value(d.Field)
		if value == "" {
			continue
		}
		desc := d.Element.Describe()
		if err := e.Fill(ctx, d.Element, value); err != nil {
			e.logger.Debug("fill skipped", "field", d.Field, "element", desc, "error", err)
			report.Skipped = append(report.Skipped, FilledField{Field: d.Field, Element: desc, Value: value})
			report.Errors = append(report.Errors, err)
			continue
		}
		e.recorder.RecordFieldFilled(string(d.Field))
		if e.highlight {
			e.flash(ctx, d.Element.Path())
		}
		report.Filled = append(report.Filled, FilledField{Field: d.Field, Element: desc, Value: value})
	}
	return report
}

func (e *Engine) flash(ctx context.Context, path string) {
	if err := e.surface.AddClass(ctx, path, HighlightClass); err != nil {
		e.logger.Debug("highlight failed", "selector", path, "error", err)
		return
	}
	e.afterFunc(HighlightDuration, func() {
		if err := e.surface.RemoveClass(context.WithoutCancel(ctx), path, HighlightClass); err != nil {
			e.logger.Debug("highlight removal failed", "selector", path, "error", err)
		}
	})
}

// AttachReport summarises a file attach pass.
type AttachReport struct {
	Attached []string
	Failed   []string
}

// Attach assigns file to every target, dispatching change then input.
// A failure on one input is logged and does not stop the rest.
func (e *Engine) Attach(ctx context.Context, targets []*dom.Element, file File) AttachReport {
	if file.MIMEType == "" {
		file.MIMEType = types.PDFMimeType
	}
	var report AttachReport
	for _, el := range targets {
		desc := el.Describe()
		if err := e.attachOne(ctx, el.Path(), file); err != nil {
			e.logger.Warn("file attach failed", "element", desc, "filename", file.Name, "error", err)
			e.recorder.RecordFileAttach(metrics.AttachFailed)
			report.Failed = append(report.Failed, desc)
			continue
		}
		e.recorder.RecordFileAttach(metrics.AttachOK)
		report.Attached = append(report.Attached, desc)
	}
	return report
}

func (e *Engine) attachOne(ctx context.Context, path string, file File) error {
	if err := e.surface.AttachFile(ctx, path, file); err != nil {
		return err
	}
	if err := e.surface.Dispatch(ctx, path, EventChange); err != nil {
		return err
	}
	return e.surface.Dispatch(ctx, path, EventInput)
}

// Notify shows a transient message on the surface.
func (e *Engine) Notify(ctx context.Context, message, level string) {
	if err := e.surface.Notify(ctx, message, level); err != nil {
		e.logger.Debug("notification failed", "message", message, "error", err)
	}
}
