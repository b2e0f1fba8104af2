// Package watch detects when a supported site renders its application form
// and injects a single autofill trigger into the page.
package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonathan/resume-autofill/internal/dom"
	"github.com/jonathan/resume-autofill/internal/fetch"
	"github.com/jonathan/resume-autofill/internal/types"
)

const (
	// DefaultDebounce is the quiet period after the last mutation before a scan.
	DefaultDebounce = 500 * time.Millisecond
	// DefaultHydrationDelay postpones the first scan so SPA frameworks can hydrate.
	DefaultHydrationDelay = 1500 * time.Millisecond
	// DefaultTriggerLabel is the text of the injected button.
	DefaultTriggerLabel = "Resume Auto-Fill"
	// LabelFilling and LabelTailoring replace the trigger text while a pass runs.
	LabelFilling   = "Filling..."
	LabelTailoring = "Tailoring & Filling..."
	// TriggerBinding is the page function the trigger calls with its form path.
	TriggerBinding = "autofillTrigger"
	// MutationBinding is the page function the mutation observer calls.
	MutationBinding = "autofillMutation"
)

// State of a Watcher.
type State int

const (
	StateIdle State = iota
	StateObserving
)

func (s State) String() string {
	if s == StateObserving {
		return "observing"
	}
	return "idle"
}

// Target is the page being watched.
type Target interface {
	Snapshot(ctx context.Context) (*dom.Page, error)
	// InjectTrigger inserts the trigger before the form at formPath unless a
	// trigger already exists on the page, and reports whether it inserted one.
	InjectTrigger(ctx context.Context, formPath, label, binding string) (bool, error)
}

// Options configure a Watcher.
type Options struct {
	Platform       fetch.Platform
	Debounce       time.Duration
	HydrationDelay time.Duration
	Label          string
	Logger         *slog.Logger
	// OnInject is called with the form path after a trigger is inserted.
	OnInject func(formPath string)
}

// Watcher is the form presence state machine. Mutation signals reset the
// debounce timer; each timer fire rescans the page for form containers.
type Watcher struct {
	target Target
	prefs  types.Preferences
	opts   Options

	signals chan struct{}

	mu    sync.Mutex
	state State
	seen  map[string]bool
}

// New creates an idle Watcher.
func New(target Target, prefs types.Preferences, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.HydrationDelay <= 0 {
		opts.HydrationDelay = DefaultHydrationDelay
	}
	if opts.Label == "" {
		opts.Label = DefaultTriggerLabel
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Watcher{
		target:  target,
		prefs:   prefs,
		opts:    opts,
		signals: make(chan struct{}, 1),
		seen:    make(map[string]bool),
	}
}

// State returns the current state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Notify signals a DOM mutation. It never blocks.
func (w *Watcher) Notify() {
	select {
	case w.signals <- struct{}{}:
	default:
	}
}

// Run observes until ctx is done. It returns immediately, leaving the
// watcher idle, when auto-detection is disabled or the platform has no form
// selectors.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.prefs.AutoDetectForms {
		w.opts.Logger.Info("auto-detect disabled")
		return nil
	}
	if !w.opts.Platform.Supported() {
		w.opts.Logger.Info("unsupported platform", "platform", w.opts.Platform)
		return nil
	}

	w.mu.Lock()
	w.state = StateObserving
	w.mu.Unlock()
	w.opts.Logger.Info("watching for forms", "platform", w.opts.Platform)

	hydrate := time.NewTimer(w.opts.HydrationDelay)
	defer hydrate.Stop()
	debounce := time.NewTimer(w.opts.Debounce)
	stopTimer(debounce)
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.signals:
			stopTimer(debounce)
			debounce.Reset(w.opts.Debounce)
		case <-hydrate.C:
			w.scanAndLog(ctx)
		case <-debounce.C:
			w.scanAndLog(ctx)
		}
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func (w *Watcher) scanAndLog(ctx context.Context) {
	if _, err := w.Scan(ctx); err != nil && ctx.Err() == nil {
		w.opts.Logger.Warn("form scan failed", "error", err)
	}
}

// Scan looks for not-yet-seen form containers and offers each to the target
// for trigger injection. It reports whether a trigger was inserted.
func (w *Watcher) Scan(ctx context.Context) (bool, error) {
	page, err := w.target.Snapshot(ctx)
	if err != nil {
		return false, err
	}

	var injected bool
	for _, form := range fetch.FindForms(page, w.opts.Platform) {
		path := form.Path()
		w.mu.Lock()
		seen := w.seen[path]
		w.seen[path] = true
		w.mu.Unlock()
		if seen {
			continue
		}

		ok, err := w.target.InjectTrigger(ctx, path, w.opts.Label, TriggerBinding)
		if err != nil {
			return injected, err
		}
		if ok {
			injected = true
			w.opts.Logger.Info("trigger injected", "selector", path)
			if w.opts.OnInject != nil {
				w.opts.OnInject(path)
			}
		}
	}
	return injected, nil
}

// MutationSource delivers page mutations through a named binding.
type MutationSource interface {
	Bind(ctx context.Context, name string, fn func(payload string)) error
	ObserveMutations(ctx context.Context, binding string) error
}

// Observe connects a live page's mutation observer to w.
func Observe(ctx context.Context, src MutationSource, w *Watcher) error {
	if err := src.Bind(ctx, MutationBinding, func(string) { w.Notify() }); err != nil {
		return err
	}
	return src.ObserveMutations(ctx, MutationBinding)
}
