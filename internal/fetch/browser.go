// Package fetch - browser.go drives a live page in headless Chrome. A Browser
// is both a snapshot source and a fill surface.
package fetch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/jonathan/resume-autofill/internal/dom"
	"github.com/jonathan/resume-autofill/internal/fill"
	"github.com/jonathan/resume-autofill/internal/types"
)

// TriggerClass is the class of the injected autofill button.
const TriggerClass = "autofill-trigger"

// BrowserOptions configures a Browser.
type BrowserOptions struct {
	Headless bool
	Timeout  time.Duration
	ExecPath string
	Logger   *slog.Logger
}

// DefaultBrowserOptions returns headless defaults.
func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{Headless: true, Timeout: DefaultTimeout}
}

// Browser is one Chrome tab.
type Browser struct {
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
	timeout time.Duration

	mu       sync.Mutex
	bindings map[string]func(payload string)
}

// OpenBrowser starts Chrome, navigates to urlStr and waits for the body.
// Requires Chrome/Chromium to be installed on the system.
func OpenBrowser(ctx context.Context, urlStr string, opts BrowserOptions) (*Browser, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	b := &Browser{
		ctx: tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
		logger:   logger,
		timeout:  timeout,
		bindings: make(map[string]func(string)),
	}
	chromedp.ListenTarget(tabCtx, b.onEvent)

	logger.Info("opening browser", "url", urlStr)
	navCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()
	if err := chromedp.Run(navCtx, chromedp.Navigate(urlStr), chromedp.WaitReady("body")); err != nil {
		b.Close()
		return nil, &Error{URL: urlStr, Message: "browser navigation failed", Cause: err}
	}
	return b, nil
}

// Close shuts the tab and the browser process.
func (b *Browser) Close() {
	b.cancel()
}

// Done is closed when the tab goes away.
func (b *Browser) Done() <-chan struct{} {
	return b.ctx.Done()
}

func (b *Browser) onEvent(ev interface{}) {
	called, ok := ev.(*runtime.EventBindingCalled)
	if !ok {
		return
	}
	b.mu.Lock()
	handler := b.bindings[called.Name]
	b.mu.Unlock()
	if handler != nil {
		go handler(called.Payload)
	}
}

// run executes actions on the tab, cancelled by either ctx or the tab.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.ctx, b.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if b.ctx.Err() != nil {
			return &types.ExtensionLifecycleError{Message: "browser tab closed", Cause: err}
		}
		return err
	}
	return nil
}

// URL returns the current location of the tab.
func (b *Browser) URL(ctx context.Context) (string, error) {
	var loc string
	if err := b.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// syncFormState copies live form properties into the markup so the
// serialized DOM shows what the user has typed or picked.
const syncFormState = `(function() {
  var n = 0;
  document.querySelectorAll("input").forEach(function(el) {
    if (el.type === "checkbox" || el.type === "radio") {
      if (el.checked) el.setAttribute("checked", ""); else el.removeAttribute("checked");
    } else if (el.type !== "file" && el.getAttribute("value") !== el.value) {
      el.setAttribute("value", el.value);
    }
    n++;
  });
  document.querySelectorAll("textarea").forEach(function(el) {
    if (el.textContent !== el.value) el.textContent = el.value;
    n++;
  });
  document.querySelectorAll("option").forEach(function(el) {
    if (el.selected) el.setAttribute("selected", ""); else el.removeAttribute("selected");
  });
  return n;
})()`

// Snapshot parses the current DOM of the tab, including live form values.
func (b *Browser) Snapshot(ctx context.Context) (*dom.Page, error) {
	var (
		html, loc string
		synced    int
	)
	err := b.run(ctx,
		chromedp.Location(&loc),
		chromedp.Evaluate(syncFormState, &synced),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, &Error{URL: loc, Message: "failed to snapshot page", Cause: err}
	}
	return dom.ParseReader(strings.NewReader(html), loc)
}

// Bind exposes a window function named name whose calls are delivered to fn.
func (b *Browser) Bind(ctx context.Context, name string, fn func(payload string)) error {
	b.mu.Lock()
	b.bindings[name] = fn
	b.mu.Unlock()
	return b.run(ctx, runtime.AddBinding(name))
}

// ObserveMutations reports body subtree changes through the named binding.
// The binding must already exist.
func (b *Browser) ObserveMutations(ctx context.Context, binding string) error {
	script := fmt.Sprintf(`(function(name) {
  if (window.__autofillObserver) return true;
  window.__autofillObserver = new MutationObserver(function() { window[name]("mutation"); });
  window.__autofillObserver.observe(document.body, {childList: true, subtree: true});
  return true;
})(%s)`, jsString(binding))
	var ok bool
	return b.run(ctx, chromedp.Evaluate(script, &ok))
}

// TriggerExists reports whether a trigger button is already on the page.
func (b *Browser) TriggerExists(ctx context.Context) (bool, error) {
	var exists bool
	script := fmt.Sprintf(`document.querySelector(%s) !== null`, jsString("."+TriggerClass))
	if err := b.run(ctx, chromedp.Evaluate(script, &exists)); err != nil {
		return false, err
	}
	return exists, nil
}

// InjectTrigger inserts the trigger button before the form at formPath.
// Clicks call the named binding with formPath. It reports false when a
// trigger already exists anywhere on the page.
func (b *Browser) InjectTrigger(ctx context.Context, formPath, label, binding string) (bool, error) {
	script := fmt.Sprintf(`(function(cls, path, label, name) {
  if (document.querySelector("." + cls)) return false;
  const button = document.createElement("button");
  button.type = "button";
  button.className = cls;
  button.textContent = label;
  button.addEventListener("click", function(e) {
    e.preventDefault();
    e.stopPropagation();
    window[name](path);
  });
  const form = document.querySelector(path);
  if (form && form.parentNode) {
    form.parentNode.insertBefore(button, form);
  } else {
    document.body.appendChild(button);
  }
  return true;
})(%s, %s, %s, %s)`, jsString(TriggerClass), jsString(formPath), jsString(label), jsString(binding))
	var injected bool
	if err := b.run(ctx, chromedp.Evaluate(script, &injected)); err != nil {
		return false, err
	}
	return injected, nil
}

// SetTriggerLabel updates the text of the trigger button, if present.
func (b *Browser) SetTriggerLabel(ctx context.Context, label string) error {
	return b.onElement(ctx, "."+TriggerClass, `el.textContent = arg;`, label)
}

// onElement runs body with el bound to the element at path and arg to a
// JSON-decoded argument. A missing element is a DOMMatchError.
func (b *Browser) onElement(ctx context.Context, path, body string, arg interface{}) error {
	script := fmt.Sprintf(`(function(path, arg) {
  const el = document.querySelector(path);
  if (!el) return false;
  %s
  return true;
})(%s, %s)`, body, jsString(path), jsValue(arg))
	var found bool
	if err := b.run(ctx, chromedp.Evaluate(script, &found)); err != nil {
		return err
	}
	if !found {
		return &types.DOMMatchError{Message: "element not found", Selector: path}
	}
	return nil
}

func (b *Browser) Focus(ctx context.Context, path string) error {
	return b.onElement(ctx, path, `el.focus();`, nil)
}

func (b *Browser) Blur(ctx context.Context, path string) error {
	return b.onElement(ctx, path, `el.blur();`, nil)
}

func (b *Browser) SetValue(ctx context.Context, path, value string, mode fill.SetMode) error {
	if mode == fill.SetNative {
		return b.onElement(ctx, path, `
  const proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype
    : el instanceof HTMLSelectElement ? HTMLSelectElement.prototype
    : HTMLInputElement.prototype;
  Object.getOwnPropertyDescriptor(proto, "value").set.call(el, arg);`, value)
	}
	return b.onElement(ctx, path, `el.value = arg;`, value)
}

func (b *Browser) Dispatch(ctx context.Context, path, event string) error {
	return b.onElement(ctx, path, `
  const ev = (arg === "keydown" || arg === "keyup")
    ? new KeyboardEvent(arg, {bubbles: true})
    : new Event(arg, {bubbles: true});
  el.dispatchEvent(ev);`, event)
}

func (b *Browser) AttachFile(ctx context.Context, path string, file fill.File) error {
	payload := map[string]string{
		"name": file.Name,
		"type": file.MIMEType,
		"data": base64.StdEncoding.EncodeToString(file.Data),
	}
	return b.onElement(ctx, path, `
  if (!(el instanceof HTMLInputElement) || el.type !== "file") throw new Error("not a file input");
  const bin = atob(arg.data);
  const bytes = new Uint8Array(bin.length);
  for (let i = 0; i < bin.length; i++) bytes[i] = bin.charCodeAt(i);
  const dt = new DataTransfer();
  dt.items.add(new File([bytes], arg.name, {type: arg.type}));
  el.files = dt.files;`, payload)
}

func (b *Browser) AddClass(ctx context.Context, path, class string) error {
	return b.onElement(ctx, path, `el.classList.add(arg);`, class)
}

func (b *Browser) RemoveClass(ctx context.Context, path, class string) error {
	return b.onElement(ctx, path, `el.classList.remove(arg);`, class)
}

// Notify shows a transient message that removes itself after fill.NotificationLifetime.
func (b *Browser) Notify(ctx context.Context, message, level string) error {
	payload := map[string]interface{}{
		"cls":     fill.NotificationClass,
		"level":   level,
		"message": message,
		"ttl":     fill.NotificationLifetime.Milliseconds(),
	}
	return b.onElement(ctx, "body", `
  const old = document.querySelector("." + arg.cls);
  if (old) old.remove();
  const note = document.createElement("div");
  note.className = arg.cls + " " + arg.cls + "-" + arg.level;
  const span = document.createElement("span");
  span.textContent = arg.message;
  note.appendChild(span);
  el.appendChild(note);
  setTimeout(function() { note.remove(); }, arg.ttl);`, payload)
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func jsValue(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

var _ fill.Surface = (*Browser)(nil)
