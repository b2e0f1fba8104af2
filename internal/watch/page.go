package watch

import (
	"context"
	"fmt"
	"html"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/resume-autofill/internal/dom"
	"github.com/jonathan/resume-autofill/internal/fetch"
)

// PageTarget watches a static snapshot. Mutate edits it and signals the
// watchers subscribed with Subscribe.
type PageTarget struct {
	mu       sync.Mutex
	page     *dom.Page
	watchers []*Watcher
}

// NewPageTarget wraps page.
func NewPageTarget(page *dom.Page) *PageTarget {
	return &PageTarget{page: page}
}

// Subscribe routes mutation signals to w.
func (t *PageTarget) Subscribe(w *Watcher) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.watchers = append(t.watchers, w)
}

// Mutate applies fn to the document and notifies subscribers.
func (t *PageTarget) Mutate(fn func(doc *goquery.Document)) {
	t.mu.Lock()
	fn(t.page.Document())
	watchers := append([]*Watcher(nil), t.watchers...)
	t.mu.Unlock()
	for _, w := range watchers {
		w.Notify()
	}
}

// Snapshot re-parses the current document so scans never share nodes with
// concurrent mutations.
func (t *PageTarget) Snapshot(_ context.Context) (*dom.Page, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	html, err := t.page.HTML()
	if err != nil {
		return nil, err
	}
	return dom.Parse(html)
}

// Page returns the underlying page. Callers must not mutate it concurrently
// with a running watcher; use Mutate instead.
func (t *PageTarget) Page() *dom.Page {
	return t.page
}

// InjectTrigger implements Target.
func (t *PageTarget) InjectTrigger(_ context.Context, formPath, label, binding string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	doc := t.page.Document()
	if doc.Find("."+fetch.TriggerClass).Length() > 0 {
		return false, nil
	}
	button := fmt.Sprintf(`<button type="button" class="%s" data-form="%s" data-binding="%s">%s</button>`,
		fetch.TriggerClass, html.EscapeString(formPath), html.EscapeString(binding), html.EscapeString(label))
	if form := doc.Find(formPath).First(); form.Length() > 0 && form.Parent().Length() > 0 {
		form.BeforeHtml(button)
	} else {
		doc.Find("body").AppendHtml(button)
	}
	return true, nil
}
