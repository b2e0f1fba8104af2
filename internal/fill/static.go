package fill

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/resume-autofill/internal/dom"
	"github.com/jonathan/resume-autofill/internal/types"
)

// NotificationClass is the class of the on-page notification element.
const NotificationClass = "autofill-notification"

// Event is one recorded interaction with a StaticSurface.
type Event struct {
	Path   string
	Name   string
	Detail string
}

// StaticSurface applies writes to a goquery snapshot and records the events a
// browser would have received. It is safe for concurrent use.
type StaticSurface struct {
	mu     sync.Mutex
	page   *dom.Page
	events []Event
}

// NewStaticSurface wraps page.
func NewStaticSurface(page *dom.Page) *StaticSurface {
	return &StaticSurface{page: page}
}

// Events returns a copy of the recorded events.
func (s *StaticSurface) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// HTML renders the mutated snapshot.
func (s *StaticSurface) HTML() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page.HTML()
}

func (s *StaticSurface) find(path string) (*goquery.Selection, error) {
	sel := s.page.Document().Find(path)
	if sel.Length() == 0 {
		return nil, &types.DOMMatchError{Message: "element not found", Selector: path}
	}
	return sel.First(), nil
}

func (s *StaticSurface) record(path, name, detail string) {
	s.events = append(s.events, Event{Path: path, Name: name, Detail: detail})
}

func (s *StaticSurface) Focus(_ context.Context, path string) error {
	return s.simple(path, "focus")
}

func (s *StaticSurface) Blur(_ context.Context, path string) error {
	return s.simple(path, "blur")
}

func (s *StaticSurface) Dispatch(_ context.Context, path, event string) error {
	return s.simple(path, event)
}

func (s *StaticSurface) simple(path, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.find(path); err != nil {
		return err
	}
	s.record(path, name, "")
	return nil
}

// SetValue updates the value attribute, textarea text, or selected option.
func (s *StaticSurface) SetValue(_ context.Context, path, value string, mode SetMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, err := s.find(path)
	if err != nil {
		return err
	}
	switch goquery.NodeName(sel) {
	case "textarea":
		sel.SetText(value)
	case "select":
		var matched bool
		sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
			v, ok := opt.Attr("value")
			if !ok {
				v = opt.Text()
			}
			if !matched && v == value {
				opt.SetAttr("selected", "")
				matched = true
				return
			}
			opt.RemoveAttr("selected")
		})
		if !matched {
			return &types.DOMMatchError{Message: "no option with value " + value, Selector: path}
		}
	default:
		sel.SetAttr("value", value)
	}
	s.record(path, "set", mode.String()+":"+value)
	return nil
}

// AttachFile marks a file input with the attached file name.
func (s *StaticSurface) AttachFile(_ context.Context, path string, file File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, err := s.find(path)
	if err != nil {
		return err
	}
	if t, _ := sel.Attr("type"); goquery.NodeName(sel) != "input" || !strings.EqualFold(t, "file") {
		return fmt.Errorf("element %s is not a file input", path)
	}
	if len(file.Data) == 0 {
		return fmt.Errorf("file %q is empty", file.Name)
	}
	sel.SetAttr("data-autofill-file", file.Name)
	s.record(path, "attach", fmt.Sprintf("%s:%s:%d", file.Name, file.MIMEType, len(file.Data)))
	return nil
}

func (s *StaticSurface) AddClass(_ context.Context, path, class string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, err := s.find(path)
	if err != nil {
		return err
	}
	sel.AddClass(class)
	return nil
}

func (s *StaticSurface) RemoveClass(_ context.Context, path, class string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, err := s.find(path)
	if err != nil {
		return err
	}
	sel.RemoveClass(class)
	return nil
}

// Notify replaces any existing notification element in the body.
func (s *StaticSurface) Notify(_ context.Context, message, level string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.page.Document()
	doc.Find("." + NotificationClass).Remove()
	body := doc.Find("body")
	if body.Length() == 0 {
		return &types.DOMMatchError{Message: "page has no body", Selector: "body"}
	}
	note := fmt.Sprintf(`<div class="%s %s-%s"><span></span></div>`, NotificationClass, NotificationClass, level)
	body.AppendHtml(note)
	doc.Find("." + NotificationClass + " span").SetText(message)
	s.record("body", "notify", level+":"+message)
	return nil
}
