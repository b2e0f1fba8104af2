package fill

import (
	"context"
	"strings"

	"github.com/jonathan/resume-autofill/internal/dom"
)

// Notifier writes a value and tells the host framework about it.
type Notifier interface {
	NotifyChange(ctx context.Context, s Surface, path, value string) error
}

// EventNotifier focuses the element, sets the value, dispatches input,
// change, keydown and keyup in that order, then blurs.
type EventNotifier struct {
	Mode SetMode
}

// NotifyChange implements Notifier.
func (n EventNotifier) NotifyChange(ctx context.Context, s Surface, path, value string) error {
	if err := s.Focus(ctx, path); err != nil {
		return err
	}
	if err := s.SetValue(ctx, path, value, n.Mode); err != nil {
		return err
	}
	for _, ev := range []string{EventInput, EventChange, EventKeyDown, EventKeyUp} {
		if err := s.Dispatch(ctx, path, ev); err != nil {
			return err
		}
	}
	return s.Blur(ctx, path)
}

// Framework is the family of front-end framework driving a page.
type Framework string

const (
	FrameworkUnknown Framework = "unknown"
	FrameworkReact   Framework = "react"
	FrameworkVue     Framework = "vue"
	FrameworkAngular Framework = "angular"
)

// DetectFramework guesses the framework from markers it leaves in markup.
func DetectFramework(page *dom.Page) Framework {
	switch {
	case page.Exists("[data-reactroot], #__next, #root[data-reactroot], [data-reactid]"):
		return FrameworkReact
	case page.Exists("[ng-version], [ng-app], [data-ng-app]"):
		return FrameworkAngular
	case page.Exists("[data-v-app], [data-server-rendered]"):
		return FrameworkVue
	}
	for _, el := range page.Find("script[src]") {
		src := strings.ToLower(el.Attr("src"))
		if strings.Contains(src, "react") || strings.Contains(src, "_next/") {
			return FrameworkReact
		}
	}
	return FrameworkUnknown
}

// NotifierFor returns the strategy for a framework family. React keeps its
// own copy of the last value, so it needs the native setter.
func NotifierFor(fw Framework) Notifier {
	if fw == FrameworkReact {
		return EventNotifier{Mode: SetNative}
	}
	return EventNotifier{Mode: SetAssign}
}
