package fill

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autofill/internal/dom"
)

type call struct {
	method string
	arg    string
}

type recordingSurface struct {
	calls  []call
	failOn string
}

func (r *recordingSurface) do(method, arg string) error {
	r.calls = append(r.calls, call{method, arg})
	if method == r.failOn {
		return errors.New("boom")
	}
	return nil
}

func (r *recordingSurface) Focus(_ context.Context, _ string) error { return r.do("focus", "") }
func (r *recordingSurface) Blur(_ context.Context, _ string) error  { return r.do("blur", "") }
func (r *recordingSurface) SetValue(_ context.Context, _, v string, m SetMode) error {
	return r.do("set", m.String()+":"+v)
}
func (r *recordingSurface) Dispatch(_ context.Context, _, ev string) error {
	return r.do("dispatch", ev)
}
func (r *recordingSurface) AttachFile(_ context.Context, _ string, f File) error {
	return r.do("attach", f.Name)
}
func (r *recordingSurface) AddClass(_ context.Context, _, c string) error { return r.do("add", c) }
func (r *recordingSurface) RemoveClass(_ context.Context, _, c string) error {
	return r.do("remove", c)
}
func (r *recordingSurface) Notify(_ context.Context, m, _ string) error { return r.do("notify", m) }

func TestEventNotifier_Sequence(t *testing.T) {
	tests := []struct {
		name string
		mode SetMode
	}{
		{"assign", SetAssign},
		{"native", SetNative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &recordingSurface{}
			require.NoError(t, EventNotifier{Mode: tt.mode}.NotifyChange(context.Background(), s, "x", "v"))
			assert.Equal(t, []call{
				{"focus", ""},
				{"set", tt.mode.String() + ":v"},
				{"dispatch", "input"},
				{"dispatch", "change"},
				{"dispatch", "keydown"},
				{"dispatch", "keyup"},
				{"blur", ""},
			}, s.calls)
		})
	}
}

func TestEventNotifier_StopsOnError(t *testing.T) {
	s := &recordingSurface{failOn: "set"}
	err := EventNotifier{}.NotifyChange(context.Background(), s, "x", "v")
	require.Error(t, err)
	assert.Len(t, s.calls, 2)
}

func TestDetectFramework(t *testing.T) {
	tests := []struct {
		name string
		html string
		want Framework
	}{
		{"next root", `<div id="__next"></div>`, FrameworkReact},
		{"react root attr", `<div data-reactroot=""></div>`, FrameworkReact},
		{"react script", `<script src="/static/react-dom.production.min.js"></script>`, FrameworkReact},
		{"angular", `<app-root ng-version="17.0.0"></app-root>`, FrameworkAngular},
		{"vue", `<div id="app" data-v-app=""></div>`, FrameworkVue},
		{"plain", `<form><input></form>`, FrameworkUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := dom.Parse(tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.want, DetectFramework(page))
		})
	}
}

func TestNotifierFor(t *testing.T) {
	assert.Equal(t, EventNotifier{Mode: SetNative}, NotifierFor(FrameworkReact))
	assert.Equal(t, EventNotifier{Mode: SetAssign}, NotifierFor(FrameworkVue))
	assert.Equal(t, EventNotifier{Mode: SetAssign}, NotifierFor(FrameworkUnknown))
}
