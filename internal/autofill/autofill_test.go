package autofill

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autofill/internal/coordinator"
	"github.com/jonathan/resume-autofill/internal/dom"
	"github.com/jonathan/resume-autofill/internal/fetch"
	"github.com/jonathan/resume-autofill/internal/fill"
	"github.com/jonathan/resume-autofill/internal/types"
)

const greenhouseURL = "https://boards.greenhouse.io/acme/jobs/123"

const greenhousePage = `<html><body>
<div id="content"><div class="body">
  <p>We are hiring a backend engineer to build the payments platform. You will own services end to end.</p>
</div></div>
<form id="application-form">
  <label for="first_name">First Name</label><input id="first_name" name="first_name">
  <label for="last_name">Last Name</label><input id="last_name" name="last_name">
  <label for="email">Email</label><input id="email" name="email" type="email">
  <label for="phone">Phone</label><input id="phone" name="phone">
  <div class="field"><label>Resume/CV <input type="file" name="resume"></label></div>
  <div class="field"><label>Cover Letter <input type="file" name="cover_letter"></label></div>
</form>
</body></html>`

const resume = `{"name":"jane doe","email":"jane@example.com","phone":"5125550100","location":"Austin, TX"}`

type fakeBackend struct {
	dataErr  error
	pdfErr   error
	prefsErr error
	prefs    types.Preferences
	pdfCalls int
}

func (b *fakeBackend) ResumeData(context.Context) (*coordinator.ResumeData, error) {
	if b.dataErr != nil {
		return nil, b.dataErr
	}
	return &coordinator.ResumeData{ResumeData: json.RawMessage(resume), FromCache: true}, nil
}

func (b *fakeBackend) ResumePDF(context.Context) (*types.ResumePDF, error) {
	b.pdfCalls++
	if b.pdfErr != nil {
		return nil, b.pdfErr
	}
	return &types.ResumePDF{Filename: "jane.pdf", Data: []byte("%PDF-1.4")}, nil
}

func (b *fakeBackend) Preferences(context.Context) (types.Preferences, error) {
	if b.prefsErr != nil {
		return types.Preferences{}, b.prefsErr
	}
	return b.prefs, nil
}

func parse(t *testing.T, html, url string) (*dom.Page, *fill.StaticSurface) {
	t.Helper()
	page, err := dom.ParseReader(strings.NewReader(html), url)
	require.NoError(t, err)
	return page, fill.NewStaticSurface(page)
}

func newRunner(b Backend, opts Options) *Runner {
	opts.AfterFunc = func(time.Duration, func()) {}
	opts.Now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return NewRunner(b, opts)
}

func notification(t *testing.T, page *dom.Page) string {
	t.Helper()
	return strings.TrimSpace(page.Text("." + fill.NotificationClass))
}

func TestRun_FillsAndAttaches(t *testing.T) {
	page, surface := parse(t, greenhousePage, greenhouseURL)
	backend := &fakeBackend{prefs: types.DefaultPreferences()}
	var offered *fetch.JobDescription
	r := newRunner(backend, Options{
		AttachPDF: true,
		Tailor: func(jd *fetch.JobDescription) bool {
			offered = jd
			return true
		},
	})

	out, err := r.Trigger(context.Background(), page, surface)
	require.NoError(t, err)

	assert.Equal(t, fetch.PlatformGreenhouse, out.Platform)
	assert.True(t, out.FromCache)
	assert.Equal(t, 4, out.Report.Count())
	assert.Equal(t, "Filled 4 fields", out.Message)
	assert.Equal(t, fill.LevelSuccess, out.Level)
	assert.Equal(t, "Filled 4 fields", notification(t, page))

	require.NotNil(t, offered)
	assert.True(t, out.Tailor)
	assert.Contains(t, out.JobDescription.Text, "payments platform")

	assert.Equal(t, "Jane", page.Find("#first_name")[0].Value())
	assert.Equal(t, "Doe", page.Find("#last_name")[0].Value())
	assert.Equal(t, "jane@example.com", page.Find("#email")[0].Value())
	assert.Equal(t, "(512) 555-0100", page.Find("#phone")[0].Value())
	assert.Len(t, page.Find("."+fill.HighlightClass), 4)

	require.Len(t, out.Attach.Attached, 1)
	assert.Contains(t, out.Attach.Attached[0], "resume")
	assert.Empty(t, out.Attach.Failed)
	assert.Equal(t, 1, backend.pdfCalls)
}

func TestRun_WithoutPDF(t *testing.T) {
	page, surface := parse(t, greenhousePage, greenhouseURL)
	backend := &fakeBackend{prefs: types.DefaultPreferences()}

	out, err := newRunner(backend, Options{}).Run(context.Background(), page, surface)
	require.NoError(t, err)
	assert.Empty(t, out.Attach.Attached)
	assert.Zero(t, backend.pdfCalls)
	assert.False(t, out.Tailor)
}

func TestRun_MissingPDFIsNotFatal(t *testing.T) {
	page, surface := parse(t, greenhousePage, greenhouseURL)
	backend := &fakeBackend{
		prefs:  types.DefaultPreferences(),
		pdfErr: &types.DataAbsentError{Message: "No resume found in history"},
	}

	out, err := newRunner(backend, Options{AttachPDF: true}).Run(context.Background(), page, surface)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Report.Count())
	assert.Empty(t, out.Attach.Attached)
}

func TestRun_HighlightFollowsPreferences(t *testing.T) {
	page, surface := parse(t, greenhousePage, greenhouseURL)
	prefs := types.DefaultPreferences()
	prefs.HighlightFilledFields = false

	_, err := newRunner(&fakeBackend{prefs: prefs}, Options{}).Run(context.Background(), page, surface)
	require.NoError(t, err)
	assert.Empty(t, page.Find("."+fill.HighlightClass))
}

func TestRun_NoHighlightOverridesPreferences(t *testing.T) {
	page, surface := parse(t, greenhousePage, greenhouseURL)
	backend := &fakeBackend{prefs: types.DefaultPreferences()}
	require.True(t, backend.prefs.HighlightFilledFields)

	out, err := newRunner(backend, Options{NoHighlight: true}).Run(context.Background(), page, surface)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Report.Count())
	assert.Empty(t, page.Find("."+fill.HighlightClass))
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"not logged in", &types.AuthenticationError{Message: "Not authenticated"}, MsgLoginRequired},
		{"coordinator gone", &types.ExtensionLifecycleError{Message: "coordinator is shut down"}, MsgRefreshPage},
		{"network", &types.NetworkError{Endpoint: "/api/user/load", Message: "Failed to fetch resume data"}, MsgFailed},
		{"remote auth result", &coordinator.ResultError{ErrKind: types.KindAuth, Message: "Token expired"}, MsgLoginRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, surface := parse(t, greenhousePage, greenhouseURL)
			backend := &fakeBackend{prefs: types.DefaultPreferences(), dataErr: tt.err}

			out, err := newRunner(backend, Options{}).Run(context.Background(), page, surface)
			require.Error(t, err)
			assert.Equal(t, tt.message, out.Message)
			assert.Equal(t, fill.LevelError, out.Level)
			assert.Equal(t, tt.message, notification(t, page))
			assert.Empty(t, page.Find("#first_name")[0].Value())
		})
	}
}

func TestRun_PreferencesFailureFallsBack(t *testing.T) {
	page, surface := parse(t, greenhousePage, greenhouseURL)
	backend := &fakeBackend{prefsErr: &types.NetworkError{Message: "boom"}}

	out, err := newRunner(backend, Options{}).Run(context.Background(), page, surface)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Report.Count())
}

func TestTrigger_NoForm(t *testing.T) {
	page, surface := parse(t, `<html><body><p>Just a job post</p></body></html>`, greenhouseURL)

	out, err := newRunner(&fakeBackend{}, Options{}).Trigger(context.Background(), page, surface)
	require.Error(t, err)
	assert.Equal(t, types.KindDOMMatch, types.ErrorKind(err))
	assert.Equal(t, MsgNoForm, out.Message)
}

func TestTrigger_UnknownPlatformUsesPlainForms(t *testing.T) {
	html := `<html><body><form><input name="email" type="email"></form></body></html>`
	page, surface := parse(t, html, "https://careers.example.com/apply")

	out, err := newRunner(&fakeBackend{prefs: types.DefaultPreferences()}, Options{}).Trigger(context.Background(), page, surface)
	require.NoError(t, err)
	assert.Equal(t, fetch.PlatformUnknown, out.Platform)
	assert.Equal(t, 1, out.Report.Count())
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, MsgNoForm, FailureMessage(&types.DOMMatchError{Message: "x"}))
	assert.Equal(t, MsgFailed, FailureMessage(assert.AnError))
	assert.Equal(t, "Filled 0 fields", FilledMessage(0))
}
