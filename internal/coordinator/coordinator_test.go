package coordinator

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autofill/internal/api"
	"github.com/jonathan/resume-autofill/internal/session"
	"github.com/jonathan/resume-autofill/internal/storage"
	"github.com/jonathan/resume-autofill/internal/types"
)

const resumeJSON = `{"name":"Jane Doe","email":"jane@example.com","location":"Austin, TX"}`

type requestLog struct {
	Method   string
	Endpoint string
	Token    string
}

type fakeService struct {
	mu         sync.Mutex
	loads      atomic.Int32
	loadDelay  time.Duration
	loadGate   chan struct{}
	loadErr    error
	loginErr   error
	pdf        *types.ResumePDF
	pdfErr     error
	lastToken  string
	lastAccess string
	requests   []requestLog
}

func (f *fakeService) Login(_ context.Context, req types.LoginRequest) (*types.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &types.LoginResponse{Token: "tok-login", User: &types.User{Email: req.Email}}, nil
}

func (f *fakeService) GoogleLogin(_ context.Context, req types.GoogleLoginRequest) (*types.LoginResponse, error) {
	f.mu.Lock()
	f.lastAccess = req.AccessToken
	f.mu.Unlock()
	return &types.LoginResponse{Token: "tok-google", User: &types.User{}}, nil
}

func (f *fakeService) LoadUser(_ context.Context, token string) (json.RawMessage, error) {
	f.loads.Add(1)
	f.mu.Lock()
	f.lastToken = token
	f.mu.Unlock()
	if f.loadDelay > 0 {
		time.Sleep(f.loadDelay)
	}
	if f.loadGate != nil {
		<-f.loadGate
	}
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return json.RawMessage(resumeJSON), nil
}

func (f *fakeService) ResumePDF(_ context.Context, token string) (*types.ResumePDF, error) {
	if f.pdfErr != nil {
		return nil, f.pdfErr
	}
	return f.pdf, nil
}

func (f *fakeService) Request(_ context.Context, method, endpoint, token string, body json.RawMessage) (*api.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, requestLog{Method: method, Endpoint: endpoint, Token: token})
	f.mu.Unlock()
	return &api.Response{Success: true, Status: http.StatusOK, Data: json.RawMessage(`{"ok":true}`)}, nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func setup(t *testing.T, svc *fakeService) (*Coordinator, *session.Manager, *testClock) {
	t.Helper()
	clk := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	sessions := session.NewManager(storage.NewMemory(), storage.NewMemory(), session.WithClock(clk.now))
	c := New(svc, sessions, Options{})
	t.Cleanup(c.Close)
	return c, sessions, clk
}

func dispatch(t *testing.T, c *Coordinator, typ CommandType, payload any) Result {
	t.Helper()
	cmd, err := NewCommand(typ, payload)
	require.NoError(t, err)
	res := c.Dispatch(context.Background(), cmd)
	assert.Equal(t, cmd.ID, res.ID)
	return res
}

func TestCheckAuth_NotLoggedIn(t *testing.T) {
	c, _, _ := setup(t, &fakeService{})

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Authenticated)
}

func TestLogin_StoresSessionAndPrimesCache(t *testing.T) {
	svc := &fakeService{}
	c, sessions, _ := setup(t, svc)

	res := dispatch(t, c, Login, types.LoginRequest{Email: "jane@example.com", Password: "pw"})
	require.True(t, res.Success, res.Error)

	var data LoginData
	require.NoError(t, res.Decode(&data))
	assert.Equal(t, "jane@example.com", data.User.Email)
	assert.True(t, data.Cached)
	assert.Equal(t, "tok-login", svc.lastToken)

	_, valid, err := sessions.CachedResume(context.Background())
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestLogin_PrefetchFailureKeepsSession(t *testing.T) {
	svc := &fakeService{loadErr: &types.NetworkError{Endpoint: api.EndpointUserLoad, Message: "Failed to fetch resume data", StatusCode: 500}}
	c, _, _ := setup(t, svc)

	res := dispatch(t, c, Login, types.LoginRequest{Email: "jane@example.com", Password: "pw"})
	require.True(t, res.Success)
	var data LoginData
	require.NoError(t, res.Decode(&data))
	assert.False(t, data.Cached)

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Authenticated)
}

func TestLogin_Failure(t *testing.T) {
	svc := &fakeService{loginErr: &types.NetworkError{Endpoint: api.EndpointLogin, StatusCode: 401, ServerMessage: "Invalid credentials"}}
	c, _, _ := setup(t, svc)

	res := dispatch(t, c, Login, types.LoginRequest{Email: "jane@example.com", Password: "pw"})
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid credentials", res.Error)
	assert.Equal(t, types.KindNetwork, res.ErrorKind)
}

func TestLogin_MissingPayload(t *testing.T) {
	c, _, _ := setup(t, &fakeService{})

	res := dispatch(t, c, Login, nil)
	assert.False(t, res.Success)
	assert.Equal(t, types.KindValidation, res.ErrorKind)
}

func TestGoogleLogin_FromRedirect(t *testing.T) {
	svc := &fakeService{}
	c, _, _ := setup(t, svc)

	res := dispatch(t, c, GoogleLogin, GoogleLoginPayload{RedirectURL: "https://ext.example/cb#access_token=ya29.xyz&expires_in=3599"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "ya29.xyz", svc.lastAccess)

	res = dispatch(t, c, GoogleLogin, GoogleLoginPayload{RedirectURL: "https://ext.example/cb#error=access_denied"})
	assert.False(t, res.Success)
	assert.Equal(t, types.KindAuth, res.ErrorKind)
}

func TestTokenLogin(t *testing.T) {
	svc := &fakeService{}
	c, sessions, _ := setup(t, svc)

	res := dispatch(t, c, TokenLogin, types.TokenLoginRequest{Token: "pasted-token-123"})
	require.True(t, res.Success, res.Error)

	var data LoginData
	require.NoError(t, res.Decode(&data))
	assert.Equal(t, types.User{Name: "Jane Doe", Email: "jane@example.com"}, data.User)

	token, err := sessions.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pasted-token-123", token)
}

func TestTokenLogin_Rejected(t *testing.T) {
	svc := &fakeService{loadErr: &types.NetworkError{Endpoint: api.EndpointUserLoad, StatusCode: 401, Message: "Failed to fetch resume data"}}
	c, _, _ := setup(t, svc)

	res := dispatch(t, c, TokenLogin, types.TokenLoginRequest{Token: "pasted-token-123"})
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid or expired token", res.Error)
	assert.Equal(t, types.KindAuth, res.ErrorKind)

	res = dispatch(t, c, TokenLogin, types.TokenLoginRequest{Token: "short"})
	assert.Equal(t, types.KindValidation, res.ErrorKind)
}

func TestGetResumeData_RequiresAuth(t *testing.T) {
	for _, typ := range []CommandType{GetResumeData, RefreshCache, GetResumePDF} {
		t.Run(string(typ), func(t *testing.T) {
			c, _, _ := setup(t, &fakeService{})
			res := dispatch(t, c, typ, nil)
			assert.False(t, res.Success)
			assert.Equal(t, "Not authenticated", res.Error)
			assert.Equal(t, types.KindAuth, res.ErrorKind)
		})
	}
}

func TestGetResumeData_CacheWindow(t *testing.T) {
	ctx := context.Background()
	svc := &fakeService{}
	c, sessions, clk := setup(t, svc)
	require.NoError(t, sessions.Save(ctx, "tok", types.User{}))

	data, err := c.ResumeData(ctx)
	require.NoError(t, err)
	assert.False(t, data.FromCache)
	assert.JSONEq(t, resumeJSON, string(data.ResumeData))
	assert.EqualValues(t, 1, svc.loads.Load())

	clk.advance(29 * time.Minute)
	data, err = c.ResumeData(ctx)
	require.NoError(t, err)
	assert.True(t, data.FromCache)
	assert.EqualValues(t, 1, svc.loads.Load())

	clk.advance(2 * time.Minute)
	data, err = c.ResumeData(ctx)
	require.NoError(t, err)
	assert.False(t, data.FromCache)
	assert.EqualValues(t, 2, svc.loads.Load())
}

func TestGetResumeData_ExpiredSession(t *testing.T) {
	ctx := context.Background()
	c, sessions, clk := setup(t, &fakeService{})
	require.NoError(t, sessions.Save(ctx, "tok", types.User{}))
	clk.advance(23*time.Hour + time.Minute)

	_, err := c.ResumeData(ctx)
	require.Error(t, err)
	assert.Equal(t, types.KindAuth, types.ErrorKind(err))
	assert.Equal(t, "Token expired", err.Error())
}

func TestRefreshCache_Refetches(t *testing.T) {
	ctx := context.Background()
	svc := &fakeService{}
	c, sessions, _ := setup(t, svc)
	require.NoError(t, sessions.Save(ctx, "tok", types.User{}))
	require.NoError(t, sessions.StoreResume(ctx, json.RawMessage(`{"name":"Old"}`)))

	res := dispatch(t, c, RefreshCache, nil)
	require.True(t, res.Success)
	assert.EqualValues(t, 1, svc.loads.Load())

	entry, valid, err := sessions.CachedResume(ctx)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.JSONEq(t, resumeJSON, string(entry.Data))
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	c, sessions, _ := setup(t, &fakeService{})
	require.NoError(t, sessions.Save(ctx, "tok", types.User{}))
	require.NoError(t, sessions.StoreResume(ctx, json.RawMessage(resumeJSON)))

	res := dispatch(t, c, Logout, nil)
	require.True(t, res.Success)

	_, err := c.ResumeData(ctx)
	assert.Equal(t, types.KindAuth, types.ErrorKind(err))
	_, valid, err := sessions.CachedResume(ctx)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestGetResumePDF(t *testing.T) {
	ctx := context.Background()
	svc := &fakeService{pdf: &types.ResumePDF{Filename: "jane.pdf", Data: []byte("%PDF")}}
	c, sessions, _ := setup(t, svc)
	require.NoError(t, sessions.Save(ctx, "tok", types.User{}))

	pdf, err := c.ResumePDF(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jane.pdf", pdf.Filename)
	assert.Equal(t, []byte("%PDF"), pdf.Data)

	svc.pdfErr = &types.DataAbsentError{Message: "No resume found in history"}
	res := dispatch(t, c, GetResumePDF, nil)
	assert.False(t, res.Success)
	assert.Equal(t, "No resume found in history", res.Error)
	assert.Equal(t, types.KindDataAbsent, res.ErrorKind)
}

func TestAPIRequest_AttachesTokenWhenPresent(t *testing.T) {
	ctx := context.Background()
	svc := &fakeService{}
	c, sessions, _ := setup(t, svc)

	res := dispatch(t, c, APIRequest, APIRequestPayload{Endpoint: "/api/ping"})
	require.True(t, res.Success)

	require.NoError(t, sessions.Save(ctx, "tok", types.User{}))
	res = dispatch(t, c, APIRequest, APIRequestPayload{Endpoint: "/api/things", Method: http.MethodPost, Body: json.RawMessage(`{}`)})
	require.True(t, res.Success)

	var resp api.Response
	require.NoError(t, res.Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, http.StatusOK, resp.Status)

	require.Len(t, svc.requests, 2)
	assert.Equal(t, requestLog{Method: http.MethodGet, Endpoint: "/api/ping"}, svc.requests[0])
	assert.Equal(t, requestLog{Method: http.MethodPost, Endpoint: "/api/things", Token: "tok"}, svc.requests[1])
}

func TestPreferences(t *testing.T) {
	c, _, _ := setup(t, &fakeService{})

	prefs, err := c.Preferences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPreferences(), prefs)

	res := dispatch(t, c, SetPreference, SetPreferencePayload{Key: "highlightFilledFields", Value: false})
	require.True(t, res.Success, res.Error)

	prefs, err = c.Preferences(context.Background())
	require.NoError(t, err)
	assert.False(t, prefs.HighlightFilledFields)

	res = dispatch(t, c, SetPreference, SetPreferencePayload{Key: "nope", Value: true})
	assert.Equal(t, types.KindValidation, res.ErrorKind)
}

func TestUnknownCommand(t *testing.T) {
	c, _, _ := setup(t, &fakeService{})
	res := c.Dispatch(context.Background(), Command{Type: "SELF_DESTRUCT"})
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, types.KindValidation, res.ErrorKind)
}

func TestDispatchAfterClose(t *testing.T) {
	c, _, _ := setup(t, &fakeService{})
	c.Close()

	res := dispatch(t, c, CheckAuth, nil)
	assert.False(t, res.Success)
	assert.Equal(t, types.KindLifecycle, res.ErrorKind)

	_, err := c.Status(context.Background())
	assert.Equal(t, types.KindLifecycle, types.ErrorKind(err))
}

func TestDispatch_CancelledContext(t *testing.T) {
	c, _, _ := setup(t, &fakeService{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.Dispatch(ctx, Command{Type: Logout})
	assert.False(t, res.Success)
	assert.Equal(t, types.KindLifecycle, res.ErrorKind)
}

func TestDispatch_ConcurrentFetchesShareOneRequest(t *testing.T) {
	ctx := context.Background()
	svc := &fakeService{loadDelay: 50 * time.Millisecond}
	c, sessions, _ := setup(t, svc)
	require.NoError(t, sessions.Save(ctx, "tok", types.User{}))

	var wg sync.WaitGroup
	results := make([]Result, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Dispatch(ctx, Command{ID: string(rune('a' + i)), Type: RefreshCache})
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		assert.True(t, res.Success)
		assert.Equal(t, string(rune('a'+i)), res.ID)
	}
	// Callers arriving while the first fetch is in flight share it.
	assert.Less(t, svc.loads.Load(), int32(5))
}

func TestDispatch_CancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	ctx := context.Background()
	svc := &fakeService{loadGate: make(chan struct{})}
	c, sessions, _ := setup(t, svc)
	require.NoError(t, sessions.Save(ctx, "tok", types.User{}))

	firstCtx, cancelFirst := context.WithCancel(ctx)
	first := make(chan Result, 1)
	go func() { first <- c.Dispatch(firstCtx, Command{ID: "first", Type: RefreshCache}) }()
	require.Eventually(t, func() bool { return svc.loads.Load() == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan Result, 1)
	go func() { second <- c.Dispatch(ctx, Command{ID: "second", Type: RefreshCache}) }()

	cancelFirst()
	select {
	case res := <-first:
		assert.False(t, res.Success)
		assert.Equal(t, "first", res.ID)
		assert.Equal(t, types.KindLifecycle, res.ErrorKind)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(svc.loadGate)
	select {
	case res := <-second:
		assert.True(t, res.Success, res.Error)
		assert.Equal(t, "second", res.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not return")
	}
}
