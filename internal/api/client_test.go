package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autofill/internal/types"
)

type latencyRecorder struct {
	endpoints []string
}

func (r *latencyRecorder) RecordFieldFilled(string)     {}
func (r *latencyRecorder) RecordFileAttach(string)      {}
func (r *latencyRecorder) RecordCommand(string, string) {}
func (r *latencyRecorder) RecordAPIRequest(endpoint string, _ time.Duration) {
	r.endpoints = append(r.endpoints, endpoint)
}

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(Options{
		BaseURL:        srv.URL,
		Timeout:        5 * time.Second,
		DownloadClient: srv.Client(),
	})
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLogin_Success(t *testing.T) {
	rec := &latencyRecorder{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "jane@example.com", body["email"])
		assert.Equal(t, "hunter22", body["password"])
		writeJSON(w, http.StatusOK, map[string]any{"token": "tok-1"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL, Recorder: rec})

	resp, err := c.Login(context.Background(), types.LoginRequest{Email: "jane@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, "jane@example.com", resp.User.Email)
	assert.Equal(t, []string{EndpointLogin}, rec.endpoints)
}

func TestLogin_ServerErrorMessage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
	}))

	_, err := c.Login(context.Background(), types.LoginRequest{Email: "jane@example.com", Password: "x"})
	require.Error(t, err)
	var netErr *types.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusUnauthorized, netErr.StatusCode)
	assert.Equal(t, "Invalid credentials", netErr.UserMessage())
}

func TestLogin_FallbackMessageAndMissingToken(t *testing.T) {
	t.Run("no server message", func(t *testing.T) {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "boom")
		}))
		_, err := c.Login(context.Background(), types.LoginRequest{Email: "a@b.co", Password: "x"})
		var netErr *types.NetworkError
		require.ErrorAs(t, err, &netErr)
		assert.Equal(t, "Login failed", netErr.UserMessage())
	})

	t.Run("no token", func(t *testing.T) {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"user": map[string]string{"name": "x"}})
		}))
		_, err := c.Login(context.Background(), types.LoginRequest{Email: "a@b.co", Password: "x"})
		var netErr *types.NetworkError
		require.ErrorAs(t, err, &netErr)
		assert.Equal(t, "Invalid response from server", netErr.UserMessage())
	})
}

func TestLogin_Validation(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := c.Login(context.Background(), types.LoginRequest{Email: "not-an-email", Password: "x"})
	assert.Equal(t, types.KindValidation, types.ErrorKind(err))
	assert.Zero(t, calls.Load())
}

func TestGoogleLogin(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, EndpointGoogleLogin, r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ya29.abc", body["access_token"])
		writeJSON(w, http.StatusOK, map[string]any{
			"token": "tok-g",
			"user":  map[string]string{"id": "7", "name": "Jane Doe", "email": "jane@example.com"},
		})
	}))

	resp, err := c.GoogleLogin(context.Background(), types.GoogleLoginRequest{AccessToken: "ya29.abc"})
	require.NoError(t, err)
	assert.Equal(t, "tok-g", resp.Token)
	assert.Equal(t, "Jane Doe", resp.User.Name)
	assert.Equal(t, "7", resp.User.ID)
}

func TestLoadUser(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"envelope", `{"data":{"name":"Jane"}}`, `{"name":"Jane"}`},
		{"bare document", `{"name":"Jane","email":"j@x.io"}`, `{"name":"Jane","email":"j@x.io"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				_, _ = io.WriteString(w, tt.body)
			}))
			got, err := c.LoadUser(context.Background(), "tok")
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestLoadUser_Unauthorized(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	_, err := c.LoadUser(context.Background(), "bad")
	var netErr *types.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusUnauthorized, netErr.StatusCode)
	assert.Equal(t, "Failed to fetch resume data", netErr.UserMessage())
}

func TestUserFromResume(t *testing.T) {
	u := UserFromResume([]byte(`{"name":"Jane Doe","email":"jane@example.com","phone":"1"}`))
	assert.Equal(t, types.User{Name: "Jane Doe", Email: "jane@example.com"}, u)
}

func TestRequest(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/things":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			writeJSON(w, http.StatusCreated, map[string]int{"id": 3})
		case "/api/plain":
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, "not here")
		}
	}))

	resp, err := c.Request(context.Background(), http.MethodPost, "/api/things", "tok", json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.JSONEq(t, `{"id":3}`, string(resp.Data))

	resp, err = c.Request(context.Background(), "", "/api/plain", "", nil)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.JSONEq(t, `"not here"`, string(resp.Data))

	_, err = c.Request(context.Background(), http.MethodGet, "https://elsewhere.test/x", "", nil)
	assert.Equal(t, types.KindValidation, types.ErrorKind(err))
}

func TestRequest_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL, RPS: 0.001, Burst: 1})

	_, err := c.Request(context.Background(), http.MethodGet, "/a", "", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Request(ctx, http.MethodGet, "/b", "", nil)
	assert.Equal(t, types.KindNetwork, types.ErrorKind(err))
}
