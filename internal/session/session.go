// Package session keeps the auth session, the cached resume and the user
// preferences in the two storage scopes. Expiry is checked lazily whenever
// the state is read; nothing runs in the background.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/jonathan/resume-autofill/internal/storage"
	"github.com/jonathan/resume-autofill/internal/types"
)

// Storage keys. Session keys live in the session scope, the rest in the
// local scope.
const (
	KeyAuthToken       = "authToken"
	KeyUser            = "user"
	KeyLoginTime       = "loginTime"
	KeyResumeData      = "resumeData"
	KeyResumeCacheTime = "resumeCacheTime"
	KeyPreferences     = "preferences"
)

const (
	// MaxSessionAge is how long a login stays valid.
	MaxSessionAge = 23 * time.Hour
	// CacheTTL is how long a fetched resume is trusted.
	CacheTTL = 30 * time.Minute
)

// Reasons reported by Status.
const (
	ReasonExpired       = "Token expired"
	ReasonNotLoggedIn   = "Not logged in"
	MsgNotAuthenticated = "Not authenticated"
)

// SessionExpired reports whether a login at loginTime has expired at now.
// Exactly 23 hours is still valid.
func SessionExpired(loginTime, now time.Time) bool {
	return now.Sub(loginTime) > MaxSessionAge
}

// CacheValid reports whether a resume fetched at fetchedAt may be used at now.
func CacheValid(fetchedAt, now time.Time) bool {
	return now.Sub(fetchedAt) < CacheTTL
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Manager reads and writes session, cache and preference entries.
type Manager struct {
	session storage.Store
	local   storage.Store
	now     func() time.Time
	logger  *slog.Logger
}

// NewManager creates a Manager over the ephemeral session store and the
// persistent local store.
func NewManager(session, local storage.Store, opts ...Option) *Manager {
	m := &Manager{
		session: session,
		local:   local,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time {
	return m.now()
}

// Save stores a new session stamped with the current time.
func (m *Manager) Save(ctx context.Context, token string, user types.User) error {
	if token == "" {
		return &Error{Message: "cannot save a session without a token"}
	}
	userJSON, err := json.Marshal(user)
	if err != nil {
		return &Error{Message: "failed to encode user", Cause: err}
	}
	if err := m.session.Set(ctx, KeyAuthToken, []byte(token)); err != nil {
		return &Error{Message: "failed to store token", Cause: err}
	}
	if err := m.session.Set(ctx, KeyUser, userJSON); err != nil {
		return &Error{Message: "failed to store user", Cause: err}
	}
	if err := m.session.Set(ctx, KeyLoginTime, encodeTime(m.now())); err != nil {
		return &Error{Message: "failed to store login time", Cause: err}
	}
	return nil
}

// Load returns the stored session, if any, without checking its age.
func (m *Manager) Load(ctx context.Context) (*types.Session, error) {
	token, ok, err := m.session.Get(ctx, KeyAuthToken)
	if err != nil {
		return nil, &Error{Message: "failed to read token", Cause: err}
	}
	if !ok || len(token) == 0 {
		return nil, nil
	}
	s := &types.Session{Token: string(token)}

	if raw, ok, err := m.session.Get(ctx, KeyUser); err != nil {
		return nil, &Error{Message: "failed to read user", Cause: err}
	} else if ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.User); err != nil {
			m.logger.Warn("discarding unreadable stored user", "error", err)
		}
	}
	if s.User == (types.User{}) {
		if u, ok := UserFromToken(s.Token); ok {
			s.User = u
		}
	}

	raw, ok, err := m.session.Get(ctx, KeyLoginTime)
	if err != nil {
		return nil, &Error{Message: "failed to read login time", Cause: err}
	}
	if ok {
		if t, ok := decodeTime(raw); ok {
			s.LoginTime = t
		}
	}
	return s, nil
}

// Status answers a check-auth query. An expired session is removed before
// the answer is returned.
func (m *Manager) Status(ctx context.Context) (types.AuthStatus, error) {
	s, err := m.Load(ctx)
	if err != nil {
		return types.AuthStatus{}, err
	}
	if s == nil {
		return types.AuthStatus{Authenticated: false, Reason: ReasonNotLoggedIn}, nil
	}
	if !s.LoginTime.IsZero() && SessionExpired(s.LoginTime, m.now()) {
		m.logger.Info("session expired", "login_time", s.LoginTime)
		if err := m.clearSession(ctx); err != nil {
			return types.AuthStatus{}, err
		}
		return types.AuthStatus{Authenticated: false, Reason: ReasonExpired}, nil
	}
	user := s.User
	return types.AuthStatus{Authenticated: true, User: &user}, nil
}

// Token returns the current auth token. A missing token is an
// AuthenticationError; an expired one is removed and reported the same way.
func (m *Manager) Token(ctx context.Context) (string, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return "", err
	}
	if !status.Authenticated {
		msg := MsgNotAuthenticated
		if status.Reason == ReasonExpired {
			msg = ReasonExpired
		}
		return "", &types.AuthenticationError{Message: msg}
	}
	token, _, err := m.session.Get(ctx, KeyAuthToken)
	if err != nil {
		return "", &Error{Message: "failed to read token", Cause: err}
	}
	return string(token), nil
}

// PeekToken returns the stored token without enforcing expiry, or "" when
// there is none. Proxied API requests attach it when present.
func (m *Manager) PeekToken(ctx context.Context) (string, error) {
	token, _, err := m.session.Get(ctx, KeyAuthToken)
	if err != nil {
		return "", &Error{Message: "failed to read token", Cause: err}
	}
	return string(token), nil
}

// Clear logs out: it removes the session and the cached resume.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.clearSession(ctx); err != nil {
		return err
	}
	return m.ClearResume(ctx)
}

func (m *Manager) clearSession(ctx context.Context) error {
	if err := m.session.Remove(ctx, KeyAuthToken, KeyUser, KeyLoginTime); err != nil {
		return &Error{Message: "failed to clear session", Cause: err}
	}
	return nil
}

func encodeTime(t time.Time) []byte {
	return []byte(strconv.FormatInt(t.UnixMilli(), 10))
}

func decodeTime(raw []byte) (time.Time, bool) {
	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
