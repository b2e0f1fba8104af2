package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autofill/internal/storage"
	"github.com/jonathan/resume-autofill/internal/types"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func newManager(c *clock) (*Manager, *storage.Memory, *storage.Memory) {
	sess, local := storage.NewMemory(), storage.NewMemory()
	return NewManager(sess, local, WithClock(c.now)), sess, local
}

func TestSessionExpired_Boundary(t *testing.T) {
	login := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		after   time.Duration
		expired bool
	}{
		{"fresh", 0, false},
		{"22h59m", 22*time.Hour + 59*time.Minute, false},
		{"exactly 23h", 23 * time.Hour, false},
		{"23h01m", 23*time.Hour + time.Minute, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, SessionExpired(login, login.Add(tt.after)))
		})
	}
}

func TestCacheValid_Boundary(t *testing.T) {
	fetched := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, CacheValid(fetched, fetched.Add(29*time.Minute)))
	assert.False(t, CacheValid(fetched, fetched.Add(30*time.Minute)))
	assert.False(t, CacheValid(fetched, fetched.Add(31*time.Minute)))
}

func TestManager_SaveAndStatus(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	m, _, _ := newManager(c)

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Authenticated)
	assert.Equal(t, ReasonNotLoggedIn, status.Reason)

	require.NoError(t, m.Save(ctx, "tok-123", types.User{Email: "jane@example.com"}))

	c.advance(22*time.Hour + 59*time.Minute)
	status, err = m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Authenticated)
	require.NotNil(t, status.User)
	assert.Equal(t, "jane@example.com", status.User.Email)

	token, err := m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestManager_ExpiredSessionIsRemoved(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	m, sess, _ := newManager(c)

	require.NoError(t, m.Save(ctx, "tok-123", types.User{Name: "Jane"}))
	c.advance(23*time.Hour + time.Minute)

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Authenticated)
	assert.Equal(t, ReasonExpired, status.Reason)

	for _, key := range []string{KeyAuthToken, KeyUser, KeyLoginTime} {
		_, ok, err := sess.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, "key %s should be removed", key)
	}

	// A second query sees no session at all.
	status, err = m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReasonNotLoggedIn, status.Reason)
}

func TestManager_TokenWithoutSession(t *testing.T) {
	m, _, _ := newManager(newClock())

	_, err := m.Token(context.Background())
	require.Error(t, err)
	var authErr *types.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, MsgNotAuthenticated, authErr.Message)
	assert.Equal(t, types.KindAuth, types.ErrorKind(err))
}

func TestManager_TokenExpired(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	m, _, _ := newManager(c)
	require.NoError(t, m.Save(ctx, "tok", types.User{}))
	c.advance(24 * time.Hour)

	_, err := m.Token(ctx)
	var authErr *types.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonExpired, authErr.Message)

	peek, err := m.PeekToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, peek)
}

func TestManager_SaveRequiresToken(t *testing.T) {
	m, _, _ := newManager(newClock())
	assert.Error(t, m.Save(context.Background(), "", types.User{}))
}

func TestManager_ResumeCache(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	m, _, _ := newManager(c)

	_, ok, err := m.CachedResume(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	payload := json.RawMessage(`{"name":"Jane Doe"}`)
	require.NoError(t, m.StoreResume(ctx, payload))

	c.advance(29 * time.Minute)
	entry, ok, err := m.CachedResume(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, string(payload), string(entry.Data))
	assert.Equal(t, 29*time.Minute, entry.Age(c.now()))

	c.advance(2 * time.Minute)
	entry, ok, err = m.CachedResume(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NotNil(t, entry)
}

func TestManager_StoreResumeRejectsInvalidJSON(t *testing.T) {
	m, _, _ := newManager(newClock())
	assert.Error(t, m.StoreResume(context.Background(), json.RawMessage(`{nope`)))
}

func TestManager_ClearRemovesSessionAndCache(t *testing.T) {
	ctx := context.Background()
	m, _, local := newManager(newClock())
	require.NoError(t, m.Save(ctx, "tok", types.User{}))
	require.NoError(t, m.StoreResume(ctx, json.RawMessage(`{}`)))
	_, err := m.SetPreference(ctx, "showConfirmation", true)
	require.NoError(t, err)

	require.NoError(t, m.Clear(ctx))

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Authenticated)
	_, ok, err := local.Get(ctx, KeyResumeData)
	require.NoError(t, err)
	assert.False(t, ok)

	// Preferences survive logout.
	prefs, err := m.Preferences(ctx)
	require.NoError(t, err)
	assert.True(t, prefs.ShowConfirmation)
}

func TestManager_Preferences(t *testing.T) {
	ctx := context.Background()
	m, _, local := newManager(newClock())

	prefs, err := m.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPreferences(), prefs)

	prefs, err = m.SetPreference(ctx, "autoDetectForms", false)
	require.NoError(t, err)
	assert.False(t, prefs.AutoDetectForms)
	assert.True(t, prefs.HighlightFilledFields)

	_, err = m.SetPreference(ctx, "darkMode", true)
	var vErr *types.ValidationError
	assert.ErrorAs(t, err, &vErr)

	require.NoError(t, local.Set(ctx, KeyPreferences, []byte("garbage")))
	prefs, err = m.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPreferences(), prefs)
}

func TestUserFromToken(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "42",
		"email":   "jane@example.com",
	}).SignedString([]byte("not-our-secret"))
	require.NoError(t, err)

	u, ok := UserFromToken(signed)
	require.True(t, ok)
	assert.Equal(t, "42", u.ID)
	assert.Equal(t, "jane@example.com", u.Email)

	_, ok = UserFromToken("opaque-token-value")
	assert.False(t, ok)
}

func TestManager_LoadFallsBackToTokenClaims(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(newClock())
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "u-7",
		"name": "Jane Doe",
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	require.NoError(t, m.Save(ctx, signed, types.User{}))
	s, err := m.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "u-7", s.User.ID)
	assert.Equal(t, "Jane Doe", s.User.Name)
}
