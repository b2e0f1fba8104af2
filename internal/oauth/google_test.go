package oauth

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autofill/internal/types"
)

func TestAuthURL(t *testing.T) {
	g, err := NewGoogle(GoogleConfig{ClientID: "client-1", RedirectURL: "https://ext.example/cb"})
	require.NoError(t, err)

	u, err := url.Parse(g.AuthURL("st"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "/o/oauth2/v2/auth", u.Path)

	q := u.Query()
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, "token", q.Get("response_type"))
	assert.Equal(t, "https://ext.example/cb", q.Get("redirect_uri"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.Equal(t, "st", q.Get("state"))
}

func TestNewGoogle_RequiresClientAndRedirect(t *testing.T) {
	_, err := NewGoogle(GoogleConfig{RedirectURL: "https://x"})
	assert.Equal(t, types.KindValidation, types.ErrorKind(err))

	_, err = NewGoogle(GoogleConfig{ClientID: "c"})
	assert.Equal(t, types.KindValidation, types.ErrorKind(err))
}

func TestParseRedirect(t *testing.T) {
	tests := []struct {
		name     string
		redirect string
		token    string
		kind     string
	}{
		{"token", "https://ext.example/cb#access_token=ya29.abc&token_type=Bearer&expires_in=3599", "ya29.abc", ""},
		{"denied", "https://ext.example/cb#error=access_denied", "", types.KindAuth},
		{"no fragment", "https://ext.example/cb", "", types.KindAuth},
		{"bad url", "://nope", "", types.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := ParseRedirect(tt.redirect)
			if tt.kind == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.token, token)
				return
			}
			assert.Equal(t, tt.kind, types.ErrorKind(err))
		})
	}
}
