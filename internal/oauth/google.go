// Package oauth builds the Google sign-in URL and reads the access token out
// of the redirect the browser lands on afterwards.
package oauth

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/jonathan/resume-autofill/internal/types"
)

const (
	defaultGoogleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultGoogleTokenURL = "https://oauth2.googleapis.com/token"
)

// Scopes requested from Google.
var Scopes = []string{"openid", "email", "profile"}

// GoogleConfig configures the implicit flow.
type GoogleConfig struct {
	ClientID    string
	RedirectURL string
	// AuthURL overrides the Google endpoint in tests.
	AuthURL string
}

// Google produces sign-in URLs for the implicit (token) flow.
type Google struct {
	config oauth2.Config
}

// NewGoogle creates a Google provider.
func NewGoogle(cfg GoogleConfig) (*Google, error) {
	if cfg.ClientID == "" {
		return nil, &types.ValidationError{Field: "google_client_id", Message: "is required"}
	}
	if cfg.RedirectURL == "" {
		return nil, &types.ValidationError{Field: "google_redirect_url", Message: "is required"}
	}
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = defaultGoogleAuthURL
	}
	return &Google{config: oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: cfg.RedirectURL,
		Scopes:      Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: defaultGoogleTokenURL,
		},
	}}, nil
}

// AuthURL returns the URL to open in the browser. The token comes back in
// the redirect fragment, so no code exchange follows.
func (g *Google) AuthURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.SetAuthURLParam("response_type", "token"))
}

// ParseRedirect extracts the access token from the URL Google redirected to.
func ParseRedirect(redirect string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(redirect))
	if err != nil {
		return "", &types.ValidationError{Field: "redirect", Message: "not a URL", Cause: err}
	}
	params, err := url.ParseQuery(u.Fragment)
	if err != nil {
		return "", &types.ValidationError{Field: "redirect", Message: "malformed fragment", Cause: err}
	}
	if e := params.Get("error"); e != "" {
		return "", &types.AuthenticationError{Message: fmt.Sprintf("Google sign-in failed: %s", e)}
	}
	token := params.Get("access_token")
	if token == "" {
		return "", &types.AuthenticationError{Message: "No access token received"}
	}
	return token, nil
}
