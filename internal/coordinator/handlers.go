package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonathan/resume-autofill/internal/api"
	"github.com/jonathan/resume-autofill/internal/oauth"
	"github.com/jonathan/resume-autofill/internal/types"
)

func (c *Coordinator) checkAuth(ctx context.Context, _ json.RawMessage) (any, error) {
	return c.sessions.Status(ctx)
}

func (c *Coordinator) login(ctx context.Context, payload json.RawMessage) (any, error) {
	var req types.LoginRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	resp, err := c.service.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.startSession(ctx, resp)
}

func (c *Coordinator) googleLogin(ctx context.Context, payload json.RawMessage) (any, error) {
	var p GoogleLoginPayload
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	accessToken := p.AccessToken
	if accessToken == "" && p.RedirectURL != "" {
		t, err := oauth.ParseRedirect(p.RedirectURL)
		if err != nil {
			return nil, err
		}
		accessToken = t
	}
	resp, err := c.service.GoogleLogin(ctx, types.GoogleLoginRequest{AccessToken: accessToken})
	if err != nil {
		return nil, err
	}
	return c.startSession(ctx, resp)
}

// startSession stores a fresh login and primes the resume cache. A failed
// prefetch does not undo the login; the next resume request retries it.
func (c *Coordinator) startSession(ctx context.Context, resp *types.LoginResponse) (*LoginData, error) {
	user := types.User{}
	if resp.User != nil {
		user = *resp.User
	}
	if err := c.sessions.Save(ctx, resp.Token, user); err != nil {
		return nil, err
	}
	out := &LoginData{User: user}
	if _, err := c.fetchAndCache(ctx, resp.Token); err != nil {
		c.logger.Warn("resume prefetch after login failed", "error", err)
		return out, nil
	}
	out.Cached = true
	return out, nil
}

func (c *Coordinator) tokenLogin(ctx context.Context, payload json.RawMessage) (any, error) {
	var req types.TokenLoginRequest
	if err := decodePayload(payload, &req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, &types.ValidationError{Field: "token", Message: "token is required", Cause: err}
	}
	resume, err := c.service.LoadUser(ctx, req.Token)
	if err != nil {
		var netErr *types.NetworkError
		if errors.As(err, &netErr) && netErr.StatusCode != 0 {
			return nil, &types.AuthenticationError{Message: "Invalid or expired token", Cause: err}
		}
		return nil, err
	}
	c.checkResume(resume)

	user := api.UserFromResume(resume)
	if err := c.sessions.Save(ctx, req.Token, user); err != nil {
		return nil, err
	}
	if err := c.sessions.StoreResume(ctx, resume); err != nil {
		return nil, err
	}
	return &LoginData{User: user, Cached: true}, nil
}

func (c *Coordinator) logout(ctx context.Context, _ json.RawMessage) (any, error) {
	if err := c.sessions.Clear(ctx); err != nil {
		return nil, err
	}
	return nil, nil
}

func (c *Coordinator) refreshCache(ctx context.Context, _ json.RawMessage) (any, error) {
	token, err := c.sessions.Token(ctx)
	if err != nil {
		return nil, err
	}
	resume, err := c.fetchAndCache(ctx, token)
	if err != nil {
		return nil, err
	}
	return &ResumeData{ResumeData: resume}, nil
}

func (c *Coordinator) getResumeData(ctx context.Context, _ json.RawMessage) (any, error) {
	token, err := c.sessions.Token(ctx)
	if err != nil {
		return nil, err
	}
	entry, valid, err := c.sessions.CachedResume(ctx)
	if err != nil {
		return nil, err
	}
	if valid {
		return &ResumeData{ResumeData: entry.Data, FromCache: true}, nil
	}
	resume, err := c.fetchAndCache(ctx, token)
	if err != nil {
		return nil, err
	}
	return &ResumeData{ResumeData: resume}, nil
}

func (c *Coordinator) fetchAndCache(ctx context.Context, token string) (json.RawMessage, error) {
	resume, err := c.service.LoadUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(resume) == 0 {
		return nil, &types.DataAbsentError{Message: "No resume data"}
	}
	c.checkResume(resume)
	if err := c.sessions.StoreResume(ctx, resume); err != nil {
		return nil, err
	}
	return resume, nil
}

func (c *Coordinator) checkResume(resume []byte) {
	if c.validate == nil {
		return
	}
	if err := c.validate(resume); err != nil {
		c.logger.Warn("resume payload does not match schema", "error", err)
	}
}

func (c *Coordinator) getResumePDF(ctx context.Context, _ json.RawMessage) (any, error) {
	token, err := c.sessions.Token(ctx)
	if err != nil {
		return nil, err
	}
	pdf, err := c.service.ResumePDF(ctx, token)
	if err != nil {
		return nil, err
	}
	return &PDFData{Filename: pdf.Filename, MIMEType: types.PDFMimeType, Data: pdf.Data}, nil
}

func (c *Coordinator) apiRequest(ctx context.Context, payload json.RawMessage) (any, error) {
	var p APIRequestPayload
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	if p.Method == "" {
		p.Method = http.MethodGet
	}
	token, err := c.sessions.PeekToken(ctx)
	if err != nil {
		return nil, err
	}
	return c.service.Request(ctx, p.Method, p.Endpoint, token, p.Body)
}

func (c *Coordinator) getPreferences(ctx context.Context, _ json.RawMessage) (any, error) {
	return c.sessions.Preferences(ctx)
}

func (c *Coordinator) setPreference(ctx context.Context, payload json.RawMessage) (any, error) {
	var p SetPreferencePayload
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	return c.sessions.SetPreference(ctx, p.Key, p.Value)
}
