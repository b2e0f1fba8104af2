package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/jonathan/resume-autofill/internal/types"
)

// Login exchanges email and password for a service token. The user defaults
// to the login email when the service does not return one.
func (c *Client) Login(ctx context.Context, req types.LoginRequest) (*types.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, &types.ValidationError{Message: "email and password are required", Cause: err}
	}
	body := map[string]string{"email": req.Email, "password": req.Password}
	resp, err := c.call(ctx, http.MethodPost, EndpointLogin, EndpointLogin, "", body)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, statusError(EndpointLogin, resp, "Login failed")
	}
	return decodeLogin(EndpointLogin, resp.Body(), types.User{Email: req.Email})
}

// GoogleLogin exchanges a Google access token for a service token.
func (c *Client) GoogleLogin(ctx context.Context, req types.GoogleLoginRequest) (*types.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, &types.ValidationError{Field: "accessToken", Message: "access token is required", Cause: err}
	}
	body := map[string]string{"access_token": req.AccessToken}
	resp, err := c.call(ctx, http.MethodPost, EndpointGoogleLogin, EndpointGoogleLogin, "", body)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, statusError(EndpointGoogleLogin, resp, "Google login failed")
	}
	return decodeLogin(EndpointGoogleLogin, resp.Body(), types.User{})
}

func decodeLogin(label string, body []byte, fallback types.User) (*types.LoginResponse, error) {
	token := gjson.GetBytes(body, "token").String()
	if token == "" {
		return nil, &types.NetworkError{Endpoint: label, Message: "Invalid response from server"}
	}
	out := &types.LoginResponse{Token: token}
	if u := gjson.GetBytes(body, "user"); u.IsObject() {
		var user types.User
		if err := json.Unmarshal([]byte(u.Raw), &user); err == nil {
			out.User = &user
		}
	}
	if out.User == nil {
		out.User = &fallback
	}
	return out, nil
}

// LoadUser fetches the resume data of the token's owner. The service may
// wrap it in a data envelope; the unwrapped document is returned.
func (c *Client) LoadUser(ctx context.Context, token string) (json.RawMessage, error) {
	resp, err := c.call(ctx, http.MethodGet, EndpointUserLoad, EndpointUserLoad, token, nil)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, statusError(EndpointUserLoad, resp, "Failed to fetch resume data")
	}
	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, &types.NetworkError{Endpoint: EndpointUserLoad, Message: "Invalid response from server"}
	}
	return UnwrapResume(body), nil
}

// UnwrapResume returns the "data" member when body is an envelope, else body.
func UnwrapResume(body []byte) json.RawMessage {
	if d := gjson.GetBytes(body, "data"); d.IsObject() {
		return json.RawMessage(d.Raw)
	}
	return json.RawMessage(body)
}

// UserFromResume derives the session user from a resume document.
func UserFromResume(resume []byte) types.User {
	return types.User{
		Name:  gjson.GetBytes(resume, "name").String(),
		Email: gjson.GetBytes(resume, "email").String(),
	}
}
