package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// LoginRequest represents an email/password login against the resume service.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenLoginRequest logs in with an auth token copied from the web app.
type TokenLoginRequest struct {
	Token string `json:"token" validate:"required,min=10"`
}

// GoogleLoginRequest exchanges a Google access token for a service token.
type GoogleLoginRequest struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

// User is the account summary kept alongside the auth token.
type User struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// LoginResponse is the envelope returned by the login endpoints.
type LoginResponse struct {
	User  *User  `json:"user,omitempty"`
	Token string `json:"token"`
}

// Session is the ephemeral auth state: token, user and login time.
type Session struct {
	Token     string    `json:"authToken"`
	User      User      `json:"user"`
	LoginTime time.Time `json:"loginTime"`
}

// AuthStatus is the answer to a check-auth query.
type AuthStatus struct {
	Authenticated bool   `json:"authenticated"`
	User          *User  `json:"user,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

var validate = validator.New()

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the TokenLoginRequest using the validator.
func (r *TokenLoginRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the GoogleLoginRequest using the validator.
func (r *GoogleLoginRequest) Validate() error {
	return validate.Struct(r)
}
