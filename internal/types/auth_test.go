//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		request LoginRequest
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid request",
			request: LoginRequest{Email: "john@example.com", Password: "secret"},
		},
		{
			name:    "missing email",
			request: LoginRequest{Password: "secret"},
			wantErr: true,
			errMsg:  "required",
		},
		{
			name:    "invalid email format",
			request: LoginRequest{Email: "not-an-email", Password: "secret"},
			wantErr: true,
			errMsg:  "email",
		},
		{
			name:    "missing password",
			request: LoginRequest{Email: "john@example.com"},
			wantErr: true,
			errMsg:  "required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTokenLoginRequest_Validation(t *testing.T) {
	assert.NoError(t, (&TokenLoginRequest{Token: "eyJhbGciOiJIUzI1NiJ9.abc"}).Validate())
	assert.Error(t, (&TokenLoginRequest{}).Validate())
	assert.Error(t, (&TokenLoginRequest{Token: "short"}).Validate())
}

func TestGoogleLoginRequest_Validation(t *testing.T) {
	assert.NoError(t, (&GoogleLoginRequest{AccessToken: "ya29.token"}).Validate())
	assert.Error(t, (&GoogleLoginRequest{}).Validate())
}

func TestSession_Serialization(t *testing.T) {
	login := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := Session{Token: "tok", User: User{Email: "a@b.com"}, LoginTime: login}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"authToken":"tok"`)

	var decoded Session
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s.Token, decoded.Token)
	assert.Equal(t, s.User, decoded.User)
	assert.True(t, login.Equal(decoded.LoginTime))
}

func TestLoginResponse_WithoutUser(t *testing.T) {
	var resp LoginResponse
	require.NoError(t, json.Unmarshal([]byte(`{"token":"abc"}`), &resp))
	assert.Equal(t, "abc", resp.Token)
	assert.Nil(t, resp.User)
}
