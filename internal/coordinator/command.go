package coordinator

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/jonathan/resume-autofill/internal/types"
)

// CommandType names a coordinator command.
type CommandType string

// Commands understood by the coordinator.
const (
	CheckAuth      CommandType = "CHECK_AUTH"
	Login          CommandType = "LOGIN"
	GoogleLogin    CommandType = "GOOGLE_LOGIN"
	TokenLogin     CommandType = "TOKEN_LOGIN"
	Logout         CommandType = "LOGOUT"
	RefreshCache   CommandType = "REFRESH_CACHE"
	GetResumeData  CommandType = "GET_RESUME_DATA"
	GetResumePDF   CommandType = "GET_RESUME_PDF"
	APIRequest     CommandType = "API_REQUEST"
	GetPreferences CommandType = "GET_PREFERENCES"
	SetPreference  CommandType = "SET_PREFERENCE"
)

// Command is one request to the coordinator.
type Command struct {
	ID      string          `json:"id,omitempty"`
	Type    CommandType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewCommand builds a command with a fresh ID. payload may be nil.
func NewCommand(t CommandType, payload any) (Command, error) {
	cmd := Command{ID: uuid.NewString(), Type: t}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return cmd, &types.ValidationError{Field: "payload", Message: "cannot encode", Cause: err}
		}
		cmd.Payload = data
	}
	return cmd, nil
}

// Result is the answer to a Command. Error carries a user-facing message
// and ErrorKind the taxonomy kind.
type Result struct {
	ID        string          `json:"id"`
	Success   bool            `json:"success"`
	Error     string          `json:"error,omitempty"`
	ErrorKind string          `json:"errorKind,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Err rebuilds an error from a failed result, or nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &ResultError{ErrKind: r.ErrorKind, Message: r.Error}
}

// Decode unmarshals the result data into v.
func (r Result) Decode(v any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if len(r.Data) == 0 {
		return &types.DataAbsentError{Message: "empty result"}
	}
	return json.Unmarshal(r.Data, v)
}

// ResultError is a failure reported through a Result.
type ResultError struct {
	ErrKind string
	Message string
}

func (e *ResultError) Error() string {
	return e.Message
}

// Kind returns the taxonomy kind reported by the coordinator.
func (e *ResultError) Kind() string {
	if e.ErrKind == "" {
		return types.KindInternal
	}
	return e.ErrKind
}

// failure converts err into a failed Result.
func failure(id string, err error) Result {
	return Result{ID: id, Success: false, Error: userMessage(err), ErrorKind: types.ErrorKind(err)}
}

func userMessage(err error) string {
	var (
		netErr   *types.NetworkError
		authErr  *types.AuthenticationError
		dataErr  *types.DataAbsentError
		lifeErr  *types.ExtensionLifecycleError
		valErr   *types.ValidationError
		otherErr *ResultError
	)
	switch {
	case errors.As(err, &netErr):
		return netErr.UserMessage()
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &dataErr):
		return dataErr.Message
	case errors.As(err, &lifeErr):
		return lifeErr.Message
	case errors.As(err, &valErr):
		return valErr.Error()
	case errors.As(err, &otherErr):
		return otherErr.Message
	default:
		return err.Error()
	}
}

// Payloads.

// GoogleLoginPayload carries either the access token or the full redirect
// URL Google sent the browser to.
type GoogleLoginPayload struct {
	AccessToken string `json:"accessToken,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
}

// APIRequestPayload is a proxied service call.
type APIRequestPayload struct {
	Endpoint string          `json:"endpoint"`
	Method   string          `json:"method,omitempty"`
	Body     json.RawMessage `json:"body,omitempty"`
}

// SetPreferencePayload updates one preference.
type SetPreferencePayload struct {
	Key   string `json:"key"`
	Value bool   `json:"value"`
}

// Result data.

// LoginData answers the login commands.
type LoginData struct {
	User   types.User `json:"user"`
	Cached bool       `json:"cached"`
}

// ResumeData answers GET_RESUME_DATA and REFRESH_CACHE.
type ResumeData struct {
	ResumeData json.RawMessage `json:"resumeData"`
	FromCache  bool            `json:"fromCache"`
}

// PDFData answers GET_RESUME_PDF. Data is base64 in JSON.
type PDFData struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}
