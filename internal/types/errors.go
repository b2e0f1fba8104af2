package types

import (
	"errors"
	"fmt"
)

// Error kinds reported in command results.
const (
	KindAuth       = "auth"
	KindNetwork    = "network"
	KindDataAbsent = "data_absent"
	KindDOMMatch   = "dom_match"
	KindLifecycle  = "lifecycle"
	KindValidation = "validation"
	KindInternal   = "internal"
)

// AuthenticationError is returned when the auth token is missing or expired.
type AuthenticationError struct {
	Message string
	Cause   error
}

func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("authentication error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("authentication error: %s", e.Message)
}

func (e *AuthenticationError) Unwrap() error { return e.Cause }

// Kind returns the result kind for this error.
func (e *AuthenticationError) Kind() string { return KindAuth }

// NetworkError represents a failed request or a non-2xx response.
// ServerMessage holds the error text supplied by the server, when present.
type NetworkError struct {
	Endpoint      string
	StatusCode    int
	ServerMessage string
	Message       string
	Cause         error
}

func (e *NetworkError) Error() string {
	msg := e.Message
	if e.ServerMessage != "" {
		msg = e.ServerMessage
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("network error for %s: %s: %v", e.Endpoint, msg, e.Cause)
	}
	return fmt.Sprintf("network error for %s: %s", e.Endpoint, msg)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// Kind returns the result kind for this error.
func (e *NetworkError) Kind() string { return KindNetwork }

// UserMessage prefers the server-supplied message.
func (e *NetworkError) UserMessage() string {
	if e.ServerMessage != "" {
		return e.ServerMessage
	}
	return e.Message
}

// DataAbsentError is returned when no resume data or resume file exists.
type DataAbsentError struct {
	Message string
}

func (e *DataAbsentError) Error() string {
	return fmt.Sprintf("data absent: %s", e.Message)
}

// Kind returns the result kind for this error.
func (e *DataAbsentError) Kind() string { return KindDataAbsent }

// DOMMatchError reports that no form or input matched. It is not fatal.
type DOMMatchError struct {
	Message  string
	Selector string
}

func (e *DOMMatchError) Error() string {
	if e.Selector != "" {
		return fmt.Sprintf("no match for %s: %s", e.Selector, e.Message)
	}
	return fmt.Sprintf("no match: %s", e.Message)
}

// Kind returns the result kind for this error.
func (e *DOMMatchError) Kind() string { return KindDOMMatch }

// ExtensionLifecycleError reports that the coordinator went away mid-operation.
// Callers surface it as "refresh the page".
type ExtensionLifecycleError struct {
	Message string
	Cause   error
}

func (e *ExtensionLifecycleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extension context invalidated: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("extension context invalidated: %s", e.Message)
}

func (e *ExtensionLifecycleError) Unwrap() error { return e.Cause }

// Kind returns the result kind for this error.
func (e *ExtensionLifecycleError) Kind() string { return KindLifecycle }

// ValidationError represents invalid caller input.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// Kind returns the result kind for this error.
func (e *ValidationError) Kind() string { return KindValidation }

// ErrorKind classifies any error, wrapped or not, into a result kind.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var kinded interface{ Kind() string }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	return KindInternal
}
