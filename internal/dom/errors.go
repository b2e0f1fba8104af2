package dom

import "fmt"

// ParseError represents a failure to parse a page snapshot.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("dom parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("dom parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
