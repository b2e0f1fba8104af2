package server

import (
	"net/http"

	"github.com/jonathan/resume-autofill/internal/coordinator"
	"github.com/jonathan/resume-autofill/internal/types"
)

// HTTPStatus returns the HTTP status code for a command result.
func HTTPStatus(res coordinator.Result) int {
	if res.Success {
		return http.StatusOK
	}
	switch res.ErrorKind {
	case types.KindValidation:
		return http.StatusBadRequest
	case types.KindAuth:
		return http.StatusUnauthorized
	case types.KindDataAbsent:
		return http.StatusNotFound
	case types.KindDOMMatch:
		return http.StatusUnprocessableEntity
	case types.KindNetwork:
		return http.StatusBadGateway
	case types.KindLifecycle:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// badRequest builds the failed result for a request that never reached the
// coordinator.
func badRequest(id, field, message string, cause error) coordinator.Result {
	err := &types.ValidationError{Field: field, Message: message, Cause: cause}
	return coordinator.Result{
		ID:        id,
		Success:   false,
		Error:     err.Error(),
		ErrorKind: types.KindValidation,
	}
}
