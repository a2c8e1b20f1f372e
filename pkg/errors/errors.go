// Package errors defines the structured error type shared by every package
// in the authentication service. Each error carries a stable machine-readable
// [Code], a message that is safe to show to API clients, and an optional
// cause that is kept for logs only.
//
// Codes are grouped by category and the category decides the HTTP status
// returned to clients:
//
//	VAL     400 Bad Request
//	AUTH    401 Unauthorized
//	AUTHZ   403 Forbidden
//	NF      404 Not Found
//	CONF    409 Conflict
//	INT     500 Internal Server Error
//	UNAVAIL 503 Service Unavailable
//	TIMEOUT 504 Gateway Timeout
//
// The package is usually imported as sserr to avoid shadowing the standard
// library:
//
//	import sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
//
//	if sserr.IsAuthentication(err) {
//	    // token or credential problem, never a server fault
//	}
package errors

import (
	"fmt"
	"net/http"
)

// Error is a coded error. Message must never contain secrets, token
// material or password hashes because it is written to HTTP responses.
type Error struct {
	// Code is the stable error code, e.g. "AUTH_002".
	Code Code

	// Message is the client-safe description.
	Message string

	// Cause is the underlying error. It is logged but never returned to
	// clients.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the code category to a response status. Unknown
// categories are treated as internal errors.
func (e *Error) HTTPStatus() int {
	switch e.Code.Category() {
	case categoryValidation:
		return http.StatusBadRequest
	case categoryAuthentication:
		return http.StatusUnauthorized
	case categoryAuthorization:
		return http.StatusForbidden
	case categoryNotFound:
		return http.StatusNotFound
	case categoryConflict:
		return http.StatusConflict
	case categoryUnavailable:
		return http.StatusServiceUnavailable
	case categoryTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
