package errors

import (
	"errors"
	"fmt"
)

// New returns an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf is [New] with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to err. It returns nil when err is nil
// so it can wrap a call result directly.
//
//	row := db.QueryRow(ctx, sql, id)
//	if err := row.Scan(&u.ID); err != nil {
//	    return errors.Wrap(err, errors.CodeInternalDatabase, "users: lookup failed")
//	}
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// Wrapf is [Wrap] with a formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// Validation returns a CodeValidation error.
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// Required returns a CodeValidationRequired error naming the missing field.
func Required(field string) *Error {
	return Newf(CodeValidationRequired, "%s is required", field)
}

// Unauthorized returns a CodeAuthentication error.
func Unauthorized(message string) *Error {
	return New(CodeAuthentication, message)
}

// Forbidden returns a CodeAuthorization error.
func Forbidden(message string) *Error {
	return New(CodeAuthorization, message)
}

// Conflict returns a CodeConflict error.
func Conflict(message string) *Error {
	return New(CodeConflict, message)
}

// Internal returns a CodeInternal error.
func Internal(message string) *Error {
	return New(CodeInternal, message)
}

// FromError returns err as an *Error, wrapping anything else as an
// internal error with a generic message.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, CodeInternal, "an unexpected error occurred")
}
