package errors

import "errors"

// AsError finds the outermost *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetCode returns the code of the outermost *Error in err's chain, or ""
// when there is none.
func GetCode(err error) Code {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// HasCode reports whether err's outermost code equals code.
func HasCode(err error, code Code) bool {
	return GetCode(err) == code
}

func hasCategory(err error, category string) bool {
	e, ok := AsError(err)
	return ok && e.Code.Category() == category
}

// IsValidation reports a VAL_xxx error.
func IsValidation(err error) bool { return hasCategory(err, categoryValidation) }

// IsAuthentication reports an AUTH_xxx error.
func IsAuthentication(err error) bool { return hasCategory(err, categoryAuthentication) }

// IsAuthorization reports an AUTHZ_xxx error.
func IsAuthorization(err error) bool { return hasCategory(err, categoryAuthorization) }

// IsNotFound reports an NF_xxx error.
func IsNotFound(err error) bool { return hasCategory(err, categoryNotFound) }

// IsConflict reports a CONF_xxx error.
func IsConflict(err error) bool { return hasCategory(err, categoryConflict) }

// IsTimeout reports a TIMEOUT_xxx error.
func IsTimeout(err error) bool { return hasCategory(err, categoryTimeout) }

// IsServerError reports whether err maps to a 5xx status. Plain errors
// without a code count as server errors.
func IsServerError(err error) bool {
	if err == nil {
		return false
	}
	e, ok := AsError(err)
	if !ok {
		return true
	}
	switch e.Code.Category() {
	case categoryInternal, categoryUnavailable, categoryTimeout:
		return true
	default:
		return e.HTTPStatus() >= 500
	}
}
