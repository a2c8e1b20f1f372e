package errors

import "strings"

// Code is a machine-readable error code of the form CATEGORY_NNN. Codes are
// part of the public API: once assigned they are never renumbered.
type Code string

const (
	categoryValidation     = "VAL"
	categoryAuthentication = "AUTH"
	categoryAuthorization  = "AUTHZ"
	categoryNotFound       = "NF"
	categoryConflict       = "CONF"
	categoryInternal       = "INT"
	categoryUnavailable    = "UNAVAIL"
	categoryTimeout        = "TIMEOUT"
)

// Validation (400).
const (
	CodeValidation         Code = "VAL_001"
	CodeValidationRequired Code = "VAL_002"
	CodeValidationFormat   Code = "VAL_003"
	CodeValidationRange    Code = "VAL_004"
)

// Authentication (401). Every token and credential failure lives in this
// category so callers can treat the whole family as "not authenticated".
const (
	// CodeAuthentication is a general authentication failure, e.g. a
	// protected route reached without an identity.
	CodeAuthentication Code = "AUTH_001"

	// CodeAuthenticationExpired means the token decoded but its expiry has
	// passed.
	CodeAuthenticationExpired Code = "AUTH_002"

	// CodeAuthenticationInvalid means the value is not a token issued by
	// this service: bad structure, bad signature, foreign issuer or a
	// disallowed algorithm.
	CodeAuthenticationInvalid Code = "AUTH_003"

	// CodeAuthenticationWrongKind means an access token was presented where
	// a refresh token is required or the reverse.
	CodeAuthenticationWrongKind Code = "AUTH_004"

	// CodeAuthenticationSubject means the subject claim is not a positive
	// decimal identity id.
	CodeAuthenticationSubject Code = "AUTH_005"

	// CodeAuthenticationUnknownIdentity means the subject is well formed
	// but no user record backs it.
	CodeAuthenticationUnknownIdentity Code = "AUTH_006"

	// CodeAuthenticationCredentials is the single undifferentiated login
	// failure.
	CodeAuthenticationCredentials Code = "AUTH_007"
)

// Authorization (403).
const (
	CodeAuthorization       Code = "AUTHZ_001"
	CodeAuthorizationDenied Code = "AUTHZ_002"
)

// Not found (404).
const (
	CodeNotFound     Code = "NF_001"
	CodeNotFoundUser Code = "NF_002"
)

// Conflict (409).
const (
	CodeConflict              Code = "CONF_001"
	CodeConflictAlreadyExists Code = "CONF_002"
)

// Internal (500).
const (
	CodeInternal              Code = "INT_001"
	CodeInternalDatabase      Code = "INT_002"
	CodeInternalConfiguration Code = "INT_003"
)

// Unavailable (503) and timeout (504).
const (
	CodeUnavailable           Code = "UNAVAIL_001"
	CodeUnavailableDependency Code = "UNAVAIL_002"
	CodeTimeout               Code = "TIMEOUT_001"
	CodeTimeoutDatabase       Code = "TIMEOUT_002"
)

// String returns the code itself.
func (c Code) String() string {
	return string(c)
}

// Category returns the prefix before the first underscore ("AUTH" for
// "AUTH_004"). A code without an underscore is its own category.
func (c Code) Category() string {
	s := string(c)
	if i := strings.IndexByte(s, '_'); i >= 0 {
		return s[:i]
	}
	return s
}
