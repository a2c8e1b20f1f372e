package auth

import (
	"strings"
)

// Header names read by the gate and the request id middleware. gRPC
// metadata keys are lowercase, and net/http canonicalizes on lookup, so the
// lowercase form serves both transports.
const (
	HeaderAuthorization = "authorization"
	HeaderRequestID     = "x-request-id"
)

// bearerPrefix is compared case-insensitively.
const bearerPrefix = "Bearer "

// ExtractBearerToken returns the token from an Authorization header value,
// or "" when the value is empty, uses another scheme or carries no token.
func ExtractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) <= len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}
