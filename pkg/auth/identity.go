// Package auth issues and verifies the bearer tokens of the authentication
// service and turns an incoming request into an authenticated [Identity].
//
// The moving parts, leaf first:
//
//   - [Codec] signs access and refresh tokens and decodes them back into
//     [Claims]. Decoding checks structure, signature and issuer only.
//   - [Validator] decides whether decoded claims are usable for a given
//     [TokenKind] and extracts the numeric subject.
//   - [Resolver] loads the [Identity] behind a subject from a [UserStore].
//   - [Gate] is the per-request interception point. It publishes the
//     identity into the request context or leaves the request anonymous.
//   - [Service] runs the login, refresh and register flows.
//
// No session state is kept on the server. A token stays valid until it
// expires; there is no revocation list.
package auth

import (
	"strconv"
	"strings"

	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

// Role is the coarse authorization level of an identity.
type Role string

const (
	// RoleUser is the role given to self-registered accounts.
	RoleUser Role = "USER"

	// RoleAdmin grants every permission.
	RoleAdmin Role = "ADMIN"
)

// authorityPrefix is prepended to a role name to form its authority string.
const authorityPrefix = "ROLE_"

// ParseRole parses a role name case-insensitively. Surrounding whitespace
// is ignored.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", sserr.Newf(sserr.CodeValidationFormat, "role %q is not recognized", s)
	}
	return r, nil
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Authority returns the "ROLE_<NAME>" form used in identity summaries.
func (r Role) Authority() string {
	return authorityPrefix + string(r)
}

// Permission grants one action on one resource. Either field may be the
// wildcard "*".
type Permission struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// wildcard matches any resource or action.
const wildcard = "*"

// Allows reports whether p covers the given resource and action.
func (p Permission) Allows(resource, action string) bool {
	return (p.Resource == wildcard || p.Resource == resource) &&
		(p.Action == wildcard || p.Action == action)
}

// String returns "resource:action".
func (p Permission) String() string {
	return p.Resource + ":" + p.Action
}

var rolePermissions = map[Role][]Permission{
	RoleUser: {
		{Resource: "profile", Action: "read"},
		{Resource: "messages", Action: "read"},
		{Resource: "messages", Action: "write"},
	},
	RoleAdmin: {
		{Resource: wildcard, Action: wildcard},
	},
}

// RolePermissions returns the permissions granted by role. Unknown roles
// grant nothing. The returned slice is a copy.
func RolePermissions(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// Identity is the authenticated principal of a request. It is built from
// a [User] record and carries no credentials.
type Identity struct {
	ID          int64
	Email       string
	DisplayName string
	Role        Role
}

// Subject returns the token subject for the identity: its id in base 10.
func (i Identity) Subject() string {
	return strconv.FormatInt(i.ID, 10)
}

// Authorities returns the authority strings of the identity.
func (i Identity) Authorities() []string {
	return []string{i.Role.Authority()}
}

// Permissions returns the permissions implied by the identity's role.
func (i Identity) Permissions() []Permission {
	return RolePermissions(i.Role)
}

// HasPermission reports whether the identity's role allows action on
// resource.
func (i Identity) HasPermission(resource, action string) bool {
	for _, p := range rolePermissions[i.Role] {
		if p.Allows(resource, action) {
			return true
		}
	}
	return false
}
