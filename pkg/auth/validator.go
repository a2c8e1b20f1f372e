package auth

import (
	"strconv"
	"time"

	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

// Validator decides whether decoded claims may be used. It never looks at
// signatures; claims reaching it have already passed [Codec.Decode].
type Validator struct {
	skew time.Duration
	now  func() time.Time
}

// NewValidator returns a Validator using cfg.ClockSkew and cfg.Clock.
func NewValidator(cfg Config) *Validator {
	skew := cfg.ClockSkew
	if skew < 0 {
		skew = 0
	}
	return &Validator{skew: skew, now: cfg.clock()}
}

// ValidateKind reports whether claims are of the expected kind and not yet
// expired.
func (v *Validator) ValidateKind(claims *Claims, kind TokenKind) bool {
	return v.Check(claims, kind) == nil
}

// Check is [Validator.ValidateKind] with the reason for rejection. Kind is
// checked before expiry: an expired access token presented for refresh
// reports [sserr.CodeAuthenticationWrongKind].
func (v *Validator) Check(claims *Claims, kind TokenKind) error {
	if claims == nil {
		return sserr.New(sserr.CodeAuthenticationInvalid, "auth: token has no claims")
	}
	if claims.Kind != kind {
		return sserr.Newf(sserr.CodeAuthenticationWrongKind,
			"auth: %s token presented where %s token is required", claims.Kind, kind)
	}
	if claims.ExpiresAt == nil || !v.now().Before(claims.ExpiresAt.Add(v.skew)) {
		return sserr.New(sserr.CodeAuthenticationExpired, "auth: token has expired")
	}
	return nil
}

// ExtractSubjectID parses the subject as a positive identity id. Only the
// canonical base-10 form is accepted, so "+7" and "007" are rejected.
func (v *Validator) ExtractSubjectID(claims *Claims) (int64, error) {
	if claims == nil {
		return 0, sserr.New(sserr.CodeAuthenticationSubject, "auth: token has no subject")
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 || strconv.FormatInt(id, 10) != claims.Subject {
		return 0, sserr.New(sserr.CodeAuthenticationSubject, "auth: token subject is not a valid identity id")
	}
	return id, nil
}
