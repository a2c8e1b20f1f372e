package auth

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

// MinSigningKeyLength is the shortest accepted HS256 signing key in bytes.
const MinSigningKeyLength = 32

// Defaults applied by [DefaultConfig] and by the config loader's
// envDefault tags.
const (
	DefaultIssuer           = "stricklysoft-auth"
	DefaultAccessTTL        = 15 * time.Minute
	DefaultRefreshTTL       = 7 * 24 * time.Hour
	DefaultRefreshPath      = "/api/auth/refresh-token"
	DefaultDisplayName      = "USER"
	DefaultRegistrationRole = RoleUser
	DefaultBcryptCost       = bcrypt.DefaultCost
)

// Config configures token issuance, the gate and the account flows. Load it
// with the config package (env prefix applied by the caller) or start from
// [DefaultConfig].
type Config struct {
	// SigningKey is the HS256 key. At least [MinSigningKeyLength] bytes.
	SigningKey Secret `yaml:"signing_key" json:"-" env:"JWT_SECRET" required:"true"`

	// Issuer is written to and required in the "iss" claim.
	Issuer string `yaml:"issuer" json:"issuer" env:"JWT_ISSUER" envDefault:"stricklysoft-auth"`

	AccessTTL  time.Duration `yaml:"access_ttl" json:"access_ttl" env:"JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" json:"refresh_ttl" env:"JWT_REFRESH_TTL" envDefault:"168h"`

	// ClockSkew is added to a token's expiry before comparing it with the
	// current time. Zero means no tolerance.
	ClockSkew time.Duration `yaml:"clock_skew" json:"clock_skew" env:"JWT_CLOCK_SKEW"`

	// ExemptPaths are request paths (or gRPC full method names) the gate
	// does not inspect at all.
	ExemptPaths []string `yaml:"exempt_paths" json:"exempt_paths" env:"GATE_EXEMPT_PATHS" envDefault:"/api/auth/refresh-token"`

	// Strict makes the gate reject a request whose presented token is
	// unusable instead of continuing anonymously.
	Strict bool `yaml:"strict" json:"strict" env:"GATE_STRICT"`

	// DefaultDisplayName and DefaultRole are stored when a registration
	// leaves name or role blank.
	DefaultDisplayName string `yaml:"default_display_name" json:"default_display_name" env:"REGISTER_DEFAULT_NAME" envDefault:"USER"`
	DefaultRole        Role   `yaml:"default_role" json:"default_role" env:"REGISTER_DEFAULT_ROLE" envDefault:"USER"`

	// AllowRoleSelection lets registrations ask for a role other than
	// DefaultRole.
	AllowRoleSelection bool `yaml:"allow_role_selection" json:"allow_role_selection" env:"REGISTER_ALLOW_ROLE_SELECTION"`

	BcryptCost int `yaml:"bcrypt_cost" json:"bcrypt_cost" env:"BCRYPT_COST" envDefault:"10"`

	// Clock overrides time.Now for token issuance and validation.
	Clock func() time.Time `yaml:"-" json:"-"`
}

// DefaultConfig returns a Config with every default filled in except the
// signing key.
func DefaultConfig() Config {
	return Config{
		Issuer:             DefaultIssuer,
		AccessTTL:          DefaultAccessTTL,
		RefreshTTL:         DefaultRefreshTTL,
		ExemptPaths:        []string{DefaultRefreshPath},
		DefaultDisplayName: DefaultDisplayName,
		DefaultRole:        DefaultRegistrationRole,
		BcryptCost:         DefaultBcryptCost,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if len(c.SigningKey.Value()) < MinSigningKeyLength {
		return sserr.Newf(sserr.CodeValidation,
			"auth: signing key must be at least %d bytes", MinSigningKeyLength)
	}
	if strings.TrimSpace(c.Issuer) == "" {
		return sserr.New(sserr.CodeValidationRequired, "auth: issuer must not be empty")
	}
	if c.AccessTTL <= 0 {
		return sserr.New(sserr.CodeValidationRange, "auth: access TTL must be positive")
	}
	if c.RefreshTTL <= 0 {
		return sserr.New(sserr.CodeValidationRange, "auth: refresh TTL must be positive")
	}
	if c.ClockSkew < 0 {
		return sserr.New(sserr.CodeValidationRange, "auth: clock skew must be non-negative")
	}
	for _, p := range c.ExemptPaths {
		if !strings.HasPrefix(p, "/") {
			return sserr.Newf(sserr.CodeValidationFormat, "auth: exempt path %q must start with /", p)
		}
	}
	if strings.TrimSpace(c.DefaultDisplayName) == "" {
		return sserr.New(sserr.CodeValidationRequired, "auth: default display name must not be empty")
	}
	if !c.DefaultRole.Valid() {
		return sserr.Newf(sserr.CodeValidationFormat, "auth: default role %q is not recognized", c.DefaultRole)
	}
	if c.BcryptCost != 0 && (c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost) {
		return sserr.Newf(sserr.CodeValidationRange,
			"auth: bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// clock returns the configured clock or time.Now.
func (c *Config) clock() func() time.Time {
	if c.Clock != nil {
		return c.Clock
	}
	return time.Now
}
