package auth

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

func TestParseRole(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"USER", RoleUser, true},
		{"user", RoleUser, true},
		{" Admin ", RoleAdmin, true},
		{"ROLE_USER", "", false},
		{"", "", false},
		{"superuser", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if !tt.ok {
				requireCode(t, err, sserr.CodeValidationFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentity_Authorities(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"ROLE_USER"}, testUser.Identity().Authorities())
	assert.Equal(t, []string{"ROLE_ADMIN"}, Identity{Role: RoleAdmin}.Authorities())
	assert.Equal(t, "42", testUser.Identity().Subject())
}

func TestIdentity_HasPermission(t *testing.T) {
	t.Parallel()
	user := Identity{ID: 1, Role: RoleUser}
	admin := Identity{ID: 2, Role: RoleAdmin}

	assert.True(t, user.HasPermission("profile", "read"))
	assert.True(t, user.HasPermission("messages", "write"))
	assert.False(t, user.HasPermission("profile", "delete"))
	assert.False(t, user.HasPermission("users", "read"))
	assert.True(t, admin.HasPermission("users", "delete"))
	assert.False(t, Identity{Role: "GUEST"}.HasPermission("profile", "read"))
}

func TestRolePermissions_ReturnsCopy(t *testing.T) {
	t.Parallel()
	perms := RolePermissions(RoleUser)
	require.NotEmpty(t, perms)
	perms[0] = Permission{Resource: "*", Action: "*"}

	assert.False(t, Identity{Role: RoleUser}.HasPermission("users", "delete"))
	assert.Empty(t, RolePermissions("GUEST"))
}

func TestSecret_Redacted(t *testing.T) {
	t.Parallel()
	s := Secret(testSigningKey)

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", s))
	assert.Equal(t, testSigningKey, s.Value())

	cfg := newTestConfig(newTestClock())
	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(out), testSigningKey)
}

func TestExtractBearerToken(t *testing.T) {
	t.Parallel()
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"BEARER   abc  ", "abc"},
		{"  Bearer abc", "abc"},
		{"Bearer", ""},
		{"Bearer ", ""},
		{"Basic dXNlcjpwdw==", ""},
		{"abc.def.ghi", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractBearerToken(tt.header))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
		code   sserr.Code
	}{
		{"valid", func(*Config) {}, ""},
		{"short key", func(c *Config) { c.SigningKey = "short" }, sserr.CodeValidation},
		{"blank issuer", func(c *Config) { c.Issuer = " " }, sserr.CodeValidationRequired},
		{"zero access ttl", func(c *Config) { c.AccessTTL = 0 }, sserr.CodeValidationRange},
		{"negative refresh ttl", func(c *Config) { c.RefreshTTL = -time.Second }, sserr.CodeValidationRange},
		{"negative skew", func(c *Config) { c.ClockSkew = -time.Second }, sserr.CodeValidationRange},
		{"relative exempt path", func(c *Config) { c.ExemptPaths = []string{"api/x"} }, sserr.CodeValidationFormat},
		{"blank default name", func(c *Config) { c.DefaultDisplayName = "" }, sserr.CodeValidationRequired},
		{"unknown default role", func(c *Config) { c.DefaultRole = "GUEST" }, sserr.CodeValidationFormat},
		{"bcrypt cost too high", func(c *Config) { c.BcryptCost = 99 }, sserr.CodeValidationRange},
		{"bcrypt cost zero", func(c *Config) { c.BcryptCost = 0 }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(newTestClock())
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			requireCode(t, err, tt.code)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	assert.Equal(t, []string{DefaultRefreshPath}, cfg.ExemptPaths)
	assert.False(t, cfg.Strict)
	assert.Error(t, cfg.Validate(), "signing key has no default")
}

func TestBcryptHasher(t *testing.T) {
	t.Parallel()
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("s3cret")
	require.NoError(t, err)
	assert.True(t, h.Verify(hash, "s3cret"))
	assert.False(t, h.Verify(hash, "S3cret"))
	assert.False(t, h.Verify("not-a-hash", "s3cret"))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	t.Parallel()
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.MinCost, NewBcryptHasher(1).cost)
	assert.Equal(t, bcrypt.MaxCost, NewBcryptHasher(100).cost)
}
