// Package fixtures provides shared test accounts and configuration.
package fixtures

import (
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/StricklySoft/stricklysoft-auth/pkg/auth"
)

// Standard account values.
const (
	UserName     = "Ada Lovelace"
	UserEmail    = "ada@example.com"
	UserPassword = "correct horse battery staple"

	AdminName     = "Grace Hopper"
	AdminEmail    = "grace@example.com"
	AdminPassword = "nanoseconds"
)

// SigningKey is a 32-byte token key for tests only.
const SigningKey = "fixture-signing-key-of-32-bytes!"

// AuthConfig returns a valid auth configuration with the cheapest bcrypt
// cost.
func AuthConfig() auth.Config {
	cfg := auth.DefaultConfig()
	cfg.SigningKey = auth.Secret(SigningKey)
	cfg.BcryptCost = bcrypt.MinCost
	return cfg
}

var (
	hashOnce  sync.Once
	userHash  string
	adminHash string
)

func hashes() (string, string) {
	hashOnce.Do(func() {
		h := auth.NewBcryptHasher(bcrypt.MinCost)
		var err error
		if userHash, err = h.Hash(UserPassword); err != nil {
			panic(err)
		}
		if adminHash, err = h.Hash(AdminPassword); err != nil {
			panic(err)
		}
	})
	return userHash, adminHash
}

// User returns an unsaved USER account whose password is [UserPassword].
func User() auth.User {
	hash, _ := hashes()
	return auth.User{Name: UserName, Email: UserEmail, PasswordHash: hash, Role: auth.RoleUser}
}

// Admin returns an unsaved ADMIN account whose password is
// [AdminPassword].
func Admin() auth.User {
	_, hash := hashes()
	return auth.User{Name: AdminName, Email: AdminEmail, PasswordHash: hash, Role: auth.RoleAdmin}
}
