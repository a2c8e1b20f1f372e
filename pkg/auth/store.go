package auth

import (
	"context"
	"time"
)

// User is a persisted account. PasswordHash is opaque to this package; only
// the configured [PasswordHasher] interprets it.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity returns the credential-free view of u.
func (u User) Identity() Identity {
	return Identity{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.Name,
		Role:        u.Role,
	}
}

// UserStore is the user persistence the service depends on.
//
// FindByID and FindByEmail return an error with code
// [sserr.CodeNotFoundUser] when no record matches. Create assigns the id
// and timestamps and returns an error with a CONF_xxx code when the email
// is already registered. Any other error is treated as a store fault.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, user User) (User, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}
