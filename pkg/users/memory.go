// Package users holds the [auth.UserStore] implementations: an in-memory
// store for development and tests, and a PostgreSQL store for production.
package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/StricklySoft/stricklysoft-auth/pkg/auth"
	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

// MemoryStore keeps users in process memory. Data is lost on restart.
// It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]auth.User
	byEmail map[string]int64
	now     func() time.Time
}

var _ auth.UserStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store. Ids start at 1.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		byID:    make(map[int64]auth.User),
		byEmail: make(map[string]int64),
		now:     time.Now,
	}
}

// FindByID returns the user with id.
func (s *MemoryStore) FindByID(_ context.Context, id int64) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return auth.User{}, sserr.Newf(sserr.CodeNotFoundUser, "users: no user with id %d", id)
	}
	return u, nil
}

// FindByEmail returns the user registered with email, ignoring case.
func (s *MemoryStore) FindByEmail(_ context.Context, email string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return auth.User{}, sserr.New(sserr.CodeNotFoundUser, "users: no user with that email")
	}
	return s.byID[id], nil
}

// Create stores user under a new id. The email must not be registered yet.
func (s *MemoryStore) Create(_ context.Context, user auth.User) (auth.User, error) {
	key := emailKey(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[key]; exists {
		return auth.User{}, sserr.New(sserr.CodeConflictAlreadyExists, "users: email already registered")
	}
	now := s.now().UTC()
	user.ID = s.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.nextID++

	s.byID[user.ID] = user
	s.byEmail[key] = user.ID
	return user, nil
}

// Len returns the number of stored users.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Health always succeeds.
func (s *MemoryStore) Health(context.Context) error { return nil }

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
