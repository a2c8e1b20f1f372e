package auth

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// testSigningKey is a 32-byte HMAC key used across token tests.
const testSigningKey = "this-is-a-32-byte-test-signing-k"

// testEpoch is the starting time of every testClock.
var testEpoch = time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)

// testClock is a settable clock shared by codec and validator.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock { return &testClock{now: testEpoch} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestConfig returns a valid Config driven by clock.
func newTestConfig(clock *testClock) Config {
	cfg := DefaultConfig()
	cfg.SigningKey = Secret(testSigningKey)
	cfg.BcryptCost = bcrypt.MinCost
	cfg.Clock = clock.Now
	return cfg
}

// newTestCodec builds a Codec from cfg, failing the test on error.
func newTestCodec(t *testing.T, cfg Config) *Codec {
	t.Helper()
	codec, err := NewCodec(cfg)
	require.NoError(t, err)
	return codec
}

// signClaims signs arbitrary claims with key using alg, bypassing the Codec.
func signClaims(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err, "failed to sign token")
	return token
}

// newTestLogger returns a text logger writing into the returned buffer.
func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

// requireCode fails unless err carries code.
func requireCode(t *testing.T, err error, code sserr.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, sserr.GetCode(err), "unexpected error: %v", err)
}

// ---------------------------------------------------------------------------
// fakeStore
// ---------------------------------------------------------------------------

// fakeStore is an in-memory UserStore with fault injection.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	users   map[int64]User
	err     error
	panics  bool
	lookups int
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, users: make(map[int64]User)}
}

func (s *fakeStore) add(u User) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.nextID
	}
	if u.ID >= s.nextID {
		s.nextID = u.ID + 1
	}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) FindByID(_ context.Context, id int64) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.panics {
		panic("store exploded")
	}
	if s.err != nil {
		return User{}, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return User{}, sserr.Newf(sserr.CodeNotFoundUser, "user %d not found", id)
	}
	return u, nil
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return User{}, s.err
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, sserr.New(sserr.CodeNotFoundUser, "user not found")
}

func (s *fakeStore) Create(_ context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return User{}, s.err
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return User{}, sserr.New(sserr.CodeConflictAlreadyExists, "email exists")
		}
	}
	u.ID = s.nextID
	s.nextID++
	u.CreatedAt = testEpoch
	u.UpdatedAt = testEpoch
	s.users[u.ID] = u
	return u, nil
}

// testUser is the identity most tests authenticate as.
var testUser = User{
	ID:    42,
	Name:  "Ada Lovelace",
	Email: "ada@example.com",
	Role:  RoleUser,
}
