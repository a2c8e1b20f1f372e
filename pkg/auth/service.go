package auth

import (
	"context"
	"log/slog"
	"strings"

	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

// Client-facing messages for the account flows. They are stable API text.
const (
	MessageInvalidCredentials = "Invalid credentials"
	MessageRefreshRequired    = "Refresh token is required"
	MessageRefreshInvalid     = "Invalid or expired refresh token"
	MessageEmailInUse         = "Email already in use"
)

// dummyPassword is hashed once at startup. Logins for unknown emails verify
// against that hash so they cost the same as a wrong password.
const dummyPassword = "stricklysoft-auth-timing-equalizer"

// Credentials is a login attempt. It is never stored.
type Credentials struct {
	Email    string
	Password string
}

// Registration is a sign-up request. Name and Role may be blank.
type Registration struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// LoginResult is a successful login. User carries the account timestamps;
// its PasswordHash is always empty.
type LoginResult struct {
	Tokens   TokenPair
	Identity Identity
	User     User
}

// Service runs the login, refresh and register flows and owns the
// components shared with the gate.
type Service struct {
	codec     *Codec
	validator *Validator
	resolver  *Resolver
	gate      *Gate
	store     UserStore
	hasher    PasswordHasher
	logger    *slog.Logger

	defaultName        string
	defaultRole        Role
	allowRoleSelection bool
	dummyHash          string
}

// NewService validates cfg and wires the codec, validator, resolver and
// gate around store and hasher. A nil hasher uses [BcryptHasher] with
// cfg.BcryptCost; a nil logger uses slog.Default.
func NewService(cfg Config, store UserStore, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, sserr.New(sserr.CodeInternalConfiguration, "auth: user store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if hasher == nil {
		hasher = NewBcryptHasher(cfg.BcryptCost)
	}
	codec, err := NewCodec(cfg)
	if err != nil {
		return nil, err
	}
	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, sserr.Wrap(err, sserr.CodeInternalConfiguration, "auth: password hasher is not usable")
	}

	validator := NewValidator(cfg)
	resolver := NewResolver(store)
	return &Service{
		codec:              codec,
		validator:          validator,
		resolver:           resolver,
		gate:               NewGate(cfg, codec, validator, resolver, logger),
		store:              store,
		hasher:             hasher,
		logger:             logger,
		defaultName:        strings.TrimSpace(cfg.DefaultDisplayName),
		defaultRole:        cfg.DefaultRole,
		allowRoleSelection: cfg.AllowRoleSelection,
		dummyHash:          dummyHash,
	}, nil
}

// Gate returns the request gate sharing this service's codec.
func (s *Service) Gate() *Gate { return s.gate }

// Codec returns the token codec.
func (s *Service) Codec() *Codec { return s.codec }

// Validator returns the claims validator.
func (s *Service) Validator() *Validator { return s.validator }

// Resolver returns the identity resolver.
func (s *Service) Resolver() *Resolver { return s.resolver }

// Login verifies creds and issues a token pair. Unknown email, wrong
// password and lookup failures all return the same
// [sserr.CodeAuthenticationCredentials] error.
func (s *Service) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	email := normalizeEmail(creds.Email)
	if err := (Credentials{Email: email, Password: creds.Password}).Validate(); err != nil {
		s.hasher.Verify(s.dummyHash, creds.Password)
		return nil, invalidCredentials(nil)
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if !sserr.IsNotFound(err) {
			s.logger.ErrorContext(ctx, "auth: credential lookup failed", "error", err)
		}
		s.hasher.Verify(s.dummyHash, creds.Password)
		return nil, invalidCredentials(err)
	}
	if !s.hasher.Verify(user.PasswordHash, creds.Password) {
		return nil, invalidCredentials(nil)
	}

	identity := user.Identity()
	pair, err := s.codec.IssuePair(identity)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "auth: login succeeded", "identity_id", identity.ID)
	user.PasswordHash = ""
	return &LoginResult{Tokens: pair, Identity: identity, User: user}, nil
}

// CurrentUser loads the account behind an authenticated identity. The
// returned PasswordHash is empty. A vanished account is
// [sserr.CodeNotFoundUser]; other store failures are
// [sserr.CodeUnavailableDependency].
func (s *Service) CurrentUser(ctx context.Context, id int64) (User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if sserr.IsNotFound(err) {
			return User{}, sserr.Wrap(err, sserr.CodeNotFoundUser, "user not found")
		}
		return User{}, sserr.Wrap(err, sserr.CodeUnavailableDependency, "user store unavailable")
	}
	user.PasswordHash = ""
	return user, nil
}

func invalidCredentials(cause error) *sserr.Error {
	if cause != nil {
		return sserr.Wrap(cause, sserr.CodeAuthenticationCredentials, MessageInvalidCredentials)
	}
	return sserr.New(sserr.CodeAuthenticationCredentials, MessageInvalidCredentials)
}

// Refresh exchanges a refresh token for a new pair. The token must decode,
// be of kind refresh, be unexpired and name an existing identity. The old
// refresh token is not invalidated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return TokenPair{}, sserr.New(sserr.CodeValidationRequired, MessageRefreshRequired)
	}

	claims, err := s.codec.Decode(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.validator.Check(claims, TokenKindRefresh); err != nil {
		return TokenPair{}, err
	}
	id, err := s.validator.ExtractSubjectID(claims)
	if err != nil {
		return TokenPair{}, err
	}
	identity, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		return TokenPair{}, err
	}
	return s.codec.IssuePair(identity)
}

// Register creates an account. Blank name and role take the configured
// defaults. A requested role is only read when role selection is allowed;
// otherwise it is ignored and the default role is assigned. No tokens are
// issued.
func (s *Service) Register(ctx context.Context, reg Registration) (Identity, error) {
	email := normalizeEmail(reg.Email)
	if err := (Registration{Email: email, Password: reg.Password}).Validate(); err != nil {
		return Identity{}, err
	}

	name := strings.TrimSpace(reg.Name)
	if name == "" {
		name = s.defaultName
	}
	role := s.defaultRole
	if s.allowRoleSelection && strings.TrimSpace(reg.Role) != "" {
		requested, err := ParseRole(reg.Role)
		if err != nil {
			return Identity{}, err
		}
		role = requested
	} else if strings.TrimSpace(reg.Role) != "" {
		s.logger.DebugContext(ctx, "auth: ignoring requested role", "role", reg.Role)
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return Identity{}, sserr.New(sserr.CodeConflictAlreadyExists, MessageEmailInUse)
	} else if !sserr.IsNotFound(err) {
		return Identity{}, sserr.Wrap(err, sserr.CodeUnavailableDependency, "user store unavailable")
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return Identity{}, err
	}
	user, err := s.store.Create(ctx, User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if sserr.IsConflict(err) {
			return Identity{}, sserr.Wrap(err, sserr.CodeConflictAlreadyExists, MessageEmailInUse)
		}
		return Identity{}, sserr.Wrap(err, sserr.CodeUnavailableDependency, "user store unavailable")
	}
	s.logger.InfoContext(ctx, "auth: user registered", "identity_id", user.ID, "role", user.Role)
	return user.Identity(), nil
}

// normalizeEmail trims and lower-cases so lookups are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
