package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope for this package.
const tracerName = "github.com/StricklySoft/stricklysoft-auth/pkg/auth"

// maxTokenSize bounds the token string accepted by [Codec.Decode] (8 KiB).
const maxTokenSize = 8192

// signingMethod is the only algorithm issued and accepted.
var signingMethod = jwt.SigningMethodHS256

// TokenKind separates access tokens from refresh tokens. A token minted for
// one kind is never accepted where the other is required.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Valid reports whether k is a known kind.
func (k TokenKind) Valid() bool {
	return k == TokenKindAccess || k == TokenKindRefresh
}

// Claims is the payload of every token: the registered sub, iss, iat and
// exp claims plus the private "kind" claim.
type Claims struct {
	Kind TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// TokenPair is returned by login and refresh. Neither token is stored.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Codec signs and decodes tokens with a symmetric key. It holds only
// immutable configuration and is safe for concurrent use.
type Codec struct {
	key        []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
	tracer     trace.Tracer
}

// NewCodec validates cfg and returns a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Codec{
		key:        []byte(cfg.SigningKey.Value()),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.clock(),
		// Expiry and kind are the Validator's job, so claim validation is
		// switched off here and only structure, algorithm and signature
		// are verified by the parser.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{signingMethod.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
		tracer: otel.Tracer(tracerName),
	}, nil
}

// IssueAccessToken returns a signed access token for identity.
func (c *Codec) IssueAccessToken(identity Identity) (string, error) {
	return c.issue(identity.Subject(), TokenKindAccess, c.accessTTL)
}

// IssueRefreshToken returns a signed refresh token for the identity id.
func (c *Codec) IssueRefreshToken(id int64) (string, error) {
	return c.issue(Identity{ID: id}.Subject(), TokenKindRefresh, c.refreshTTL)
}

// IssuePair issues a fresh access and refresh token for identity.
func (c *Codec) IssuePair(identity Identity) (TokenPair, error) {
	access, err := c.IssueAccessToken(identity)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := c.IssueRefreshToken(identity.ID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (c *Codec) issue(subject string, kind TokenKind, ttl time.Duration) (string, error) {
	now := c.now()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(c.key)
	if err != nil {
		return "", sserr.Wrap(err, sserr.CodeInternal, "auth: failed to sign token")
	}
	return signed, nil
}

// Decode verifies the structure, algorithm, signature and issuer of token
// and returns its claims. Expiry and kind are not checked, so an expired
// refresh token decodes successfully; use [Validator] for those. Every
// failure carries [sserr.CodeAuthenticationInvalid].
func (c *Codec) Decode(ctx context.Context, token string) (*Claims, error) {
	_, span := startSpan(ctx, c.tracer, "auth.Decode")
	defer span.End()

	claims, err := c.decode(token)
	if err != nil {
		finishSpan(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("auth.token_kind", string(claims.Kind)))
	return claims, nil
}

func (c *Codec) decode(token string) (*Claims, error) {
	if token == "" {
		return nil, malformed(nil, "auth: token must not be empty")
	}
	if len(token) > maxTokenSize {
		return nil, malformed(nil, "auth: token exceeds maximum size")
	}

	claims := &Claims{}
	parsed, err := c.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}
	if !parsed.Valid {
		return nil, malformed(nil, "auth: token is not valid")
	}
	if claims.Issuer != c.issuer {
		return nil, malformed(nil, "auth: token issuer is invalid")
	}
	if !claims.Kind.Valid() {
		return nil, malformed(nil, "auth: token kind is not recognized")
	}
	if claims.ExpiresAt == nil {
		return nil, malformed(nil, "auth: token has no expiry")
	}
	return claims, nil
}

func malformed(cause error, message string) *sserr.Error {
	if cause == nil {
		return sserr.New(sserr.CodeAuthenticationInvalid, message)
	}
	return sserr.Wrap(cause, sserr.CodeAuthenticationInvalid, message)
}

// classifyParseError keeps the parser's reason in the message. All parse
// failures are malformed tokens because claim validation is disabled.
func classifyParseError(err error) *sserr.Error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return malformed(err, "auth: token is malformed")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return malformed(err, "auth: token signature is invalid")
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return malformed(err, "auth: token is unverifiable")
	default:
		return malformed(err, "auth: token could not be decoded")
	}
}

func startSpan(ctx context.Context, tracer trace.Tracer, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

// finishSpan marks span as failed when err is non-nil.
func finishSpan(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
