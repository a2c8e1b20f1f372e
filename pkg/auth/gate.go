package auth

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

// GateState is where the gate finished for one request. Exactly one
// terminal state is reached per request.
type GateState int

const (
	// StateUnchecked is the initial state; the gate has not run.
	StateUnchecked GateState = iota

	// StateExempt means the route is on the exemption list and the
	// Authorization header was not inspected.
	StateExempt

	// StateAuthenticated means an identity is in the request context.
	StateAuthenticated

	// StateAnonymous means the request continues without an identity,
	// either because no bearer token was sent or because the token was
	// unusable and the gate is not strict.
	StateAnonymous

	// StateRejected means a token was presented, was unusable, and the
	// gate is strict. Transport adapters answer 401 / Unauthenticated.
	StateRejected
)

// String returns the upper-case state name.
func (s GateState) String() string {
	switch s {
	case StateUnchecked:
		return "UNCHECKED"
	case StateExempt:
		return "EXEMPT"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateAnonymous:
		return "ANONYMOUS"
	case StateRejected:
		return "REJECTED"
	default:
		return fmt.Sprintf("GateState(%d)", int(s))
	}
}

// Gate turns a bearer token into an identity in the request context. It
// never fails a request on its own unless strict mode is on; protected
// routes enforce authentication with [RequireIdentity].
//
// A Gate is immutable and safe for concurrent use.
type Gate struct {
	codec     *Codec
	validator *Validator
	resolver  *Resolver
	exempt    map[string]struct{}
	strict    bool
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewGate builds a gate from its collaborators. cfg supplies the exempt
// routes and strict mode. A nil logger uses slog.Default.
func NewGate(cfg Config, codec *Codec, validator *Validator, resolver *Resolver, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	exempt := make(map[string]struct{}, len(cfg.ExemptPaths))
	for _, p := range cfg.ExemptPaths {
		exempt[p] = struct{}{}
	}
	return &Gate{
		codec:     codec,
		validator: validator,
		resolver:  resolver,
		exempt:    exempt,
		strict:    cfg.Strict,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// IsExempt reports whether route bypasses the gate. Matching is exact.
func (g *Gate) IsExempt(route string) bool {
	_, ok := g.exempt[route]
	return ok
}

// Authenticate runs the gate for one request. route is the request path
// (or gRPC full method) and header the raw Authorization value. The
// returned context carries the terminal state and, when authenticated, the
// identity.
//
// The only blocking step is the identity lookup, which runs under ctx and
// so inherits the request deadline.
func (g *Gate) Authenticate(ctx context.Context, route, header string) (context.Context, GateState) {
	ctx, state := g.authenticate(ctx, route, header)
	return contextWithGateState(ctx, state), state
}

func (g *Gate) authenticate(ctx context.Context, route, header string) (context.Context, GateState) {
	if g.IsExempt(route) {
		return ctx, StateExempt
	}
	if _, ok := IdentityFromContext(ctx); ok {
		return ctx, StateAuthenticated
	}

	token := ExtractBearerToken(header)
	if token == "" {
		return ctx, StateAnonymous
	}

	identity, err := g.identify(ctx, token)
	if err != nil {
		g.logFailure(ctx, route, err)
		if g.strict {
			return ctx, StateRejected
		}
		return ctx, StateAnonymous
	}
	return ContextWithIdentity(ctx, identity), StateAuthenticated
}

// identify runs decode, kind and expiry check, subject extraction and
// identity lookup. A panic in a collaborator is turned into an internal
// error so the request degrades instead of crashing.
func (g *Gate) identify(ctx context.Context, token string) (identity Identity, err error) {
	ctx, span := startSpan(ctx, g.tracer, "auth.Gate")
	defer func() {
		if r := recover(); r != nil {
			err = sserr.Newf(sserr.CodeInternal, "auth: panic during authentication: %v", r)
		}
		finishSpan(span, err)
		span.End()
	}()

	claims, err := g.codec.Decode(ctx, token)
	if err != nil {
		return Identity{}, err
	}
	if err := g.validator.Check(claims, TokenKindAccess); err != nil {
		return Identity{}, err
	}
	id, err := g.validator.ExtractSubjectID(claims)
	if err != nil {
		return Identity{}, err
	}
	identity, err = g.resolver.Resolve(ctx, id)
	if err != nil {
		return Identity{}, err
	}
	span.SetAttributes(attribute.Int64("auth.identity_id", identity.ID))
	return identity, nil
}

// logFailure logs token problems at warn level and collaborator faults at
// error level. Token material is never logged.
func (g *Gate) logFailure(ctx context.Context, route string, err error) {
	attrs := []any{
		"route", route,
		"code", sserr.GetCode(err),
		"error", err,
		"strict", g.strict,
	}
	if id, ok := RequestIDFromContext(ctx); ok {
		attrs = append(attrs, "request_id", id)
	}
	if id, ok := TraceIDFromContext(ctx); ok {
		attrs = append(attrs, "trace_id", id)
	}
	if sserr.IsAuthentication(err) {
		g.logger.WarnContext(ctx, "auth: bearer token rejected", attrs...)
		return
	}
	g.logger.ErrorContext(ctx, "auth: authentication failed unexpectedly", attrs...)
}
