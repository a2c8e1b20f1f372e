package auth

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// contextKey is an unexported type used for context keys in this package.
type contextKey int

const (
	identityKey contextKey = iota
	gateStateKey
	requestIDKey
)

// ContextWithIdentity attaches identity to ctx. The slot is write-once: if
// ctx already carries an identity, ctx is returned unchanged and the first
// identity wins.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	if _, ok := IdentityFromContext(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the authenticated identity, if any. A false
// result means the request is anonymous.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// MustIdentityFromContext is for handlers mounted behind
// [RequireIdentity]. It panics when no identity is present.
func MustIdentityFromContext(ctx context.Context) Identity {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		panic("auth: no identity in context; mount the handler behind RequireIdentity")
	}
	return identity
}

func contextWithGateState(ctx context.Context, state GateState) context.Context {
	return context.WithValue(ctx, gateStateKey, state)
}

// GateStateFromContext returns the state the gate finished in for this
// request, or [StateUnchecked] when the gate has not run.
func GateStateFromContext(ctx context.Context) GateState {
	if s, ok := ctx.Value(gateStateKey).(GateState); ok {
		return s
	}
	return StateUnchecked
}

// ContextWithRequestID attaches a request id to ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the id set by [RequestID].
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

// TraceIDFromContext returns the active OpenTelemetry trace id as hex.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.HasTraceID() {
		return "", false
	}
	return sc.TraceID().String(), true
}
