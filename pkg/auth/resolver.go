package auth

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

// Resolver loads the identity behind a token subject. Every call goes to
// the store; nothing is cached, so a deleted or demoted user is seen on the
// next request.
type Resolver struct {
	store  UserStore
	tracer trace.Tracer
}

// NewResolver returns a Resolver backed by store.
func NewResolver(store UserStore) *Resolver {
	return &Resolver{store: store, tracer: otel.Tracer(tracerName)}
}

// Resolve returns the identity for id. A missing record yields
// [sserr.CodeAuthenticationUnknownIdentity]; any other store failure is
// returned as [sserr.CodeUnavailableDependency] with the cause attached.
func (r *Resolver) Resolve(ctx context.Context, id int64) (Identity, error) {
	ctx, span := startSpan(ctx, r.tracer, "auth.Resolve")
	defer span.End()
	span.SetAttributes(attribute.Int64("auth.subject_id", id))

	user, err := r.store.FindByID(ctx, id)
	if err != nil {
		var out *sserr.Error
		if sserr.IsNotFound(err) {
			out = sserr.Wrapf(err, sserr.CodeAuthenticationUnknownIdentity,
				"auth: no identity for subject %d", id)
		} else {
			out = sserr.Wrap(err, sserr.CodeUnavailableDependency, "auth: identity lookup failed")
		}
		finishSpan(span, out)
		return Identity{}, out
	}
	return user.Identity(), nil
}
