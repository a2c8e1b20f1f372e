package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

// Middleware transforms an http.Handler. It has the same shape as
// mux.MiddlewareFunc so values can be passed to either.
type Middleware func(http.Handler) http.Handler

// Chain wraps h with mws. The first middleware is the outermost, so
//
//	Chain(h, RequestID, gate.Middleware)
//
// runs RequestID, then the gate, then h.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Middleware runs the gate for every request. The request always reaches
// next unless the gate is strict and rejects the presented token.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, state := g.Authenticate(r.Context(), r.URL.Path, r.Header.Get(HeaderAuthorization))
		if state == StateRejected {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			WriteError(w, sserr.Unauthorized("invalid or expired token"))
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID propagates the X-Request-ID header, generating a UUID when the
// client sent none. The id is echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(ContextWithRequestID(r.Context(), id)))
	})
}

// RequireIdentity answers 401 for anonymous requests.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			WriteError(w, sserr.Unauthorized("not authenticated"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission answers 401 for anonymous requests and 403 when the
// identity's role does not grant action on resource.
func RequirePermission(resource, action string) Middleware {
	return func(next http.Handler) http.Handler {
		return RequireIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := MustIdentityFromContext(r.Context())
			if !identity.HasPermission(resource, action) {
				slog.WarnContext(r.Context(), "auth: permission denied",
					"identity_id", identity.ID,
					"role", identity.Role,
					"permission", Permission{Resource: resource, Action: action}.String(),
				)
				WriteError(w, sserr.New(sserr.CodeAuthorizationDenied, "permission denied"))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string     `json:"error"`
	Code  sserr.Code `json:"code"`
}

// WriteError writes e as JSON with the status of its code. Server errors
// are reported with a generic message; the cause is never written.
func WriteError(w http.ResponseWriter, e *sserr.Error) {
	status := e.HTTPStatus()
	msg := e.Message
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Error: msg, Code: e.Code})
}
