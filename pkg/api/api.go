// Package api exposes the account flows and the protected sample routes
// over HTTP. Every route runs behind the request gate from pkg/auth;
// protected routes additionally require an identity.
//
//	handler := api.New(svc, store, logger).Handler()
//	http.ListenAndServe(":8080", handler)
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/StricklySoft/stricklysoft-auth/pkg/auth"
	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// HealthChecker reports whether a dependency can serve requests.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// API holds the handlers' dependencies.
type API struct {
	svc            *auth.Service
	health         HealthChecker
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
}

// New returns an API backed by svc. health may be nil, in which case
// /healthz always reports ok. A nil logger uses slog.Default.
func New(svc *auth.Service, health HealthChecker, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{svc: svc, health: health, logger: logger}
}

// WithTracerProvider sets the provider for the per-request server span.
// The default is the global provider.
func (a *API) WithTracerProvider(tp trace.TracerProvider) *API {
	a.tracerProvider = tp
	return a
}

// Handler builds the router and wraps it with a server span, request ids,
// access logging and the gate, outermost first.
//
// Every route sits on the root router and protected ones carry their own
// guard, so a wrong method on any path answers 405.
func (a *API) Handler() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		auth.WriteError(w, sserr.New(sserr.CodeNotFound, "no such route"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_ = json.NewEncoder(w).Encode(auth.ErrorBody{Error: "method not allowed", Code: sserr.CodeValidation})
	})

	r.HandleFunc("/healthz", a.Healthz).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/login", a.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/register", a.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/refresh-token", a.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", a.Logout).Methods(http.MethodPost)

	r.Handle("/api/user", auth.RequireIdentity(http.HandlerFunc(a.CurrentUser))).Methods(http.MethodGet)
	r.Handle("/api/message", auth.RequirePermission(ResourceMessages, ActionRead)(http.HandlerFunc(a.GetMessage))).
		Methods(http.MethodGet)
	r.Handle("/api/message", auth.RequirePermission(ResourceMessages, ActionWrite)(http.HandlerFunc(a.PostMessage))).
		Methods(http.MethodPost)

	var opts []otelhttp.Option
	if a.tracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(a.tracerProvider))
	}
	return otelhttp.NewHandler(
		auth.Chain(r, auth.RequestID, a.accessLog, a.svc.Gate().Middleware),
		"authserver", opts...,
	)
}

// decodeRequest reads a JSON body into req. Unknown fields are ignored.
func decodeRequest[T any](w http.ResponseWriter, r *http.Request, req *T) *sserr.Error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return sserr.Wrap(err, sserr.CodeValidationRange, "request body too large")
		}
		return sserr.Wrap(err, sserr.CodeValidation, "request body must be a JSON object")
	}
	return nil
}

func returnJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps err to its status and writes the error body. Server
// errors are logged with their cause.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := sserr.FromError(err)
	if sserr.IsServerError(e) {
		a.logger.ErrorContext(r.Context(), "api: request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", e.Code,
			"error", err,
		)
	}
	auth.WriteError(w, e)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (a *API) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		}
		if id, ok := auth.RequestIDFromContext(r.Context()); ok {
			attrs = append(attrs, slog.String("request_id", id))
		}
		if id, ok := auth.TraceIDFromContext(r.Context()); ok {
			attrs = append(attrs, slog.String("trace_id", id))
		}
		a.logger.LogAttrs(r.Context(), slog.LevelInfo, "api: request", attrs...)
	})
}
