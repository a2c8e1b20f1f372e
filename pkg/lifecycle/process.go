package lifecycle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

const tracerName = "github.com/StricklySoft/stricklysoft-auth/pkg/lifecycle"

// Hook runs during a transition. A non-nil error aborts the transition and
// moves the process to [StateFailed]. Hooks run outside the state mutex
// and may call [Process.State].
type Hook func(ctx context.Context) error

// StateChangeHandler observes every transition. Handlers run synchronously
// under the state mutex, so they must not call back into the process. A
// panicking handler is recovered and logged.
type StateChangeHandler func(old, new State)

// HealthCheck probes one dependency of a running process.
type HealthCheck func(ctx context.Context) error

type namedCheck struct {
	name  string
	check HealthCheck
}

// Info is a point-in-time snapshot of a process.
type Info struct {
	Name      string        `json:"name"`
	Version   string        `json:"version"`
	State     State         `json:"state"`
	StartedAt *time.Time    `json:"started_at,omitempty"`
	Uptime    time.Duration `json:"uptime,omitempty"`
}

// Process is a thread-safe lifecycle state machine. Build one with
// [Builder].
//
//	proc, err := lifecycle.NewBuilder("authserver", version).
//	    WithOnStart(store.Health).
//	    WithOnStop(srv.Shutdown).
//	    WithHealthCheck("store", store.Health).
//	    Build()
type Process struct {
	name    string
	version string

	mu        sync.RWMutex
	state     State
	startedAt *time.Time

	tracer trace.Tracer
	logger *slog.Logger

	onStart       Hook
	onStop        Hook
	checks        []namedCheck
	stateHandlers []StateChangeHandler
}

// Name returns the process name given to [NewBuilder].
func (p *Process) Name() string { return p.name }

// Version returns the process version given to [NewBuilder].
func (p *Process) Version() string { return p.version }

// State returns the current state.
func (p *Process) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Info returns a snapshot. Uptime is zero unless the process is running.
func (p *Process) Info() Info {
	p.mu.RLock()
	defer p.mu.RUnlock()

	info := Info{Name: p.name, Version: p.version, State: p.state}
	if p.startedAt != nil {
		started := *p.startedAt
		info.StartedAt = &started
		info.Uptime = time.Since(started)
	}
	return info
}

// Health fails with [sserr.CodeUnavailable] unless the process is running,
// then runs each registered check in order. A failing check is reported
// with [sserr.CodeUnavailableDependency] and its name.
func (p *Process) Health(ctx context.Context) error {
	if state := p.State(); state != StateRunning {
		return sserr.Newf(sserr.CodeUnavailable,
			"lifecycle: %s is not running, current state is %q", p.name, state)
	}
	for _, c := range p.checks {
		if err := c.check(ctx); err != nil {
			return sserr.Wrapf(err, sserr.CodeUnavailableDependency,
				"lifecycle: health check %q failed", c.name)
		}
	}
	return nil
}

// SetState validates and applies a transition, then notifies handlers. An
// invalid transition returns [sserr.CodeConflict].
func (p *Process) SetState(new State) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	old := p.state
	if !ValidTransition(old, new) {
		return sserr.Newf(sserr.CodeConflict,
			"lifecycle: invalid state transition from %q to %q", old, new)
	}
	p.state = new

	switch new {
	case StateRunning:
		now := time.Now().UTC()
		p.startedAt = &now
	case StateStopping, StateStopped, StateFailed:
		p.startedAt = nil
	}

	for _, h := range p.stateHandlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("lifecycle: state change handler panicked",
						"panic", r,
						"process", p.name,
						"old_state", string(old),
						"new_state", string(new),
					)
				}
			}()
			h(old, new)
		}()
	}
	return nil
}

// Start moves the process through [StateStarting] to [StateRunning],
// running the OnStart hook in between. A canceled context returns
// [sserr.CodeTimeout] without touching the state. A failing hook leaves
// the process in [StateFailed] and returns [sserr.CodeInternal].
func (p *Process) Start(ctx context.Context) error {
	ctx, span := p.startSpan(ctx, "lifecycle.Start")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return spanError(span, sserr.Wrap(err, sserr.CodeTimeout, "lifecycle: start canceled before execution"))
	}
	if err := p.SetState(StateStarting); err != nil {
		return spanError(span, err)
	}
	p.logger.InfoContext(ctx, "lifecycle: starting",
		"process", p.name,
		"version", p.version,
	)

	if p.onStart != nil {
		if err := p.onStart(ctx); err != nil {
			p.logger.ErrorContext(ctx, "lifecycle: start hook failed", "process", p.name, "error", err)
			_ = p.SetState(StateFailed)
			return spanError(span, sserr.Wrap(err, sserr.CodeInternal, "lifecycle: start hook failed"))
		}
	}

	if err := p.SetState(StateRunning); err != nil {
		return spanError(span, err)
	}
	p.logger.InfoContext(ctx, "lifecycle: running", "process", p.name)
	span.SetStatus(codes.Ok, "")
	return nil
}

// Stop moves the process through [StateStopping] to [StateStopped],
// running the OnStop hook in between. Stop on a terminal or never-started
// process is a no-op, so it is safe to defer.
func (p *Process) Stop(ctx context.Context) error {
	ctx, span := p.startSpan(ctx, "lifecycle.Stop")
	defer span.End()

	if state := p.State(); state.IsTerminal() || state == StateUnknown {
		span.SetStatus(codes.Ok, "")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return spanError(span, sserr.Wrap(err, sserr.CodeTimeout, "lifecycle: stop canceled before execution"))
	}
	if err := p.SetState(StateStopping); err != nil {
		return spanError(span, err)
	}
	p.logger.InfoContext(ctx, "lifecycle: stopping", "process", p.name)

	if p.onStop != nil {
		if err := p.onStop(ctx); err != nil {
			p.logger.ErrorContext(ctx, "lifecycle: stop hook failed", "process", p.name, "error", err)
			_ = p.SetState(StateFailed)
			return spanError(span, sserr.Wrap(err, sserr.CodeInternal, "lifecycle: stop hook failed"))
		}
	}

	if err := p.SetState(StateStopped); err != nil {
		return spanError(span, err)
	}
	p.logger.InfoContext(ctx, "lifecycle: stopped", "process", p.name)
	span.SetStatus(codes.Ok, "")
	return nil
}

func (p *Process) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("process.name", p.name),
			attribute.String("process.version", p.version),
		),
	)
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Builder configures a [Process].
type Builder struct {
	name          string
	version       string
	logger        *slog.Logger
	onStart       Hook
	onStop        Hook
	checks        []namedCheck
	stateHandlers []StateChangeHandler
}

// NewBuilder starts a builder. name and version are required.
func NewBuilder(name, version string) *Builder {
	return &Builder{name: name, version: version}
}

// WithLogger sets the logger. The default is slog.Default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithOnStart sets the hook run between Starting and Running.
func (b *Builder) WithOnStart(hook Hook) *Builder {
	b.onStart = hook
	return b
}

// WithOnStop sets the hook run between Stopping and Stopped.
func (b *Builder) WithOnStop(hook Hook) *Builder {
	b.onStop = hook
	return b
}

// WithHealthCheck adds a dependency check to [Process.Health]. Checks run
// in registration order.
func (b *Builder) WithHealthCheck(name string, check HealthCheck) *Builder {
	b.checks = append(b.checks, namedCheck{name: name, check: check})
	return b
}

// OnStateChange adds a transition observer.
func (b *Builder) OnStateChange(handler StateChangeHandler) *Builder {
	b.stateHandlers = append(b.stateHandlers, handler)
	return b
}

// Build validates the builder and returns a process in [StateUnknown].
func (b *Builder) Build() (*Process, error) {
	if b.name == "" {
		return nil, sserr.Required("lifecycle: process name")
	}
	if b.version == "" {
		return nil, sserr.Required("lifecycle: process version")
	}
	for _, c := range b.checks {
		if c.name == "" || c.check == nil {
			return nil, sserr.New(sserr.CodeValidation, "lifecycle: health checks need a name and a func")
		}
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	checks := make([]namedCheck, len(b.checks))
	copy(checks, b.checks)
	handlers := make([]StateChangeHandler, len(b.stateHandlers))
	copy(handlers, b.stateHandlers)

	return &Process{
		name:          b.name,
		version:       b.version,
		state:         StateUnknown,
		tracer:        otel.Tracer(tracerName),
		logger:        logger,
		onStart:       b.onStart,
		onStop:        b.onStop,
		checks:        checks,
		stateHandlers: handlers,
	}, nil
}
