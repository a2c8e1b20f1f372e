// Package lifecycle runs a long-lived process, such as the auth server,
// through a validated state machine with start and stop hooks and a health
// check built on the current state.
//
// The normal flow is:
//
//	Unknown → Starting → Running → Stopping → Stopped
//
// Any non-terminal state may move to Failed. Stopped and Failed may move
// back to Starting for a restart.
//
// Start and Stop create OpenTelemetry spans under the scope
// "github.com/StricklySoft/stricklysoft-auth/pkg/lifecycle".
package lifecycle

// State is the lifecycle state of a [Process]. The zero value is not a
// valid state; a new process starts in [StateUnknown].
type State string

const (
	// StateUnknown is the state of a process that has never been started.
	StateUnknown State = "unknown"

	// StateStarting is set before the OnStart hook runs.
	StateStarting State = "starting"

	// StateRunning is the only state in which [Process.Health] can pass.
	StateRunning State = "running"

	// StateStopping is set before the OnStop hook runs, while in-flight
	// work drains.
	StateStopping State = "stopping"

	// StateStopped follows a clean shutdown.
	StateStopped State = "stopped"

	// StateFailed follows a failed hook or an explicit SetState by the
	// owner.
	StateFailed State = "failed"
)

func (s State) String() string {
	return string(s)
}

// Valid reports whether s is one of the defined states.
func (s State) Valid() bool {
	switch s {
	case StateUnknown, StateStarting, StateRunning,
		StateStopping, StateStopped, StateFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether s is [StateStopped] or [StateFailed].
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}

// validTransitions is the state machine:
//
//	Unknown  → Starting, Failed
//	Starting → Running, Stopping, Failed
//	Running  → Stopping, Failed
//	Stopping → Stopped, Failed
//	Stopped  → Starting
//	Failed   → Starting
var validTransitions = map[State][]State{
	StateUnknown:  {StateStarting, StateFailed},
	StateStarting: {StateRunning, StateStopping, StateFailed},
	StateRunning:  {StateStopping, StateFailed},
	StateStopping: {StateStopped, StateFailed},
	StateStopped:  {StateStarting},
	StateFailed:   {StateStarting},
}

// ValidTransition reports whether the state machine allows from → to.
// Same-state transitions are always rejected.
func ValidTransition(from, to State) bool {
	if from == to {
		return false
	}
	for _, t := range validTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
