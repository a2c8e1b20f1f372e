package lifecycle

import "testing"

var allStates = []State{
	StateUnknown, StateStarting, StateRunning,
	StateStopping, StateStopped, StateFailed,
}

func TestState_Valid(t *testing.T) {
	for _, s := range allStates {
		if !s.Valid() {
			t.Errorf("State(%q).Valid() = false, want true", s)
		}
		if s.String() != string(s) {
			t.Errorf("State(%q).String() = %q", s, s.String())
		}
	}
	for _, s := range []State{"", "paused", "RUNNING", "ready"} {
		if s.Valid() {
			t.Errorf("State(%q).Valid() = true, want false", s)
		}
	}
}

func TestState_IsTerminal(t *testing.T) {
	for _, s := range allStates {
		want := s == StateStopped || s == StateFailed
		if got := s.IsTerminal(); got != want {
			t.Errorf("State(%q).IsTerminal() = %v, want %v", s, got, want)
		}
	}
}

// TestValidTransition checks every pair of states against the expected
// matrix, so a new edge cannot slip in unnoticed.
func TestValidTransition(t *testing.T) {
	allowed := map[[2]State]bool{
		{StateUnknown, StateStarting}:  true,
		{StateUnknown, StateFailed}:    true,
		{StateStarting, StateRunning}:  true,
		{StateStarting, StateStopping}: true,
		{StateStarting, StateFailed}:   true,
		{StateRunning, StateStopping}:  true,
		{StateRunning, StateFailed}:    true,
		{StateStopping, StateStopped}:  true,
		{StateStopping, StateFailed}:   true,
		{StateStopped, StateStarting}:  true,
		{StateFailed, StateStarting}:   true,
	}
	for _, from := range allStates {
		for _, to := range allStates {
			want := allowed[[2]State{from, to}]
			if got := ValidTransition(from, to); got != want {
				t.Errorf("ValidTransition(%q, %q) = %v, want %v", from, to, got, want)
			}
		}
	}
	if ValidTransition("bogus", StateStarting) {
		t.Error("ValidTransition from an undefined state must be false")
	}
}
