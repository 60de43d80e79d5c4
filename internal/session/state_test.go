package session

import "testing"

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{Idle, "idle"},
		{Rendering, "rendering"},
		{AwaitingInput, "awaiting input"},
		{Exporting, "exporting"},
		{Terminating, "terminating"},
		{State(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("State.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStateMachineTransitions(t *testing.T) {
	tests := []struct {
		name  string
		path  []State
		valid []bool
	}{
		{
			name:  "normal cycle",
			path:  []State{Rendering, AwaitingInput, Rendering, AwaitingInput, Terminating},
			valid: []bool{true, true, true, true, true},
		},
		{
			name:  "export cycle",
			path:  []State{Rendering, AwaitingInput, Exporting, Rendering},
			valid: []bool{true, true, true, true},
		},
		{
			name:  "cannot skip rendering",
			path:  []State{AwaitingInput, Exporting},
			valid: []bool{false, false},
		},
		{
			name:  "terminating is final",
			path:  []State{Terminating, Rendering, Idle},
			valid: []bool{true, false, false},
		},
		{
			name:  "no export while rendering",
			path:  []State{Rendering, Exporting},
			valid: []bool{true, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewStateMachine()
			for i, to := range tt.path {
				before := sm.Current()
				got := sm.Transition(to)
				if got != tt.valid[i] {
					t.Fatalf("step %d: Transition(%v) from %v = %v, want %v", i, to, before, got, tt.valid[i])
				}
				if !got && sm.Current() != before {
					t.Fatalf("step %d: illegal transition changed state to %v", i, sm.Current())
				}
			}
		})
	}
}

func TestStateMachineOnEnter(t *testing.T) {
	sm := NewStateMachine()
	entered := 0
	sm.OnEnter(Rendering, func() { entered++ })

	sm.Transition(Rendering)
	sm.Transition(AwaitingInput)
	sm.Transition(Rendering)
	sm.Transition(Exporting)

	if entered != 2 {
		t.Errorf("expected 2 enters, got %d", entered)
	}
}
