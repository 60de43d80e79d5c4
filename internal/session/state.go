package session

// State is a phase of the playback loop.
type State int

const (
	// Idle is the state before the first cycle.
	Idle State = iota
	// Rendering means a renderer is being started for the current pair.
	Rendering
	// AwaitingInput means the track is playing and keys are being polled.
	AwaitingInput
	// Exporting means the current pair is being saved to disk.
	Exporting
	// Terminating is final: cleanup has been requested.
	Terminating
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Rendering:
		return "rendering"
	case AwaitingInput:
		return "awaiting input"
	case Exporting:
		return "exporting"
	case Terminating:
		return "terminating"
	default:
		return "unknown"
	}
}

// StateMachine enforces the legal transitions between states.
type StateMachine struct {
	current     State
	transitions map[State][]State
	onEnter     map[State]func()
}

// NewStateMachine creates a state machine in Idle.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: Idle,
		transitions: map[State][]State{
			Idle:          {Rendering, Terminating},
			Rendering:     {AwaitingInput, Terminating},
			AwaitingInput: {Rendering, Exporting, Terminating},
			Exporting:     {Rendering, Terminating},
		},
		onEnter: make(map[State]func()),
	}
}

// Transition moves to the given state and reports whether the move was
// legal. An illegal transition leaves the state unchanged.
func (sm *StateMachine) Transition(to State) bool {
	valid := false
	for _, s := range sm.transitions[sm.current] {
		if s == to {
			valid = true
			break
		}
	}
	if !valid {
		return false
	}

	sm.current = to
	if fn, ok := sm.onEnter[to]; ok && fn != nil {
		fn()
	}
	return true
}

// Current returns the current state.
func (sm *StateMachine) Current() State {
	return sm.current
}

// OnEnter registers a callback for entering a state.
func (sm *StateMachine) OnEnter(state State, fn func()) {
	sm.onEnter[state] = fn
}
