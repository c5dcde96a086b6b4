package pipeline

// State is the lifecycle of one playback.
//
//	Idle -> Streaming -> Draining -> Done
//
// Errored is reachable from any non-terminal state and is absorbing.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateDraining
	StateDone
	StateErrored
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateErrored
}

// CanTransition reports whether moving from s to next is allowed.
func (s State) CanTransition(next State) bool {
	if s.Terminal() {
		return false
	}
	if next == StateErrored {
		return true
	}
	return next == s+1
}
