package engine

import "fmt"

// State is the lifecycle state of one request's execution.
type State int

const (
	StatePending State = iota
	StateRunning
	StateCaught
	StateSucceeded
	StateFailed
	StateTimedOut
)

var stateNames = [...]string{
	StatePending:   "pending",
	StateRunning:   "running",
	StateCaught:    "caught",
	StateSucceeded: "succeeded",
	StateFailed:    "failed",
	StateTimedOut:  "timed_out",
}

// String returns the lowercase state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateTimedOut
}

var transitions = map[State][]State{
	StatePending: {StateRunning, StateFailed},
	StateRunning: {StateCaught, StateSucceeded, StateFailed, StateTimedOut},
	StateCaught:  {StateRunning, StateFailed},
}

// CanTransition reports whether moving from s to next is allowed.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
