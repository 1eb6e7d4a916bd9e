// Package mission sequences the robot through a fetch task: plan, search,
// approach, grasp, return and complete.
//
// One Machine runs on a single goroutine. Each Tick executes exactly one
// state handler, which reports a Signal; Next maps the state and signal to
// the following state.
package mission

import "fmt"

// State is a mission phase.
type State int

const (
	Idle State = iota
	Planning
	Searching
	Approaching
	Grasping
	Returning
	TaskComplete

	numStates = int(TaskComplete) + 1
)

// Adding a state without updating the transition table and names below
// breaks this constant index.
var _ = [1]struct{}{}[numStates-7]

var stateNames = [numStates]string{
	Idle:         "IDLE",
	Planning:     "PLANNING",
	Searching:    "SEARCHING",
	Approaching:  "APPROACHING",
	Grasping:     "GRASPING",
	Returning:    "RETURNING",
	TaskComplete: "TASK_COMPLETE",
}

func (s State) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// IsValid reports whether s is a defined state.
func (s State) IsValid() bool {
	return s >= 0 && int(s) < numStates
}

// MarshalText renders the state name for JSON events.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AllStates returns every state in phase order.
func AllStates() []State {
	out := make([]State, numStates)
	for i := range out {
		out[i] = State(i)
	}
	return out
}

// Signal is the terminal result a state handler reports.
type Signal int

const (
	// Success moves the mission forward.
	Success Signal = iota
	// Failure takes the state's fallback edge.
	Failure
	// Abort is an operator cancel; it always unwinds to IDLE.
	Abort
	// Fault is an unexpected error or panic inside a tick.
	Fault

	numSignals = int(Fault) + 1
)

var signalNames = [numSignals]string{
	Success: "success",
	Failure: "failure",
	Abort:   "abort",
	Fault:   "fault",
}

func (s Signal) String() string {
	if s < 0 || int(s) >= numSignals {
		return fmt.Sprintf("Signal(%d)", int(s))
	}
	return signalNames[s]
}

// AllSignals returns every signal.
func AllSignals() []Signal {
	out := make([]Signal, numSignals)
	for i := range out {
		out[i] = Signal(i)
	}
	return out
}

// Next returns the state that follows s when its handler reports sig.
//
// Abort and Fault lead to IDLE from anywhere. Failure from APPROACHING
// re-enters SEARCHING to re-acquire the target; states without a failure
// edge fall back to IDLE.
func Next(s State, sig Signal) State {
	switch sig {
	case Abort, Fault:
		return Idle
	case Success, Failure:
	default:
		panic(fmt.Sprintf("mission: undefined signal %d", int(sig)))
	}

	ok := sig == Success
	switch s {
	case Idle:
		if ok {
			return Planning
		}
		return Idle
	case Planning:
		if ok {
			return Searching
		}
		return Idle
	case Searching:
		if ok {
			return Approaching
		}
		return Idle
	case Approaching:
		if ok {
			return Grasping
		}
		return Searching
	case Grasping:
		if ok {
			return Returning
		}
		return Idle
	case Returning:
		if ok {
			return TaskComplete
		}
		return Idle
	case TaskComplete:
		return Idle
	default:
		panic(fmt.Sprintf("mission: undefined state %d", int(s)))
	}
}
