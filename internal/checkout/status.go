package checkout

// State of one checkout attempt. All terminal states end the attempt; a new
// attempt starts from Idle again.
type State string

const (
	StateIdle       State = "IDLE"
	StateValidating State = "VALIDATING"
	StateCommitting State = "COMMITTING"
	StateSucceeded  State = "SUCCEEDED"
	StateRejected   State = "REJECTED"
	StateFailed     State = "FAILED"
)

func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateRejected || s == StateFailed
}

// String representation (for logging)
func (s State) String() string {
	return string(s)
}

var transitions = map[State][]State{
	StateIdle:       {StateValidating},
	StateValidating: {StateCommitting, StateRejected, StateFailed},
	StateCommitting: {StateSucceeded, StateFailed},
}

func CanTransitionTo(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
