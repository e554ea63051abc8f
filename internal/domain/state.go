package domain

// State is a step of a single draft generation call.
type State string

// Draft generation states. Rejected, Failed and Done are terminal.
const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateRejected   State = "rejected"
	StateRequesting State = "requesting"
	StateRetrying   State = "retrying"
	StateFailed     State = "failed"
	StateStreaming  State = "streaming"
	StateFinalizing State = "finalizing"
	StateDone       State = "done"
)

// EventDraftState is published on every state transition.
const EventDraftState = "draft.state"

//nolint:gochecknoglobals // transition table
var transitions = map[State][]State{
	StateIdle:       {StateValidating},
	StateValidating: {StateRejected, StateRequesting},
	StateRequesting: {StateRetrying, StateFailed, StateStreaming},
	StateRetrying:   {StateRequesting, StateFailed},
	StateStreaming:  {StateFinalizing, StateFailed},
	StateFinalizing: {StateDone},
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateRejected || s == StateFailed || s == StateDone
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
