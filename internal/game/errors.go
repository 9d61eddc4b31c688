package game

import "fmt"

// IllegalActionError reports a rejected action. It is not a fault: the
// match continues and the reason is surfaced to the controller so it can
// re-select from the legal set.
type IllegalActionError struct {
	Action Action
	Reason string
}

func (e *IllegalActionError) Error() string {
	return fmt.Sprintf("illegal action %s: %s", e.Action.Key(), e.Reason)
}

// Illegal builds an IllegalActionError for an action.
func Illegal(action Action, format string, args ...any) error {
	return &IllegalActionError{Action: action, Reason: fmt.Sprintf(format, args...)}
}

// InvariantViolationError reports an internal consistency failure. It is
// never recovered: the match must halt and the diagnostic (including the
// state dump) be reported instead of continuing with undefined state.
type InvariantViolationError struct {
	Reason    string
	StateDump string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.Reason)
}

// PolicyError reports a decision policy that returned an action outside
// the legal set or failed to return. The engine recovers by re-prompting
// once and then falling back to a default legal action.
type PolicyError struct {
	Player PlayerID
	Reason string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("policy failure for player %d: %s", e.Player, e.Reason)
}
