package rules

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Dispatcher is the seam between the store and the validation rules.
// Every write and every read of the store is routed through Dispatch.
//
// A rejected value is reported through the returned Outcome (Outcome.OK() == false),
// the returned error is reserved for the case that the rule engine itself could not
// be invoked (e.g. a script runtime error). Implementations must not retain state
// between calls, calling Dispatch twice with the same arguments yields the same Outcome.
type Dispatcher interface {
	// Dispatch validates (ActionAdd) or formats (ActionGet) the value for the given key.
	// For ActionAdd the value is the raw candidate, for ActionGet it is the raw stored value.
	Dispatch(action Action, key, value string) (outcome Outcome, err error)
}

// Reloader is implemented by dispatchers whose rules are loaded from an external definition.
// Reload re-reads the definition. If the new definition can not be loaded, the previous
// rules must stay active and an error is returned.
type Reloader interface {
	Reload() (err error)
}

// --------------------------------------------------------------------------
// Actions
// --------------------------------------------------------------------------

// Action is the closed set of operations that can be dispatched.
// The zero value is not a valid action.
type Action uint8

const (
	ActionAdd Action = iota + 1 // validate a value before it is stored
	ActionGet                   // format a stored value for display
)

// String returns the protocol name of the action ("ADD", "GET").
// This is the name external rule engines receive.
func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "ADD"
	case ActionGet:
		return "GET"
	default:
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	return a == ActionAdd || a == ActionGet
}

// ParseAction converts a protocol name (case-insensitive) to an Action.
func ParseAction(name string) (Action, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ADD":
		return ActionAdd, nil
	case "GET":
		return ActionGet, nil
	default:
		return 0, fmt.Errorf("unknown action %q", name)
	}
}

// UnknownAction returns the Outcome every dispatcher reports for an action
// outside the closed set.
func UnknownAction(a Action) Outcome {
	return Rejectf("unsupported action %s", a)
}
