package native

import (
	"github.com/ValentinKolb/vKV/lib/rules"
	"sync/atomic"
)

// Dispatcher dispatches to the built-in rules bound by a rule table.
type Dispatcher struct {
	path  string
	table atomic.Pointer[Table]
}

// Compile-time check
var (
	_ rules.Dispatcher = (*Dispatcher)(nil)
	_ rules.Reloader   = (*Dispatcher)(nil)
)

// New loads the rule table at path (the built-in table if path is empty) and returns a dispatcher for it.
func New(path string) (*Dispatcher, error) {
	t, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	d := &Dispatcher{path: path}
	d.table.Store(t)
	return d, nil
}

// Dispatch validates (ADD) or formats (GET) value with the first rule bound to key.
// Keys without a rule are passed through.
func (d *Dispatcher) Dispatch(action rules.Action, key, value string) (rules.Outcome, error) {
	if !action.Valid() {
		return rules.UnknownAction(action), nil
	}
	if key == "" {
		return rules.Reject("key must not be empty"), nil
	}

	rule, ok := d.table.Load().Resolve(key)

	switch action {
	case rules.ActionAdd:
		if value == "" {
			return rules.Reject("value must not be empty"), nil
		}
		if !ok {
			return rules.Accept(), nil
		}
		if err := rule.Validate(value); err != nil {
			return rules.Reject(err.Error()), nil
		}
		return rules.Accept(), nil

	default: // rules.ActionGet
		if !ok {
			return rules.Accept(), nil
		}
		formatted, err := rule.Format(value)
		if err != nil {
			return rules.Reject(err.Error()), nil
		}
		return rules.Format(formatted), nil
	}
}

// Reload re-reads the rule table from the path given to New.
// The current table stays active if the new one can not be loaded.
func (d *Dispatcher) Reload() error {
	if d.path == "" {
		return nil
	}
	t, err := LoadTable(d.path)
	if err != nil {
		return err
	}
	d.table.Store(t)
	rules.Logger.Debugf("native rule table reloaded (%d bindings)", len(t.Bindings))
	return nil
}
