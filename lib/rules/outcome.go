package rules

import "fmt"

// defaultRejectMsg is used when a rule rejects a value without a reason.
const defaultRejectMsg = "value rejected by rule"

// Outcome is the result of a single dispatch.
//
// It is either a success, optionally carrying a formatted result, or a
// failure carrying a non-empty message. Use Accept, Format and Reject to
// create outcomes, the zero value is a failure with the default message.
type Outcome struct {
	ok        bool
	result    string
	hasResult bool
	msg       string
}

// Accept returns a successful Outcome without a result.
func Accept() Outcome {
	return Outcome{ok: true}
}

// Format returns a successful Outcome carrying the formatted value.
func Format(result string) Outcome {
	return Outcome{ok: true, result: result, hasResult: true}
}

// Reject returns a failed Outcome. An empty msg is replaced by a generic message
// so that a failure always carries a reason.
func Reject(msg string) Outcome {
	if msg == "" {
		msg = defaultRejectMsg
	}
	return Outcome{msg: msg}
}

// Rejectf is like Reject but formats the message.
func Rejectf(format string, args ...interface{}) Outcome {
	return Reject(fmt.Sprintf(format, args...))
}

// OK reports whether the dispatch succeeded.
func (o Outcome) OK() bool {
	return o.ok
}

// Result returns the formatted value and whether one is present.
// A failed Outcome never has a result.
func (o Outcome) Result() (string, bool) {
	if !o.ok {
		return "", false
	}
	return o.result, o.hasResult
}

// ResultOr returns the formatted value or fallback if none is present.
func (o Outcome) ResultOr(fallback string) string {
	if r, ok := o.Result(); ok {
		return r
	}
	return fallback
}

// Err returns the failure message, or "" for a successful Outcome.
func (o Outcome) Err() string {
	if o.ok {
		return ""
	}
	if o.msg == "" {
		return defaultRejectMsg
	}
	return o.msg
}

func (o Outcome) String() string {
	switch {
	case !o.ok:
		return fmt.Sprintf("rejected: %s", o.Err())
	case o.hasResult:
		return fmt.Sprintf("ok: %s", o.result)
	default:
		return "ok"
	}
}
