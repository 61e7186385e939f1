package rules

import (
	"errors"
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"io"
	"time"
)

// ErrNotReloadable is returned by Instrumented.Reload if the wrapped dispatcher has no external rule definition.
var ErrNotReloadable = errors.New("rules are built in and can not be reloaded")

// Instrumented wraps a Dispatcher and records dispatch counts and latencies.
// Every instance owns its own metrics.Set, so multiple instances do not share counters.
type Instrumented struct {
	inner Dispatcher
	set   *metrics.Set
}

// Compile-time check
var (
	_ Dispatcher = (*Instrumented)(nil)
	_ Reloader   = (*Instrumented)(nil)
)

// NewInstrumented wraps d with metrics.
func NewInstrumented(d Dispatcher) *Instrumented {
	return &Instrumented{
		inner: d,
		set:   metrics.NewSet(),
	}
}

// Dispatch forwards to the wrapped dispatcher and records the result.
// Metric names:
//
//	vkv_dispatch_total{action="ADD",outcome="accepted|rejected|failed"}
//	vkv_dispatch_duration_seconds{action="ADD"}
func (i *Instrumented) Dispatch(action Action, key, value string) (Outcome, error) {
	start := time.Now()
	outcome, err := i.inner.Dispatch(action, key, value)
	i.set.GetOrCreateHistogram(fmt.Sprintf(`vkv_dispatch_duration_seconds{action=%q}`, action.String())).UpdateDuration(start)

	result := "accepted"
	switch {
	case err != nil:
		result = "failed"
	case !outcome.OK():
		result = "rejected"
	}
	i.set.GetOrCreateCounter(fmt.Sprintf(`vkv_dispatch_total{action=%q,outcome=%q}`, action.String(), result)).Inc()

	return outcome, err
}

// Reload reloads the wrapped dispatcher if it supports it.
func (i *Instrumented) Reload() error {
	r, ok := i.inner.(Reloader)
	if !ok {
		return ErrNotReloadable
	}
	err := r.Reload()
	result := "ok"
	if err != nil {
		result = "error"
	}
	i.set.GetOrCreateCounter(fmt.Sprintf(`vkv_rules_reload_total{result=%q}`, result)).Inc()
	return err
}

// Count returns how often action ended with the given outcome ("accepted", "rejected" or "failed").
func (i *Instrumented) Count(action Action, outcome string) uint64 {
	return i.set.GetOrCreateCounter(fmt.Sprintf(`vkv_dispatch_total{action=%q,outcome=%q}`, action.String(), outcome)).Get()
}

// WritePrometheus writes all recorded metrics in the prometheus text format to w.
func (i *Instrumented) WritePrometheus(w io.Writer) {
	i.set.WritePrometheus(w)
}

// Unwrap returns the wrapped dispatcher.
func (i *Instrumented) Unwrap() Dispatcher {
	return i.inner
}
