// Package rules defines the contract between the store and the validation rules
// that gate every write and read of a value.
//
// The package focuses on:
//   - A single-method Dispatcher interface that validates values on ADD and formats them on GET
//   - A closed Action type that is translated to its protocol name ("ADD", "GET") only
//     at the boundary to external rule engines
//   - A tagged Outcome type: success with an optional formatted result, or failure with
//     a mandatory message
//
// Key Components:
//
//   - Dispatcher: Implemented by the rule engines in the sub packages. A rejected value is
//     reported through the Outcome, the error return value signals that the engine itself
//     could not be invoked.
//
//   - Reloader and Watch: Engines that load their rules from a file implement Reloader.
//     Watch uses fsnotify to call Reload whenever the file changes. A broken file never
//     replaces working rules.
//
//   - Instrumented: A decorator for any Dispatcher that counts dispatches per action and
//     outcome and records latency histograms (VictoriaMetrics metrics).
//
// Implementations:
//
//   - native (github.com/ValentinKolb/vKV/lib/rules/native): rules compiled into the binary,
//     bound to key patterns by a YAML rule table.
//   - luavm (github.com/ValentinKolb/vKV/lib/rules/luavm): rules defined by a Lua script
//     exposing a global dispatch(action, key, value) function.
//
// Rule resolution works on the key name: the first rule whose pattern matches the key
// wins, keys matching no rule are passed through (ADD accepts any non-empty value, GET
// returns the stored value unchanged).
package rules
