// Package luavm implements rules.Dispatcher on top of a Lua script (gopher-lua).
//
// The script is loaded once when the VM is created and must define a global function
//
//	function dispatch(action, key, value)
//	  return { success = true|false, result = "formatted value" | nil, error = "reason" | nil }
//	end
//
// action is the protocol name of the rules.Action ("ADD" or "GET"). For ADD the script
// validates the raw value, for GET it returns the display form of the stored value.
//
// If no script path is given, the built-in extensions.lua is used. It binds keys starting
// with cpf_ to the brazilian national ID rule and keys starting with data_ to the calendar
// date rule, the same rules the native engine provides.
//
// The script runs in a sandbox: only the base, table, string and math libraries are opened
// and dofile, loadfile and require are removed, so a script cannot reach the file system.
// Failing to read, compile or run the script, or a script without a dispatch
// function, is reported by New and must abort the startup of the caller.
package luavm
