// Package native implements rules.Dispatcher with validation rules compiled into the binary.
//
// Rules are bound to keys by a rule table, an ordered list of key patterns read from YAML.
// A pattern is either a prefix or a substring of the key, the first matching entry wins.
// The built-in table binds:
//
//	cpf_*   -> cpf   (brazilian national ID, 11 digits with two mod 11 check digits, shown as ddd.ddd.ddd-dd)
//	data_*  -> date  (calendar date YYYY-MM-DD, shown as DD/MM/YYYY)
//
// A custom table can be loaded from a file with New(path). The dispatcher implements
// rules.Reloader, so the table can be swapped at runtime; a table that fails to parse
// never replaces the active one.
package native
