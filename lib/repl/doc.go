// Package repl implements the line-oriented command interface of vKV.
//
// A Session reads one command per line, executes it against a store.IStore and
// writes exactly one response per command (LIST, HELP and STATS may span several lines):
//
//	ADD <key> <value>   OK | ERROR: <message>
//	GET <key>           <formatted value> | NOTFOUND | ERROR: <message>
//	LIST                the keys, sorted, one per line
//	STATS               db size and key count, plus dispatch metrics if recorded
//	RELOAD              OK | ERROR: <message>
//	HELP                the command overview
//	EXIT (or QUIT)      ends the session
//
// Keywords are case-insensitive. The value is the remainder of the line after the key,
// so it may contain spaces. Incomplete ADD and GET commands are rejected with a usage
// error before the store is called. Blank lines are ignored.
package repl
