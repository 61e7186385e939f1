// Package common provides configuration structures and utilities shared across
// the vKV commands.
//
// Key Components:
//
//   - ShellConfig: Configuration of an interactive session, which rule engine
//     to use, where the rule definition lives, whether it is watched for changes
//     and how verbose logging is. Validate reports contradicting settings before
//     anything is started.
//
//   - Logger: Custom logging implementation that integrates with Dragonboat's
//     logging system while providing consistent formatting across the application.
//     All loggers write to stderr so that the shell output on stdout is never mixed
//     with log lines.
package common
