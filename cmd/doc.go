// Package cmd implements the command-line interface for the vKV validated
// key-value store. It provides a hierarchical command structure with an
// interactive shell and tools around the rule engines.
//
// The package is organized into several subpackages:
//
//   - shell: The interactive session (ADD, GET, LIST, STATS, RELOAD, HELP, EXIT)
//   - check: One-shot validation and formatting of a single key and value
//   - perf: Performance tests of the store and the configured rule engine
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// The binary is built from cmd/vkv. See vkv -help for a list of all commands.
package cmd
