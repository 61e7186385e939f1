package common

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Rule engines
// --------------------------------------------------------------------------

type RulesEngine string

const (
	RulesEngineLua    RulesEngine = "lua"
	RulesEngineNative RulesEngine = "native"
)

// ParseRulesEngine converts a name (case-insensitive) to a RulesEngine
func ParseRulesEngine(name string) (RulesEngine, error) {
	switch e := RulesEngine(strings.ToLower(strings.TrimSpace(name))); e {
	case RulesEngineLua, RulesEngineNative:
		return e, nil
	default:
		return "", fmt.Errorf("invalid rules engine %s. must be one of lua, native", name)
	}
}

// --------------------------------------------------------------------------
// Shell configuration struct
// --------------------------------------------------------------------------

// ShellConfig holds all configuration parameters for an interactive session.
type ShellConfig struct {
	// which rule engine validates and formats values
	RulesEngine RulesEngine
	// rule definition (lua script or yaml table), empty means the embedded default
	RulesFile string
	// reload the rule definition when the file changes
	Watch bool

	// Store settings
	InitialCapacity int

	// Logging configuration
	LogLevel string
}

// Validate checks the configuration for contradictions
func (c *ShellConfig) Validate() error {
	if _, err := ParseRulesEngine(string(c.RulesEngine)); err != nil {
		return err
	}
	if c.Watch && c.RulesFile == "" {
		return fmt.Errorf("watch requires a rules file")
	}
	if c.InitialCapacity < 0 {
		return fmt.Errorf("initial capacity must not be negative")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *ShellConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	rulesFile := c.RulesFile
	if rulesFile == "" {
		rulesFile = "(embedded)"
	}

	addSection("Rules")
	addField("Engine", string(c.RulesEngine))
	addField("File", rulesFile)
	addField("Watch", fmt.Sprintf("%t", c.Watch))

	addSection("Store")
	addField("Initial Capacity", fmt.Sprintf("%d", c.InitialCapacity))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
