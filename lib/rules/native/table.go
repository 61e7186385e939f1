package native

import (
	_ "embed"
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"strings"
)

//go:embed rules.yaml
var defaultTable []byte

// Binding binds a rule to all keys matching Prefix or containing Contains.
type Binding struct {
	Prefix   string `yaml:"prefix"`
	Contains string `yaml:"contains"`
	Rule     string `yaml:"rule"`

	rule Rule
}

// Matches reports whether the binding applies to key.
func (b *Binding) Matches(key string) bool {
	if b.Prefix != "" && strings.HasPrefix(key, b.Prefix) {
		return true
	}
	return b.Contains != "" && strings.Contains(key, b.Contains)
}

// Table is an ordered list of bindings. The first binding matching a key wins.
type Table struct {
	Bindings []Binding `yaml:"rules"`
}

// Resolve returns the rule for key, or false if the key is passed through.
func (t *Table) Resolve(key string) (Rule, bool) {
	for i := range t.Bindings {
		if t.Bindings[i].Matches(key) {
			return t.Bindings[i].rule, true
		}
	}
	return nil, false
}

// ParseTable decodes a YAML rule table and resolves the rule names.
//
// Format:
//
//	rules:
//	  - prefix: cpf_
//	    rule: cpf
//	  - contains: _birthday
//	    rule: date
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse rule table: %w", err)
	}

	for i := range t.Bindings {
		b := &t.Bindings[i]
		if b.Prefix == "" && b.Contains == "" {
			return nil, fmt.Errorf("rule table entry %d: one of prefix or contains is required", i)
		}
		r, ok := Lookup(b.Rule)
		if !ok {
			return nil, fmt.Errorf("rule table entry %d: unknown rule %q", i, b.Rule)
		}
		b.rule = r
	}
	return &t, nil
}

// LoadTable reads a rule table from path. An empty path loads the built-in table.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return ParseTable(defaultTable)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule table: %w", err)
	}
	return ParseTable(data)
}
