package config

import (
	"fmt"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

// requiredParams lists parameters a rule type cannot run without.
var requiredParams = map[core.RuleType][]string{
	core.RuleCompleteness:         {"columns"},
	core.RuleReferentialIntegrity: {"column", "reference_table", "reference_column"},
	core.RuleCustomSQL:            {"query"},
}

// Validate checks the structure of rules and connections.
// Connection placeholders are checked when a connection is selected.
func (c *Config) Validate() error {
	if len(c.Rules) == 0 {
		return errorf(c.File, "no rules defined in configuration")
	}
	for _, r := range c.Rules {
		if err := validateRule(r); err != nil {
			return &Error{Path: c.File, Msg: err.Error()}
		}
	}
	if err := core.CheckUniqueNames(c.Rules); err != nil {
		return &Error{Path: c.File, Msg: "invalid rule set", Err: err}
	}

	if len(c.Connections) == 0 {
		return errorf(c.File, "no database connections defined")
	}
	for _, name := range c.ConnectionNames() {
		conn := c.Connections[name]
		if conn.Type == "" {
			return errorf(c.File, "connection %q missing 'type' field", name)
		}
		if !connector.IsRegistered(conn.Type) {
			return errorf(c.File, "connection %q has invalid type: %s. Must be one of: %v",
				name, conn.Type, connector.Available())
		}
	}
	if c.DefaultConnection != "" {
		if _, ok := c.Connections[c.DefaultConnection]; !ok {
			return errorf(c.File, "default_connection %q is not defined", c.DefaultConnection)
		}
	}
	return nil
}

func validateRule(r core.Rule) error {
	for _, p := range requiredParams[r.Type] {
		if _, ok := r.Param(p); !ok {
			return fmt.Errorf("rule %q (%s) requires '%s' field", r.Name, r.Type, p)
		}
	}
	return nil
}
