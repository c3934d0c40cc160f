package config

import (
	"maps"

	"github.com/spf13/cast"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// ruleFields are the keys shared by every rule. All other keys of a rule
// entry are type-specific parameters.
var ruleFields = map[string]bool{
	"name":        true,
	"type":        true,
	"severity":    true,
	"table":       true,
	"description": true,
	"params":      true,
}

var requiredRuleFields = []string{"name", "type", "severity"}

// decodeRules converts the raw rules list into core.Rule values.
// Type-specific keys may sit next to the shared fields or under params.
func decodeRules(path string, raw any) ([]core.Rule, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, errorf(path, "rules must be a list")
	}

	rules := make([]core.Rule, 0, len(items))
	for i, item := range items {
		m, err := cast.ToStringMapE(item)
		if err != nil {
			return nil, errorf(path, "rule at index %d is not a mapping", i)
		}
		rule, err := decodeRule(path, i, m)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func decodeRule(path string, index int, m map[string]any) (core.Rule, error) {
	for _, field := range requiredRuleFields {
		if v, ok := m[field]; !ok || cast.ToString(v) == "" {
			return core.Rule{}, errorf(path, "rule at index %d missing required field: %s", index, field)
		}
	}

	name := cast.ToString(m["name"])
	sev, ok := core.ParseSeverity(cast.ToString(m["severity"]))
	if !ok {
		return core.Rule{}, errorf(path, "rule %q has invalid severity: %v. Must be one of: %v",
			name, m["severity"], core.AllSeverities())
	}
	typ, ok := core.ParseRuleType(cast.ToString(m["type"]))
	if !ok {
		return core.Rule{}, errorf(path, "rule %q has invalid type: %v. Must be one of: %v",
			name, m["type"], core.RuleTypes())
	}

	params := map[string]any{}
	if nested, ok := m["params"]; ok {
		p, err := cast.ToStringMapE(nested)
		if err != nil {
			return core.Rule{}, errorf(path, "rule %q: params must be a mapping", name)
		}
		maps.Copy(params, p)
	}
	for k, v := range m {
		if !ruleFields[k] {
			params[k] = v
		}
	}

	return core.Rule{
		Name:        name,
		Type:        typ,
		Severity:    sev,
		Table:       cast.ToString(m["table"]),
		Description: cast.ToString(m["description"]),
		Params:      params,
	}, nil
}
