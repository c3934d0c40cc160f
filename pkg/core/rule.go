package core

import (
	"fmt"
	"strings"
)

// RuleType identifies the algorithm used to evaluate a rule.
type RuleType string

// Rule types accepted in configuration.
const (
	RuleCompleteness         RuleType = "completeness"
	RuleReferentialIntegrity RuleType = "referential_integrity"
	RuleDuplicates           RuleType = "duplicates"
	RuleUniqueness           RuleType = "uniqueness"
	RuleRange                RuleType = "range"
	RulePattern              RuleType = "pattern"
	RuleDateRange            RuleType = "date_range"
	RuleOutliers             RuleType = "outliers"
	RuleCrossField           RuleType = "cross_field"
	RuleCustomSQL            RuleType = "custom_sql"
)

var ruleTypes = []RuleType{
	RuleCompleteness,
	RuleReferentialIntegrity,
	RuleDuplicates,
	RuleUniqueness,
	RuleRange,
	RulePattern,
	RuleDateRange,
	RuleOutliers,
	RuleCrossField,
	RuleCustomSQL,
}

// RuleTypes returns all rule types in declaration order.
func RuleTypes() []RuleType {
	out := make([]RuleType, len(ruleTypes))
	copy(out, ruleTypes)
	return out
}

// ParseRuleType converts a string to a RuleType.
func ParseRuleType(s string) (RuleType, bool) {
	t := RuleType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ruleTypes {
		if t == known {
			return t, true
		}
	}
	return t, false
}

// String implements fmt.Stringer.
func (t RuleType) String() string { return string(t) }

// Rule is a single declarative data-quality check.
// Rules are loaded once per run and never modified by the engine.
// Severity must be set explicitly; the zero Severity is rejected.
type Rule struct {
	Name        string         `json:"name" yaml:"name"`
	Type        RuleType       `json:"type" yaml:"type"`
	Severity    Severity       `json:"severity" yaml:"severity"`
	Table       string         `json:"table,omitempty" yaml:"table,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Params      map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Param returns a type-specific parameter.
func (r Rule) Param(key string) (any, bool) {
	v, ok := r.Params[key]
	return v, ok
}

// RuleSummary is the dry-run view of a rule.
type RuleSummary struct {
	Name        string   `json:"name" yaml:"name"`
	Type        RuleType `json:"type" yaml:"type"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Table       string   `json:"table" yaml:"table"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Summary returns the dry-run view of the rule.
func (r Rule) Summary() RuleSummary {
	table := r.Table
	if table == "" {
		table = "N/A"
	}
	return RuleSummary{
		Name:        r.Name,
		Type:        r.Type,
		Severity:    r.Severity,
		Table:       table,
		Description: r.Description,
	}
}

// RuleFilter narrows the rule list for a run. Empty fields match everything.
type RuleFilter struct {
	Severities []Severity
	Names      []string
}

// Apply returns the rules matching the filter, preserving declaration order.
func (f RuleFilter) Apply(rules []Rule) []Rule {
	if len(f.Severities) == 0 && len(f.Names) == 0 {
		return rules
	}

	sevs := make(map[Severity]struct{}, len(f.Severities))
	for _, s := range f.Severities {
		sevs[s] = struct{}{}
	}
	names := make(map[string]struct{}, len(f.Names))
	for _, n := range f.Names {
		names[n] = struct{}{}
	}

	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if len(sevs) > 0 {
			if _, ok := sevs[r.Severity]; !ok {
				continue
			}
		}
		if len(names) > 0 {
			if _, ok := names[r.Name]; !ok {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// CheckUniqueNames returns an error naming the first duplicated rule name.
func CheckUniqueNames(rules []Rule) error {
	seen := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("duplicate rule name %q", r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return nil
}
