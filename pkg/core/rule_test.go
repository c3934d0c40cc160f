package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRuleType(t *testing.T) {
	for _, rt := range RuleTypes() {
		got, ok := ParseRuleType(string(rt))
		assert.True(t, ok)
		assert.Equal(t, rt, got)
	}
	_, ok := ParseRuleType("freshness")
	assert.False(t, ok)
}

func TestRuleFilter_Apply(t *testing.T) {
	rules := []Rule{
		ruleOf("a", SeverityCritical),
		ruleOf("b", SeverityHigh),
		ruleOf("c", SeverityCritical),
	}

	tests := []struct {
		name   string
		filter RuleFilter
		want   []string
	}{
		{"empty keeps all", RuleFilter{}, []string{"a", "b", "c"}},
		{"by severity", RuleFilter{Severities: []Severity{SeverityCritical}}, []string{"a", "c"}},
		{"by name", RuleFilter{Names: []string{"c", "b"}}, []string{"b", "c"}},
		{"both", RuleFilter{Severities: []Severity{SeverityHigh}, Names: []string{"a"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, r := range tt.filter.Apply(rules) {
				got = append(got, r.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRule_Summary(t *testing.T) {
	s := Rule{Name: "x", Type: RuleCustomSQL, Severity: SeverityLow}.Summary()
	assert.Equal(t, "N/A", s.Table)
}

func TestCheckUniqueNames(t *testing.T) {
	assert.NoError(t, CheckUniqueNames([]Rule{ruleOf("a", SeverityLow), ruleOf("b", SeverityLow)}))
	assert.ErrorContains(t, CheckUniqueNames([]Rule{ruleOf("a", SeverityLow), ruleOf("a", SeverityHigh)}), `"a"`)
}

func TestSettings_Normalize(t *testing.T) {
	got := Settings{SampleSize: -1, StopOnCritical: true}.Normalize()
	assert.Equal(t, DefaultSampleSize, got.SampleSize)
	assert.Equal(t, DefaultMaxWorkers, got.MaxWorkers)
	assert.Equal(t, DefaultOutputDir, got.OutputDir)
	assert.True(t, got.StopOnCritical)
}
