package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ruleOf(name string, sev Severity) Rule {
	return Rule{Name: name, Type: RuleCustomSQL, Severity: sev}
}

func sampleReport() *Report {
	return &Report{
		Connection: "local",
		Results: []Result{
			NewResult(ruleOf("a", SeverityLow), 1, nil, "", nil),
			NewResult(ruleOf("b", SeverityCritical), 0, nil, "", nil),
			NewResult(ruleOf("c", SeverityHigh), 2, nil, "", nil),
			ErrorResult(ruleOf("d", SeverityCritical), "", "boom"),
			NewResult(ruleOf("e", SeverityHigh), 5, nil, "", nil),
		},
	}
}

func TestReport_Counts(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, 5, r.Total())
	assert.Equal(t, 1, r.PassedCount())
	assert.Equal(t, 4, r.FailedCount())
	assert.True(t, r.HasCriticalFailures())
	require.Len(t, r.CriticalFailures(), 1)
	assert.Equal(t, "d", r.CriticalFailures()[0].RuleName)
}

func TestReport_FailuresBySeveritySumsToFailed(t *testing.T) {
	for _, r := range []*Report{sampleReport(), {}} {
		bySev := r.FailuresBySeverity()
		assert.Len(t, bySev, 4)
		sum := 0
		for _, n := range bySev {
			sum += n
		}
		assert.Equal(t, r.FailedCount(), sum)
	}
}

func TestReport_FailedResultsOrdering(t *testing.T) {
	var names []string
	for _, res := range sampleReport().FailedResults() {
		names = append(names, res.RuleName)
	}
	assert.Equal(t, []string{"d", "c", "e", "a"}, names)
}

func TestReport_MarshalJSONIncludesSummary(t *testing.T) {
	data, err := json.Marshal(sampleReport())
	require.NoError(t, err)

	var got struct {
		Summary Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 5, got.Summary.TotalRules)
	assert.Equal(t, 4, got.Summary.Failed)
	assert.Equal(t, 2, got.Summary.FailuresBySeverity["high"])
	assert.Equal(t, 0, got.Summary.FailuresBySeverity["medium"])
}
