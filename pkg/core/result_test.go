package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRule = Rule{Name: "r1", Type: RuleCompleteness, Severity: SeverityHigh, Table: "clients"}

func TestResult_PassedInvariant(t *testing.T) {
	tests := []struct {
		name   string
		result Result
	}{
		{"zero violations", NewResult(testRule, 0, nil, "q", nil)},
		{"some violations", NewResult(testRule, 3, []Row{{"id": 1}}, "q", nil)},
		{"negative clamps", NewResult(testRule, -4, nil, "q", nil)},
		{"error", ErrorResult(testRule, "q", "boom")},
		{"empty error message", ErrorResult(testRule, "", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.result
			assert.GreaterOrEqual(t, r.ViolationCount, int64(0))
			assert.Equal(t, r.ViolationCount == 0 && r.Error == "", r.Passed)
			assert.Equal(t, !r.Passed, r.Failed())
			assert.NotNil(t, r.Metadata)
			assert.NotNil(t, r.SampleRecords)
		})
	}
}

func TestResult_CopiesRuleIdentity(t *testing.T) {
	r := NewResult(testRule, 1, nil, "SELECT 1", map[string]any{"k": "v"})
	assert.Equal(t, "r1", r.RuleName)
	assert.Equal(t, RuleCompleteness, r.RuleType)
	assert.Equal(t, SeverityHigh, r.Severity)
	assert.Equal(t, "clients", r.Table)
	assert.Equal(t, "v", r.Metadata["k"])
}

func TestResult_WithElapsedCopies(t *testing.T) {
	r := NewResult(testRule, 0, nil, "", nil)
	timed := r.WithElapsed(1500 * time.Microsecond)
	assert.Zero(t, r.Elapsed)
	assert.Equal(t, 1500*time.Microsecond, timed.Elapsed)
}

func TestResult_MarshalJSON(t *testing.T) {
	r := NewResult(testRule, 2, nil, "q", nil).WithElapsed(2 * time.Millisecond)
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "high", got["severity"])
	assert.Equal(t, "completeness", got["rule_type"])
	assert.InDelta(t, 2.0, got["execution_time_ms"], 0.001)
	assert.NotContains(t, got, "error_message")
}
