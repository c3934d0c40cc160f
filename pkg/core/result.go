package core

import (
	"encoding/json"
	"time"
)

// Row is a single result row keyed by column name.
type Row map[string]any

// Result is the outcome of evaluating one rule.
//
// Results are built only through NewResult and ErrorResult so that
// Passed always equals ViolationCount == 0 && Error == "".
type Result struct {
	RuleName       string         `json:"rule_name"`
	RuleType       RuleType       `json:"rule_type"`
	Severity       Severity       `json:"severity"`
	Table          string         `json:"table"`
	Description    string         `json:"description"`
	Passed         bool           `json:"passed"`
	ViolationCount int64          `json:"violation_count"`
	SampleRecords  []Row          `json:"sample_records"`
	Query          string         `json:"query"`
	Elapsed        time.Duration  `json:"-"`
	Error          string         `json:"error_message,omitempty"`
	Metadata       map[string]any `json:"metadata"`
}

// NewResult builds the result of a rule that executed without error.
// Negative counts are clamped to zero.
func NewResult(rule Rule, violations int64, samples []Row, query string, metadata map[string]any) Result {
	if violations < 0 {
		violations = 0
	}
	r := baseResult(rule, query, metadata)
	r.ViolationCount = violations
	r.Passed = violations == 0
	if len(samples) > 0 {
		r.SampleRecords = samples
	}
	return r
}

// ErrorResult builds a failed result for a rule that could not be evaluated.
func ErrorResult(rule Rule, query string, msg string) Result {
	if msg == "" {
		msg = "validation failed"
	}
	r := baseResult(rule, query, nil)
	r.Error = msg
	r.Passed = false
	return r
}

func baseResult(rule Rule, query string, metadata map[string]any) Result {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Result{
		RuleName:      rule.Name,
		RuleType:      rule.Type,
		Severity:      rule.Severity,
		Table:         rule.Table,
		Description:   rule.Description,
		Query:         query,
		SampleRecords: []Row{},
		Metadata:      metadata,
	}
}

// Failed is the negation of Passed.
func (r Result) Failed() bool { return !r.Passed }

// WithElapsed returns a copy of the result carrying the given execution time.
func (r Result) WithElapsed(d time.Duration) Result {
	r.Elapsed = d
	return r
}

// MarshalJSON adds execution_time_ms to the encoded result.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	return json.Marshal(struct {
		alias
		ExecutionTimeMS float64 `json:"execution_time_ms"`
	}{
		alias:           alias(r),
		ExecutionTimeMS: float64(r.Elapsed.Microseconds()) / 1000,
	})
}
