package core

import (
	"encoding/json"
	"sort"
	"time"
)

// Report aggregates all results of one run.
// Summary views are computed from Results on demand.
type Report struct {
	RunID      string        `json:"run_id"`
	Connection string        `json:"connection_name"`
	Timestamp  time.Time     `json:"timestamp"`
	Duration   time.Duration `json:"-"`
	Results    []Result      `json:"results"`
	Settings   Settings      `json:"settings"`
}

// Total returns the number of results.
func (r *Report) Total() int { return len(r.Results) }

// PassedCount returns the number of passing results.
func (r *Report) PassedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed {
			n++
		}
	}
	return n
}

// FailedCount returns the number of failing results.
func (r *Report) FailedCount() int {
	return r.Total() - r.PassedCount()
}

// FailuresBySeverity counts failures per severity. Every severity is present.
func (r *Report) FailuresBySeverity() map[Severity]int {
	counts := make(map[Severity]int, len(severityOrder))
	for _, s := range severityOrder {
		counts[s] = 0
	}
	for _, res := range r.Results {
		if res.Failed() {
			counts[res.Severity]++
		}
	}
	return counts
}

// FailedResults returns failures ordered from most to least severe.
// Results of equal severity keep their original order.
func (r *Report) FailedResults() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Failed() {
			failed = append(failed, res)
		}
	}
	sort.SliceStable(failed, func(i, j int) bool {
		return failed[i].Severity.Rank() > failed[j].Severity.Rank()
	})
	return failed
}

// FailuresOf returns failed results of one severity in original order.
func (r *Report) FailuresOf(s Severity) []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Failed() && res.Severity == s {
			out = append(out, res)
		}
	}
	return out
}

// CriticalFailures returns failed critical results.
func (r *Report) CriticalFailures() []Result {
	return r.FailuresOf(SeverityCritical)
}

// HasCriticalFailures reports whether any critical rule failed.
func (r *Report) HasCriticalFailures() bool {
	return len(r.CriticalFailures()) > 0
}

// Summary is the condensed view of a report.
type Summary struct {
	TotalRules         int            `json:"total_rules"`
	Passed             int            `json:"passed"`
	Failed             int            `json:"failed"`
	FailuresBySeverity map[string]int `json:"failures_by_severity"`
}

// Summary computes the condensed view.
func (r *Report) Summary() Summary {
	bySev := make(map[string]int, len(severityOrder))
	for s, n := range r.FailuresBySeverity() {
		bySev[s.String()] = n
	}
	return Summary{
		TotalRules:         r.Total(),
		Passed:             r.PassedCount(),
		Failed:             r.FailedCount(),
		FailuresBySeverity: bySev,
	}
}

// MarshalJSON adds the computed summary and duration to the encoded report.
func (r *Report) MarshalJSON() ([]byte, error) {
	type alias Report
	return json.Marshal(struct {
		*alias
		DurationSeconds float64 `json:"duration_seconds"`
		Summary         Summary `json:"summary"`
	}{
		alias:           (*alias)(r),
		DurationSeconds: r.Duration.Seconds(),
		Summary:         r.Summary(),
	})
}
