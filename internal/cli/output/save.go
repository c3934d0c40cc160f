package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// HistoryFile collects one summary line per run.
const HistoryFile = "dq_history.jsonl"

// SavedReport lists the files written by SaveReport.
type SavedReport struct {
	Report  string
	Summary string
	History string
}

// FailedRule is the condensed view of a failure in the summary file.
type FailedRule struct {
	Name           string        `json:"name"`
	Severity       core.Severity `json:"severity"`
	Table          string        `json:"table"`
	ViolationCount int64         `json:"violation_count"`
}

// SummaryFile is the dashboard-oriented summary of one run.
type SummaryFile struct {
	RunID           string         `json:"run_id"`
	Timestamp       string         `json:"timestamp"`
	Connection      string         `json:"connection"`
	DurationSeconds float64        `json:"duration_seconds"`
	TotalRules      int            `json:"total_rules"`
	Passed          int            `json:"passed"`
	Failed          int            `json:"failed"`
	BySeverity     map[string]int `json:"failures_by_severity"`
	CriticalCount   int            `json:"critical_count"`
	FailedRules     []FailedRule   `json:"failed_rules"`
}

// HistoryRecord is one line of the history file.
type HistoryRecord struct {
	RunID      string  `json:"run_id"`
	Timestamp  string  `json:"timestamp"`
	Connection string  `json:"connection"`
	Total      int     `json:"total"`
	Passed     int     `json:"passed"`
	Failed     int     `json:"failed"`
	Critical   int     `json:"critical"`
	High       int     `json:"high"`
	Duration   float64 `json:"duration"`
}

// NewSummaryFile condenses a report.
func NewSummaryFile(rep *core.Report) SummaryFile {
	sum := rep.Summary()
	failed := make([]FailedRule, 0, sum.Failed)
	for _, res := range rep.FailedResults() {
		failed = append(failed, FailedRule{
			Name:           res.RuleName,
			Severity:       res.Severity,
			Table:          res.Table,
			ViolationCount: res.ViolationCount,
		})
	}
	return SummaryFile{
		RunID:           rep.RunID,
		Timestamp:       rep.Timestamp.Format("2006-01-02T15:04:05.000000"),
		Connection:      rep.Connection,
		DurationSeconds: rep.Duration.Seconds(),
		TotalRules:      sum.TotalRules,
		Passed:          sum.Passed,
		Failed:          sum.Failed,
		BySeverity:     sum.FailuresBySeverity,
		CriticalCount:   len(rep.CriticalFailures()),
		FailedRules:     failed,
	}
}

// SaveReport writes the full report and its summary to dir and appends a
// line to the history file. The directory is created when missing.
func SaveReport(rep *core.Report, dir string) (SavedReport, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return SavedReport{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	stamp := rep.Timestamp.Format("20060102_150405")
	saved := SavedReport{
		Report:  filepath.Join(dir, fmt.Sprintf("dq_report_%s.json", stamp)),
		Summary: filepath.Join(dir, fmt.Sprintf("dq_summary_%s.json", stamp)),
		History: filepath.Join(dir, HistoryFile),
	}

	if err := writeJSON(saved.Report, rep); err != nil {
		return SavedReport{}, err
	}
	if err := writeJSON(saved.Summary, NewSummaryFile(rep)); err != nil {
		return SavedReport{}, err
	}

	bySev := rep.FailuresBySeverity()
	line, err := json.Marshal(HistoryRecord{
		RunID:      rep.RunID,
		Timestamp:  rep.Timestamp.Format("2006-01-02T15:04:05.000000"),
		Connection: rep.Connection,
		Total:      rep.Total(),
		Passed:     rep.PassedCount(),
		Failed:     rep.FailedCount(),
		Critical:   bySev[core.SeverityCritical],
		High:       bySev[core.SeverityHigh],
		Duration:   rep.Duration.Seconds(),
	})
	if err != nil {
		return SavedReport{}, fmt.Errorf("failed to encode history record: %w", err)
	}
	f, err := os.OpenFile(saved.History, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return SavedReport{}, fmt.Errorf("failed to open history file: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return SavedReport{}, fmt.Errorf("failed to append history record: %w", err)
	}
	return saved, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o640); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
