package output

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

const (
	maxSamplePreview = 3
	maxPreviewFields = 4
	maxValueWidth    = 30
	maxQueryPreview  = 200
)

// idFields are shown first in sample previews.
var idFields = []string{"id", "ID", "client_id", "customer_id", "name", "email"}

// Report writes a run report in the effective output mode.
func (r *Renderer) Report(rep *core.Report) error {
	if r.EffectiveMode() == ModeJSON {
		return r.JSON(rep)
	}
	r.reportText(rep)
	return nil
}

func (r *Renderer) reportText(rep *core.Report) {
	s := r.styles

	r.Println("")
	r.Println(s.Header1.Render("DATA QUALITY REPORT"))
	r.Println("")
	r.Println(FormatKeyValue(s, "Connection", rep.Connection))
	r.Println(FormatKeyValue(s, "Run ID", rep.RunID))
	r.Println(FormatKeyValue(s, "Timestamp", rep.Timestamp.Format("2006-01-02 15:04:05")))
	r.Println(FormatKeyValue(s, "Duration", fmt.Sprintf("%.2f seconds", rep.Duration.Seconds())))
	r.Println(FormatKeyValue(s, "Rules executed", fmt.Sprint(rep.Total())))
	r.Println("")

	r.summaryTable(rep)

	if failed := rep.FailedResults(); len(failed) > 0 {
		r.Println("")
		r.Println(s.Header2.Render("Failed Rules"))
		for _, res := range failed {
			r.Println("")
			r.failure(res)
		}
	}

	var passed []string
	for _, res := range rep.Results {
		if res.Passed {
			passed = append(passed, res.RuleName)
		}
	}
	if len(passed) > 0 {
		r.Println("")
		r.Println(s.Success.Render("✓ Passed Rules"))
		for _, name := range passed {
			r.Muted("  • " + name)
		}
	}
	r.Println("")
}

func (r *Renderer) summaryTable(rep *core.Report) {
	s := r.styles
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Summary")
	t.AppendHeader(table.Row{"Status", "Count"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})

	t.AppendRow(table.Row{s.Success.Render("✓ Passed"), rep.PassedCount()})
	t.AppendRow(table.Row{s.Error.Render("✗ Failed"), rep.FailedCount()})

	bySev := rep.FailuresBySeverity()
	for _, sev := range core.AllSeverities() {
		if n := bySev[sev]; n > 0 {
			t.AppendRow(table.Row{"  " + s.Severity(sev).Render("• "+capitalize(sev.String())), n})
		}
	}
	t.Render()
}

func (r *Renderer) failure(res core.Result) {
	s := r.styles
	r.Printf("%s %s\n", s.SeverityLabel(res.Severity), s.Bold.Render(res.RuleName))

	if res.Table != "" {
		r.Printf("  %s %s\n", s.Muted.Render("Table:"), res.Table)
	}
	if res.Error != "" {
		r.Printf("  %s %s\n", s.Error.Render("Error:"), res.Error)
	} else {
		r.Printf("  %s %s records\n", s.Muted.Render("Violations:"), FormatCount(res.ViolationCount))
	}
	if res.Description != "" {
		r.Printf("  %s %s\n", s.Muted.Render("Description:"), res.Description)
	}

	if len(res.SampleRecords) > 0 {
		r.Printf("  %s\n", s.Muted.Render("Sample violations:"))
		for i, rec := range res.SampleRecords {
			if i == maxSamplePreview {
				break
			}
			r.Printf("    %d. %s\n", i+1, RecordPreview(rec))
		}
	}

	if res.Query != "" {
		q := strings.Join(strings.Fields(res.Query), " ")
		r.Printf("  %s %s\n", s.Muted.Render("Query:"), text.Snip(q, maxQueryPreview, "..."))
	}
}

// RuleList writes the rules a run would evaluate.
// Formats are text (table), json and yaml.
func (r *Renderer) RuleList(rules []core.RuleSummary, format string) error {
	switch format {
	case "json":
		return r.JSON(rules)
	case "yaml":
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(rules); err != nil {
			return err
		}
		return enc.Close()
	}

	r.Println("")
	r.Printf("Would execute %d rules:\n\n", len(rules))
	if len(rules) == 0 {
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Severity", "Name", "Type", "Table", "Description"})
	for _, rule := range rules {
		t.AppendRow(table.Row{
			r.styles.Severity(rule.Severity).Render(strings.ToUpper(rule.Severity.String())),
			rule.Name,
			rule.Type,
			rule.Table,
			text.Snip(rule.Description, 60, "..."),
		})
	}
	t.Render()
	return nil
}

// RecordPreview formats the most identifying fields of a row.
func RecordPreview(rec core.Row) string {
	fields := make([]string, 0, maxPreviewFields)
	shown := make(map[string]bool)

	add := func(k string, v any) bool {
		if v == nil || shown[k] {
			return false
		}
		shown[k] = true
		fields = append(fields, fmt.Sprintf("%s=%s", k, text.Snip(fmt.Sprint(v), maxValueWidth, "...")))
		return len(fields) >= maxPreviewFields
	}

	for _, k := range idFields {
		if v, ok := rec[k]; ok && add(k, v) {
			return strings.Join(fields, ", ")
		}
	}
	for _, k := range slices.Sorted(maps.Keys(rec)) {
		if strings.HasPrefix(k, "_") {
			continue
		}
		if add(k, rec[k]) {
			break
		}
	}
	return strings.Join(fields, ", ")
}

// FormatKeyValue renders "Key: value" with a muted key.
func FormatKeyValue(s Styles, key, value string) string {
	return s.Muted.Render(key+":") + " " + s.Info.Render(value)
}

var countPrinter = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators.
func FormatCount(n int64) string {
	return countPrinter.Sprintf("%d", n)
}

func capitalize(s string) string {
	return cases.Title(language.English).String(s)
}
