package validator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

type completenessParams struct {
	Columns           []string `mapstructure:"columns"`
	CheckEmptyStrings *bool    `mapstructure:"check_empty_strings"`
	CheckWhitespace   bool     `mapstructure:"check_whitespace"`
}

// Completeness flags NULL, empty and optionally whitespace-only values and
// records which columns were incomplete on each sampled row.
type Completeness struct {
	base
}

// NewCompleteness creates a completeness validator.
func NewCompleteness(conn connector.Connector, settings core.Settings, logger *slog.Logger) Validator {
	return &Completeness{base: newBase(conn, settings, logger)}
}

// Validate implements Validator.
func (v *Completeness) Validate(ctx context.Context, rule core.Rule) core.Result {
	var p completenessParams
	if err := decodeParams(rule, &p); err != nil {
		return v.fail(rule, "", err)
	}
	if err := requireTable(rule); err != nil {
		return v.fail(rule, "", err)
	}
	columns := trimNames(p.Columns)
	if len(columns) == 0 {
		return v.fail(rule, "", missing(rule, "columns"))
	}
	checkEmpty := boolOr(p.CheckEmptyStrings, true)

	table := v.quote(rule.Table)
	var (
		conditions []string
		cases      []string
	)
	for _, col := range columns {
		cond := v.incompleteCondition(col, checkEmpty, p.CheckWhitespace)
		conditions = append(conditions, "("+cond+")")
		cases = append(cases, fmt.Sprintf("CASE WHEN %s THEN %s ELSE NULL END", cond, connector.Literal(col)))
	}
	where := strings.Join(conditions, " OR ")

	query := fmt.Sprintf("SELECT *, CONCAT_WS(', ', %s) AS _incomplete_columns FROM %s WHERE %s",
		strings.Join(cases, ", "), table, where)
	countQuery := fmt.Sprintf("SELECT COUNT(*) AS violation_count FROM %s WHERE %s", table, where)

	metadata := map[string]any{
		"columns_checked":     columns,
		"check_empty_strings": checkEmpty,
		"check_whitespace":    p.CheckWhitespace,
	}

	violations, err := v.count(ctx, countQuery)
	if err != nil {
		return v.fail(rule, query, err)
	}

	var samples []core.Row
	if violations > 0 {
		rows, strategy, err := v.sample(ctx, sampleRequest{Query: query, Limit: v.settings.SampleSize})
		if err != nil {
			return v.fail(rule, query, err)
		}
		samples = cleanRows(rows, map[string]string{"_incomplete_columns": "incomplete_fields"}, nil)
		metadata["sample_strategy"] = strategy
	}
	return core.NewResult(rule, violations, samples, query, metadata)
}

// incompleteCondition is true when col is NULL, empty or blank. Text checks
// cast the column so they also work on non-text columns.
func (v *Completeness) incompleteCondition(col string, checkEmpty, checkWhitespace bool) string {
	q := v.quote(col)
	conds := []string{q + " IS NULL"}
	text := v.dialect().TextCast(q)
	if checkEmpty {
		conds = append(conds, text+" = ''")
	}
	if checkWhitespace {
		conds = append(conds, "LTRIM(RTRIM("+text+")) = ''")
	}
	return strings.Join(conds, " OR ")
}

func trimNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
