package validator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

// maxOrphanValues bounds the distinct orphan values reported in metadata.
const maxOrphanValues = 20

type referentialParams struct {
	Column          string `mapstructure:"column"`
	ReferenceTable  string `mapstructure:"reference_table"`
	ReferenceColumn string `mapstructure:"reference_column"`
	AllowNull       *bool  `mapstructure:"allow_null"`
}

// Referential finds rows whose column value has no match in a reference
// table, using a left anti-join.
type Referential struct {
	base
}

// NewReferential creates a referential integrity validator.
func NewReferential(conn connector.Connector, settings core.Settings, logger *slog.Logger) Validator {
	return &Referential{base: newBase(conn, settings, logger)}
}

// Validate implements Validator.
func (v *Referential) Validate(ctx context.Context, rule core.Rule) core.Result {
	var p referentialParams
	if err := decodeParams(rule, &p); err != nil {
		return v.fail(rule, "", err)
	}
	if err := requireTable(rule); err != nil {
		return v.fail(rule, "", err)
	}
	for _, f := range []struct{ name, val string }{
		{"column", p.Column},
		{"reference_table", p.ReferenceTable},
		{"reference_column", p.ReferenceColumn},
	} {
		if f.val == "" {
			return v.fail(rule, "", missing(rule, f.name))
		}
	}
	allowNull := boolOr(p.AllowNull, true)

	col := "t." + v.quote(p.Column)
	refCol := "r." + v.quote(p.ReferenceColumn)
	from := fmt.Sprintf("FROM %s t LEFT JOIN %s r ON %s = %s WHERE %s IS NULL",
		v.quote(rule.Table), v.quote(p.ReferenceTable), col, refCol, refCol)
	if allowNull {
		from += fmt.Sprintf(" AND %s IS NOT NULL", col)
	}

	query := "SELECT t.* " + from
	countQuery := "SELECT COUNT(*) AS violation_count " + from
	orphanQuery := fmt.Sprintf("SELECT DISTINCT %s AS orphan_value %s", col, from)

	metadata := map[string]any{
		"source_table":     rule.Table,
		"source_column":    p.Column,
		"reference_table":  p.ReferenceTable,
		"reference_column": p.ReferenceColumn,
		"allow_null":       allowNull,
		"orphan_values":    []any{},
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
		samples = cleanRows(rows, nil, nil)
		metadata["sample_strategy"] = strategy

		orphans, _, err := v.sample(ctx, sampleRequest{
			Query:        orphanQuery,
			OrderBy:      "orphan_value",
			OuterOrderBy: "orphan_value",
			Limit:        maxOrphanValues,
			Less:         lessByColumns("orphan_value"),
		})
		if err != nil {
			return v.fail(rule, query, err)
		}
		values := make([]any, 0, len(orphans))
		for _, r := range orphans {
			values = append(values, jsonValue(r["orphan_value"]))
		}
		metadata["orphan_values"] = values
	}
	return core.NewResult(rule, violations, samples, query, metadata)
}
