package validator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

// maxDuplicateGroups bounds the groups reported in metadata.
const maxDuplicateGroups = 10

type duplicatesParams struct {
	Columns       []string `mapstructure:"columns"`
	Column        string   `mapstructure:"column"`
	CaseSensitive *bool    `mapstructure:"case_sensitive"`
	IgnoreNull    *bool    `mapstructure:"ignore_null"`
}

// Duplicates groups rows by a column combination and reports groups larger
// than one. Each group contributes its size minus one to the violation count.
type Duplicates struct {
	base
	single bool
}

// NewDuplicates creates a duplicates validator.
func NewDuplicates(conn connector.Connector, settings core.Settings, logger *slog.Logger) Validator {
	return &Duplicates{base: newBase(conn, settings, logger)}
}

// NewUniqueness creates a duplicates validator restricted to one column.
func NewUniqueness(conn connector.Connector, settings core.Settings, logger *slog.Logger) Validator {
	return &Duplicates{base: newBase(conn, settings, logger), single: true}
}

func (v *Duplicates) columns(rule core.Rule, p duplicatesParams) ([]string, error) {
	cols := trimNames(p.Columns)
	if p.Column != "" {
		cols = append([]string{strings.TrimSpace(p.Column)}, cols...)
	}
	if len(cols) == 0 {
		if v.single {
			return nil, missing(rule, "column")
		}
		return nil, missing(rule, "columns")
	}
	if v.single && len(cols) != 1 {
		return nil, &ParamError{Rule: rule.Name, Msg: "uniqueness rules check exactly one column"}
	}
	return cols, nil
}

// Validate implements Validator.
func (v *Duplicates) Validate(ctx context.Context, rule core.Rule) core.Result {
	var p duplicatesParams
	if err := decodeParams(rule, &p); err != nil {
		return v.fail(rule, "", err)
	}
	if err := requireTable(rule); err != nil {
		return v.fail(rule, "", err)
	}
	columns, err := v.columns(rule, p)
	if err != nil {
		return v.fail(rule, "", err)
	}
	caseSensitive := boolOr(p.CaseSensitive, true)
	ignoreNull := boolOr(p.IgnoreNull, true)

	table := v.quote(rule.Table)
	var (
		keyExprs  []string // grouping expressions
		selectKey []string // grouping expressions aliased back to column names
		joins     []string
		order     []string
		outer     []string
		notNull   []string
	)
	for _, c := range columns {
		q := v.quote(c)
		expr, tExpr := q, "t."+q
		if !caseSensitive {
			expr, tExpr = "LOWER("+q+")", "LOWER(t."+q+")"
		}
		keyExprs = append(keyExprs, expr)
		selectKey = append(selectKey, expr+" AS "+q)
		if ignoreNull {
			joins = append(joins, fmt.Sprintf("%s = dg.%s", tExpr, q))
		} else {
			joins = append(joins, fmt.Sprintf("(%s = dg.%s OR (%s IS NULL AND dg.%s IS NULL))", tExpr, q, tExpr, q))
		}
		order = append(order, "t."+q)
		outer = append(outer, q)
		notNull = append(notNull, q+" IS NOT NULL")
	}
	where := ""
	if ignoreNull {
		where = " WHERE " + strings.Join(notNull, " AND ")
	}
	groupBy := strings.Join(keyExprs, ", ")

	groupsQuery := fmt.Sprintf("SELECT %s, COUNT(*) AS duplicate_count FROM %s%s GROUP BY %s HAVING COUNT(*) > 1",
		strings.Join(selectKey, ", "), table, where, groupBy)
	countQuery := fmt.Sprintf("SELECT CAST(SUM(cnt - 1) AS BIGINT) AS violation_count FROM (SELECT COUNT(*) AS cnt FROM %s%s GROUP BY %s HAVING COUNT(*) > 1) AS dups",
		table, where, groupBy)
	recordsQuery := fmt.Sprintf("SELECT t.*, dg.duplicate_count AS _duplicate_count FROM %s t INNER JOIN (%s) dg ON %s",
		table, groupsQuery, strings.Join(joins, " AND "))

	metadata := map[string]any{
		"columns_checked":  columns,
		"case_sensitive":   caseSensitive,
		"ignore_null":      ignoreNull,
		"duplicate_groups": []core.Row{},
		"group_count":      0,
	}

	violations, err := v.count(ctx, countQuery)
	if err != nil {
		return v.fail(rule, groupsQuery, err)
	}

	var samples []core.Row
	if violations > 0 {
		groups, _, err := v.sample(ctx, sampleRequest{
			Query:        groupsQuery,
			OrderBy:      "COUNT(*) DESC",
			OuterOrderBy: "duplicate_count DESC",
			Limit:        maxDuplicateGroups,
			Less: func(a, b core.Row) bool {
				return compareValues(a["duplicate_count"], b["duplicate_count"]) > 0
			},
		})
		if err != nil {
			return v.fail(rule, groupsQuery, err)
		}
		groups = renameColumn(cleanRows(groups, nil, nil), "duplicate_count", "group_size")
		metadata["duplicate_groups"] = groups
		metadata["group_count"] = len(groups)

		rows, strategy, err := v.sample(ctx, sampleRequest{
			Query:        recordsQuery,
			OrderBy:      strings.Join(order, ", "),
			OuterOrderBy: strings.Join(outer, ", "),
			Limit:        v.settings.SampleSize * 2,
			Less:         lessByColumns(columns...),
		})
		if err != nil {
			return v.fail(rule, groupsQuery, err)
		}
		samples = cleanRows(rows, map[string]string{"_duplicate_count": "group_size"}, nil)
		metadata["sample_strategy"] = strategy
	}
	return core.NewResult(rule, violations, samples, groupsQuery, metadata)
}

func renameColumn(rows []core.Row, from, to string) []core.Row {
	for _, r := range rows {
		if v, ok := r[from]; ok {
			delete(r, from)
			r[to] = v
		}
	}
	return rows
}
