package validator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

type rangeParams struct {
	Column       string `mapstructure:"column"`
	Min          any    `mapstructure:"min"`
	Max          any    `mapstructure:"max"`
	Inclusive    *bool  `mapstructure:"inclusive"`
	MinInclusive *bool  `mapstructure:"min_inclusive"`
	MaxInclusive *bool  `mapstructure:"max_inclusive"`
}

// Range flags non-NULL values outside [min, max]. Either bound may be
// omitted and each bound's inclusivity is configured separately.
type Range struct {
	base
	dates bool
}

// NewRange creates a range validator over numbers or strings.
func NewRange(conn connector.Connector, settings core.Settings, logger *slog.Logger) Validator {
	return &Range{base: newBase(conn, settings, logger)}
}

// NewDateRange creates a range validator whose bounds must be dates.
func NewDateRange(conn connector.Connector, settings core.Settings, logger *slog.Logger) Validator {
	return &Range{base: newBase(conn, settings, logger), dates: true}
}

// Validate implements Validator.
func (v *Range) Validate(ctx context.Context, rule core.Rule) core.Result {
	var p rangeParams
	if err := decodeParams(rule, &p); err != nil {
		return v.fail(rule, "", err)
	}
	if err := requireTable(rule); err != nil {
		return v.fail(rule, "", err)
	}
	if p.Column == "" {
		return v.fail(rule, "", missing(rule, "column"))
	}
	lo, hi, err := v.bounds(rule, p)
	if err != nil {
		return v.fail(rule, "", err)
	}
	inclusive := boolOr(p.Inclusive, true)
	minIncl := boolOr(p.MinInclusive, inclusive)
	maxIncl := boolOr(p.MaxInclusive, inclusive)

	col := v.quote(p.Column)
	var conds []string
	if lo != nil {
		op := "<"
		if !minIncl {
			op = "<="
		}
		conds = append(conds, fmt.Sprintf("%s %s %s", col, op, connector.Literal(lo)))
	}
	if hi != nil {
		op := ">"
		if !maxIncl {
			op = ">="
		}
		conds = append(conds, fmt.Sprintf("%s %s %s", col, op, connector.Literal(hi)))
	}
	where := fmt.Sprintf("%s IS NOT NULL AND (%s)", col, strings.Join(conds, " OR "))
	table := v.quote(rule.Table)

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s", table, where)
	countQuery := fmt.Sprintf("SELECT COUNT(*) AS violation_count FROM %s WHERE %s", table, where)

	metadata := map[string]any{
		"column":        p.Column,
		"min":           jsonValue(lo),
		"max":           jsonValue(hi),
		"inclusive":     inclusive,
		"min_inclusive": minIncl,
		"max_inclusive": maxIncl,
	}

	violations, err := v.count(ctx, countQuery)
	if err != nil {
		return v.fail(rule, query, err)
	}

	var samples []core.Row
	if violations > 0 {
		rows, strategy, err := v.sample(ctx, sampleRequest{
			Query:        query,
			OrderBy:      col,
			OuterOrderBy: col,
			Limit:        v.settings.SampleSize,
			Less:         lessByColumns(p.Column),
		})
		if err != nil {
			return v.fail(rule, query, err)
		}
		samples = cleanRows(rows, nil, nil)
		metadata["sample_strategy"] = strategy
	}
	return core.NewResult(rule, violations, samples, query, metadata)
}

// bounds validates min and max. Date rules require parseable dates; numeric
// bounds must be ordered.
func (v *Range) bounds(rule core.Rule, p rangeParams) (lo, hi any, err error) {
	if p.Min == nil && p.Max == nil {
		return nil, nil, &ParamError{Rule: rule.Name, Msg: "range rules require at least one of min or max"}
	}
	lo, hi = p.Min, p.Max
	if v.dates {
		if lo, err = toDate(rule, "min", lo); err != nil {
			return nil, nil, err
		}
		if hi, err = toDate(rule, "max", hi); err != nil {
			return nil, nil, err
		}
		if lo != nil && hi != nil && lo.(time.Time).After(hi.(time.Time)) {
			return nil, nil, &ParamError{Rule: rule.Name, Msg: "min is after max"}
		}
		return lo, hi, nil
	}
	if lo != nil && hi != nil {
		if fl, ok := toFloat(lo); ok {
			if fh, ok := toFloat(hi); ok && fl > fh {
				return nil, nil, &ParamError{Rule: rule.Name, Msg: "min is greater than max"}
			}
		}
	}
	return lo, hi, nil
}

func toDate(rule core.Rule, field string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return nil, &ParamError{Rule: rule.Name, Msg: fmt.Sprintf("%s is not a date: %v", field, v)}
	}
	return t, nil
}
