package validator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

// Outlier detection methods and directions.
const (
	MethodZScore = "zscore"
	MethodIQR    = "iqr"

	DirectionBoth = "both"
	DirectionHigh = "high"
	DirectionLow  = "low"
)

// Where statistics were computed, reported in metadata.
const (
	sourceDatabase = "database"
	sourceClient   = "client"
)

// minIQRValues is the smallest sample quartiles are computed for.
const minIQRValues = 4

// floatType is understood by every supported dialect and maps to an 8-byte float.
const floatType = "DOUBLE PRECISION"

type outliersParams struct {
	Column    string   `mapstructure:"column"`
	Method    string   `mapstructure:"method"`
	Threshold *float64 `mapstructure:"threshold"`
	Direction string   `mapstructure:"direction"`
}

// Outliers flags statistical outliers by z-score or interquartile range.
// Statistics come from the database when it can compute them and from the
// column values otherwise; violating rows are always selected on the
// database with the resulting bounds.
type Outliers struct {
	base
}

// NewOutliers creates an outliers validator.
func NewOutliers(conn connector.Connector, settings core.Settings, logger *slog.Logger) Validator {
	return &Outliers{base: newBase(conn, settings, logger)}
}

// outlierBounds is the outcome of the statistics phase.
type outlierBounds struct {
	lower, upper *float64
	// center orders samples by distance from it.
	center float64
	// scale divides the distance from center into a z-score.
	scale float64
	// note is set when the column has no spread and the rule passes.
	note     string
	metadata map[string]any
}

// Validate implements Validator.
func (v *Outliers) Validate(ctx context.Context, rule core.Rule) core.Result {
	var p outliersParams
	if err := decodeParams(rule, &p); err != nil {
		return v.fail(rule, "", err)
	}
	if err := requireTable(rule); err != nil {
		return v.fail(rule, "", err)
	}
	if p.Column == "" {
		return v.fail(rule, "", missing(rule, "column"))
	}
	method := strings.ToLower(strings.TrimSpace(p.Method))
	if method == "" {
		method = MethodZScore
	}
	direction := strings.ToLower(strings.TrimSpace(p.Direction))
	if direction == "" {
		direction = DirectionBoth
	}
	if direction != DirectionBoth && direction != DirectionHigh && direction != DirectionLow {
		return v.fail(rule, "", &ParamError{Rule: rule.Name, Msg: fmt.Sprintf("unknown direction %q: must be both, high or low", p.Direction)})
	}
	threshold := 3.0
	if method == MethodIQR {
		threshold = 1.5
	}
	if p.Threshold != nil {
		threshold = *p.Threshold
	}
	if threshold <= 0 {
		return v.fail(rule, "", &ParamError{Rule: rule.Name, Msg: "threshold must be positive"})
	}

	var (
		b   outlierBounds
		err error
	)
	switch method {
	case MethodZScore:
		b, err = v.zscoreBounds(ctx, rule, p.Column, threshold, direction)
	case MethodIQR:
		b, err = v.iqrBounds(ctx, rule, p.Column, threshold, direction)
	default:
		err = &ParamError{Rule: rule.Name, Msg: fmt.Sprintf("unknown method %q: must be zscore or iqr", p.Method)}
	}
	if err != nil {
		return v.fail(rule, "", err)
	}

	metadata := b.metadata
	metadata["column"] = p.Column
	metadata["method"] = method
	metadata["threshold"] = threshold
	metadata["direction"] = direction
	if b.note != "" {
		metadata["note"] = b.note
		return core.NewResult(rule, 0, nil, "", metadata)
	}
	metadata["lower_bound"] = roundPtr(b.lower)
	metadata["upper_bound"] = roundPtr(b.upper)

	col := v.quote(p.Column)
	value := "CAST(" + col + " AS " + floatType + ")"
	var conds []string
	if b.lower != nil {
		conds = append(conds, fmt.Sprintf("%s < %s", value, connector.Literal(*b.lower)))
	}
	if b.upper != nil {
		conds = append(conds, fmt.Sprintf("%s > %s", value, connector.Literal(*b.upper)))
	}
	where := fmt.Sprintf("%s IS NOT NULL AND (%s)", col, strings.Join(conds, " OR "))
	table := v.quote(rule.Table)
	distance := fmt.Sprintf("ABS(%s - %s)", value, connector.Literal(b.center))

	selectList := "*"
	outer := distance + " DESC"
	rename := map[string]string{}
	if method == MethodZScore {
		selectList = fmt.Sprintf("*, (%s - %s) / %s AS _zscore", value, connector.Literal(b.center), connector.Literal(b.scale))
		outer = "ABS(_zscore) DESC"
		rename["_zscore"] = "zscore"
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", selectList, table, where)
	countQuery := fmt.Sprintf("SELECT COUNT(*) AS violation_count FROM %s WHERE %s", table, where)

	violations, err := v.count(ctx, countQuery)
	if err != nil {
		return v.fail(rule, query, err)
	}

	var samples []core.Row
	if violations > 0 {
		center := b.center
		rows, strategy, err := v.sample(ctx, sampleRequest{
			Query:        query,
			OrderBy:      distance + " DESC",
			OuterOrderBy: outer,
			Limit:        v.settings.SampleSize,
			Less: func(x, y core.Row) bool {
				fx, _ := toFloat(x[p.Column])
				fy, _ := toFloat(y[p.Column])
				return math.Abs(fx-center) > math.Abs(fy-center)
			},
		})
		if err != nil {
			return v.fail(rule, query, err)
		}
		samples = cleanRows(rows, rename, func(_ string, val any) any {
			if f, ok := toFloat(val); ok {
				return round4(f)
			}
			return val
		})
		metadata["sample_strategy"] = strategy
	}
	return core.NewResult(rule, violations, samples, query, metadata)
}

func (v *Outliers) zscoreBounds(ctx context.Context, rule core.Rule, column string, threshold float64, direction string) (outlierBounds, error) {
	stats, source, err := v.columnStats(ctx, rule, column)
	if err != nil {
		return outlierBounds{}, err
	}
	b := outlierBounds{
		center: stats.Mean,
		metadata: map[string]any{
			"mean":         round4(stats.Mean),
			"std_dev":      nil,
			"stats_source": source,
			"count":        stats.Count,
		},
	}
	if stats.Count == 0 || stats.Min == stats.Max || !stats.HasStdDev || stats.StdDev == 0 {
		b.note = "No variance in data or insufficient records"
		return b, nil
	}
	b.scale = stats.StdDev
	b.metadata["std_dev"] = round4(stats.StdDev)
	b.lower, b.upper = directedBounds(direction, stats.Mean-threshold*stats.StdDev, stats.Mean+threshold*stats.StdDev)
	return b, nil
}

// columnStats asks the database for the column summary and computes it from
// the values when the dialect lacks a standard deviation aggregate.
func (v *Outliers) columnStats(ctx context.Context, rule core.Rule, column string) (columnStats, string, error) {
	col := v.quote(column)
	value := "CAST(" + col + " AS " + floatType + ")"
	query := fmt.Sprintf("SELECT AVG(%[1]s) AS mean_val, STDEV(%[1]s) AS std_val, MIN(%[1]s) AS min_val, MAX(%[1]s) AS max_val, COUNT(%[2]s) AS cnt FROM %[3]s WHERE %[2]s IS NOT NULL",
		value, col, v.quote(rule.Table))
	rows, err := v.conn.Query(ctx, query)
	if err == nil && len(rows) == 1 {
		r := rows[0]
		s := columnStats{Count: toCount(r["cnt"])}
		s.Mean, _ = toFloat(r["mean_val"])
		s.StdDev, s.HasStdDev = toFloat(r["std_val"])
		s.Min, _ = toFloat(r["min_val"])
		s.Max, _ = toFloat(r["max_val"])
		return s, sourceDatabase, nil
	}
	if err != nil && !core.IsQueryError(err) {
		return columnStats{}, "", err
	}
	v.logger.Debug("computing column statistics client-side", slog.String("rule", rule.Name))

	values, err := v.values(ctx, rule, column)
	if err != nil {
		return columnStats{}, "", err
	}
	return describe(values), sourceClient, nil
}

func (v *Outliers) iqrBounds(ctx context.Context, rule core.Rule, column string, threshold float64, direction string) (outlierBounds, error) {
	q1, median, q3, n, source, err := v.quartiles(ctx, rule, column)
	if err != nil {
		return outlierBounds{}, err
	}
	b := outlierBounds{
		center: median,
		metadata: map[string]any{
			"quartile_source": source,
			"count":           n,
		},
	}
	if n < minIQRValues {
		b.note = "Insufficient data for IQR calculation"
		return b, nil
	}
	iqr := q3 - q1
	b.metadata["q1"] = round4(q1)
	b.metadata["median"] = round4(median)
	b.metadata["q3"] = round4(q3)
	b.metadata["iqr"] = round4(iqr)
	if iqr == 0 {
		b.note = "IQR is zero (no variation in middle 50% of data)"
		return b, nil
	}
	b.lower, b.upper = directedBounds(direction, q1-threshold*iqr, q3+threshold*iqr)
	return b, nil
}

// quartiles uses PERCENTILE_CONT where the dialect has it and falls back
// to interpolating over the column values.
func (v *Outliers) quartiles(ctx context.Context, rule core.Rule, column string) (q1, median, q3 float64, n int64, source string, err error) {
	col := v.quote(column)
	table := v.quote(rule.Table)
	value := "CAST(" + col + " AS " + floatType + ")"
	pct := func(p string) string {
		return fmt.Sprintf("PERCENTILE_CONT(%s) WITHIN GROUP (ORDER BY %s)", p, value)
	}

	var query string
	switch v.dialect().Percentile {
	case connector.PercentileAggregate:
		query = fmt.Sprintf("SELECT %s AS q1, %s AS median, %s AS q3, COUNT(*) AS cnt FROM %s WHERE %s IS NOT NULL",
			pct("0.25"), pct("0.5"), pct("0.75"), table, col)
	case connector.PercentileWindow:
		query = fmt.Sprintf("SELECT DISTINCT %s OVER () AS q1, %s OVER () AS median, %s OVER () AS q3, COUNT(*) OVER () AS cnt FROM %s WHERE %s IS NOT NULL",
			pct("0.25"), pct("0.5"), pct("0.75"), table, col)
	}
	if query != "" {
		rows, qerr := v.conn.Query(ctx, query)
		switch {
		case qerr == nil && len(rows) == 0:
			return 0, 0, 0, 0, sourceDatabase, nil
		case qerr == nil:
			r := rows[0]
			q1, _ = toFloat(r["q1"])
			median, _ = toFloat(r["median"])
			q3, _ = toFloat(r["q3"])
			return q1, median, q3, toCount(r["cnt"]), sourceDatabase, nil
		case !core.IsQueryError(qerr):
			return 0, 0, 0, 0, "", qerr
		}
		v.logger.Debug("percentile query failed, computing quartiles client-side",
			slog.String("rule", rule.Name), slog.String("error", qerr.Error()))
	}

	values, err := v.values(ctx, rule, column)
	if err != nil {
		return 0, 0, 0, 0, "", err
	}
	if len(values) < minIQRValues {
		return 0, 0, 0, int64(len(values)), sourceClient, nil
	}
	q1, median, q3 = quartiles(values)
	return q1, median, q3, int64(len(values)), sourceClient, nil
}

// values fetches the non-NULL numeric values of column. Values that cannot
// be read as numbers are skipped.
func (v *Outliers) values(ctx context.Context, rule core.Rule, column string) ([]float64, error) {
	col := v.quote(column)
	rows, err := v.conn.Query(ctx, fmt.Sprintf("SELECT %s AS value FROM %s WHERE %s IS NOT NULL", col, v.quote(rule.Table), col))
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if f, ok := toFloat(r["value"]); ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func directedBounds(direction string, lower, upper float64) (*float64, *float64) {
	switch direction {
	case DirectionHigh:
		return nil, &upper
	case DirectionLow:
		return &lower, nil
	default:
		return &lower, &upper
	}
}

func roundPtr(f *float64) any {
	if f == nil {
		return nil
	}
	return round4(*f)
}
