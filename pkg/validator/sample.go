package validator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// Sample strategies, in the order they are attempted.
const (
	StrategyFetch  = "offset_fetch"
	StrategyLimit  = "limit"
	StrategyTop    = "top_subquery"
	StrategyClient = "client"
)

// sampleRequest describes a bounded sample of a violating-rows query.
type sampleRequest struct {
	Query string
	// OrderBy is appended to Query in the first two stages.
	OrderBy string
	// OuterOrderBy orders the wrapped query and may only name its columns.
	OuterOrderBy string
	Limit        int
	// Less sorts the full result in the last stage. Nil keeps query order.
	Less func(a, b core.Row) bool
}

// sample runs the request through the fallback chain. The next stage is tried only
// when the previous one failed with a *core.QueryError.
func (b *base) sample(ctx context.Context, req sampleRequest) ([]core.Row, string, error) {
	q := strings.TrimSpace(req.Query)
	ordered := q
	if req.OrderBy != "" {
		ordered += " ORDER BY " + req.OrderBy
	}
	outer := ""
	if req.OuterOrderBy != "" {
		outer = " ORDER BY " + req.OuterOrderBy
	}

	stages := []struct {
		name  string
		query string
	}{
		{StrategyFetch, fmt.Sprintf("%s OFFSET 0 ROWS FETCH NEXT %d ROWS ONLY", ordered, req.Limit)},
		{StrategyLimit, fmt.Sprintf("%s LIMIT %d", ordered, req.Limit)},
		{StrategyTop, fmt.Sprintf("SELECT TOP %d * FROM (%s) AS t%s", req.Limit, q, outer)},
	}
	for _, st := range stages {
		rows, err := b.conn.Query(ctx, st.query)
		if err == nil {
			return truncate(rows, req.Limit), st.name, nil
		}
		if !core.IsQueryError(err) {
			return nil, st.name, err
		}
		b.logger.Debug("sample strategy failed", slog.String("strategy", st.name), slog.String("error", err.Error()))
	}

	rows, err := b.conn.Query(ctx, q)
	if err != nil {
		return nil, StrategyClient, err
	}
	if req.Less != nil {
		sort.SliceStable(rows, func(i, j int) bool { return req.Less(rows[i], rows[j]) })
	}
	return truncate(rows, req.Limit), StrategyClient, nil
}

func truncate(rows []core.Row, n int) []core.Row {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}

// count runs a count query and extracts its value.
func (b *base) count(ctx context.Context, query string) (int64, error) {
	rows, err := b.conn.Query(ctx, query)
	if err != nil {
		return 0, err
	}
	return extractCount(rows), nil
}

var countColumns = []string{"violation_count", "count", "cnt", "total"}

// extractCount reads a count from the first row: a known column name
// (case-insensitive) first, otherwise the only column. Anything else is 0.
func extractCount(rows []core.Row) int64 {
	if len(rows) == 0 {
		return 0
	}
	row := rows[0]
	for _, name := range countColumns {
		for k, v := range row {
			if strings.EqualFold(k, name) {
				return toCount(v)
			}
		}
	}
	if len(row) == 1 {
		for _, v := range row {
			return toCount(v)
		}
	}
	return 0
}

// toCount coerces driver values (integers, floats, numeric strings, NULL).
func toCount(v any) int64 {
	v = normalizeNumber(v)
	if v == nil {
		return 0
	}
	if n, err := cast.ToInt64E(v); err == nil {
		return n
	}
	if f, err := cast.ToFloat64E(v); err == nil && !math.IsNaN(f) {
		return int64(f)
	}
	return 0
}

// toFloat coerces a driver value to float64.
func toFloat(v any) (float64, bool) {
	v = normalizeNumber(v)
	if v == nil {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// normalizeNumber unwraps arbitrary-precision values some drivers return
// (DuckDB scans HUGEINT as *big.Int and DECIMAL as a type with Float64).
func normalizeNumber(v any) any {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil
		}
		if x.IsInt64() {
			return x.Int64()
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	case big.Int:
		return normalizeNumber(&x)
	case *big.Float:
		if x == nil {
			return nil
		}
		f, _ := x.Float64()
		return f
	case interface{ Float64() float64 }:
		return x.Float64()
	}
	return v
}

// compareValues orders two driver values: NULLs first, then numerically
// when both are numbers, then by time, then by string form.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(cast.ToString(a), cast.ToString(b))
}

// lessByColumns sorts rows ascending by the given columns.
func lessByColumns(cols ...string) func(a, b core.Row) bool {
	return func(a, b core.Row) bool {
		for _, c := range cols {
			if d := compareValues(a[c], b[c]); d != 0 {
				return d < 0
			}
		}
		return false
	}
}

// cleanRows makes sample rows JSON friendly. Columns starting with an
// underscore are internal: they are dropped unless renamed, and rename may
// transform their value.
func cleanRows(rows []core.Row, rename map[string]string, transform func(key string, v any) any) []core.Row {
	out := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		clean := make(core.Row, len(r))
		for k, v := range r {
			if strings.HasPrefix(k, "_") {
				to, ok := rename[k]
				if !ok {
					continue
				}
				if transform != nil {
					v = transform(k, v)
				}
				clean[to] = jsonValue(v)
				continue
			}
			clean[k] = jsonValue(v)
		}
		out = append(out, clean)
	}
	return out
}

// jsonValue keeps primitives and times; anything else becomes its string form.
func jsonValue(v any) any {
	switch x := v.(type) {
	case nil, bool, string, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return v
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Sprint(x)
		}
		return x
	case float32:
		return jsonValue(float64(x))
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
