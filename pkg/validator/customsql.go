package validator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

// Count strategies for custom queries.
const (
	CountQuery   = "count_query"
	CountWrapped = "wrapped"
	CountClient  = "client"
)

type customSQLParams struct {
	Query      string `mapstructure:"query"`
	CountQuery string `mapstructure:"count_query"`
}

// CustomSQL runs a user query whose rows are the violations.
type CustomSQL struct {
	base
}

// NewCustomSQL creates a custom query validator.
func NewCustomSQL(conn connector.Connector, settings core.Settings, logger *slog.Logger) Validator {
	return &CustomSQL{base: newBase(conn, settings, logger)}
}

// Validate implements Validator.
func (v *CustomSQL) Validate(ctx context.Context, rule core.Rule) core.Result {
	var p customSQLParams
	if err := decodeParams(rule, &p); err != nil {
		return v.fail(rule, "", err)
	}
	query := trimQuery(p.Query)
	if query == "" {
		return v.fail(rule, "", missing(rule, "query"))
	}
	countQuery := trimQuery(p.CountQuery)

	metadata := map[string]any{
		"custom_query":    true,
		"has_count_query": countQuery != "",
	}

	violations, strategy, err := v.countViolations(ctx, rule, query, countQuery)
	if err != nil {
		return v.fail(rule, query, err)
	}
	metadata["count_strategy"] = strategy

	var samples []core.Row
	if violations > 0 {
		rows, strategy, err := v.sample(ctx, sampleRequest{Query: query, Limit: v.settings.SampleSize})
		if err != nil {
			return v.fail(rule, query, err)
		}
		samples = cleanRows(rows, nil, nil)
		metadata["sample_strategy"] = strategy
	}
	return core.NewResult(rule, violations, samples, query, metadata)
}

// countViolations prefers the explicit count query, then wraps the query in
// COUNT(*), then counts the rows of the query itself.
func (v *CustomSQL) countViolations(ctx context.Context, rule core.Rule, query, countQuery string) (int64, string, error) {
	if countQuery != "" {
		n, err := v.count(ctx, countQuery)
		return n, CountQuery, err
	}
	wrapped := fmt.Sprintf("SELECT COUNT(*) AS violation_count FROM (%s) AS validation_results", query)
	n, err := v.count(ctx, wrapped)
	if err == nil {
		return n, CountWrapped, nil
	}
	if !core.IsQueryError(err) {
		return 0, CountWrapped, err
	}
	v.logger.Debug("wrapped count failed, counting rows client-side",
		slog.String("rule", rule.Name), slog.String("error", err.Error()))

	rows, err := v.conn.Query(ctx, query)
	if err != nil {
		return 0, CountClient, err
	}
	return int64(len(rows)), CountClient, nil
}

func trimQuery(q string) string {
	q = strings.TrimSpace(q)
	for strings.HasSuffix(q, ";") {
		q = strings.TrimSpace(strings.TrimSuffix(q, ";"))
	}
	return q
}
