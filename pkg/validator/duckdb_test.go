package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdq/internal/testutil/dbtest"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

// TestValidators_DuckDB runs every validator against DuckDB, whose aggregates
// come back as HUGEINT and DECIMAL rather than int64.
func TestValidators_DuckDB(t *testing.T) {
	conn := dbtest.DuckDB(t,
		"CREATE TABLE people (name VARCHAR, dob VARCHAR)",
		"INSERT INTO people VALUES ('a', '1'), ('a', '1'), ('b', '2')",
		"CREATE TABLE vals (id INTEGER, v INTEGER)",
		"INSERT INTO vals SELECT i, i FROM range(1, 11) t(i)",
		"INSERT INTO vals VALUES (11, 100), (12, NULL)",
		"CREATE TABLE users (id INTEGER, email VARCHAR)",
		"INSERT INTO users VALUES (1, 'a@b.com'), (2, 'not-an-email'), (3, NULL)",
		"CREATE TABLE customers (id INTEGER)",
		"INSERT INTO customers VALUES (1), (2)",
		"CREATE TABLE orders (id INTEGER, customer_id INTEGER)",
		"INSERT INTO orders VALUES (1, 1), (2, 2), (3, 42)",
		"CREATE TABLE visits (id INTEGER, visit_date DATE)",
		"INSERT INTO visits VALUES (1, DATE '2020-05-01'), (2, DATE '2031-01-01')",
	)

	tests := []struct {
		name     string
		factory  Factory
		rule     core.Rule
		metadata map[string]any
	}{
		{
			name:    "duplicates",
			factory: NewDuplicates,
			rule:    rule("people_dupes", core.RuleDuplicates, "people", map[string]any{"columns": []string{"name", "dob"}}),
			metadata: map[string]any{
				"group_count": 1,
			},
		},
		{
			name:    "uniqueness",
			factory: NewUniqueness,
			rule:    rule("name_unique", core.RuleUniqueness, "people", map[string]any{"column": "name"}),
		},
		{
			name:    "range",
			factory: NewRange,
			rule:    rule("v_range", core.RuleRange, "vals", map[string]any{"column": "v", "min": 0, "max": 10}),
		},
		{
			name:     "pattern uses regexp_matches",
			factory:  NewPattern,
			rule:     rule("valid_email", core.RulePattern, "users", map[string]any{"column": "email", "pattern": "email"}),
			metadata: map[string]any{"pattern_type": PatternTypeRegex},
		},
		{
			name:    "iqr uses percentile_cont",
			factory: NewOutliers,
			rule: rule("v_outliers", core.RuleOutliers, "vals",
				map[string]any{"column": "v", "method": "iqr", "threshold": 1.5}),
			metadata: map[string]any{
				"quartile_source": sourceDatabase,
				"q1":              3.5,
				"q3":              8.5,
				"iqr":             5.0,
			},
		},
		{
			name:    "completeness",
			factory: NewCompleteness,
			rule:    rule("email_required", core.RuleCompleteness, "users", map[string]any{"columns": []string{"email"}}),
		},
		{
			name:    "referential",
			factory: NewReferential,
			rule: rule("orders_customer", core.RuleReferentialIntegrity, "orders", map[string]any{
				"column": "customer_id", "reference_table": "customers", "reference_column": "id",
			}),
		},
		{
			name:    "custom sql",
			factory: NewCustomSQL,
			rule:    rule("big_values", core.RuleCustomSQL, "", map[string]any{"query": "SELECT * FROM vals WHERE v > 50"}),
		},
		{
			name:    "date range",
			factory: NewDateRange,
			rule:    rule("visit_dates", core.RuleDateRange, "visits", map[string]any{"column": "visit_date", "max": "2030-12-31"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, tt.factory, conn, tt.rule)
			require.Empty(t, res.Error)
			assert.Equal(t, int64(1), res.ViolationCount)
			assert.False(t, res.Passed)
			for k, want := range tt.metadata {
				assert.Equal(t, want, res.Metadata[k], k)
			}
		})
	}
}

func TestDuplicates_DuckDBPassesWithoutDuplicates(t *testing.T) {
	conn := dbtest.DuckDB(t,
		"CREATE TABLE people (name VARCHAR, dob VARCHAR)",
		"INSERT INTO people VALUES ('a', '1'), ('b', '2')",
	)
	res := run(t, NewDuplicates, conn, rule("people_dupes", core.RuleDuplicates, "people",
		map[string]any{"columns": []string{"name", "dob"}}))
	require.Empty(t, res.Error)
	assert.True(t, res.Passed)
	assert.Zero(t, res.ViolationCount)
}
