package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdq/internal/testutil/dbtest"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

func TestReferential(t *testing.T) {
	conn := dbtest.SQLite(t,
		"CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT)",
		"INSERT INTO customers VALUES (1, 'a'), (2, 'b'), (3, 'c')",
		"CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER)",
		"INSERT INTO orders VALUES (1, 1), (2, 2), (3, 4), (4, 4), (5, 5), (6, NULL)",
	)
	params := func(allowNull bool) map[string]any {
		return map[string]any{
			"column":           "customer_id",
			"reference_table":  "customers",
			"reference_column": "id",
			"allow_null":       allowNull,
		}
	}

	t.Run("nulls allowed", func(t *testing.T) {
		res := run(t, NewReferential, conn, rule("orders_customer", core.RuleReferentialIntegrity, "orders", params(true)))
		require.Empty(t, res.Error)
		assert.Equal(t, int64(3), res.ViolationCount)
		assert.Equal(t, []any{int64(4), int64(5)}, res.Metadata["orphan_values"])
		assert.Len(t, res.SampleRecords, 3)
		assert.Equal(t, "customers", res.Metadata["reference_table"])
	})

	t.Run("nulls are orphans", func(t *testing.T) {
		res := run(t, NewReferential, conn, rule("orders_customer", core.RuleReferentialIntegrity, "orders", params(false)))
		require.Empty(t, res.Error)
		assert.Equal(t, int64(4), res.ViolationCount)
		orphans := res.Metadata["orphan_values"].([]any)
		assert.ElementsMatch(t, []any{nil, int64(4), int64(5)}, orphans)
		assert.LessOrEqual(t, int64(len(orphans)), res.ViolationCount)
	})

	t.Run("no orphans", func(t *testing.T) {
		res := run(t, NewReferential, conn, rule("self", core.RuleReferentialIntegrity, "customers", map[string]any{
			"column": "id", "reference_table": "customers", "reference_column": "id",
		}))
		assert.True(t, res.Passed)
		assert.Equal(t, []any{}, res.Metadata["orphan_values"])
	})
}
