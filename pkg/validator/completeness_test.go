package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdq/internal/testutil/dbtest"
	"github.com/leapstack-labs/leapdq/pkg/connectors/sqlite"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

func contactsDB(t *testing.T) *sqlite.Connector {
	t.Helper()
	return dbtest.SQLite(t,
		"CREATE TABLE contacts (id INTEGER, name TEXT, email TEXT, age INTEGER)",
		`INSERT INTO contacts VALUES
			(1, 'Ann', 'ann@example.com', 30),
			(2, NULL, 'bo@example.com', 41),
			(3, 'Cy', '', NULL),
			(4, 'Di', '   ', 25),
			(5, 'Ed', 'ed@example.com', 52)`,
	)
}

func rowByID(t *testing.T, rows []core.Row, id int64) core.Row {
	t.Helper()
	for _, r := range rows {
		if r["id"] == id {
			return r
		}
	}
	require.Failf(t, "row not found", "id %d", id)
	return nil
}

func TestCompleteness(t *testing.T) {
	conn := contactsDB(t)

	tests := []struct {
		name   string
		params map[string]any
		want   int64
	}{
		{"nulls and empty strings", map[string]any{"columns": []string{"name", "email"}}, 2},
		{"whitespace too", map[string]any{"columns": []string{"name", "email"}, "check_whitespace": true}, 3},
		{"nulls only", map[string]any{"columns": []string{"name", "email"}, "check_empty_strings": false}, 1},
		{"non-text column", map[string]any{"columns": "age"}, 1},
		{"complete column", map[string]any{"columns": []string{"id"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, NewCompleteness, conn, rule("contacts_complete", core.RuleCompleteness, "contacts", tt.params))
			require.Empty(t, res.Error)
			assert.Equal(t, tt.want, res.ViolationCount)
			assert.Len(t, res.SampleRecords, int(tt.want))
		})
	}
}

func TestCompleteness_IncompleteFields(t *testing.T) {
	conn := contactsDB(t)
	res := run(t, NewCompleteness, conn, rule("contacts_complete", core.RuleCompleteness, "contacts",
		map[string]any{"columns": []string{"name", "email", "age"}}))
	require.Empty(t, res.Error)
	assert.Equal(t, int64(2), res.ViolationCount)

	assert.Equal(t, "name", rowByID(t, res.SampleRecords, 2)["incomplete_fields"])
	assert.Equal(t, "email, age", rowByID(t, res.SampleRecords, 3)["incomplete_fields"])
	assert.NotContains(t, res.SampleRecords[0], "_incomplete_columns")

	assert.Equal(t, []string{"name", "email", "age"}, res.Metadata["columns_checked"])
	assert.Equal(t, true, res.Metadata["check_empty_strings"])
	assert.Equal(t, StrategyFetch, res.Metadata["sample_strategy"])
}
