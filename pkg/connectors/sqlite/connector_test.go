package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdq/internal/testutil"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

func openMemory(t *testing.T) *Connector {
	t.Helper()
	c := New(testutil.NewTestLogger(t))
	require.NoError(t, c.Connect(context.Background(), core.ConnectionConfig{Type: core.ConnectionSQLite}))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestConnector_ConnectMemory(t *testing.T) {
	c := openMemory(t)
	ctx := context.Background()

	assert.True(t, c.TestConnection(ctx))
	assert.Equal(t, 1, c.DB.Stats().MaxOpenConnections)

	// connecting again is a no-op
	require.NoError(t, c.Connect(ctx, core.ConnectionConfig{Type: core.ConnectionSQLite}))
}

func TestConnector_FileCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "dq.db")
	c := New(nil)
	ctx := context.Background()

	require.NoError(t, c.Connect(ctx, core.ConnectionConfig{Type: core.ConnectionSQLite, Path: path}))
	require.NoError(t, c.Exec(ctx, "CREATE TABLE t (id INTEGER)"))
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.FileExists(t, path)
}

func TestConnector_AdaptsReferenceSyntax(t *testing.T) {
	c := openMemory(t)
	ctx := context.Background()

	require.NoError(t, c.Exec(ctx, "CREATE TABLE [people] ([id] INTEGER, [first] TEXT, [last] TEXT)"))
	require.NoError(t, c.Exec(ctx, "INSERT INTO people VALUES (1, 'Ada', 'Lovelace'), (2, 'Alan', NULL), (3, 'Grace', 'Hopper')"))

	rows, err := c.Query(ctx, "SELECT TOP 2 [id], ISNULL([last], 'n/a') AS last_name FROM [people] ORDER BY [id]")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "n/a", rows[1]["last_name"])

	rows, err = c.Query(ctx, "SELECT [id] FROM [people] ORDER BY [id] OFFSET 1 ROWS FETCH NEXT 1 ROWS ONLY")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 2, rows[0]["id"])

	rows, err = c.Query(ctx, "SELECT CONCAT_WS(' ', [first], [last]) AS full_name FROM [people] ORDER BY [id]")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", rows[0]["full_name"])
	assert.Equal(t, "Alan", rows[1]["full_name"])

	rows, err = c.Query(ctx, "SELECT DATEADD(day, -1, GETDATE()) < GETDATE() AS earlier, LEN('abc') AS n")
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows[0]["earlier"])
	assert.EqualValues(t, 3, rows[0]["n"])
}

func TestConnector_Regexp(t *testing.T) {
	c := openMemory(t)
	ctx := context.Background()

	tests := []struct {
		value   string
		pattern string
		want    int64
	}{
		{"a@b.com", `^[^@]+@[^@]+\.[a-z]{2,}$`, 1},
		{"not-an-email", `^[^@]+@[^@]+\.[a-z]{2,}$`, 0},
		{"abc123", `\d+`, 1},
	}
	for _, tt := range tests {
		rows, err := c.Query(ctx, "SELECT ? REGEXP ? AS m", tt.value, tt.pattern)
		require.NoError(t, err)
		assert.Equal(t, tt.want, rows[0]["m"], "%s ~ %s", tt.value, tt.pattern)
	}

	rows, err := c.Query(ctx, "SELECT NULL REGEXP 'x' AS m")
	require.NoError(t, err)
	assert.Nil(t, rows[0]["m"])

	_, err = c.Query(ctx, "SELECT 'a' REGEXP '(' AS m")
	assert.True(t, core.IsQueryError(err))
}

func TestConnector_MissingFunctionIsQueryError(t *testing.T) {
	c := openMemory(t)
	_, err := c.Query(context.Background(), "SELECT STDEV(1) AS s")
	require.Error(t, err)
	assert.True(t, core.IsQueryError(err))
}

func TestDateAdd(t *testing.T) {
	assert.Equal(t, "datetime('now', '-6 months')", dateAdd("month", -6))
	assert.Equal(t, "datetime('now', '14 days')", dateAdd("wk", 2))
}
