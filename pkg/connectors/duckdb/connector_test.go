package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdq/internal/testutil"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestConnector_Memory(t *testing.T) {
	c := New(testutil.NewTestLogger(t))
	ctx := context.Background()
	require.NoError(t, c.Connect(ctx, core.ConnectionConfig{Type: core.ConnectionDuckDB}))
	defer func() { _ = c.Close() }()

	assert.True(t, c.TestConnection(ctx))

	require.NoError(t, c.Exec(ctx, "CREATE TABLE [t] ([v] VARCHAR)"))
	require.NoError(t, c.Exec(ctx, "INSERT INTO t VALUES ('a@b.com'), ('nope')"))

	rows, err := c.Query(ctx, "SELECT TOP 1 [v] FROM [t] WHERE regexp_matches([v], '^[^@]+@[^@]+$')")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a@b.com", rows[0]["v"])
}

func TestConnector_CSVDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "clients.csv"), "id,name\n1,Ada\n2,Alan\n")
	writeFile(t, filepath.Join(dir, "visits.csv"), "id,client_id\n10,1\n11,3\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	c := NewCSV(nil)
	ctx := context.Background()
	require.NoError(t, c.Connect(ctx, core.ConnectionConfig{Type: core.ConnectionCSV, Path: dir}))
	defer func() { _ = c.Close() }()

	rows, err := c.Query(ctx, "SELECT COUNT(*) AS n FROM [visits] v LEFT JOIN [clients] c ON v.client_id = c.id WHERE c.id IS NULL")
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows[0]["n"])
}

func TestConnector_CSVErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing path", ""},
		{"nonexistent", filepath.Join(t.TempDir(), "missing.csv")},
		{"empty directory", t.TempDir()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCSV(nil)
			err := c.Connect(context.Background(), core.ConnectionConfig{Type: core.ConnectionCSV, Path: tt.path})
			require.Error(t, err)
			assert.True(t, core.IsConnectionError(err))
			assert.False(t, c.IsConnected())
		})
	}
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "clients", TableName("/data/clients.csv"))
	assert.Equal(t, "visits_2024", TableName("visits.2024.CSV"))
}

func TestDateAdd(t *testing.T) {
	assert.Equal(t, "(current_timestamp + INTERVAL (-6) month)", dateAdd("mm", -6))
}
