// Package dbtest opens seeded SQLite and DuckDB databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdq/internal/testutil"
	"github.com/leapstack-labs/leapdq/pkg/connectors/duckdb"
	"github.com/leapstack-labs/leapdq/pkg/connectors/sqlite"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

// SQLite opens an in-memory database and runs stmts against it.
// The connector is closed when the test ends.
func SQLite(t testing.TB, stmts ...string) *sqlite.Connector {
	t.Helper()
	ctx := context.Background()
	c := sqlite.New(testutil.NewTestLogger(t))
	require.NoError(t, c.Connect(ctx, core.ConnectionConfig{Type: core.ConnectionSQLite, Path: sqlite.MemoryPath}))
	t.Cleanup(func() { _ = c.Close() })
	for _, s := range stmts {
		require.NoError(t, c.Exec(ctx, s), "seed statement: %s", s)
	}
	return c
}

// DuckDB opens an in-memory DuckDB database and runs stmts against it.
// The connector is closed when the test ends.
func DuckDB(t testing.TB, stmts ...string) *duckdb.Connector {
	t.Helper()
	ctx := context.Background()
	c := duckdb.New(testutil.NewTestLogger(t))
	require.NoError(t, c.Connect(ctx, core.ConnectionConfig{Type: core.ConnectionDuckDB}))
	t.Cleanup(func() { _ = c.Close() })
	for _, s := range stmts {
		require.NoError(t, c.Exec(ctx, s), "seed statement: %s", s)
	}
	return c
}

// ClientsDuplicateID is the id of the second of the two Clients rows that
// share name and date of birth.
const ClientsDuplicateID = 202

// Clients returns a schema of 200 distinct clients plus two rows that share
// first name, last name and date of birth with each other.
func Clients() []string {
	stmts := []string{
		`CREATE TABLE clients (
			client_id INTEGER PRIMARY KEY,
			first_name TEXT,
			last_name TEXT,
			email TEXT,
			date_of_birth TEXT,
			age INTEGER
		)`,
	}
	var values []string
	for i := 1; i <= 200; i++ {
		values = append(values, fmt.Sprintf("(%d, 'First%d', 'Last%d', 'client%d@example.com', '%04d-01-01', %d)",
			i, i, i, i, 1900+i/2, 20+i%50))
	}
	values = append(values,
		"(201, 'John', 'Smith', 'john.dup@example.com', '1985-03-15', 40)",
		fmt.Sprintf("(%d, 'John', 'Smith', 'john.smith2@example.com', '1985-03-15', 40)", ClientsDuplicateID),
	)
	stmts = append(stmts, "INSERT INTO clients VALUES "+strings.Join(values, ", "))
	return stmts
}

// SQLiteFile creates a database file under t.TempDir, runs stmts against it
// and returns its path. The file is closed before returning so that other
// connectors can open it.
func SQLiteFile(t testing.TB, stmts ...string) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dq.db")
	c := sqlite.New(testutil.NewTestLogger(t))
	require.NoError(t, c.Connect(ctx, core.ConnectionConfig{Type: core.ConnectionSQLite, Path: path}))
	for _, s := range stmts {
		require.NoError(t, c.Exec(ctx, s), "seed statement: %s", s)
	}
	require.NoError(t, c.Close())
	return path
}
