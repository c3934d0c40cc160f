// Package connector provides the data source contract used by validators
// and the execution engine.
//
// Concrete connector implementations live in pkg/connectors/ subdirectories
// and register themselves from init().
package connector

import (
	"context"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// Connector defines the interface every data source must implement.
//
// A Connector is safe for concurrent use once connected: queries check out
// connections from the underlying pool.
type Connector interface {
	// Connect opens the data source. Failures are *core.ConnectionError.
	// Calling Connect on an open connector is a no-op.
	Connect(ctx context.Context, cfg core.ConnectionConfig) error

	// Close releases all resources. It is safe to call more than once.
	Close() error

	// Query adapts sql to the dialect, runs it and returns the rows in order.
	// Failures are *core.QueryError carrying the adapted statement.
	Query(ctx context.Context, sql string, args ...any) ([]core.Row, error)

	// Exec adapts and runs a statement that returns no rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// TestConnection runs a trivial query and reports whether it succeeded.
	TestConnection(ctx context.Context) bool

	// QuoteIdentifier quotes a possibly qualified table or column name.
	QuoteIdentifier(name string) string

	// Dialect returns the SQL dialect of the data source.
	Dialect() *Dialect
}
