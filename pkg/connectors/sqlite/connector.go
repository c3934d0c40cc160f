// Package sqlite provides the SQLite connector for leapdq.
//
// The driver is modernc.org/sqlite (pure Go). A REGEXP function backed by
// Go's regexp package is registered with the driver so that pattern rules
// run natively.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Connector implements connector.Connector for SQLite.
type Connector struct {
	connector.BaseSQLConnector
}

// New creates a new SQLite connector.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Connector {
	return &Connector{BaseSQLConnector: connector.NewBase(Dialect(), logger)}
}

// Connect opens the database file, creating parent directories as needed.
// An in-memory database is pinned to a single pooled connection because
// every new SQLite connection to :memory: is a distinct database.
func (c *Connector) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	path := cfg.Path
	if path == "" {
		path = MemoryPath
	}

	if path == MemoryPath {
		cfg.PoolSize = 1
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &core.ConnectionError{Type: core.ConnectionSQLite, Err: fmt.Errorf("failed to create directory: %w", err)}
		}
	}
	if cfg.Type == "" {
		cfg.Type = core.ConnectionSQLite
	}

	c.Logger.Debug("connecting to sqlite", slog.String("path", path))
	return c.Open(ctx, "sqlite", buildDSN(path, cfg.TimeoutOrDefault()), cfg)
}

// buildDSN enables foreign keys and sets the busy timeout in milliseconds.
func buildDSN(path string, timeoutSeconds int) string {
	return fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", path, timeoutSeconds*1000)
}

// Ensure Connector implements connector.Connector interface
var _ connector.Connector = (*Connector)(nil)
