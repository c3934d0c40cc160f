// Package duckdb provides the DuckDB connector for leapdq.
//
// The same connector serves the csv connection type: CSV files are loaded
// into an in-memory DuckDB database with read_csv_auto, one table per file.
package duckdb

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Connector implements connector.Connector for DuckDB and CSV sources.
type Connector struct {
	connector.BaseSQLConnector
	csv bool
}

// New creates a new DuckDB connector.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Connector {
	return &Connector{BaseSQLConnector: connector.NewBase(Dialect(), logger)}
}

// NewCSV creates a connector that exposes CSV files as tables.
func NewCSV(logger *slog.Logger) *Connector {
	c := New(logger)
	c.csv = true
	return c
}

// Connect opens DuckDB. An empty path or ":memory:" opens an in-memory
// database. For csv connections, Path is a CSV file or a directory of them.
func (c *Connector) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	if c.IsConnected() {
		return nil
	}
	if c.csv {
		return c.connectCSV(ctx, cfg)
	}
	if cfg.Type == "" {
		cfg.Type = core.ConnectionDuckDB
	}

	path := cfg.Path
	if path == ":memory:" {
		path = ""
	}
	c.Logger.Debug("connecting to duckdb", slog.String("path", cfg.Path))
	return c.Open(ctx, "duckdb", path, cfg)
}

func (c *Connector) connectCSV(ctx context.Context, cfg core.ConnectionConfig) error {
	if cfg.Type == "" {
		cfg.Type = core.ConnectionCSV
	}
	files, err := csvFiles(cfg.Path)
	if err != nil {
		return &core.ConnectionError{Type: cfg.Type, Err: err}
	}

	c.Logger.Debug("loading csv files", slog.String("path", cfg.Path), slog.Int("files", len(files)))
	if err := c.Open(ctx, "duckdb", "", cfg); err != nil {
		return err
	}
	for _, f := range files {
		table := TableName(f)
		if err := c.LoadCSV(ctx, table, f); err != nil {
			_ = c.Close()
			return &core.ConnectionError{Type: cfg.Type, Err: err}
		}
	}
	return nil
}

// LoadCSV loads data from a CSV file into a table.
// DuckDB infers the schema from the file.
func (c *Connector) LoadCSV(ctx context.Context, tableName string, filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto(%s, header=true)",
		c.QuoteIdentifier(tableName),
		connector.Literal(absPath),
	)
	if err := c.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load CSV %s: %w", filePath, err)
	}
	return nil
}

// csvFiles resolves path to a sorted list of CSV files.
func csvFiles(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("csv connection requires a path")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no csv files found in %s", path)
	}
	sort.Strings(files)
	return files, nil
}

// TableName derives a table name from a CSV file name. Dots are replaced
// so the name is never read as schema-qualified.
func TableName(file string) string {
	base := filepath.Base(file)
	return strings.ReplaceAll(strings.TrimSuffix(base, filepath.Ext(base)), ".", "_")
}

// Ensure Connector implements connector.Connector interface
var _ connector.Connector = (*Connector)(nil)
