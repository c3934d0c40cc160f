package connector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// ErrNotConnected is returned when a statement is issued before Connect.
var ErrNotConnected = errors.New("database connection not established")

// BaseSQLConnector provides common database/sql functionality for connectors.
// Embed this struct in concrete connector implementations to get standard
// Close, Exec, Query, TestConnection and QuoteIdentifier implementations.
//
// DB is a connection pool; concurrent queries each check out their own
// connection.
type BaseSQLConnector struct {
	DB     *sql.DB
	Cfg    core.ConnectionConfig
	Logger *slog.Logger
	Dial   *Dialect
}

// NewBase returns an unconnected base for the given dialect.
// A nil logger discards output.
func NewBase(d *Dialect, logger *slog.Logger) BaseSQLConnector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return BaseSQLConnector{Dial: d, Logger: logger}
}

// Open opens a pool for driverName/dsn and verifies it with a ping bounded
// by the configured timeout. On failure the pool is released and a
// *core.ConnectionError is returned.
func (b *BaseSQLConnector) Open(ctx context.Context, driverName, dsn string, cfg core.ConnectionConfig) error {
	if b.DB != nil {
		return nil
	}
	if b.Logger == nil {
		b.Logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return &core.ConnectionError{Type: cfg.Type, Err: err}
	}
	if cfg.PoolSize > 0 {
		db.SetMaxOpenConns(cfg.PoolSize)
		db.SetMaxIdleConns(cfg.PoolSize)
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.TimeoutOrDefault())*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return &core.ConnectionError{Type: cfg.Type, Err: err}
	}

	b.DB = db
	b.Cfg = cfg
	b.Logger.Debug("connected", slog.String("type", cfg.Type), slog.Int("pool_size", cfg.PoolSize))
	return nil
}

// Close closes the pool. Closing an unconnected base is a no-op.
func (b *BaseSQLConnector) Close() error {
	if b.DB == nil {
		return nil
	}
	if b.Logger != nil {
		b.Logger.Debug("closing database connection")
	}
	err := b.DB.Close()
	b.DB = nil
	return err
}

// IsConnected returns true if the pool is open.
func (b *BaseSQLConnector) IsConnected() bool {
	return b.DB != nil
}

// Dialect returns the connector's dialect.
func (b *BaseSQLConnector) Dialect() *Dialect {
	return b.Dial
}

// QuoteIdentifier quotes name using the dialect.
func (b *BaseSQLConnector) QuoteIdentifier(name string) string {
	return b.Dial.QuoteIdentifier(name)
}

func (b *BaseSQLConnector) adapt(sqlStr string) string {
	if b.Dial == nil {
		return sqlStr
	}
	return b.Dial.Adapt(sqlStr)
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLConnector) Exec(ctx context.Context, sqlStr string, args ...any) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	adapted := b.adapt(sqlStr)
	if _, err := b.DB.ExecContext(ctx, adapted, args...); err != nil {
		return &core.QueryError{Query: adapted, Err: err}
	}
	return nil
}

// Query executes a SQL statement and returns every row as a column map.
func (b *BaseSQLConnector) Query(ctx context.Context, sqlStr string, args ...any) ([]core.Row, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	adapted := b.adapt(sqlStr)

	rows, err := b.DB.QueryContext(ctx, adapted, args...)
	if err != nil {
		return nil, &core.QueryError{Query: adapted, Err: err}
	}
	defer func() { _ = rows.Close() }()

	out, err := ScanRows(rows)
	if err != nil {
		return nil, &core.QueryError{Query: adapted, Err: err}
	}
	return out, nil
}

// TestConnection runs SELECT 1 AS test.
func (b *BaseSQLConnector) TestConnection(ctx context.Context) bool {
	rows, err := b.Query(ctx, "SELECT 1 AS test")
	if err != nil || len(rows) != 1 {
		return false
	}
	return fmt.Sprint(rows[0]["test"]) == "1"
}

// ScanRows reads all remaining rows into column maps.
// Driver byte slices are converted to strings.
func ScanRows(rows *sql.Rows) ([]core.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	out := []core.Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(core.Row, len(cols))
		for i, c := range cols {
			row[c] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// toString renders non-primitive literal values.
func toString(v any) string {
	switch x := v.(type) {
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
