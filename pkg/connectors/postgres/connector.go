// Package postgres provides the PostgreSQL connector for leapdq.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

// Connector implements connector.Connector for PostgreSQL.
type Connector struct {
	connector.BaseSQLConnector
}

// New creates a new PostgreSQL connector.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Connector {
	return &Connector{BaseSQLConnector: connector.NewBase(Dialect(), logger)}
}

// Connect establishes a connection pool to PostgreSQL.
func (c *Connector) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	if cfg.Type == "" {
		cfg.Type = core.ConnectionPostgres
	}
	c.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))
	return c.Open(ctx, "pgx", buildPostgresDSN(cfg), cfg)
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg core.ConnectionConfig) string {
	// Build key=value format: host=localhost port=5432 user=postgres ...
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	parts := []string{
		"host=" + quoteValue(host),
		fmt.Sprintf("port=%d", port),
	}
	if cfg.Database != "" {
		parts = append(parts, "dbname="+quoteValue(cfg.Database))
	}
	parts = append(parts,
		"sslmode="+quoteValue(sslmode),
		fmt.Sprintf("connect_timeout=%d", cfg.TimeoutOrDefault()))

	if cfg.Username != "" {
		parts = append(parts, "user="+quoteValue(cfg.Username))
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+quoteValue(cfg.Password))
	}
	if cfg.Schema != "" {
		parts = append(parts, "search_path="+quoteValue(cfg.Schema))
	}
	if name, ok := cfg.Options["application_name"]; ok {
		parts = append(parts, "application_name="+quoteValue(name))
	}

	return strings.Join(parts, " ")
}

// quoteValue single-quotes a DSN value when it is empty or contains
// spaces or quotes.
func quoteValue(v string) string {
	needs := v == ""
	for _, r := range v {
		if r == ' ' || r == '\'' || r == '\\' {
			needs = true
			break
		}
	}
	if !needs {
		return v
	}
	out := make([]rune, 0, len(v)+2)
	out = append(out, '\'')
	for _, r := range v {
		if r == '\'' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(append(out, '\''))
}

// Ensure Connector implements connector.Connector interface
var _ connector.Connector = (*Connector)(nil)
