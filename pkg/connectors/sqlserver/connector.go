// Package sqlserver provides the Microsoft SQL Server connector for leapdq.
//
// SQL Server is the reference dialect for rule queries, so no syntax
// adaptation is applied.
package sqlserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"

	_ "github.com/microsoft/go-mssqldb" // sqlserver driver
)

// Connector implements connector.Connector for SQL Server.
type Connector struct {
	connector.BaseSQLConnector
}

// New creates a new SQL Server connector.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Connector {
	return &Connector{BaseSQLConnector: connector.NewBase(Dialect(), logger)}
}

// Connect establishes a connection pool to SQL Server.
func (c *Connector) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	if cfg.Type == "" {
		cfg.Type = core.ConnectionSQLServer
	}
	c.Logger.Debug("connecting to sqlserver", slog.String("host", cfg.Host), slog.String("database", cfg.Database))
	return c.Open(ctx, "sqlserver", buildSQLServerDSN(cfg), cfg)
}

// buildSQLServerDSN constructs a sqlserver:// URL. With a trusted connection
// no credentials are sent and the driver uses integrated authentication.
func buildSQLServerDSN(cfg core.ConnectionConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	if cfg.Port != 0 {
		host = fmt.Sprintf("%s:%d", host, cfg.Port)
	}

	u := &url.URL{Scheme: "sqlserver", Host: host}
	if !cfg.TrustedConnection && cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}

	q := url.Values{}
	if cfg.Database != "" {
		q.Set("database", cfg.Database)
	}
	q.Set("connection timeout", strconv.Itoa(cfg.TimeoutOrDefault()))
	if cfg.TrustedConnection {
		q.Set("authenticator", "winsspi")
	}
	for k, v := range cfg.Options {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Ensure Connector implements connector.Connector interface
var _ connector.Connector = (*Connector)(nil)
