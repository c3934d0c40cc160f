// Package sqlserver provides the Microsoft SQL Server connector for leapdq.
//
// This file registers the connector with the connector registry.
// Import this package with a blank identifier to register it:
//
//	import _ "github.com/leapstack-labs/leapdq/pkg/connectors/sqlserver"
package sqlserver

import (
	"log/slog"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

func init() {
	connector.Register(core.ConnectionSQLServer, func(l *slog.Logger) connector.Connector { return New(l) })
}
