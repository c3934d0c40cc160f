// Package sqlite provides the SQLite connector for leapdq.
//
// This file registers the connector with the connector registry.
// Import this package with a blank identifier to register it:
//
//	import _ "github.com/leapstack-labs/leapdq/pkg/connectors/sqlite"
package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"

	msqlite "modernc.org/sqlite"
)

func init() {
	msqlite.MustRegisterDeterministicScalarFunction("regexp", 2, regexpFunc)
	connector.Register(core.ConnectionSQLite, func(l *slog.Logger) connector.Connector { return New(l) })
}
