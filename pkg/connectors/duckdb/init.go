// Package duckdb provides the DuckDB connector for leapdq.
//
// This file registers the duckdb and csv connection types with the
// connector registry. Import this package with a blank identifier:
//
//	import _ "github.com/leapstack-labs/leapdq/pkg/connectors/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

func init() {
	connector.Register(core.ConnectionDuckDB, func(l *slog.Logger) connector.Connector { return New(l) })
	connector.Register(core.ConnectionCSV, func(l *slog.Logger) connector.Connector { return NewCSV(l) })
}
