// Package main is the leapdq command.
package main

import (
	"os"

	"github.com/leapstack-labs/leapdq/internal/cli"

	// Register connectors via init()
	_ "github.com/leapstack-labs/leapdq/pkg/connectors/duckdb"
	_ "github.com/leapstack-labs/leapdq/pkg/connectors/postgres"
	_ "github.com/leapstack-labs/leapdq/pkg/connectors/sqlite"
	_ "github.com/leapstack-labs/leapdq/pkg/connectors/sqlserver"
)

func main() {
	os.Exit(cli.Execute())
}
