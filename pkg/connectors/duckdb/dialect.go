package duckdb

import (
	"fmt"

	"github.com/leapstack-labs/leapdq/pkg/connector"
)

var dialect = &connector.Dialect{
	Name:        "duckdb",
	QuoteStart:  `"`,
	QuoteEnd:    `"`,
	Placeholder: connector.PlaceholderQuestion,
	Regex:       connector.RegexFunction,
	Percentile:  connector.PercentileAggregate,
	TextType:    "VARCHAR",
	Rewrites: append(connector.StandardRewrites(`"`, `"`),
		connector.DateFuncs("current_timestamp", dateAdd),
		connector.RenameFunc("STDEV", "STDDEV_SAMP"),
	),
}

// Dialect returns the DuckDB dialect.
func Dialect() *connector.Dialect { return dialect }

func dateAdd(unit string, amount int) string {
	return fmt.Sprintf("(current_timestamp + INTERVAL (%d) %s)", amount, connector.NormalizeDateUnit(unit))
}
