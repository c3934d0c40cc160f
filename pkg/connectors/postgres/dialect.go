package postgres

import (
	"fmt"

	"github.com/leapstack-labs/leapdq/pkg/connector"
)

var dialect = &connector.Dialect{
	Name:        "postgres",
	QuoteStart:  `"`,
	QuoteEnd:    `"`,
	Placeholder: connector.PlaceholderDollar,
	Regex:       connector.RegexOperator,
	Percentile:  connector.PercentileAggregate,
	TextType:    "TEXT",
	Rewrites: append(connector.StandardRewrites(`"`, `"`),
		connector.DateFuncs("now()", dateAdd),
		connector.RenameFunc("STDEV", "STDDEV_SAMP"),
	),
}

// Dialect returns the PostgreSQL dialect.
func Dialect() *connector.Dialect { return dialect }

func dateAdd(unit string, amount int) string {
	return fmt.Sprintf("(now() + INTERVAL '%d %s')", amount, connector.NormalizeDateUnit(unit))
}
