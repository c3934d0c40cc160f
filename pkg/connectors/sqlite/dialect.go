package sqlite

import (
	"fmt"

	"github.com/leapstack-labs/leapdq/pkg/connector"
)

var dialect = &connector.Dialect{
	Name:        "sqlite",
	QuoteStart:  `"`,
	QuoteEnd:    `"`,
	Placeholder: connector.PlaceholderQuestion,
	Regex:       connector.RegexKeyword,
	Percentile:  connector.PercentileNone,
	TextType:    "TEXT",
	Rewrites: append(connector.StandardRewrites(`"`, `"`),
		connector.DateFuncs("datetime('now')", dateAdd),
		connector.ConcatWSToPipes,
	),
}

// Dialect returns the SQLite dialect.
func Dialect() *connector.Dialect { return dialect }

// dateAdd renders datetime('now', '<n> <unit>s').
func dateAdd(unit string, amount int) string {
	unit = connector.NormalizeDateUnit(unit)
	if unit == "week" {
		unit, amount = "day", amount*7
	}
	return fmt.Sprintf("datetime('now', '%d %ss')", amount, unit)
}
