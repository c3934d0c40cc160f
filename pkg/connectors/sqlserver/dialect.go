package sqlserver

import "github.com/leapstack-labs/leapdq/pkg/connector"

var dialect = &connector.Dialect{
	Name:        "sqlserver",
	QuoteStart:  "[",
	QuoteEnd:    "]",
	Placeholder: connector.PlaceholderAtP,
	Regex:       connector.RegexNone,
	Percentile:  connector.PercentileWindow,
	TextType:    "NVARCHAR(MAX)",
	LikeClasses: true,
}

// Dialect returns the SQL Server dialect.
func Dialect() *connector.Dialect { return dialect }
