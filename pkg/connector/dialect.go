package connector

import (
	"strconv"
	"strings"
)

// PlaceholderStyle describes how bind parameters are written.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for every parameter (sqlite, duckdb).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, ... (postgres).
	PlaceholderDollar
	// PlaceholderAtP uses @p1, @p2, ... (sqlserver).
	PlaceholderAtP
)

// RegexStyle describes native regular expression support.
type RegexStyle int

const (
	// RegexNone means the engine cannot evaluate regular expressions.
	RegexNone RegexStyle = iota
	// RegexOperator uses the POSIX ~ operator.
	RegexOperator
	// RegexFunction uses regexp_matches(value, pattern).
	RegexFunction
	// RegexKeyword uses value REGEXP pattern.
	RegexKeyword
)

// String returns the string representation of the style.
func (s RegexStyle) String() string {
	switch s {
	case RegexOperator:
		return "operator"
	case RegexFunction:
		return "function"
	case RegexKeyword:
		return "keyword"
	default:
		return "none"
	}
}

// PercentileStyle describes how PERCENTILE_CONT may be used.
type PercentileStyle int

const (
	// PercentileNone means quartiles must be computed client-side.
	PercentileNone PercentileStyle = iota
	// PercentileAggregate supports PERCENTILE_CONT(p) WITHIN GROUP (ORDER BY x).
	PercentileAggregate
	// PercentileWindow requires an OVER () clause.
	PercentileWindow
)

// Dialect describes the SQL flavour of a data source.
type Dialect struct {
	Name string

	// Identifier quote characters.
	QuoteStart string
	QuoteEnd   string

	Placeholder PlaceholderStyle
	Regex       RegexStyle
	Percentile  PercentileStyle

	// TextType is the type used by TextCast.
	TextType string

	// LikeClasses reports whether LIKE understands [a-z] character classes.
	// Such dialects escape wildcards with brackets instead of ESCAPE.
	LikeClasses bool

	// Rewrites are applied in order by Adapt.
	Rewrites []Rewriter
}

// QuoteIdentifier strips any existing quoting from each dot-separated part
// of name and quotes it for the dialect.
func (d *Dialect) QuoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), "[]\"'`")
		if d.QuoteEnd != "" {
			p = strings.ReplaceAll(p, d.QuoteEnd, d.QuoteEnd+d.QuoteEnd)
		}
		parts[i] = d.QuoteStart + p + d.QuoteEnd
	}
	return strings.Join(parts, ".")
}

// TextCast returns expr cast to the dialect's text type.
func (d *Dialect) TextCast(expr string) string {
	return "CAST(" + expr + " AS " + d.TextType + ")"
}

// FormatPlaceholder returns the n-th (1-based) bind parameter marker.
func (d *Dialect) FormatPlaceholder(n int) string {
	switch d.Placeholder {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(n)
	case PlaceholderAtP:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// RegexMatch returns a predicate that is true when expr matches the regular
// expression in patternLiteral (an already quoted SQL string). Matching is
// unanchored unless the pattern carries its own anchors. The boolean is false
// when the dialect has no native regex support.
func (d *Dialect) RegexMatch(expr, patternLiteral string, negate bool) (string, bool) {
	not := ""
	if negate {
		not = "NOT "
	}
	switch d.Regex {
	case RegexOperator:
		if negate {
			return expr + " !~ " + patternLiteral, true
		}
		return expr + " ~ " + patternLiteral, true
	case RegexFunction:
		return not + "regexp_matches(" + expr + ", " + patternLiteral + ")", true
	case RegexKeyword:
		return expr + " " + not + "REGEXP " + patternLiteral, true
	default:
		return "", false
	}
}

// LikeEscape escapes the LIKE wildcards in a literal string.
func (d *Dialect) LikeEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case d.LikeClasses && (r == '%' || r == '_' || r == '['):
			b.WriteString("[" + string(r) + "]")
		case !d.LikeClasses && (r == '%' || r == '_' || r == '\\'):
			b.WriteRune('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Like returns a LIKE predicate for an already escaped pattern.
func (d *Dialect) Like(expr, pattern string, negate bool) string {
	op := " LIKE "
	if negate {
		op = " NOT LIKE "
	}
	if d.LikeClasses {
		return expr + op + Literal(pattern)
	}
	return expr + op + Literal(pattern) + " ESCAPE '\\'"
}

// Literal formats a value as a SQL literal. Strings are single-quoted with
// embedded quotes doubled; numbers and booleans are written bare.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return Literal(toString(x))
	}
}
