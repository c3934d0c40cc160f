package connector

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Rewriter transforms SQL text. Rewriters never see the contents of string
// literals: Adapt replaces them with opaque tokens first.
type Rewriter func(sql string) string

// Adapt rewrites reference (SQL Server style) syntax into the dialect's own.
// The rewrite is textual and best-effort.
func (d *Dialect) Adapt(sql string) string {
	if len(d.Rewrites) == 0 {
		return sql
	}
	masked, literals := maskLiterals(sql)
	for _, rw := range d.Rewrites {
		masked = rw(masked)
	}
	return unmaskLiterals(masked, literals)
}

var literalToken = regexp.MustCompile("\x00(\\d+)\x00")

// maskLiterals swaps every single-quoted literal for a numbered token.
func maskLiterals(sql string) (string, []string) {
	var (
		b        strings.Builder
		literals []string
	)
	for i := 0; i < len(sql); i++ {
		if sql[i] != '\'' {
			b.WriteByte(sql[i])
			continue
		}
		j := i + 1
		for j < len(sql) {
			if sql[j] == '\'' {
				if j+1 < len(sql) && sql[j+1] == '\'' {
					j += 2
					continue
				}
				break
			}
			j++
		}
		if j >= len(sql) {
			// unterminated literal, leave the rest untouched
			b.WriteString(sql[i:])
			break
		}
		fmt.Fprintf(&b, "\x00%d\x00", len(literals))
		literals = append(literals, sql[i:j+1])
		i = j
	}
	return b.String(), literals
}

func unmaskLiterals(sql string, literals []string) string {
	if len(literals) == 0 {
		return sql
	}
	return literalToken.ReplaceAllStringFunc(sql, func(tok string) string {
		n, err := strconv.Atoi(strings.Trim(tok, "\x00"))
		if err != nil || n >= len(literals) {
			return tok
		}
		return literals[n]
	})
}

var bracketIdent = regexp.MustCompile(`\[([^\[\]]+)\]`)

// BracketsTo rewrites [name] identifiers to the given quote pair.
func BracketsTo(start, end string) Rewriter {
	return func(sql string) string {
		return bracketIdent.ReplaceAllString(sql, start+"${1}"+end)
	}
}

var (
	selectTop   = regexp.MustCompile(`(?i)\bSELECT\s+TOP\s+(\d+)\s+`)
	limitWord   = regexp.MustCompile(`(?i)\bLIMIT\b`)
	offsetFetch = regexp.MustCompile(`(?i)\bOFFSET\s+(\d+)\s+ROWS\s+FETCH\s+(?:NEXT|FIRST)\s+(\d+)\s+ROWS\s+ONLY\b`)
)

// TopToLimit rewrites the first SELECT TOP n into a trailing LIMIT n.
func TopToLimit(sql string) string {
	m := selectTop.FindStringSubmatchIndex(sql)
	if m == nil {
		return sql
	}
	n := sql[m[2]:m[3]]
	out := sql[:m[0]] + "SELECT " + sql[m[1]:]
	if !limitWord.MatchString(out) {
		out = strings.TrimRight(strings.TrimSpace(out), ";") + " LIMIT " + n
	}
	return out
}

// OffsetFetchToLimit rewrites OFFSET n ROWS FETCH NEXT m ROWS ONLY into LIMIT m OFFSET n.
func OffsetFetchToLimit(sql string) string {
	return offsetFetch.ReplaceAllString(sql, "LIMIT ${2} OFFSET ${1}")
}

var (
	getDate = regexp.MustCompile(`(?i)\bGETDATE\s*\(\s*\)`)
	dateAdd = regexp.MustCompile(`(?i)\bDATEADD\s*\(\s*(\w+)\s*,\s*(-?\d+)\s*,\s*GETDATE\s*\(\s*\)\s*\)`)
)

// DateFuncs rewrites DATEADD(unit, n, GETDATE()) with addFn and then any
// remaining GETDATE() with now.
func DateFuncs(now string, addFn func(unit string, amount int) string) Rewriter {
	return func(sql string) string {
		sql = dateAdd.ReplaceAllStringFunc(sql, func(m string) string {
			sub := dateAdd.FindStringSubmatch(m)
			amount, err := strconv.Atoi(sub[2])
			if err != nil {
				return m
			}
			return addFn(strings.ToLower(sub[1]), amount)
		})
		return getDate.ReplaceAllString(sql, now)
	}
}

// RenameFunc rewrites calls of function from into function to.
func RenameFunc(from, to string) Rewriter {
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(from) + `\s*\(`)
	return func(sql string) string {
		return re.ReplaceAllString(sql, to+"(")
	}
}

var concatWS = regexp.MustCompile(`(?i)\bCONCAT_WS\s*\(`)

// ConcatWSToPipes rewrites CONCAT_WS(sep, a, b, ...) into a || chain that
// skips NULL arguments the same way CONCAT_WS does.
func ConcatWSToPipes(sql string) string {
	for {
		loc := concatWS.FindStringIndex(sql)
		if loc == nil {
			return sql
		}
		args, end, ok := splitArgs(sql, loc[1])
		if !ok || len(args) < 2 {
			return sql
		}
		sep := args[0]
		parts := make([]string, 0, len(args)-1)
		for _, a := range args[1:] {
			parts = append(parts, "COALESCE("+sep+" || "+a+", '')")
		}
		repl := "SUBSTR(" + strings.Join(parts, " || ") + ", LENGTH(" + sep + ") + 1)"
		sql = sql[:loc[0]] + repl + sql[end:]
	}
}

// splitArgs splits the argument list starting right after an opening
// parenthesis at depth zero. It returns the trimmed arguments and the index
// just past the closing parenthesis.
func splitArgs(sql string, start int) ([]string, int, bool) {
	depth := 0
	var args []string
	last := start
	for i := start; i < len(sql); i++ {
		switch sql[i] {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				args = append(args, strings.TrimSpace(sql[last:i]))
				return args, i + 1, true
			}
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(sql[last:i]))
				last = i + 1
			}
		}
	}
	return nil, 0, false
}

// StandardRewrites returns the rewrites shared by every non SQL Server
// dialect: quoting, row limiting and common function names.
func StandardRewrites(quoteStart, quoteEnd string) []Rewriter {
	return []Rewriter{
		BracketsTo(quoteStart, quoteEnd),
		OffsetFetchToLimit,
		TopToLimit,
		RenameFunc("ISNULL", "COALESCE"),
		RenameFunc("LEN", "LENGTH"),
	}
}

var dateUnits = map[string]string{
	"yy": "year", "yyyy": "year", "year": "year",
	"qq": "quarter", "q": "quarter", "quarter": "quarter",
	"mm": "month", "m": "month", "month": "month",
	"wk": "week", "ww": "week", "week": "week",
	"dd": "day", "d": "day", "day": "day",
	"hh": "hour", "hour": "hour",
	"mi": "minute", "n": "minute", "minute": "minute",
	"ss": "second", "s": "second", "second": "second",
}

// NormalizeDateUnit maps a DATEADD unit or abbreviation to its singular name.
func NormalizeDateUnit(unit string) string {
	if u, ok := dateUnits[strings.ToLower(unit)]; ok {
		return u
	}
	return strings.ToLower(unit)
}
