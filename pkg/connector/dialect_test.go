package connector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDialect_QuoteIdentifier(t *testing.T) {
	pg := &Dialect{QuoteStart: `"`, QuoteEnd: `"`}
	ms := &Dialect{QuoteStart: "[", QuoteEnd: "]"}

	tests := []struct {
		name string
		d    *Dialect
		in   string
		want string
	}{
		{"plain", pg, "clients", `"clients"`},
		{"qualified", pg, "public.clients", `"public"."clients"`},
		{"strips brackets", pg, "[clients]", `"clients"`},
		{"strips backticks", pg, "`clients`", `"clients"`},
		{"embedded quote doubled", pg, `we"ird`, `"we""ird"`},
		{"brackets dialect", ms, `"dbo"."clients"`, "[dbo].[clients]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.QuoteIdentifier(tt.in))
		})
	}
}

func TestDialect_RegexMatch(t *testing.T) {
	tests := []struct {
		style  RegexStyle
		negate bool
		want   string
		ok     bool
	}{
		{RegexOperator, false, "c ~ 'p'", true},
		{RegexOperator, true, "c !~ 'p'", true},
		{RegexFunction, true, "NOT regexp_matches(c, 'p')", true},
		{RegexKeyword, false, "c REGEXP 'p'", true},
		{RegexKeyword, true, "c NOT REGEXP 'p'", true},
		{RegexNone, false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.style.String(), func(t *testing.T) {
			d := &Dialect{Regex: tt.style}
			got, ok := d.RegexMatch("c", "'p'", tt.negate)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDialect_FormatPlaceholder(t *testing.T) {
	assert.Equal(t, "?", (&Dialect{Placeholder: PlaceholderQuestion}).FormatPlaceholder(2))
	assert.Equal(t, "$2", (&Dialect{Placeholder: PlaceholderDollar}).FormatPlaceholder(2))
	assert.Equal(t, "@p2", (&Dialect{Placeholder: PlaceholderAtP}).FormatPlaceholder(2))
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{"O'Brien", "'O''Brien'"},
		{18, "18"},
		{int64(-3), "-3"},
		{2.5, "2.5"},
		{time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), "'2024-01-31'"},
		{time.Date(2024, 1, 31, 8, 30, 0, 0, time.UTC), "'2024-01-31 08:30:00'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Literal(tt.in))
	}
}

func TestDialect_TextCast(t *testing.T) {
	d := &Dialect{TextType: "NVARCHAR(MAX)"}
	assert.Equal(t, "CAST(x AS NVARCHAR(MAX))", d.TextCast("x"))
}

func TestDialect_Like(t *testing.T) {
	std := &Dialect{}
	ms := &Dialect{LikeClasses: true}

	assert.Equal(t, `a\%b\_c\\`, std.LikeEscape(`a%b_c\`))
	assert.Equal(t, "a[%]b[_]c[[]", ms.LikeEscape("a%b_c["))

	assert.Equal(t, `c LIKE 'x\%%' ESCAPE '\'`, std.Like("c", std.LikeEscape("x%")+"%", false))
	assert.Equal(t, "c NOT LIKE 'it''s'", ms.Like("c", "it's", true))
}
