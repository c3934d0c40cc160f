package validator

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

// Pattern types reported in result metadata.
const (
	PatternTypeRegex   = "regex"
	PatternTypeLike    = "like"
	PatternTypePartial = "partial"
)

type patternParams struct {
	Column    string `mapstructure:"column"`
	Pattern   string `mapstructure:"pattern"`
	MatchNull *bool  `mapstructure:"match_null"`
	Inverse   bool   `mapstructure:"inverse"`
}

// Pattern flags non-NULL values that do not match a regular expression, or
// that do match when inverse is set. NULLs are violations only when
// match_null is false.
//
// Native regex support is used when the dialect has it. Otherwise the
// expression is translated to LIKE, and when that is impossible the check
// falls back to containment of the longest literal the pattern requires.
type Pattern struct {
	base
}

// NewPattern creates a pattern validator.
func NewPattern(conn connector.Connector, settings core.Settings, logger *slog.Logger) Validator {
	return &Pattern{base: newBase(conn, settings, logger)}
}

// patternMatcher renders one way of testing a value against the pattern.
type patternMatcher struct {
	kind  string
	like  string
	match func(negate bool) string
}

// Validate implements Validator.
func (v *Pattern) Validate(ctx context.Context, rule core.Rule) core.Result {
	var p patternParams
	if err := decodeParams(rule, &p); err != nil {
		return v.fail(rule, "", err)
	}
	if err := requireTable(rule); err != nil {
		return v.fail(rule, "", err)
	}
	if p.Column == "" {
		return v.fail(rule, "", missing(rule, "column"))
	}
	if p.Pattern == "" {
		return v.fail(rule, "", missing(rule, "pattern"))
	}
	pattern, name := resolvePattern(p.Pattern)
	if _, err := regexp.Compile(pattern); err != nil {
		return v.fail(rule, "", &ParamError{Rule: rule.Name, Msg: fmt.Sprintf("invalid regular expression: %v", err)})
	}
	matchNull := boolOr(p.MatchNull, true)

	col := v.quote(p.Column)
	table := v.quote(rule.Table)
	matchers := v.matchers(v.dialect().TextCast(col), pattern)
	if len(matchers) == 0 {
		return v.fail(rule, "", fmt.Errorf("pattern %q cannot be evaluated on %s: no native regex support and no literal text to match",
			pattern, v.dialect().Name))
	}

	var (
		query      string
		violations int64
		chosen     patternMatcher
		err        error
	)
	for _, m := range matchers {
		// A value violates the rule when it does not match, or matches under inverse.
		where := fmt.Sprintf("(%s IS NOT NULL AND %s)", col, m.match(!p.Inverse))
		if !matchNull {
			where += fmt.Sprintf(" OR %s IS NULL", col)
		}
		query = fmt.Sprintf("SELECT * FROM %s WHERE %s", table, where)
		violations, err = v.count(ctx, fmt.Sprintf("SELECT COUNT(*) AS violation_count FROM %s WHERE %s", table, where))
		if err == nil {
			chosen = m
			break
		}
		if !core.IsQueryError(err) {
			return v.fail(rule, query, err)
		}
		v.logger.Debug("pattern matcher failed",
			slog.String("rule", rule.Name),
			slog.String("pattern_type", m.kind),
			slog.String("error", err.Error()))
	}
	if err != nil {
		return v.fail(rule, query, err)
	}

	var patternName any
	if name != "" {
		patternName = name
	}
	metadata := map[string]any{
		"pattern":      pattern,
		"pattern_name": patternName,
		"match_null":   matchNull,
		"inverse":      p.Inverse,
		"pattern_type": chosen.kind,
	}
	if chosen.like != "" {
		metadata["like_pattern"] = chosen.like
	}

	var samples []core.Row
	if violations > 0 {
		rows, strategy, err := v.sample(ctx, sampleRequest{
			Query:        query,
			OrderBy:      col,
			OuterOrderBy: col,
			Limit:        v.settings.SampleSize,
			Less:         lessByColumns(p.Column),
		})
		if err != nil {
			return v.fail(rule, query, err)
		}
		samples = cleanRows(rows, nil, nil)
		metadata["sample_strategy"] = strategy
	}
	return core.NewResult(rule, violations, samples, query, metadata)
}

// matchers lists the ways to evaluate pattern on expr, best first.
func (v *Pattern) matchers(expr, pattern string) []patternMatcher {
	d := v.dialect()
	var out []patternMatcher

	lit := connector.Literal(pattern)
	if _, ok := d.RegexMatch(expr, lit, false); ok {
		out = append(out, patternMatcher{kind: PatternTypeRegex, match: func(negate bool) string {
			s, _ := d.RegexMatch(expr, lit, negate)
			return s
		}})
	}

	if like, exact, ok := likeFromRegex(pattern, d); ok {
		kind := PatternTypeLike
		match := func(negate bool) string { return d.Like(expr, like, negate) }
		if !exact {
			kind = PatternTypePartial
			if d.LikeClasses {
				match = func(negate bool) string { return patindex(expr, like, negate) }
			}
		}
		return append(out, patternMatcher{kind: kind, like: like, match: match})
	}

	if s := longestLiteral(pattern); s != "" {
		like := "%" + d.LikeEscape(s) + "%"
		out = append(out, patternMatcher{kind: PatternTypePartial, like: like, match: func(negate bool) string {
			return d.Like(expr, like, negate)
		}})
	}
	return out
}

func patindex(expr, like string, negate bool) string {
	if negate {
		return fmt.Sprintf("PATINDEX(%s, %s) = 0", connector.Literal(like), expr)
	}
	return fmt.Sprintf("PATINDEX(%s, %s) > 0", connector.Literal(like), expr)
}
