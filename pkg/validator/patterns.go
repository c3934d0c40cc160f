package validator

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/leapstack-labs/leapdq/pkg/connector"
)

// namedPatterns are regular expressions that rules may reference by name.
var namedPatterns = map[string]string{
	"email":     `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`,
	"us_phone":  `^\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}$`,
	"us_zip":    `^\d{5}(-\d{4})?$`,
	"ca_postal": `^[A-Za-z]\d[A-Za-z][ -]?\d[A-Za-z]\d$`,
	"ssn":       `^\d{3}-?\d{2}-?\d{4}$`,
	"url":       `^https?://[^\s/$.?#].[^\s]*$`,
	"ipv4":      `^(\d{1,3}\.){3}\d{1,3}$`,
	"date_iso":  `^\d{4}-\d{2}-\d{2}$`,
	"uuid":      `^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`,
}

var patternAliases = map[string]string{
	"phone":    "us_phone",
	"zip":      "us_zip",
	"postal":   "ca_postal",
	"iso_date": "date_iso",
}

// NamedPatterns returns the built-in pattern names.
func NamedPatterns() map[string]string {
	out := make(map[string]string, len(namedPatterns))
	for k, v := range namedPatterns {
		out[k] = v
	}
	return out
}

// resolvePattern expands a named pattern. Unknown names are returned as-is
// and treated as regular expressions.
func resolvePattern(p string) (regex, name string) {
	key := strings.ToLower(strings.TrimSpace(p))
	if alias, ok := patternAliases[key]; ok {
		key = alias
	}
	if re, ok := namedPatterns[key]; ok {
		return re, key
	}
	return p, ""
}

// likeAtom is one regex atom rendered as a single LIKE character.
type likeAtom struct {
	text string
	// any marks '.', which LIKE can repeat exactly with %.
	any bool
	// approx marks atoms LIKE can only approximate with _.
	approx bool
}

// likeFromRegex translates a regular expression to a LIKE pattern for d.
// exact is false when the LIKE pattern accepts more strings than the regex.
// ok is false for constructs LIKE cannot express at all (groups,
// alternation, backreferences, word boundaries).
func likeFromRegex(re string, d *connector.Dialect) (like string, exact, ok bool) {
	src := []rune(re)
	anchoredStart := len(src) > 0 && src[0] == '^'
	if anchoredStart {
		src = src[1:]
	}
	anchoredEnd := false
	if n := len(src); n > 0 && src[n-1] == '$' && !escapedAt(src, n-1) {
		anchoredEnd = true
		src = src[:n-1]
	}

	var b strings.Builder
	exact = true
	wild := false
	writeWild := func() {
		if !wild {
			b.WriteString("%")
			wild = true
		}
	}
	if !anchoredStart {
		writeWild()
	}

	for i := 0; i < len(src); {
		atom, next, ok := readAtom(src, i, d)
		if !ok {
			return "", false, false
		}
		lo, hi, after, ok := readQuantifier(src, next)
		if !ok {
			return "", false, false
		}
		i = after
		if atom.approx {
			exact = false
		}
		for range lo {
			b.WriteString(atom.text)
			wild = false
		}
		if hi == lo {
			continue
		}
		if !atom.any || hi != -1 {
			exact = false
		}
		writeWild()
	}
	if !anchoredEnd {
		writeWild()
	}
	return b.String(), exact, true
}

func readAtom(src []rune, i int, d *connector.Dialect) (likeAtom, int, bool) {
	c := src[i]
	switch c {
	case '(', ')', '|', '^', '$', '*', '+', '?', '{', '}':
		return likeAtom{}, i, false
	case '.':
		return likeAtom{text: "_", any: true}, i + 1, true
	case '[':
		end := classEnd(src, i)
		if end < 0 {
			return likeAtom{}, i, false
		}
		if !d.LikeClasses {
			return likeAtom{text: "_", approx: true}, end + 1, true
		}
		class, ok := likeClass(src[i+1 : end])
		return likeAtom{text: class}, end + 1, ok
	case '\\':
		if i+1 >= len(src) {
			return likeAtom{}, i, false
		}
		e := src[i+1]
		if class, ok := shorthandClasses[e]; ok {
			if !d.LikeClasses {
				return likeAtom{text: "_", approx: true}, i + 2, true
			}
			return likeAtom{text: "[" + class + "]"}, i + 2, true
		}
		if unicode.IsLetter(e) || unicode.IsDigit(e) {
			return likeAtom{}, i, false
		}
		return likeAtom{text: d.LikeEscape(string(e))}, i + 2, true
	default:
		return likeAtom{text: d.LikeEscape(string(c))}, i + 1, true
	}
}

var shorthandClasses = map[rune]string{
	'd': "0-9",
	'w': "A-Za-z0-9_",
	's': " \t\r\n",
}

// likeClass renders the body of a bracket expression for a LIKE dialect
// with character classes.
func likeClass(body []rune) (string, bool) {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\' && i+1 < len(body):
			i++
			e := body[i]
			if class, ok := shorthandClasses[e]; ok {
				b.WriteString(class)
				continue
			}
			if e == ']' || unicode.IsLetter(e) || unicode.IsDigit(e) {
				return "", false
			}
			b.WriteRune(e)
		case c == '[' && i+1 < len(body) && body[i+1] == ':':
			return "", false
		default:
			b.WriteRune(c)
		}
	}
	b.WriteString("]")
	return b.String(), true
}

// classEnd returns the index of the ']' closing the class opened at i.
func classEnd(src []rune, i int) int {
	j := i + 1
	if j < len(src) && src[j] == '^' {
		j++
	}
	if j < len(src) && src[j] == ']' {
		j++
	}
	for ; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case ']':
			return j
		}
	}
	return -1
}

// readQuantifier parses an optional quantifier at i. hi is -1 when
// unbounded. Without a quantifier it returns 1, 1, i.
func readQuantifier(src []rune, i int) (lo, hi, next int, ok bool) {
	if i >= len(src) {
		return 1, 1, i, true
	}
	switch src[i] {
	case '*':
		lo, hi, next = 0, -1, i+1
	case '+':
		lo, hi, next = 1, -1, i+1
	case '?':
		lo, hi, next = 0, 1, i+1
	case '{':
		end := i + 1
		for end < len(src) && src[end] != '}' {
			end++
		}
		if end >= len(src) {
			return 0, 0, i, false
		}
		body := string(src[i+1 : end])
		minStr, maxStr, ranged := strings.Cut(body, ",")
		var err error
		if lo, err = strconv.Atoi(strings.TrimSpace(minStr)); err != nil {
			return 0, 0, i, false
		}
		hi = lo
		if ranged {
			hi = -1
			if s := strings.TrimSpace(maxStr); s != "" {
				if hi, err = strconv.Atoi(s); err != nil || hi < lo {
					return 0, 0, i, false
				}
			}
		}
		next = end + 1
	default:
		return 1, 1, i, true
	}
	if next < len(src) && src[next] == '?' {
		next++
	}
	return lo, hi, next, true
}

func escapedAt(src []rune, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && src[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// longestLiteral returns the longest run of literal text every match of re
// must contain. It returns "" when no such run is known, for example under
// top-level alternation.
func longestLiteral(re string) string {
	src := []rune(re)
	var best, cur []rune
	flush := func() {
		if len(cur) > len(best) {
			best = cur
		}
		cur = nil
	}
	depth := 0
	for i := 0; i < len(src); i++ {
		c := src[i]
		var lit rune
		isLit := false
		switch c {
		case '\\':
			if i+1 < len(src) {
				i++
				if e := src[i]; !unicode.IsLetter(e) && !unicode.IsDigit(e) {
					lit, isLit = e, true
				}
			}
		case '[':
			end := classEnd(src, i)
			if end < 0 {
				return ""
			}
			i = end
		case '(':
			depth++
		case ')':
			depth--
		case '|':
			if depth == 0 {
				return ""
			}
		case '{':
			if _, _, next, ok := readQuantifier(src, i); ok {
				i = next - 1
			}
		case '.', '^', '$', '*', '+', '?', '}':
		default:
			lit, isLit = c, true
		}
		if !isLit || depth > 0 {
			flush()
			continue
		}
		lo, _, next, ok := readQuantifier(src, i+1)
		if ok && next > i+1 {
			if lo > 0 {
				cur = append(cur, lit)
			}
			flush()
			i = next - 1
			continue
		}
		cur = append(cur, lit)
	}
	flush()
	return string(best)
}
