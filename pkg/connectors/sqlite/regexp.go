package sqlite

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"sync"

	msqlite "modernc.org/sqlite"
)

var patternCache sync.Map // string -> *regexp.Regexp

// regexpFunc implements "value REGEXP pattern", which SQLite calls as
// regexp(pattern, value). NULL operands yield NULL.
func regexpFunc(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if args[0] == nil || args[1] == nil {
		return nil, nil
	}
	pattern := asString(args[0])

	re, ok := patternCache.Load(pattern)
	if !ok {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regular expression %q: %w", pattern, err)
		}
		re, _ = patternCache.LoadOrStore(pattern, compiled)
	}
	if re.(*regexp.Regexp).MatchString(asString(args[1])) {
		return int64(1), nil
	}
	return int64(0), nil
}

func asString(v driver.Value) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
