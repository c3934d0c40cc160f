package validator

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// decodeParams decodes rule.Params into out, converting scalar types
// loosely ("true" -> true, "3" -> 3, "a,b" -> []string{"a", "b"}).
func decodeParams(rule core.Rule, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return fmt.Errorf("failed to create params decoder: %w", err)
	}
	if err := dec.Decode(rule.Params); err != nil {
		return &ParamError{Rule: rule.Name, Msg: err.Error()}
	}
	return nil
}

// boolOr dereferences b or returns def when unset.
func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func missing(rule core.Rule, field string) error {
	return &ParamError{Rule: rule.Name, Msg: fmt.Sprintf("%s is required for %s rules", field, rule.Type)}
}
