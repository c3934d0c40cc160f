// Package validator implements the rule-type algorithms.
//
// Every validator turns a core.Rule into exactly one core.Result. Validate
// never returns an error: query failures, bad parameters and unsupported
// dialect features all become failed results carrying an error message.
package validator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

// Validator evaluates one rule type.
type Validator interface {
	Validate(ctx context.Context, rule core.Rule) core.Result
}

// Factory binds a validator to a connector and run settings.
type Factory func(conn connector.Connector, settings core.Settings, logger *slog.Logger) Validator

// ParamError reports missing or malformed rule parameters.
type ParamError struct {
	Rule string
	Msg  string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("rule %q: %s", e.Rule, e.Msg)
}

// base holds what every validator needs.
type base struct {
	conn     connector.Connector
	settings core.Settings
	logger   *slog.Logger
}

func newBase(conn connector.Connector, settings core.Settings, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return base{conn: conn, settings: settings.Normalize(), logger: logger}
}

func (b *base) quote(name string) string {
	return b.conn.QuoteIdentifier(name)
}

func (b *base) dialect() *connector.Dialect {
	return b.conn.Dialect()
}

// fail converts err into a failed result.
func (b *base) fail(rule core.Rule, query string, err error) core.Result {
	var pe *ParamError
	switch {
	case errors.As(err, &pe):
		b.logger.Warn("invalid rule parameters", slog.String("rule", rule.Name), slog.String("error", pe.Msg))
		return core.ErrorResult(rule, query, "invalid parameters: "+pe.Msg)
	case core.IsQueryError(err):
		b.logger.Debug("rule query failed", slog.String("rule", rule.Name), slog.String("error", err.Error()))
	default:
		b.logger.Debug("rule failed", slog.String("rule", rule.Name), slog.String("error", err.Error()))
	}
	return core.ErrorResult(rule, query, err.Error())
}

func requireTable(rule core.Rule) error {
	if rule.Table == "" {
		return &ParamError{Rule: rule.Name, Msg: "table is required"}
	}
	return nil
}
