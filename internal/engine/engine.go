// Package engine provides the rule execution coordinator.
// It resolves validators for the configured rules, evaluates them against a
// single connection either sequentially or on a bounded worker pool, and
// aggregates the results into a report.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/validator"
)

// State is the lifecycle position of an Engine.
type State int

// Engine states. Closed is terminal.
const (
	StateIdle State = iota
	StateConnecting
	StateExecuting
	StateAggregating
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateExecuting:
		return "executing"
	case StateAggregating:
		return "aggregating"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyRun is returned when Run is called on an engine that has
	// already started a run.
	ErrAlreadyRun = errors.New("engine has already run")
	// ErrRuleNotFound is returned by RunRule for an unknown rule name.
	ErrRuleNotFound = errors.New("rule not found")
)

// ProgressFunc is notified after each rule completes.
type ProgressFunc func(rule string, completed, total int)

// ConnectorFactory creates an unconnected connector for a configuration.
type ConnectorFactory func(cfg core.ConnectionConfig, logger *slog.Logger) (connector.Connector, error)

// Config holds engine configuration.
type Config struct {
	// ConnectionName is recorded in the report.
	ConnectionName string
	// Connection describes the data source.
	Connection core.ConnectionConfig
	// Settings controls sampling and scheduling. Zero values get defaults.
	Settings core.Settings
	// Rules in declaration order. Names must be unique.
	Rules []core.Rule
	// Filter narrows the rules evaluated by Run.
	Filter core.RuleFilter
	// Validators resolves rule types (optional, uses validator.Default if nil)
	Validators *validator.Registry
	// NewConnector builds the connector (optional, uses connector.New if nil)
	NewConnector ConnectorFactory
	// Progress is called after each rule completes (optional)
	Progress ProgressFunc
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine evaluates a rule set against one connection. An engine runs once.
type Engine struct {
	connName     string
	connCfg      core.ConnectionConfig
	settings     core.Settings
	rules        []core.Rule
	filter       core.RuleFilter
	validators   *validator.Registry
	newConnector ConnectorFactory
	progress     ProgressFunc
	logger       *slog.Logger

	mu    sync.Mutex
	state State
}

// New creates an engine. It fails when rule names are not unique or a
// rule carries an unknown severity.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := core.CheckUniqueNames(cfg.Rules); err != nil {
		return nil, fmt.Errorf("invalid rule set: %w", err)
	}
	for _, r := range cfg.Rules {
		if !r.Severity.Valid() {
			return nil, fmt.Errorf("invalid rule set: rule %q has invalid severity %d", r.Name, int(r.Severity))
		}
	}

	validators := cfg.Validators
	if validators == nil {
		validators = validator.Default()
	}
	newConnector := cfg.NewConnector
	if newConnector == nil {
		newConnector = connector.New
	}

	logger.Debug("initializing engine",
		"connection", cfg.ConnectionName,
		"connection_type", cfg.Connection.Type,
		"rules", len(cfg.Rules))

	return &Engine{
		connName:     cfg.ConnectionName,
		connCfg:      cfg.Connection,
		settings:     cfg.Settings.Normalize(),
		rules:        cfg.Rules,
		filter:       cfg.Filter,
		validators:   validators,
		newConnector: newConnector,
		progress:     cfg.Progress,
		logger:       logger,
		state:        StateIdle,
	}, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger.Debug("engine state", "from", e.state.String(), "to", s.String())
	e.state = s
}

// begin moves an idle engine to Connecting.
func (e *Engine) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateIdle {
		return ErrAlreadyRun
	}
	e.state = StateConnecting
	return nil
}

// Settings returns the normalized run settings.
func (e *Engine) Settings() core.Settings {
	return e.settings
}

// Rules returns the rules Run will evaluate, in declaration order.
func (e *Engine) Rules() []core.Rule {
	return e.filter.Apply(e.rules)
}

// DryRun lists the rules Run would evaluate without connecting.
func (e *Engine) DryRun() []core.RuleSummary {
	rules := e.Rules()
	out := make([]core.RuleSummary, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Summary())
	}
	return out
}

// parallel reports whether rules run on the worker pool.
func (e *Engine) parallel(n int) bool {
	return e.settings.ParallelExecution && e.settings.MaxWorkers > 1 && n > 1
}
