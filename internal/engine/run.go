package engine

// run.go - Rule evaluation and report aggregation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

// Run evaluates the filtered rules and returns the report.
//
// A connection failure aborts the run with a *core.ConnectionError. Every
// other failure is contained in the result of the rule that caused it. With
// StopOnCritical set, no rule is started after a critical rule fails. An
// empty rule set yields an empty report without connecting.
func (e *Engine) Run(ctx context.Context) (*core.Report, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.setState(StateClosed)

	start := time.Now()
	report := &core.Report{
		RunID:      uuid.NewString(),
		Connection: e.connName,
		Timestamp:  start,
		Settings:   e.settings,
		Results:    []core.Result{},
	}
	rules := e.Rules()

	e.logger.Info("starting run", "run_id", report.RunID, "connection", e.connName, "rules", len(rules))
	if len(rules) == 0 {
		report.Duration = time.Since(start)
		return report, nil
	}

	conn, err := e.connect(ctx, e.parallel(len(rules)))
	if err != nil {
		e.logger.Error("run aborted", "run_id", report.RunID, "error", err.Error())
		return nil, err
	}
	defer e.closeConn(conn)

	e.setState(StateExecuting)
	if e.parallel(len(rules)) {
		report.Results = e.runParallel(ctx, conn, rules)
	} else {
		report.Results = e.runSequential(ctx, conn, rules)
	}

	e.setState(StateAggregating)
	report.Duration = time.Since(start)
	e.logger.Info("run completed",
		"run_id", report.RunID,
		"evaluated", report.Total(),
		"failed", report.FailedCount(),
		"duration_ms", report.Duration.Milliseconds())

	return report, ctx.Err()
}

// RunRule evaluates the named rule on its own connection, ignoring the
// filter. It does not change the engine state.
func (e *Engine) RunRule(ctx context.Context, name string) (core.Result, error) {
	var rule *core.Rule
	for i := range e.rules {
		if e.rules[i].Name == name {
			rule = &e.rules[i]
			break
		}
	}
	if rule == nil {
		return core.Result{}, fmt.Errorf("%w: %s", ErrRuleNotFound, name)
	}

	conn, err := e.connect(ctx, false)
	if err != nil {
		return core.Result{}, err
	}
	defer e.closeConn(conn)

	return e.evaluate(ctx, conn, *rule), nil
}

// connect creates and opens the connector. In parallel mode the pool is
// widened to the worker count.
func (e *Engine) connect(ctx context.Context, parallel bool) (connector.Connector, error) {
	cfg := e.connCfg
	if parallel && cfg.PoolSize < e.settings.MaxWorkers {
		cfg.PoolSize = e.settings.MaxWorkers
	}

	e.logger.Debug("connecting", "connection_type", cfg.Type, "pool_size", cfg.PoolSize)

	conn, err := e.newConnector(cfg, e.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}
	if err := conn.Connect(ctx, cfg); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func (e *Engine) closeConn(conn connector.Connector) {
	if err := conn.Close(); err != nil {
		e.logger.Warn("failed to close connection", "error", err.Error())
	}
}

// runSequential evaluates rules in declaration order.
func (e *Engine) runSequential(ctx context.Context, conn connector.Connector, rules []core.Rule) []core.Result {
	p := e.startProgress(len(rules))
	defer p.stop()

	results := make([]core.Result, 0, len(rules))
	for _, rule := range rules {
		if ctx.Err() != nil {
			e.logger.Info("run cancelled", "remaining", len(rules)-len(results))
			break
		}
		res := e.evaluate(ctx, conn, rule)
		results = append(results, res)
		p.notify(rule.Name, len(results))

		if e.stopsRun(rule, res) {
			e.logger.Info("critical rule failed, stopping run",
				"rule", rule.Name,
				"skipped", len(rules)-len(results))
			break
		}
	}
	return results
}

// runParallel evaluates rules on at most MaxWorkers goroutines sharing the
// connection pool. Results are in completion order. After a critical failure
// no further rule is dispatched; rules already running finish.
func (e *Engine) runParallel(ctx context.Context, conn connector.Connector, rules []core.Rule) []core.Result {
	p := e.startProgress(len(rules))
	defer p.stop()

	var (
		mu      sync.Mutex
		results = make([]core.Result, 0, len(rules))
		stop    atomic.Bool
		g       errgroup.Group
	)
	g.SetLimit(e.settings.MaxWorkers)

	for _, rule := range rules {
		if stop.Load() || ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if stop.Load() || ctx.Err() != nil {
				return nil
			}
			res := e.evaluate(ctx, conn, rule)

			mu.Lock()
			results = append(results, res)
			p.notify(rule.Name, len(results))
			mu.Unlock()

			if e.stopsRun(rule, res) {
				e.logger.Info("critical rule failed, stopping dispatch", "rule", rule.Name)
				stop.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (e *Engine) stopsRun(rule core.Rule, res core.Result) bool {
	return e.settings.StopOnCritical && rule.Severity == core.SeverityCritical && res.Failed()
}

// evaluate runs one rule. It never panics: unknown rule types and validator
// panics become failed results.
func (e *Engine) evaluate(ctx context.Context, conn connector.Connector, rule core.Rule) (res core.Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("validator panicked", "rule", rule.Name, "panic", fmt.Sprint(r))
			res = core.ErrorResult(rule, "", fmt.Sprintf("validator error: %v", r))
		}
		res = res.WithElapsed(time.Since(start))
		e.logger.Debug("rule evaluated",
			"rule", rule.Name,
			"passed", res.Passed,
			"violations", res.ViolationCount,
			"elapsed_ms", res.Elapsed.Milliseconds())
	}()

	factory, ok := e.validators.Lookup(rule.Type)
	if !ok {
		return core.ErrorResult(rule, "", fmt.Sprintf("unsupported rule type: %s", rule.Type))
	}
	return factory(conn, e.settings, e.logger).Validate(ctx, rule)
}
