package health

import (
	"context"
	"sync"
	"time"

	"github.com/newmo-oss/ctxtime"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/courseops/observe"
)

// DefaultTimeout bounds a full round of checks.
const DefaultTimeout = 10 * time.Second

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout is the maximum time to wait for all checks.
	// Default: DefaultTimeout
	Timeout time.Duration

	// Sequential runs checks one after another instead of in parallel.
	Sequential bool

	// Logger receives a warning for every check that is not healthy.
	Logger observe.Logger
}

// Aggregator runs a set of named checkers and folds their results into a
// Report.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: every check gets a context bounded by Timeout; a check that
//   overruns is reported unhealthy with ErrCheckTimeout.
type Aggregator struct {
	config   AggregatorConfig
	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string
}

// NewAggregator creates a new health aggregator.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	var cfg AggregatorConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	return &Aggregator{
		config:   cfg,
		checkers: make(map[string]Checker),
	}
}

// Register adds a checker under its own name, replacing any checker
// registered under the same name.
func (a *Aggregator) Register(checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	name := checker.Name()
	if _, exists := a.checkers[name]; !exists {
		a.order = append(a.order, name)
	}
	a.checkers[name] = checker
}

// Unregister removes the checker with name.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.checkers[name]; !ok {
		return
	}
	delete(a.checkers, name)
	for i, n := range a.order {
		if n == name {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// CheckerNames returns the registered names in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, len(a.order))
	copy(names, a.order)
	return names
}

// Check runs a single named check.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	checker, ok := a.checkers[name]
	a.mu.RUnlock()

	if !ok {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return a.runCheck(ctx, name, checker), nil
}

// Run executes every registered check and returns the combined report.
func (a *Aggregator) Run(ctx context.Context) Report {
	a.mu.RLock()
	names := make([]string, len(a.order))
	copy(names, a.order)
	checkers := make(map[string]Checker, len(a.checkers))
	for name, checker := range a.checkers {
		checkers[name] = checker
	}
	a.mu.RUnlock()

	report := Report{
		CheckedAt: ctxtime.Now(ctx),
		Checks:    make(map[string]Result, len(checkers)),
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	if a.config.Sequential {
		for _, name := range names {
			report.Checks[name] = a.runCheck(ctx, name, checkers[name])
		}
	} else {
		var mu sync.Mutex
		var g errgroup.Group
		for _, name := range names {
			g.Go(func() error {
				result := a.runCheck(ctx, name, checkers[name])
				mu.Lock()
				report.Checks[name] = result
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	report.Status = Overall(report.Checks)
	return report
}

// Overall folds results into one status: unhealthy if any check is
// unhealthy, degraded if any is degraded, healthy otherwise.
func Overall(results map[string]Result) Status {
	status := StatusHealthy
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

func (a *Aggregator) runCheck(ctx context.Context, name string, checker Checker) Result {
	startedAt := ctxtime.Now(ctx)
	start := time.Now()

	resultCh := make(chan Result, 1)
	go func() {
		resultCh <- checker.Check(ctx)
	}()

	var result Result
	select {
	case result = <-resultCh:
	case <-ctx.Done():
		result = Unhealthy("check timed out", ErrCheckTimeout)
	}

	result.Duration = time.Since(start)
	if result.Timestamp.IsZero() {
		result.Timestamp = startedAt
	}

	if result.Status != StatusHealthy {
		a.config.Logger.Warn(ctx, "health check not healthy",
			observe.Field{Key: "check", Value: name},
			observe.Field{Key: "status", Value: result.Status.String()},
			observe.Field{Key: "message", Value: result.Message},
		)
	}
	return result
}
