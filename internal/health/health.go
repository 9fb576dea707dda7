// Package health aggregates dependency checks for the /health endpoint.
package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kartiksrathod/Eduu/internal/utils"
)

// ErrCheckTimeout is reported for a check that did not finish in time.
var ErrCheckTimeout = errors.New("health check timed out")

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// Checker checks one dependency. A nil error means healthy.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

type Result struct {
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"-"`
}

type Report struct {
	Status Status            `json:"status"`
	Checks map[string]Result `json:"checks"`
}

// Healthy reports whether the named check passed.
func (r Report) Healthy(name string) bool {
	res, ok := r.Checks[name]
	return ok && res.Status == StatusHealthy
}

// Aggregator runs every registered check concurrently under one deadline.
type Aggregator struct {
	timeout  time.Duration
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewAggregator creates an aggregator; a non-positive timeout means 5s.
func NewAggregator(timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Aggregator{timeout: timeout, checkers: map[string]Checker{}}
}

func (a *Aggregator) Register(name string, c Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkers[name] = c
}

func (a *Aggregator) CheckAll(ctx context.Context) Report {
	a.mu.RLock()
	checkers := make(map[string]Checker, len(a.checkers))
	for name, c := range a.checkers {
		checkers[name] = c
	}
	a.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	report := Report{Status: StatusHealthy, Checks: make(map[string]Result, len(checkers))}
	var mu sync.Mutex
	tasks := make([]utils.Task, 0, len(checkers))
	for name, c := range checkers {
		name, c := name, c
		// Failures land in the report; a nil return keeps siblings running.
		tasks = append(tasks, func(ctx context.Context) error {
			res := run(ctx, c)
			mu.Lock()
			report.Checks[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = utils.Parallel(ctx, tasks...)

	for _, res := range report.Checks {
		if res.Status != StatusHealthy {
			report.Status = StatusUnhealthy
			break
		}
	}
	return report
}

func run(ctx context.Context, c Checker) Result {
	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- c.Check(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			return Result{Status: StatusUnhealthy, Error: err.Error(), Duration: time.Since(start)}
		}
		return Result{Status: StatusHealthy, Duration: time.Since(start)}
	case <-ctx.Done():
		return Result{Status: StatusUnhealthy, Error: ErrCheckTimeout.Error(), Duration: time.Since(start)}
	}
}
