// Package startup brings up external dependencies in order, retrying the
// whole sequence with fibonacci backoff until it succeeds or the attempt
// budget is spent.
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
)

// Dependency is one startable external resource. StartFunc is required;
// StopFunc may be nil when there is nothing to tear down.
type Dependency struct {
	Name           string
	DependsOnNames []string
	StartFunc      func(ctx context.Context) error
	StopFunc       func(ctx context.Context) error
}

type status int

const (
	statusPending status = iota
	statusStarted
	statusStopped
	statusFailed
)

type Startup struct {
	dependencies map[string]Dependency
	order        []string
	logger       ectologger.Logger
	statuses     map[string]status
	maxAttempts  int
}

func NewStartup(logger ectologger.Logger, maxAttempts int) *Startup {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Startup{
		logger:       logger,
		dependencies: make(map[string]Dependency),
		statuses:     make(map[string]status),
		maxAttempts:  maxAttempts,
	}
}

func (s *Startup) AddDependency(dependency Dependency) {
	if _, ok := s.dependencies[dependency.Name]; !ok {
		s.order = append(s.order, dependency.Name)
	}
	s.dependencies[dependency.Name] = dependency
}

// Start brings up every dependency, retrying the full pass with fibonacci
// backoff. Dependencies that started on an earlier attempt are not started
// again.
func (s *Startup) Start(ctx context.Context) error {
	var lastErr error

	a, b := 1, 1
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		s.logger.WithField("attempt", attempt).Infof("Beginning startup attempt %d", attempt)

		success := true
		for _, name := range s.order {
			if err := s.startDependency(ctx, s.dependencies[name]); err != nil {
				s.logger.WithError(err).Errorf("Startup dependency '%s' attempt %d failed", name, attempt)
				lastErr = err
				success = false
				break
			}
		}

		if success {
			return nil
		}

		if attempt >= s.maxAttempts {
			return fmt.Errorf("startup failed after %d attempts: %w", attempt, lastErr)
		}

		s.logger.Infof("Retrying in %d seconds (attempt %d/%d)", a, attempt, s.maxAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(a) * time.Second):
		}
		a, b = b, a+b
	}

	return nil
}

func (s *Startup) startDependency(ctx context.Context, dependency Dependency) error {
	if s.statuses[dependency.Name] == statusStarted {
		return nil
	}

	for _, name := range dependency.DependsOnNames {
		if s.statuses[name] != statusStarted {
			if err := s.startDependency(ctx, s.dependencies[name]); err != nil {
				return err
			}
		}
	}

	s.logger.WithField("dependency", dependency.Name).Infof("Starting dependency '%s'", dependency.Name)
	s.statuses[dependency.Name] = statusPending
	if err := dependency.StartFunc(ctx); err != nil {
		s.statuses[dependency.Name] = statusFailed
		s.logger.WithError(err).WithField("dependency", dependency.Name).Errorf("Failed to start dependency '%s'", dependency.Name)
		return err
	}
	s.statuses[dependency.Name] = statusStarted
	return nil
}

// Stop tears down started dependencies in reverse start order.
func (s *Startup) Stop(ctx context.Context) error {
	for i := len(s.order) - 1; i >= 0; i-- {
		dependency := s.dependencies[s.order[i]]
		if s.statuses[dependency.Name] != statusStarted {
			continue
		}
		if dependency.StopFunc == nil {
			s.statuses[dependency.Name] = statusStopped
			continue
		}

		s.logger.WithField("dependency", dependency.Name).Infof("Stopping dependency '%s'", dependency.Name)
		if err := dependency.StopFunc(ctx); err != nil {
			s.logger.WithError(err).WithField("dependency", dependency.Name).Errorf("Failed to stop dependency '%s'", dependency.Name)
			return err
		}
		s.statuses[dependency.Name] = statusStopped
	}
	return nil
}
