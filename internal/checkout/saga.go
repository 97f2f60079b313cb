package checkout

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/seedshop-backend/pkg/logger"
	"github.com/angelmondragon/seedshop-backend/pkg/metrics"
)

// Step is one unit of a Saga. Undo reverts a completed Do and may be nil.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
	// NoRollback leaves the completed steps in place when this step fails.
	NoRollback bool
}

type stepObserver interface {
	ObserveStep(step, outcome string)
	ObserveCompensation(step, outcome string)
}

// Saga runs steps in order. When one fails, the undo actions of the steps
// that completed run in reverse order and the step's error is returned.
type Saga struct {
	steps   []Step
	logg    *logger.Logger
	metrics stepObserver
}

func NewSaga(logg *logger.Logger, observer stepObserver) *Saga {
	return &Saga{logg: logg, metrics: observer}
}

func (s *Saga) Add(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Run executes the saga. Undo failures are combined, logged and counted but
// never replace the error of the failed step.
func (s *Saga) Run(ctx context.Context) error {
	completed := make([]Step, 0, len(s.steps))
	for _, step := range s.steps {
		if err := step.Do(ctx); err != nil {
			s.observeStep(step.Name, metrics.OutcomeFailure)
			if step.NoRollback {
				s.warn(ctx, step.Name, "step failed; completed steps kept")
				return err
			}
			if undoErr := s.compensate(ctx, completed); undoErr != nil && s.logg != nil {
				logCtx := s.logg.WithField(ctx, "failed_step", step.Name)
				s.logg.Error(logCtx, "checkout compensation incomplete", undoErr)
			}
			return err
		}
		s.observeStep(step.Name, metrics.OutcomeSuccess)
		completed = append(completed, step)
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, completed []Step) error {
	// undo must run even when the request context is already cancelled
	undoCtx := context.WithoutCancel(ctx)

	var errs error
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Undo == nil {
			continue
		}
		if err := step.Undo(undoCtx); err != nil {
			s.observeCompensation(step.Name, metrics.OutcomeFailure)
			errs = multierr.Append(errs, fmt.Errorf("undo %s: %w", step.Name, err))
			continue
		}
		s.observeCompensation(step.Name, metrics.OutcomeSuccess)
	}
	return errs
}

func (s *Saga) observeStep(name, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveStep(name, outcome)
	}
}

func (s *Saga) observeCompensation(name, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveCompensation(name, outcome)
	}
}

func (s *Saga) warn(ctx context.Context, step, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "failed_step", step), msg)
}
