// Package ordered runs a fixed sequence of writes and, when one fails,
// undoes the writes that already succeeded in reverse order.
//
// It is the fallback half of the transfer approval path: inside a MongoDB
// transaction the undo steps are redundant, on a standalone server or the
// in-memory store they are what keeps the writes all-or-nothing.
package ordered

import (
	"context"
	"errors"
	"fmt"
)

// Step is one write and its compensation. Undo may be nil for the last step.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// StepError reports which step failed. Undo holds any compensation errors.
type StepError struct {
	Step string
	Err  error
	Undo error
}

func (e *StepError) Error() string {
	if e.Undo != nil {
		return fmt.Sprintf("step %s: %v (undo: %v)", e.Step, e.Err, e.Undo)
	}
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Run executes steps in order. If a step fails, the Undo of every earlier
// step is called in reverse order and a *StepError wrapping the failure is
// returned.
func Run(ctx context.Context, steps ...Step) error {
	for i, s := range steps {
		if err := s.Do(ctx); err != nil {
			return &StepError{Step: s.Name, Err: err, Undo: undo(ctx, steps[:i])}
		}
	}
	return nil
}

func undo(ctx context.Context, done []Step) error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		if done[i].Undo == nil {
			continue
		}
		// Compensate even when the request context is already canceled.
		if err := done[i].Undo(context.WithoutCancel(ctx)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", done[i].Name, err))
		}
	}
	return errors.Join(errs...)
}
