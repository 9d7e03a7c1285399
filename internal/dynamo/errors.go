package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation and search operations.
var (
	// ErrDivergentSimulation indicates a step produced a non-finite state.
	ErrDivergentSimulation = errors.New("dynamo: simulation diverged (NaN or Inf detected)")

	// ErrSearchExhausted indicates an iterative search hit its cap without
	// meeting its stopping criterion. Results returned alongside it are best-effort.
	ErrSearchExhausted = errors.New("dynamo: search exhausted its iteration cap")

	// ErrInvalidConfig indicates a parameter value is outside its valid range.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")
)

// StepError wraps an error with the roll-out context it occurred in.
type StepError struct {
	Step  int
	Time  float64
	State State
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f) at %v: %v", e.Step, e.Time, e.State.Position(), e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
