package dynamo

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

func TestStateIsCopiedOnAssignment(t *testing.T) {
	a := NewState(Vec2{1, 2}, Vec2{3, 4})
	b := a
	b[IVX] = 10

	if a[IVX] != 3 {
		t.Errorf("assignment aliased state: a.vx = %v", a[IVX])
	}
	if got := a.Speed(); got != 5 {
		t.Errorf("Speed() = %v, want 5", got)
	}
}

func TestStateIsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{"finite", State{1, 2, 3, 4}, true},
		{"nan", State{math.NaN(), 0, 0, 0}, false},
		{"inf velocity", State{0, 0, math.Inf(1), 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStateArithmetic(t *testing.T) {
	s := State{1, 1, 1, 1}
	got := s.AddScaled(State{2, 4, 6, 8}, 0.5)
	want := State{2, 3, 4, 5}
	if got != want {
		t.Errorf("AddScaled = %v, want %v", got, want)
	}
	if s != (State{1, 1, 1, 1}) {
		t.Errorf("AddScaled mutated receiver: %v", s)
	}
	if got := want.Sub(s).Scale(2); got != (State{2, 4, 6, 8}) {
		t.Errorf("Sub/Scale = %v", got)
	}
}

func TestVec2Clamp(t *testing.T) {
	v := Vec2{30, 40}
	if got := v.ClampLen(5); math.Abs(got.Len()-5) > 1e-12 || math.Abs(got.X-3) > 1e-12 {
		t.Errorf("ClampLen(5) = %v", got)
	}
	if got := v.ClampLen(100); got != v {
		t.Errorf("ClampLen should not grow vectors, got %v", got)
	}
	if got := (Vec2{-12, 3}).ClampAxes(10); got != (Vec2{-10, 3}) {
		t.Errorf("ClampAxes = %v", got)
	}
}

func TestStepErrorUnwrap(t *testing.T) {
	err := error(&StepError{Step: 7, Time: 0.035, Err: ErrDivergentSimulation})
	if !errors.Is(err, ErrDivergentSimulation) {
		t.Errorf("StepError does not unwrap to its cause")
	}
	var se *StepError
	if !errors.As(err, &se) || se.Step != 7 {
		t.Errorf("errors.As failed: %v", err)
	}
}

func TestParallelForCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 64, 1000} {
		seen := make([]int32, n)
		ParallelFor(n, 4, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, c)
			}
		}
	}
}
