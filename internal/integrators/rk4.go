package integrators

import (
	"fmt"

	"github.com/san-kum/puttsim/internal/dynamo"
)

// RK4 is the classical four-stage Runge-Kutta method. It keeps no scratch
// buffers, so one value may be shared between goroutines.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

// Step evaluates sys at t, t+dt/2, t+dt/2 and t+dt and combines the stages
// with weights 1, 2, 2, 1. A non-finite result leaves x unchanged and
// returns a wrapped [dynamo.ErrDivergentSimulation].
func (r *RK4) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	k1, err := sys.Derive(x, t)
	if err != nil {
		return x, err
	}
	k2, err := sys.Derive(x.AddScaled(k1, dt*0.5), t+dt*0.5)
	if err != nil {
		return x, err
	}
	k3, err := sys.Derive(x.AddScaled(k2, dt*0.5), t+dt*0.5)
	if err != nil {
		return x, err
	}
	k4, err := sys.Derive(x.AddScaled(k3, dt), t+dt)
	if err != nil {
		return x, err
	}

	dt6 := dt / 6.0
	next := x
	for i := range next {
		next[i] += dt6 * (k1[i] + 2*k2[i] + 2*k3[i] + k4[i])
	}

	if !next.IsValid() {
		return x, fmt.Errorf("rk4: %w", dynamo.ErrDivergentSimulation)
	}
	return next, nil
}
