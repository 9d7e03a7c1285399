package integrators

import (
	"fmt"

	"github.com/san-kum/puttsim/internal/dynamo"
)

// Euler is the semi-implicit (symplectic) Euler method for the ball state:
// velocity advances by a·dt first, then position advances by the new
// velocity times dt.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

// Step returns x unchanged alongside a wrapped [dynamo.ErrDivergentSimulation]
// when the result is not finite.
func (e *Euler) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	dx, err := sys.Derive(x, t)
	if err != nil {
		return x, err
	}

	next := x
	next[dynamo.IVX] += dt * dx[dynamo.IVX]
	next[dynamo.IVZ] += dt * dx[dynamo.IVZ]
	next[dynamo.IX] += dt * next[dynamo.IVX]
	next[dynamo.IZ] += dt * next[dynamo.IVZ]

	if !next.IsValid() {
		return x, fmt.Errorf("euler: %w", dynamo.ErrDivergentSimulation)
	}
	return next, nil
}
