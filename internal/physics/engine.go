package physics

import (
	"fmt"

	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/expr"
	"github.com/san-kum/puttsim/internal/integrators"
)

// Engine steps a ball over one course with one set of parameters.
type Engine struct {
	course  *course.Course
	params  Params
	euler   *integrators.Euler
	rk4     *integrators.RK4
	bouncer course.Bouncer
}

func NewEngine(c *course.Course, p Params) (*Engine, error) {
	if c == nil || c.Field == nil {
		return nil, fmt.Errorf("%w: engine needs a course with a height field", dynamo.ErrInvalidConfig)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		course:  c,
		params:  p,
		euler:   integrators.NewEuler(),
		rk4:     integrators.NewRK4(),
		bouncer: c.Bouncer(),
	}, nil
}

func (e *Engine) Course() *course.Course { return e.course }
func (e *Engine) Params() Params         { return e.params }

// FrictionAt returns the coefficients of the terrain class at p.
func (e *Engine) FrictionAt(p dynamo.Vec2) Friction {
	if e.course.IsSand(p) {
		return e.params.Sand
	}
	return e.params.Grass
}

// System returns the ball dynamics with friction fixed to f.
func (e *Engine) System(f Friction) dynamo.System {
	return ball{field: e.course.Field, g: e.params.Gravity, f: f}
}

// Acceleration evaluates the acceleration law at x with the friction class
// found under the ball.
func (e *Engine) Acceleration(x dynamo.State, t float64) (dynamo.Vec2, error) {
	return ball{field: e.course.Field, g: e.params.Gravity, f: e.FrictionAt(x.Position())}.acceleration(x, t)
}

// Height returns the field height under the ball. State variables a..d are
// bound to x, z, vx and vz.
func (e *Engine) Height(x dynamo.State, t float64) (float64, error) {
	return e.course.Field.HeightAt(x[dynamo.IX], x[dynamo.IZ], t, x[:])
}

// StepEuler advances x by one semi-implicit Euler step. On error x is
// returned unchanged; a non-finite result wraps [dynamo.ErrDivergentSimulation].
func (e *Engine) StepEuler(x dynamo.State, t float64) (dynamo.State, error) {
	next, err := e.euler.Step(e.System(e.FrictionAt(x.Position())), x, t, e.params.Step)
	if err != nil {
		return x, err
	}
	return e.settle(x.Position(), next), nil
}

// StepRK4 advances x by one classical Runge-Kutta step with the friction
// class fixed at the start position. On error x is returned unchanged.
func (e *Engine) StepRK4(x dynamo.State, t float64) (dynamo.State, error) {
	next, err := e.rk4.Step(e.System(e.FrictionAt(x.Position())), x, t, e.params.Step)
	if err != nil {
		return x, err
	}
	return e.settle(x.Position(), next), nil
}

// settle applies wall bounces and the zero-velocity floor.
func (e *Engine) settle(from dynamo.Vec2, next dynamo.State) dynamo.State {
	if e.bouncer != nil {
		next, _ = e.bouncer.Reflect(from, next)
	}
	if next.Speed() < ZeroVelocity {
		next = next.WithVelocity(dynamo.Vec2{})
	}
	return next
}

// SimulateOneStep advances a ball at pos moving with vel by one RK4 frame.
// A divergent frame returns pos and vel unchanged with the error.
func (e *Engine) SimulateOneStep(pos, vel dynamo.Vec2, t float64) (dynamo.Vec2, dynamo.Vec2, error) {
	next, err := e.StepRK4(dynamo.NewState(pos, vel), t)
	if err != nil {
		return pos, vel, err
	}
	return next.Position(), next.Velocity(), nil
}

// ball is the right-hand side (vx, vz, ax, az) for a single terrain class.
type ball struct {
	field *expr.Field
	g     float64
	f     Friction
}

func (b ball) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	a, err := b.acceleration(x, t)
	if err != nil {
		return dynamo.State{}, err
	}
	return dynamo.State{x[dynamo.IVX], x[dynamo.IVZ], a.X, a.Z}, nil
}

func (b ball) acceleration(x dynamo.State, t float64) (dynamo.Vec2, error) {
	gx, gz, err := b.field.Gradient(x[dynamo.IX], x[dynamo.IZ], t, x[:])
	if err != nil {
		return dynamo.Vec2{}, err
	}
	slope := dynamo.Vec2{X: gx, Z: gz}
	a := slope.Scale(-b.g)

	if speed := x.Speed(); speed > ZeroVelocity {
		return a.Sub(x.Velocity().Scale(b.f.Kinetic * b.g / speed)), nil
	}

	// at rest: held while the slope is within static friction, or while
	// kinetic friction alone can hold it. Past both, kinetic friction
	// opposes the impending downhill motion and never reverses it.
	s := slope.Len()
	if s <= b.f.Static || b.f.Kinetic >= s {
		return dynamo.Vec2{}, nil
	}
	return a.Scale(1 - b.f.Kinetic/s), nil
}
