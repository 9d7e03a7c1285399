package dynamo

import (
	"fmt"
	"math"
)

// Indices into State.
const (
	IX = iota
	IZ
	IVX
	IVZ
)

// State is the ball state (x, z, vx, vz). It is an array, so assignment copies.
type State [4]float64

func NewState(pos, vel Vec2) State {
	return State{pos.X, pos.Z, vel.X, vel.Z}
}

func (s State) Position() Vec2 { return Vec2{s[IX], s[IZ]} }
func (s State) Velocity() Vec2 { return Vec2{s[IVX], s[IVZ]} }

func (s State) Speed() float64 { return math.Hypot(s[IVX], s[IVZ]) }

func (s State) WithPosition(p Vec2) State {
	s[IX], s[IZ] = p.X, p.Z
	return s
}

func (s State) WithVelocity(v Vec2) State {
	s[IVX], s[IVZ] = v.X, v.Z
	return s
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Add(other State) State {
	for i := range s {
		s[i] += other[i]
	}
	return s
}

func (s State) Sub(other State) State {
	for i := range s {
		s[i] -= other[i]
	}
	return s
}

func (s State) Scale(factor float64) State {
	for i := range s {
		s[i] *= factor
	}
	return s
}

// AddScaled returns s + factor*other.
func (s State) AddScaled(other State, factor float64) State {
	for i := range s {
		s[i] += factor * other[i]
	}
	return s
}

func (s State) String() string {
	return fmt.Sprintf("pos=(%.4f, %.4f) vel=(%.4f, %.4f)", s[IX], s[IZ], s[IVX], s[IVZ])
}

// Vec2 is a ground-plane vector. Shots have an implicit zero vertical component.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Z float64 `json:"z" yaml:"z"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Z + o.Z} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Z - o.Z} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Z * f} }
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Z*o.Z }
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Z) }
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }
func (v Vec2) IsZero() bool { return v.X == 0 && v.Z == 0 }
func (v Vec2) String() string { return fmt.Sprintf("(%.4f, %.4f)", v.X, v.Z) }
func (v Vec2) IsValid() bool { return !math.IsNaN(v.X+v.Z) && !math.IsInf(v.X+v.Z, 0) }

// ClampLen scales v down so its length does not exceed limit.
func (v Vec2) ClampLen(limit float64) Vec2 {
	if l := v.Len(); l > limit && l > 0 {
		return Vec2{v.X * limit / l, v.Z * limit / l}
	}
	return v
}

// ClampAxes clamps each component to [-limit, limit].
func (v Vec2) ClampAxes(limit float64) Vec2 {
	return Vec2{math.Max(-limit, math.Min(limit, v.X)), math.Max(-limit, math.Min(limit, v.Z))}
}

// System is a first-order ODE right-hand side.
type System interface {
	Derive(x State, t float64) (State, error)
}

type Integrator interface {
	Name() string
	Step(sys System, x State, t, dt float64) (State, error)
}

type Observer interface {
	OnStep(x State, t float64)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}
