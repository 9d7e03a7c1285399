// Package physics advances a ball over a height field.
//
// The ball obeys a = −g·∇h + μ·g·u, where u is the unit vector opposing the
// velocity. A ball at rest is held while the slope magnitude stays at or
// below either friction coefficient; past both it starts moving downhill,
// kinetic friction taking its share off the slope pull. The friction
// coefficient comes from the terrain class (grass or sand) at the start of
// each step.
//
// Two stepping modes are provided:
//
//   - [Engine.StepEuler]: semi-implicit Euler, used for whole roll-outs
//   - [Engine.StepRK4]: classical Runge-Kutta, used for frame-by-frame playback
//
// [Engine.RunToRest] repeats Euler steps until the ball stops, falls into a
// hazard (height below zero) or hits the iteration cap. It is the cost
// function behind the shot optimizer and the planner.
//
// # Example
//
//	c, _ := course.New("0.1 * x", dynamo.Vec2{}, course.Target{})
//	eng, _ := physics.NewEngine(c, physics.DefaultParams())
//	r, _ := eng.RunToRest(dynamo.NewState(c.Start, dynamo.Vec2{X: 3}))
//	fmt.Println(r.Final.Position(), r.Reason)
//
// An Engine is immutable and may be shared by any number of goroutines.
package physics
