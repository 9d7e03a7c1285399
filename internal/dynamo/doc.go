// Package dynamo provides the core primitives shared by the ball simulator.
//
// The package defines the value types and interfaces every other package
// builds on:
//
//   - [State]: the 4-component ball state (x, z, vx, vz)
//   - [Vec2]: a ground-plane vector used for positions and shots
//   - [System]: first-order ODE right-hand side dX/dt = f(X, t)
//   - [Integrator]: fixed-step numerical integrator
//   - [Observer] and [Metric]: per-step hooks for roll-outs
//
// # Example
//
//	sys := engine.System(mu)
//	next, err := integrators.NewRK4().Step(sys, x, t, h)
//
// # Thread Safety
//
// State and Vec2 are plain arrays/structs and copy on assignment, so
// speculative roll-outs never alias each other. [ParallelFor] fans work out
// over a fixed number of goroutines.
package dynamo
