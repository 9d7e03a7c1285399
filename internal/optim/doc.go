// Package optim searches launch velocities.
//
// [Optimizer] runs Adam over the 2D shot (vx, vz), treating a full
// roll-out's landing error as the cost and estimating its gradient with
// forward differences. [GridSearch] sweeps a coarse grid of named
// parameters and is used to seed the optimizer's first guess.
package optim
