package optim

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/physics"
)

const (
	Beta1       = 0.9
	Beta2       = 0.999
	AdamEpsilon = 1e-8

	InitialLearningRate = 1.0
	LearningRateDecay   = 0.98
	MinLearningRate     = 0.005

	InitialProbeStep = 0.5
	ProbeStepDecay   = 0.99
	MinProbeStep     = 1e-4

	Tolerance       = 0.05
	MaxIterations   = 500
	MaxGradientNorm = 2.0
	MaxVelocityNorm = 70.0
	DefaultMaxSpeed = 10.0
)

// Simulator rolls a shot to rest. *physics.Engine implements it.
type Simulator interface {
	Shoot(pos, shot dynamo.Vec2, observers ...dynamo.Observer) (physics.Rollout, error)
}

type Options struct {
	MaxIterations int         `yaml:"max_iterations" json:"max_iterations"`
	Tolerance     float64     `yaml:"tolerance" json:"tolerance"`
	MaxSpeed      float64     `yaml:"max_speed" json:"max_speed"`
	InitialGuess  dynamo.Vec2 `yaml:"initial_guess" json:"initial_guess"`

	// GridSeed replaces InitialGuess with the best point of a GridSeed x
	// GridSeed sweep over [-MaxSpeed, MaxSpeed]². Zero disables seeding.
	GridSeed int `yaml:"grid_seed" json:"grid_seed"`
}

func DefaultOptions() Options {
	return Options{
		MaxIterations: MaxIterations,
		Tolerance:     Tolerance,
		MaxSpeed:      DefaultMaxSpeed,
		InitialGuess:  dynamo.Vec2{X: 2, Z: -6},
	}
}

func (o Options) Validate() error {
	switch {
	case o.MaxIterations <= 0:
		return fmt.Errorf("%w: optimizer max_iterations %d <= 0", dynamo.ErrInvalidConfig, o.MaxIterations)
	case o.Tolerance <= 0:
		return fmt.Errorf("%w: optimizer tolerance %g <= 0", dynamo.ErrInvalidConfig, o.Tolerance)
	case o.MaxSpeed <= 0:
		return fmt.Errorf("%w: max_speed %g <= 0", dynamo.ErrInvalidConfig, o.MaxSpeed)
	case o.GridSeed < 0 || o.GridSeed == 1:
		return fmt.Errorf("%w: grid_seed must be 0 or at least 2", dynamo.ErrInvalidConfig)
	}
	return nil
}

// Result describes the best shot found.
type Result struct {
	Shot       dynamo.Vec2 `json:"shot"`
	Landing    dynamo.Vec2 `json:"landing"`
	Deviation  float64     `json:"deviation"`
	Iterations int         `json:"iterations"`
	Converged  bool        `json:"converged"`

	// History holds the landing error of every baseline roll-out.
	History []float64 `json:"history,omitempty"`
}

// Optimizer holds Adam state between iterations. It is not safe for
// concurrent use; call Reset before reusing it for a new target.
type Optimizer struct {
	sim  Simulator
	opts Options
	log  *log.Logger

	m, v         dynamo.Vec2
	t            int
	learningRate float64
	probeStep    float64
}

func New(sim Simulator, opts Options, logger *log.Logger) *Optimizer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	o := &Optimizer{sim: sim, opts: opts, log: logger}
	o.Reset()
	return o
}

func (o *Optimizer) Options() Options { return o.opts }

// Reset clears the moment estimates and step counter and restores the
// initial learning rate and probe step.
func (o *Optimizer) Reset() {
	o.m = dynamo.Vec2{}
	o.v = dynamo.Vec2{}
	o.t = 0
	o.learningRate = InitialLearningRate
	o.probeStep = InitialProbeStep
}

// FindBestShot searches for the velocity that brings a ball at
// ball.Position() to rest at target. It returns the best shot seen; when
// the iteration cap is hit first that result comes with
// [dynamo.ErrSearchExhausted].
func (o *Optimizer) FindBestShot(ctx context.Context, ball dynamo.State, target dynamo.Vec2) (Result, error) {
	if err := o.opts.Validate(); err != nil {
		return Result{}, err
	}
	from := ball.Position()

	guess := o.opts.InitialGuess
	if o.opts.GridSeed > 0 {
		seed, err := o.seed(ctx, from, target)
		if err != nil {
			return Result{}, err
		}
		guess = seed
	}
	vel := o.clamp(guess)

	best := Result{Shot: vel, Deviation: math.Inf(1)}
	for iter := 0; iter < o.opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return best, err
		}

		landing, dev, err := o.deviation(from, vel, target)
		if err != nil {
			return best, fmt.Errorf("optim: shot %v: %w", vel, err)
		}
		best.History = append(best.History, dev)
		best.Iterations = iter + 1

		if dev < best.Deviation {
			best.Shot, best.Landing, best.Deviation = vel, landing, dev
		}
		if dev < o.opts.Tolerance {
			best.Converged = true
			o.log.Printf("[OPTIM] converged after %d iterations: shot=%v deviation=%.4f", iter+1, best.Shot, best.Deviation)
			return best, nil
		}

		grad, err := o.gradient(ctx, from, vel, target, dev)
		if err != nil {
			return best, err
		}
		vel = o.update(vel, grad)

		o.learningRate = math.Max(MinLearningRate, o.learningRate*LearningRateDecay)
		o.probeStep = math.Max(MinProbeStep, o.probeStep*ProbeStepDecay)
	}

	o.log.Printf("[OPTIM] no convergence in %d iterations: best shot=%v deviation=%.4f", o.opts.MaxIterations, best.Shot, best.Deviation)
	return best, dynamo.ErrSearchExhausted
}

// deviation rolls shot from pos and measures the landing error.
func (o *Optimizer) deviation(from, shot, target dynamo.Vec2) (dynamo.Vec2, float64, error) {
	r, err := o.sim.Shoot(from, shot)
	if err != nil {
		return dynamo.Vec2{}, 0, err
	}
	landing := r.Landing()
	return landing, landing.Dist(target), nil
}

// gradient estimates ∂deviation/∂v with one forward probe per axis. The
// probes run concurrently, each on its own copy of the shot.
func (o *Optimizer) gradient(ctx context.Context, from, vel, target dynamo.Vec2, base float64) (dynamo.Vec2, error) {
	h := o.probeStep
	probes := [2]dynamo.Vec2{vel.Add(dynamo.Vec2{X: h}), vel.Add(dynamo.Vec2{Z: h})}
	var devs [2]float64

	g, _ := errgroup.WithContext(ctx)
	for i := range probes {
		g.Go(func() error {
			_, d, err := o.deviation(from, probes[i], target)
			if err != nil {
				return fmt.Errorf("optim: probe %v: %w", probes[i], err)
			}
			devs[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dynamo.Vec2{}, err
	}

	grad := dynamo.Vec2{X: (devs[0] - base) / h, Z: (devs[1] - base) / h}
	return grad.ClampLen(MaxGradientNorm), nil
}

// update applies one bias-corrected Adam step and clamps the result.
func (o *Optimizer) update(vel, grad dynamo.Vec2) dynamo.Vec2 {
	o.t++
	o.m.X = Beta1*o.m.X + (1-Beta1)*grad.X
	o.m.Z = Beta1*o.m.Z + (1-Beta1)*grad.Z
	o.v.X = Beta2*o.v.X + (1-Beta2)*grad.X*grad.X
	o.v.Z = Beta2*o.v.Z + (1-Beta2)*grad.Z*grad.Z

	c1 := 1 - math.Pow(Beta1, float64(o.t))
	c2 := 1 - math.Pow(Beta2, float64(o.t))
	mHatX, mHatZ := o.m.X/c1, o.m.Z/c1
	vHatX, vHatZ := o.v.X/c2, o.v.Z/c2

	vel.X -= o.learningRate * mHatX / (math.Sqrt(vHatX) + AdamEpsilon)
	vel.Z -= o.learningRate * mHatZ / (math.Sqrt(vHatZ) + AdamEpsilon)
	return o.clamp(vel)
}

func (o *Optimizer) clamp(vel dynamo.Vec2) dynamo.Vec2 {
	return vel.ClampLen(MaxVelocityNorm).ClampAxes(o.opts.MaxSpeed)
}
