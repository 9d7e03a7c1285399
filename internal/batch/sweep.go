package batch

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/physics"
)

// ParameterSweep rolls one shot across a range of values of a physics
// parameter.
type ParameterSweep struct {
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Start     dynamo.Vec2
	Shot      dynamo.Vec2
}

type SweepResult struct {
	ParamValue float64            `json:"param_value"`
	Landing    dynamo.Vec2        `json:"landing"`
	Steps      int                `json:"steps"`
	Reason     physics.StopReason `json:"reason"`
}

// RunSweep executes a parameter sweep
func (r *Runner) RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("%w: sweep needs at least 2 steps", dynamo.ErrInvalidConfig)
	}
	crs, err := r.Base.BuildCourse()
	if err != nil {
		return nil, err
	}

	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	results := make([]SweepResult, sweep.NumSteps)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.Workers))
	for i := 0; i < sweep.NumSteps; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			paramVal := sweep.ParamMin + float64(i)*paramStep
			p := r.Base.Physics
			if err := p.SetParam(sweep.ParamName, paramVal); err != nil {
				return fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
			}
			eng, err := physics.NewEngine(crs, p)
			if err != nil {
				return err
			}
			roll, err := eng.Shoot(sweep.Start, sweep.Shot)
			if err != nil {
				return fmt.Errorf("%s=%.4f: %w", sweep.ParamName, paramVal, err)
			}
			results[i] = SweepResult{ParamValue: paramVal, Landing: roll.Landing(), Steps: roll.Steps, Reason: roll.Reason}
			r.Log.Printf("[BATCH] sweep %d/%d: %s=%.4f", i+1, sweep.NumSteps, sweep.ParamName, paramVal)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloConfig perturbs a shot at random to measure how forgiving it is.
type MonteCarloConfig struct {
	Start        dynamo.Vec2
	Shot         dynamo.Vec2
	Perturbation float64
	NumTrials    int
	Seed         int64
}

type MonteCarloResult struct {
	TrialID int         `json:"trial_id"`
	Shot    dynamo.Vec2 `json:"shot"`
	Landing dynamo.Vec2 `json:"landing"`
	Holed   bool        `json:"holed"`
}

// RunMonteCarlo executes multiple trials with random perturbations
func (r *Runner) RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	eng, err := r.Base.BuildEngine()
	if err != nil {
		return nil, err
	}
	crs := eng.Course()

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	// draw every perturbation up front so results do not depend on scheduling
	shots := make([]dynamo.Vec2, cfg.NumTrials)
	for i := range shots {
		shots[i] = cfg.Shot.Add(dynamo.Vec2{
			X: (rng.Float64() - 0.5) * 2 * cfg.Perturbation,
			Z: (rng.Float64() - 0.5) * 2 * cfg.Perturbation,
		})
	}

	results := make([]MonteCarloResult, cfg.NumTrials)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.Workers))
	for trial := range shots {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			roll, err := eng.Shoot(cfg.Start, shots[trial])
			if err != nil {
				return fmt.Errorf("trial %d: %w", trial, err)
			}
			results[trial] = MonteCarloResult{
				TrialID: trial,
				Shot:    shots[trial],
				Landing: roll.Landing(),
				Holed:   crs.TargetReached(roll.Landing()),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	r.Log.Printf("[BATCH] monte carlo: %d trials complete", cfg.NumTrials)
	return results, nil
}

// MonteCarloStats counts holed and missed trials.
func MonteCarloStats(results []MonteCarloResult) (holed int, missed int) {
	for _, r := range results {
		if r.Holed {
			holed++
		} else {
			missed++
		}
	}
	return
}
