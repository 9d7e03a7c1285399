// Package batch runs yaml scenarios, parameter sweeps and Monte Carlo shot
// trials against configured courses.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/puttsim/internal/cache"
	"github.com/san-kum/puttsim/internal/config"
	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/service"
	"github.com/san-kum/puttsim/internal/storage"
)

// Scenario defines a scripted sequence of solver runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

type Action string

const (
	ActionSimulate Action = "simulate"
	ActionShot     Action = "shot"
	ActionPlan     Action = "plan"
	ActionPlay     Action = "play"
)

// ScenarioStep is one run. Unset positions fall back to the course's.
type ScenarioStep struct {
	Name    string             `yaml:"name"`
	Action  Action             `yaml:"action"`
	Preset  string             `yaml:"preset"`
	Formula string             `yaml:"formula"`
	Start   *dynamo.Vec2       `yaml:"start"`
	Target  *dynamo.Vec2       `yaml:"target"`
	Radius  float64            `yaml:"radius"`
	Shots   []dynamo.Vec2      `yaml:"shots"`
	Params  map[string]float64 `yaml:"params"`
	SaveAs  string             `yaml:"save_as"`
}

// StepResult is the outcome of one step. Exhausted searches are reported
// with Converged false rather than as errors.
type StepResult struct {
	Index      int           `json:"index"`
	Name       string        `json:"name"`
	Action     Action        `json:"action"`
	Start      dynamo.Vec2   `json:"start"`
	Target     dynamo.Vec2   `json:"target"`
	Shots      []dynamo.Vec2 `json:"shots"`
	Landing    dynamo.Vec2   `json:"landing"`
	Deviation  float64       `json:"deviation"`
	Iterations int           `json:"iterations"`
	Converged  bool          `json:"converged"`
	RunID      string        `json:"run_id,omitempty"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// Runner executes steps in parallel against a base configuration.
type Runner struct {
	Base    *config.Config
	Cache   cache.Cache
	Store   *storage.Store
	Workers int
	Log     *log.Logger
}

func NewRunner(base *config.Config, c cache.Cache, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Runner{Base: base, Cache: c, Workers: runtime.GOMAXPROCS(0), Log: logger}
}

// RunScenario executes all steps. Results keep step order; the first
// failing step cancels the rest.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	results := make([]StepResult, len(scenario.Steps))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.Workers))
	for i, step := range scenario.Steps {
		g.Go(func() error {
			r.Log.Printf("[BATCH] step %d/%d: %s %s", i+1, len(scenario.Steps), step.Action, step.Name)
			res, err := r.runStep(ctx, step)
			if err != nil {
				return fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
			}
			res.Index = i
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// service builds the service a step runs against.
func (r *Runner) service(step ScenarioStep) (*service.Service, error) {
	cfg := r.Base
	if step.Preset != "" {
		cfg = config.GetPreset(step.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset %q", dynamo.ErrInvalidConfig, step.Preset)
		}
	}
	cp := *cfg
	if step.Formula != "" {
		cp.Course.Formula = step.Formula
	}
	for k, v := range step.Params {
		if err := cp.Physics.SetParam(k, v); err != nil {
			return nil, fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
		}
	}
	return service.New(&cp, r.Cache, r.Log)
}

func (r *Runner) runStep(ctx context.Context, step ScenarioStep) (StepResult, error) {
	svc, err := r.service(step)
	if err != nil {
		return StepResult{}, err
	}
	crs := svc.Course()

	res := StepResult{Name: step.Name, Action: step.Action, Start: crs.Start, Target: crs.Target.Pos}
	if step.Start != nil {
		res.Start = *step.Start
	}
	if step.Target != nil {
		res.Target = *step.Target
	}
	target := course.Target{Pos: res.Target, Radius: crs.Target.Radius}
	if step.Radius > 0 {
		target.Radius = step.Radius
	}

	var tr *storage.Trajectory
	switch step.Action {
	case ActionSimulate:
		if len(step.Shots) != 1 {
			return res, fmt.Errorf("%w: simulate needs exactly one shot", dynamo.ErrInvalidConfig)
		}
		sim, err := svc.Simulate(res.Start, step.Shots[0], step.SaveAs != "")
		if err != nil {
			return res, err
		}
		res.Shots = step.Shots
		res.Landing = sim.Rollout.Landing()
		res.Iterations = sim.Rollout.Steps
		tr = sim.Trajectory

	case ActionShot:
		shot, err := svc.Shot(ctx, res.Start, res.Target)
		if err != nil && !errors.Is(err, dynamo.ErrSearchExhausted) {
			return res, err
		}
		res.Shots = []dynamo.Vec2{shot.Shot}
		res.Landing = shot.Landing
		res.Iterations = shot.Iterations
		res.Converged = shot.Converged

	case ActionPlan:
		plan, err := svc.Plan(ctx, res.Start, target)
		if err != nil && !errors.Is(err, dynamo.ErrSearchExhausted) {
			return res, err
		}
		res.Shots = plan.Shots
		res.Iterations = plan.Iterations
		res.Converged = err == nil
		res.Landing = res.Start
		if n := len(plan.Waypoints); n > 0 {
			res.Landing = plan.Waypoints[n-1]
		}

	case ActionPlay:
		if step.SaveAs != "" {
			tr = storage.NewTrajectory(dynamo.NewState(res.Start, dynamo.Vec2{}))
		}
		var observers []dynamo.Observer
		if tr != nil {
			observers = append(observers, tr)
		}
		sum, err := svc.Play(ctx, res.Start, step.Shots, observers...)
		if err != nil {
			return res, err
		}
		res.Shots = step.Shots
		res.Landing = sum.Final.Position()
		res.Iterations = sum.Frames
		res.Converged = target.Reached(res.Landing)

	default:
		return res, fmt.Errorf("%w: unknown action %q", dynamo.ErrInvalidConfig, step.Action)
	}

	res.Deviation = res.Landing.Dist(res.Target)
	if step.Action == ActionShot || step.Action == ActionSimulate {
		res.Converged = res.Converged || target.Reached(res.Landing)
	}

	if step.SaveAs != "" && r.Store != nil {
		id, err := r.Store.Save(storage.RunMetadata{
			Kind:       step.SaveAs,
			Course:     svc.Config().Name,
			Formula:    svc.Config().Course.Formula,
			Step:       svc.Config().Physics.Step,
			Integrator: integratorFor(step.Action),
			Start:      res.Start,
			Target:     res.Target,
			Shots:      res.Shots,
			Final:      dynamo.NewState(res.Landing, dynamo.Vec2{}),
		}, tr)
		if err != nil {
			return res, fmt.Errorf("save: %w", err)
		}
		res.RunID = id
	}
	return res, nil
}

func integratorFor(a Action) string {
	if a == ActionPlay {
		return "rk4"
	}
	return "euler"
}
