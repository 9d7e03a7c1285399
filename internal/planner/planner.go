// Package planner finds a sequence of shots to the target with A* search.
//
// Nodes are rest positions keyed on a 1e-3 grid. From each node the
// planner tries every shot on a velocity grid over [-MaxSpeed, MaxSpeed]²,
// rolls each one to rest and treats the landing as a neighbour. The edge
// cost is the shot's magnitude and the heuristic is the straight-line
// distance to the target. The velocity grid is coarse far from the target
// and fine close to it.
package planner

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/physics"
)

const (
	MaxIterations = 10000
	KeyResolution = 1e-3

	DefaultMaxSpeed       = 10.0
	DefaultFineStep       = 1.0
	DefaultCoarseStep     = 2.5
	DefaultCoarseDistance = 20.0
)

// Simulator rolls a shot to rest. *physics.Engine implements it.
type Simulator interface {
	Shoot(pos, shot dynamo.Vec2, observers ...dynamo.Observer) (physics.Rollout, error)
}

type Options struct {
	MaxSpeed       float64 `yaml:"max_speed" json:"max_speed"`
	FineStep       float64 `yaml:"fine_step" json:"fine_step"`
	CoarseStep     float64 `yaml:"coarse_step" json:"coarse_step"`
	CoarseDistance float64 `yaml:"coarse_distance" json:"coarse_distance"`
	MaxIterations  int     `yaml:"max_iterations" json:"max_iterations"`
}

func DefaultOptions() Options {
	return Options{
		MaxSpeed:       DefaultMaxSpeed,
		FineStep:       DefaultFineStep,
		CoarseStep:     DefaultCoarseStep,
		CoarseDistance: DefaultCoarseDistance,
		MaxIterations:  MaxIterations,
	}
}

func (o Options) Validate() error {
	switch {
	case o.MaxSpeed <= 0:
		return fmt.Errorf("%w: max_speed %g <= 0", dynamo.ErrInvalidConfig, o.MaxSpeed)
	case o.FineStep <= 0 || o.CoarseStep <= 0:
		return fmt.Errorf("%w: planner grid steps must be > 0", dynamo.ErrInvalidConfig)
	case o.CoarseDistance < 0:
		return fmt.Errorf("%w: coarse_distance %g < 0", dynamo.ErrInvalidConfig, o.CoarseDistance)
	case o.MaxIterations <= 0:
		return fmt.Errorf("%w: planner max_iterations %d <= 0", dynamo.ErrInvalidConfig, o.MaxIterations)
	}
	return nil
}

// Plan is a search result. Waypoints[i] is where Shots[i] comes to rest.
type Plan struct {
	Shots      []dynamo.Vec2 `json:"shots"`
	Waypoints  []dynamo.Vec2 `json:"waypoints"`
	Cost       float64       `json:"cost"`
	Iterations int           `json:"iterations"`
	Rollouts   int           `json:"rollouts"`
}

type key struct{ x, z int64 }

func keyOf(p dynamo.Vec2) key {
	return key{int64(math.Round(p.X / KeyResolution)), int64(math.Round(p.Z / KeyResolution))}
}

type node struct {
	pos    dynamo.Vec2
	key    key
	g      float64
	parent *node
	shot   dynamo.Vec2
	closed bool
}

// Planner is not safe for concurrent use. Roll-outs within one expansion
// run in parallel.
type Planner struct {
	sim   Simulator
	rules course.Rules
	opts  Options
	log   *log.Logger
}

// New returns a planner. rules may be nil, in which case no landing is
// rejected.
func New(sim Simulator, rules course.Rules, opts Options, logger *log.Logger) *Planner {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Planner{sim: sim, rules: rules, opts: opts, log: logger}
}

func (p *Planner) Options() Options { return p.opts }

// FindShotSequence returns the shots that take a ball resting at start into
// the target, or an empty sequence with [dynamo.ErrSearchExhausted].
func (p *Planner) FindShotSequence(ctx context.Context, start dynamo.Vec2, target course.Target) ([]dynamo.Vec2, error) {
	plan, err := p.Search(ctx, start, target)
	return plan.Shots, err
}

// Search runs A* from start. A node is a goal when it lies within the
// target's acceptance radius.
func (p *Planner) Search(ctx context.Context, start dynamo.Vec2, target course.Target) (Plan, error) {
	if err := p.opts.Validate(); err != nil {
		return Plan{}, err
	}

	var plan Plan
	root := &node{pos: start, key: keyOf(start)}
	nodes := map[key]*node{root.key: root}

	open := minHeap{}
	open.push(entry{n: root, f: start.Dist(target.Pos)})

	for len(open) > 0 {
		if plan.Iterations >= p.opts.MaxIterations {
			break
		}
		if err := ctx.Err(); err != nil {
			return Plan{Iterations: plan.Iterations, Rollouts: plan.Rollouts}, err
		}

		e := open.pop()
		cur := e.n
		if cur.closed || e.g != cur.g {
			continue
		}
		plan.Iterations++

		if target.Reached(cur.pos) {
			p.reconstruct(&plan, cur)
			p.log.Printf("[PLAN] found %d-shot plan (cost %.3f) after %d iterations, %d roll-outs",
				len(plan.Shots), plan.Cost, plan.Iterations, plan.Rollouts)
			return plan, nil
		}
		cur.closed = true

		shots := p.shotGrid(cur.pos.Dist(target.Pos))
		edges, err := p.expand(cur.pos, shots)
		plan.Rollouts += len(shots)
		if err != nil {
			return Plan{Iterations: plan.Iterations, Rollouts: plan.Rollouts}, err
		}

		for i, land := range edges {
			if p.rules != nil && p.rules.OutOfBounds(land) {
				continue
			}
			k := keyOf(land)
			if k == cur.key {
				continue
			}
			nb := nodes[k]
			if nb != nil && nb.closed {
				continue
			}

			g := cur.g + shots[i].Len()
			if nb == nil {
				nb = &node{pos: land, key: k}
				nodes[k] = nb
			} else if g >= nb.g {
				continue
			}
			nb.g, nb.parent, nb.shot = g, cur, shots[i]
			open.push(entry{n: nb, g: g, f: g + land.Dist(target.Pos)})
		}
	}

	p.log.Printf("[PLAN] no plan after %d iterations, %d roll-outs", plan.Iterations, plan.Rollouts)
	return Plan{Iterations: plan.Iterations, Rollouts: plan.Rollouts}, dynamo.ErrSearchExhausted
}

// expand rolls every shot from pos and returns the landings in order.
func (p *Planner) expand(pos dynamo.Vec2, shots []dynamo.Vec2) ([]dynamo.Vec2, error) {
	landings := make([]dynamo.Vec2, len(shots))
	errs := make([]error, len(shots))

	dynamo.ParallelFor(len(shots), 1, func(start, end int) {
		for i := start; i < end; i++ {
			r, err := p.sim.Shoot(pos, shots[i])
			landings[i], errs[i] = r.Landing(), err
		}
	})

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("planner: shot %v from %v: %w", shots[i], pos, err)
		}
	}
	return landings, nil
}

// GridStep interpolates between the fine step at the target and the coarse
// step at CoarseDistance and beyond.
func (p *Planner) GridStep(dist float64) float64 {
	o := p.opts
	if o.CoarseDistance <= 0 {
		return o.CoarseStep
	}
	frac := math.Min(1, dist/o.CoarseDistance)
	return o.FineStep + (o.CoarseStep-o.FineStep)*frac
}

// shotGrid lists the non-zero shots on the velocity grid for a node at dist
// from the target.
func (p *Planner) shotGrid(dist float64) []dynamo.Vec2 {
	limit := p.opts.MaxSpeed
	step := p.GridStep(dist)
	n := int(math.Floor(2*limit/step+1e-9)) + 1

	shots := make([]dynamo.Vec2, 0, n*n)
	for i := 0; i < n; i++ {
		vx := -limit + float64(i)*step
		for j := 0; j < n; j++ {
			vz := -limit + float64(j)*step
			if vx == 0 && vz == 0 {
				continue
			}
			shots = append(shots, dynamo.Vec2{X: vx, Z: vz})
		}
	}
	return shots
}

// reconstruct walks back-pointers from goal and fills plan in forward order.
func (p *Planner) reconstruct(plan *Plan, goal *node) {
	plan.Cost = goal.g
	for n := goal; n.parent != nil; n = n.parent {
		plan.Shots = append(plan.Shots, n.shot)
		plan.Waypoints = append(plan.Waypoints, n.pos)
	}
	for i, j := 0, len(plan.Shots)-1; i < j; i, j = i+1, j-1 {
		plan.Shots[i], plan.Shots[j] = plan.Shots[j], plan.Shots[i]
		plan.Waypoints[i], plan.Waypoints[j] = plan.Waypoints[j], plan.Waypoints[i]
	}
}
