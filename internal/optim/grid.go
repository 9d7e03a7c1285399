package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/puttsim/internal/dynamo"
)

// CostFunc evaluates one point of the grid. Lower is better.
type CostFunc func(ctx context.Context, params map[string]float64) (float64, error)

// GridSearch evaluates every combination of the given parameter values.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Linspace returns n evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// Search returns the parameters with the lowest cost. Grid points are
// evaluated in parallel, so cost must be safe for concurrent use. Points
// whose cost fails are skipped; ties go to the point listed first.
// Cancellation stops the sweep and returns the best point seen so far.
func (g *GridSearch) Search(ctx context.Context, cost CostFunc) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("%w: %d parameter names for %d ranges", dynamo.ErrInvalidConfig, len(g.paramNames), len(g.ranges))
	}

	points := g.points()
	costs := make([]float64, len(points))
	ok := make([]bool, len(points))

	dynamo.ParallelFor(len(points), 1, func(start, end int) {
		for i := start; i < end; i++ {
			if ctx.Err() != nil {
				return
			}
			val, err := cost(ctx, points[i])
			costs[i], ok[i] = val, err == nil
		}
	})

	best := math.Inf(1)
	var bestParams map[string]float64
	for i, p := range points {
		if ok[i] && costs[i] < best {
			best, bestParams = costs[i], p
		}
	}

	if err := ctx.Err(); err != nil {
		return bestParams, best, err
	}
	if bestParams == nil {
		return nil, best, fmt.Errorf("optim: no grid point could be evaluated: %w", dynamo.ErrSearchExhausted)
	}
	return bestParams, best, nil
}

// points lists every combination of values, the last parameter varying
// fastest.
func (g *GridSearch) points() []map[string]float64 {
	if len(g.paramNames) == 0 {
		return nil
	}
	out := []map[string]float64{{}}
	for depth, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(out)*len(g.ranges[depth]))
		for _, prev := range out {
			for _, val := range g.ranges[depth] {
				p := make(map[string]float64, len(prev)+1)
				for k, v := range prev {
					p[k] = v
				}
				p[name] = val
				next = append(next, p)
			}
		}
		out = next
	}
	return out
}

// seed sweeps a coarse velocity grid and returns the shot landing closest
// to target.
func (o *Optimizer) seed(ctx context.Context, from, target dynamo.Vec2) (dynamo.Vec2, error) {
	axis := Linspace(-o.opts.MaxSpeed, o.opts.MaxSpeed, o.opts.GridSeed)
	gs := NewGridSearch([]string{"vx", "vz"}, [][]float64{axis, axis})

	params, dev, err := gs.Search(ctx, func(ctx context.Context, p map[string]float64) (float64, error) {
		_, d, err := o.deviation(from, dynamo.Vec2{X: p["vx"], Z: p["vz"]}, target)
		return d, err
	})
	if err != nil {
		return dynamo.Vec2{}, err
	}

	shot := dynamo.Vec2{X: params["vx"], Z: params["vz"]}
	o.log.Printf("[OPTIM] grid seed %v (deviation %.4f)", shot, dev)
	return shot, nil
}
