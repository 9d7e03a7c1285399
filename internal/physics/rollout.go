package physics

import (
	"math"

	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
)

// StopReason says why a roll-out ended.
type StopReason int

const (
	StopCapped StopReason = iota
	StopHazard
	StopConverged
	StopSlow
)

func (r StopReason) String() string {
	switch r {
	case StopHazard:
		return "hazard"
	case StopConverged:
		return "converged"
	case StopSlow:
		return "stopped"
	default:
		return "capped"
	}
}

func (r StopReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Rollout is the outcome of one bulk simulation.
type Rollout struct {
	Start  dynamo.State `json:"start"`
	Final  dynamo.State `json:"final"`
	Steps  int          `json:"steps"`
	Time   float64      `json:"time"`
	Reason StopReason   `json:"reason"`
}

// Landing is where the ball came to rest.
func (r Rollout) Landing() dynamo.Vec2 { return r.Final.Position() }

// RunToRest repeats Euler steps from start until the ball falls into a
// hazard, settles, slows below the stop speed or reaches the iteration cap.
// Observers see every stepped state. Errors come back as *dynamo.StepError
// along with the last good state.
func (e *Engine) RunToRest(start dynamo.State, observers ...dynamo.Observer) (Rollout, error) {
	p := e.params
	r := Rollout{Start: start, Final: start}

	x, prev := start, start
	t := 0.0
	for iter := 0; ; {
		next, err := e.StepEuler(x, t)
		if err != nil {
			r.Final, r.Steps, r.Time = x, iter, t
			return r, &dynamo.StepError{Step: iter, Time: t, State: x, Err: err}
		}
		x = next
		t += p.Step
		r.Steps++

		for _, obs := range observers {
			obs.OnStep(x, t)
		}

		h, err := e.Height(x, t)
		if err != nil {
			r.Final, r.Time = x, t
			return r, &dynamo.StepError{Step: iter, Time: t, State: x, Err: err}
		}
		if h < 0 {
			x = x.WithVelocity(dynamo.Vec2{})
			r.Reason = StopHazard
			break
		}

		posChange := x.Position().Dist(prev.Position())
		velChange := x.Velocity().Dist(prev.Velocity())
		if posChange < p.PositionThreshold && velChange < p.VelocityThreshold {
			r.Reason = StopConverged
			break
		}

		if math.Abs(x[dynamo.IVX]) < p.StopSpeed && math.Abs(x[dynamo.IVZ]) < p.StopSpeed {
			r.Reason = StopSlow
			break
		}

		prev = x
		iter++
		if iter >= p.MaxIters {
			r.Reason = StopCapped
			break
		}
	}

	r.Final, r.Time = x, t
	return r, nil
}

// Shoot rolls a ball launched from pos with velocity shot.
func (e *Engine) Shoot(pos, shot dynamo.Vec2, observers ...dynamo.Observer) (Rollout, error) {
	return e.RunToRest(dynamo.NewState(pos, shot), observers...)
}

// SimulateToRest rolls start to rest over a grass-only, wall-free course
// built from formula with the default parameters.
func SimulateToRest(formula string, start dynamo.State) (dynamo.State, error) {
	c, err := course.New(formula, start.Position(), course.Target{})
	if err != nil {
		return start, err
	}
	eng, err := NewEngine(c, DefaultParams())
	if err != nil {
		return start, err
	}
	r, err := eng.RunToRest(start)
	return r.Final, err
}
