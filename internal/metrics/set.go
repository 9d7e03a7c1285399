package metrics

import (
	"github.com/san-kum/puttsim/internal/dynamo"
)

// Set feeds every roll-out step to a group of metrics. It implements
// [dynamo.Observer].
type Set []dynamo.Metric

func (s Set) OnStep(x dynamo.State, t float64) {
	for _, m := range s {
		m.Observe(x, t)
	}
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

// Values returns the current value of each metric keyed by name.
func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

// Heighter is satisfied by the physics engine.
type Heighter interface {
	Height(x dynamo.State, t float64) (float64, error)
}

// Standard returns the metrics reported for every roll-out.
func Standard(gravity float64, h Heighter, sand func(x, z float64) bool) Set {
	return Set{
		NewPathLength(),
		NewPeakSpeed(),
		NewSandShare(sand),
		NewEnergyLoss(gravity, h.Height),
	}
}
