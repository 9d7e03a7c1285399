package metrics

import (
	"math"

	"github.com/san-kum/puttsim/internal/dynamo"
)

// HeightFunc returns the terrain height under a state.
type HeightFunc func(x dynamo.State, t float64) (float64, error)

// Energy averages the specific mechanical energy ½|v|² + g·h over a roll-out.
type Energy struct {
	name        string
	gravity     float64
	height      HeightFunc
	samples     int
	totalEnergy float64
}

func NewEnergy(gravity float64, height HeightFunc) *Energy {
	return &Energy{
		name:    "energy",
		gravity: gravity,
		height:  height,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(x dynamo.State, t float64) {
	en, ok := specificEnergy(x, t, e.gravity, e.height)
	if !ok {
		return
	}
	e.totalEnergy += en
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyLoss is the share of the first observed energy that friction has
// dissipated by the last observation.
type EnergyLoss struct {
	name          string
	gravity       float64
	height        HeightFunc
	initialEnergy float64
	currentEnergy float64
	samples       int
}

func NewEnergyLoss(gravity float64, height HeightFunc) *EnergyLoss {
	return &EnergyLoss{
		name:    "energy_loss",
		gravity: gravity,
		height:  height,
	}
}

func (e *EnergyLoss) Name() string { return e.name }

func (e *EnergyLoss) Observe(x dynamo.State, t float64) {
	en, ok := specificEnergy(x, t, e.gravity, e.height)
	if !ok {
		return
	}
	if e.samples == 0 {
		e.initialEnergy = en
	}
	e.currentEnergy = en
	e.samples++
}

func (e *EnergyLoss) Value() float64 {
	if e.samples == 0 || e.initialEnergy == 0 {
		return 0
	}
	return (e.initialEnergy - e.currentEnergy) / math.Abs(e.initialEnergy)
}

func (e *EnergyLoss) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.samples = 0
}

func specificEnergy(x dynamo.State, t, g float64, height HeightFunc) (float64, bool) {
	h, err := height(x, t)
	if err != nil {
		return 0, false
	}
	v := x.Speed()
	return 0.5*v*v + g*h, true
}
