package physics

import (
	"fmt"
	"sort"

	"github.com/san-kum/puttsim/internal/dynamo"
)

const (
	Gravity      = 9.80665
	StepSize     = 0.005
	ZeroVelocity = 1e-7

	MaxIterations        = 1000
	ConvergenceThreshold = 1e-4
	StopSpeed            = 0.01
)

// Friction holds the coefficients of one terrain class.
type Friction struct {
	Kinetic float64 `yaml:"kinetic" json:"kinetic"`
	Static  float64 `yaml:"static" json:"static"`
}

type Params struct {
	Gravity  float64  `yaml:"gravity" json:"gravity"`
	Step     float64  `yaml:"step" json:"step"`
	Grass    Friction `yaml:"grass" json:"grass"`
	Sand     Friction `yaml:"sand" json:"sand"`
	MaxIters int      `yaml:"max_iterations" json:"max_iterations"`

	// Roll-outs stop when position and velocity both move less than
	// these between consecutive steps.
	PositionThreshold float64 `yaml:"position_threshold" json:"position_threshold"`
	VelocityThreshold float64 `yaml:"velocity_threshold" json:"velocity_threshold"`

	// StopSpeed ends a roll-out once |vx| and |vz| are both below it.
	StopSpeed float64 `yaml:"stop_speed" json:"stop_speed"`
}

func DefaultParams() Params {
	return Params{
		Gravity:           Gravity,
		Step:              StepSize,
		Grass:             Friction{Kinetic: 1.0, Static: 0.5},
		Sand:              Friction{Kinetic: 0.3, Static: 0.4},
		MaxIters:          MaxIterations,
		PositionThreshold: ConvergenceThreshold,
		VelocityThreshold: ConvergenceThreshold,
		StopSpeed:         StopSpeed,
	}
}

// Frictionless returns DefaultParams with every friction coefficient zeroed.
func Frictionless() Params {
	p := DefaultParams()
	p.Grass = Friction{}
	p.Sand = Friction{}
	return p
}

func (p Params) Validate() error {
	switch {
	case p.Gravity < 0:
		return fmt.Errorf("%w: gravity %g < 0", dynamo.ErrInvalidConfig, p.Gravity)
	case p.Step <= 0:
		return fmt.Errorf("%w: step %g <= 0", dynamo.ErrInvalidConfig, p.Step)
	case p.MaxIters <= 0:
		return fmt.Errorf("%w: max_iterations %d <= 0", dynamo.ErrInvalidConfig, p.MaxIters)
	case p.Grass.Kinetic < 0 || p.Grass.Static < 0 || p.Sand.Kinetic < 0 || p.Sand.Static < 0:
		return fmt.Errorf("%w: friction coefficients must be >= 0", dynamo.ErrInvalidConfig)
	case p.PositionThreshold < 0 || p.VelocityThreshold < 0 || p.StopSpeed < 0:
		return fmt.Errorf("%w: stop thresholds must be >= 0", dynamo.ErrInvalidConfig)
	}
	return nil
}

func (p *Params) GetParams() map[string]float64 {
	return map[string]float64{
		"gravity":            p.Gravity,
		"step":               p.Step,
		"grass_kinetic":      p.Grass.Kinetic,
		"grass_static":       p.Grass.Static,
		"sand_kinetic":       p.Sand.Kinetic,
		"sand_static":        p.Sand.Static,
		"max_iterations":     float64(p.MaxIters),
		"position_threshold": p.PositionThreshold,
		"velocity_threshold": p.VelocityThreshold,
		"stop_speed":         p.StopSpeed,
	}
}

func (p *Params) SetParam(name string, value float64) error {
	switch name {
	case "gravity":
		p.Gravity = value
	case "step":
		p.Step = value
	case "grass_kinetic":
		p.Grass.Kinetic = value
	case "grass_static":
		p.Grass.Static = value
	case "sand_kinetic":
		p.Sand.Kinetic = value
	case "sand_static":
		p.Sand.Static = value
	case "max_iterations":
		p.MaxIters = int(value)
	case "position_threshold":
		p.PositionThreshold = value
	case "velocity_threshold":
		p.VelocityThreshold = value
	case "stop_speed":
		p.StopSpeed = value
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return nil
}

// ParamNames lists the names accepted by SetParam, sorted.
func ParamNames() []string {
	var p Params
	names := make([]string, 0, 10)
	for k := range p.GetParams() {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
