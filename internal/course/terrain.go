package course

import (
	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/expr"
)

// SandThreshold is the field value above which a sand formula marks sand.
const SandThreshold = 0.5

// SandFunc reports whether the ground at (x, z) is sand.
type SandFunc func(x, z float64) bool

// NoSand is a course made entirely of grass.
func NoSand(x, z float64) bool { return false }

// Zone is an axis-aligned rectangle or, when Radius > 0, a disc around Center.
type Zone struct {
	Min    dynamo.Vec2 `yaml:"min" json:"min"`
	Max    dynamo.Vec2 `yaml:"max" json:"max"`
	Center dynamo.Vec2 `yaml:"center" json:"center"`
	Radius float64     `yaml:"radius" json:"radius"`
}

func (z Zone) Contains(p dynamo.Vec2) bool {
	if z.Radius > 0 {
		return p.Dist(z.Center) <= z.Radius
	}
	return p.X >= z.Min.X && p.X <= z.Max.X && p.Z >= z.Min.Z && p.Z <= z.Max.Z
}

// Zones marks sand inside any of zones.
func Zones(zones ...Zone) SandFunc {
	if len(zones) == 0 {
		return NoSand
	}
	return func(x, z float64) bool {
		p := dynamo.Vec2{X: x, Z: z}
		for _, zone := range zones {
			if zone.Contains(p) {
				return true
			}
		}
		return false
	}
}

// FormulaSand marks sand wherever the sand field exceeds [SandThreshold].
// Points where the field cannot be evaluated count as grass.
func FormulaSand(field *expr.Field) SandFunc {
	return func(x, z float64) bool {
		v, err := field.Height(x, z)
		return err == nil && v > SandThreshold
	}
}

// Either marks sand where any of fns does.
func Either(fns ...SandFunc) SandFunc {
	return func(x, z float64) bool {
		for _, fn := range fns {
			if fn != nil && fn(x, z) {
				return true
			}
		}
		return false
	}
}
