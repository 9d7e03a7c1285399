package course

import (
	"fmt"

	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/expr"
)

// Bounds is the playable rectangle. The zero value is unbounded.
type Bounds struct {
	Min dynamo.Vec2 `yaml:"min" json:"min"`
	Max dynamo.Vec2 `yaml:"max" json:"max"`
}

func (b Bounds) IsZero() bool { return b == Bounds{} }

func (b Bounds) Contains(p dynamo.Vec2) bool {
	if b.IsZero() {
		return true
	}
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Target is the hole: a position with an acceptance radius.
type Target struct {
	Pos    dynamo.Vec2 `yaml:"pos" json:"pos"`
	Radius float64     `yaml:"radius" json:"radius"`
}

func (t Target) Reached(p dynamo.Vec2) bool {
	return p.Dist(t.Pos) <= t.Radius
}

// Rules answers the game-rules questions asked about a landing position.
type Rules interface {
	OutOfBounds(pos dynamo.Vec2) bool
	TargetReached(pos dynamo.Vec2) bool
}

// Course is a height field with everything the ball interacts with on it.
// It is immutable after construction and safe for concurrent use.
type Course struct {
	Name   string
	Field  *expr.Field
	Start  dynamo.Vec2
	Target Target
	Bounds Bounds
	Sand   SandFunc
	Walls  *Walls
}

// New builds a grass-only, wall-free course over formula.
func New(formula string, start dynamo.Vec2, target Target) (*Course, error) {
	field, err := expr.NewField(formula)
	if err != nil {
		return nil, fmt.Errorf("course: height formula: %w", err)
	}
	return &Course{Field: field, Start: start, Target: target, Sand: NoSand}, nil
}

// IsSand reports the terrain class at p.
func (c *Course) IsSand(p dynamo.Vec2) bool {
	return c.Sand != nil && c.Sand(p.X, p.Z)
}

// Height evaluates the field under a ball resting at p. State variables
// a..d are bound to (x, z, 0, 0).
func (c *Course) Height(p dynamo.Vec2) (float64, error) {
	return c.Field.HeightAt(p.X, p.Z, 0, []float64{p.X, p.Z, 0, 0})
}

// InHazard reports whether p lies below the water line (height < 0) or
// where the field cannot be evaluated.
func (c *Course) InHazard(p dynamo.Vec2) bool {
	h, err := c.Height(p)
	return err != nil || h < 0
}

// OutOfBounds reports whether a ball resting at pos must be replayed.
func (c *Course) OutOfBounds(pos dynamo.Vec2) bool {
	return !c.Bounds.Contains(pos) || c.InHazard(pos)
}

func (c *Course) TargetReached(pos dynamo.Vec2) bool {
	return c.Target.Reached(pos)
}

// Bouncer returns the course walls, or nil when there are none.
func (c *Course) Bouncer() Bouncer {
	if c.Walls == nil || len(c.Walls.Segments) == 0 {
		return nil
	}
	return c.Walls
}

// WithTarget returns a shallow copy of c aiming at t.
func (c *Course) WithTarget(t Target) *Course {
	cp := *c
	cp.Target = t
	return &cp
}
