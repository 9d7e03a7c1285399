package course

import (
	"math"

	"github.com/san-kum/puttsim/internal/dynamo"
)

// DefaultRestitution is the share of normal speed kept after a wall hit.
const DefaultRestitution = 0.8

// pushOff moves the ball clear of a wall after a hit.
const pushOff = 1e-6

// Segment is a straight wall between A and B.
type Segment struct {
	A dynamo.Vec2 `yaml:"a" json:"a"`
	B dynamo.Vec2 `yaml:"b" json:"b"`
}

// Direction returns the unit vector from A to B.
func (s Segment) Direction() dynamo.Vec2 {
	d := s.B.Sub(s.A)
	if l := d.Len(); l > 0 {
		return d.Scale(1 / l)
	}
	return dynamo.Vec2{}
}

// Normal returns a unit normal of the segment (Direction rotated a quarter turn).
func (s Segment) Normal() dynamo.Vec2 {
	d := s.Direction()
	return dynamo.Vec2{X: -d.Z, Z: d.X}
}

// intersect returns the parameter t in [0, 1] along p→q where it crosses s.
func (s Segment) intersect(p, q dynamo.Vec2) (float64, bool) {
	r := q.Sub(p)
	e := s.B.Sub(s.A)
	denom := r.X*e.Z - r.Z*e.X
	if denom == 0 {
		return 0, false // parallel
	}

	ap := s.A.Sub(p)
	t := (ap.X*e.Z - ap.Z*e.X) / denom
	u := (ap.X*r.Z - ap.Z*r.X) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}

// Bouncer redirects a step that crosses an obstacle. from is the position
// before the step and next the state after it.
type Bouncer interface {
	Reflect(from dynamo.Vec2, next dynamo.State) (dynamo.State, bool)
}

// Walls is a set of segments with a common restitution.
type Walls struct {
	Segments    []Segment
	Restitution float64
}

func NewWalls(restitution float64, segments ...Segment) *Walls {
	return &Walls{Segments: segments, Restitution: restitution}
}

// Reflect finds the first wall crossed on from→next and mirrors the normal
// velocity component, scaled by Restitution. The ball is placed just in
// front of the wall on the side it came from.
func (w *Walls) Reflect(from dynamo.Vec2, next dynamo.State) (dynamo.State, bool) {
	if w == nil || len(w.Segments) == 0 {
		return next, false
	}

	to := next.Position()
	best := math.Inf(1)
	hit := -1
	for i, seg := range w.Segments {
		if t, ok := seg.intersect(from, to); ok && t < best {
			best, hit = t, i
		}
	}
	if hit < 0 {
		return next, false
	}

	seg := w.Segments[hit]
	normal := seg.Normal()
	if from.Sub(seg.A).Dot(normal) < 0 {
		normal = normal.Scale(-1)
	}

	vel := next.Velocity()
	normalComp := normal.Scale(vel.Dot(normal))
	tangentComp := vel.Sub(normalComp)
	vel = tangentComp.Sub(normalComp.Scale(w.Restitution))

	contact := from.Add(to.Sub(from).Scale(best))
	pos := contact.Add(normal.Scale(pushOff))

	return dynamo.NewState(pos, vel), true
}

// Box returns the four walls of the rectangle spanned by lo and hi.
func Box(lo, hi dynamo.Vec2) []Segment {
	return []Segment{
		{A: dynamo.Vec2{X: lo.X, Z: lo.Z}, B: dynamo.Vec2{X: hi.X, Z: lo.Z}},
		{A: dynamo.Vec2{X: hi.X, Z: lo.Z}, B: dynamo.Vec2{X: hi.X, Z: hi.Z}},
		{A: dynamo.Vec2{X: hi.X, Z: hi.Z}, B: dynamo.Vec2{X: lo.X, Z: hi.Z}},
		{A: dynamo.Vec2{X: lo.X, Z: hi.Z}, B: dynamo.Vec2{X: lo.X, Z: lo.Z}},
	}
}
