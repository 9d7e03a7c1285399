package course

import (
	"math"
	"testing"

	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/expr"
)

func TestRules(t *testing.T) {
	c, err := New("x - 1", dynamo.Vec2{X: 2}, Target{Pos: dynamo.Vec2{X: 5, Z: 5}, Radius: 0.15})
	if err != nil {
		t.Fatal(err)
	}
	c.Bounds = Bounds{Max: dynamo.Vec2{X: 10, Z: 10}}

	tests := []struct {
		name    string
		pos     dynamo.Vec2
		out     bool
		reached bool
	}{
		{"fairway", dynamo.Vec2{X: 3, Z: 3}, false, false},
		{"in the hole", dynamo.Vec2{X: 5.1, Z: 5}, false, true},
		{"water", dynamo.Vec2{X: 0.5, Z: 3}, true, false},
		{"off the map", dynamo.Vec2{X: 11, Z: 3}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.OutOfBounds(tt.pos); got != tt.out {
				t.Errorf("OutOfBounds(%v) = %v, want %v", tt.pos, got, tt.out)
			}
			if got := c.TargetReached(tt.pos); got != tt.reached {
				t.Errorf("TargetReached(%v) = %v, want %v", tt.pos, got, tt.reached)
			}
		})
	}
}

func TestUnboundedCourse(t *testing.T) {
	c, err := New("1", dynamo.Vec2{}, Target{Radius: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	if c.OutOfBounds(dynamo.Vec2{X: -1e6, Z: 1e6}) {
		t.Errorf("zero bounds should not restrict play")
	}
	if c.Bouncer() != nil {
		t.Errorf("course without walls returned a bouncer")
	}
}

func TestSandPredicates(t *testing.T) {
	zones := Zones(
		Zone{Min: dynamo.Vec2{X: 0, Z: 0}, Max: dynamo.Vec2{X: 1, Z: 1}},
		Zone{Center: dynamo.Vec2{X: 5, Z: 5}, Radius: 1},
	)
	if !zones(0.5, 0.5) || !zones(5.5, 5.5) {
		t.Errorf("points inside zones not marked as sand")
	}
	if zones(3, 3) {
		t.Errorf("point outside zones marked as sand")
	}

	field, err := expr.NewField("x / 10")
	if err != nil {
		t.Fatal(err)
	}
	formula := FormulaSand(field)
	if formula(4, 0) || !formula(6, 0) {
		t.Errorf("formula sand threshold not at %v", SandThreshold)
	}

	both := Either(zones, formula)
	if !both(0.5, 0.5) || !both(7, 0) || both(3, 3) {
		t.Errorf("Either combined predicates incorrectly")
	}
}

func TestWallReflection(t *testing.T) {
	w := NewWalls(1, Segment{A: dynamo.Vec2{X: 1, Z: -5}, B: dynamo.Vec2{X: 1, Z: 5}})

	from := dynamo.Vec2{X: 0.9, Z: 0}
	next := dynamo.NewState(dynamo.Vec2{X: 1.1, Z: 0.1}, dynamo.Vec2{X: 2, Z: 1})

	got, hit := w.Reflect(from, next)
	if !hit {
		t.Fatal("expected a wall hit")
	}
	if v := got.Velocity(); math.Abs(v.X+2) > 1e-12 || math.Abs(v.Z-1) > 1e-12 {
		t.Errorf("reflected velocity = %v, want (-2, 1)", v)
	}
	if p := got.Position(); p.X >= 1 || math.Abs(p.X-1) > 1e-5 {
		t.Errorf("ball not placed in front of the wall: %v", p)
	}

	miss := dynamo.NewState(dynamo.Vec2{X: 0.95, Z: 0}, dynamo.Vec2{X: 2, Z: 0})
	if _, hit := w.Reflect(from, miss); hit {
		t.Errorf("reported a hit for a step that stops short of the wall")
	}
}

func TestWallRestitution(t *testing.T) {
	w := NewWalls(0.5, Box(dynamo.Vec2{}, dynamo.Vec2{X: 10, Z: 10})...)

	from := dynamo.Vec2{X: 5, Z: 9.99}
	next := dynamo.NewState(dynamo.Vec2{X: 5, Z: 10.01}, dynamo.Vec2{Z: 4})

	got, hit := w.Reflect(from, next)
	if !hit {
		t.Fatal("expected the top wall to be hit")
	}
	if v := got.Velocity(); math.Abs(v.Z+2) > 1e-12 || v.X != 0 {
		t.Errorf("velocity after damped bounce = %v, want (0, -2)", v)
	}
	if got.Position().Z > 10 {
		t.Errorf("ball escaped the box: %v", got.Position())
	}
}
