package viz

import (
	"math"

	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
)

const contourLevels = 8

// Viewport maps the world rectangle [Min, Max] onto a W×H sub-pixel grid.
// z grows up the screen.
type Viewport struct {
	Min, Max dynamo.Vec2
	W, H     int
}

// FitCourse frames the course bounds, or when the course is unbounded the
// start, target, walls and any extra points, keeping world units square.
func FitCourse(c *course.Course, w, h int, extra ...dynamo.Vec2) Viewport {
	if !c.Bounds.IsZero() {
		return square(c.Bounds.Min, c.Bounds.Max, w, h)
	}

	pts := append([]dynamo.Vec2{c.Start, c.Target.Pos}, extra...)
	if c.Walls != nil {
		for _, s := range c.Walls.Segments {
			pts = append(pts, s.A, s.B)
		}
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo = dynamo.Vec2{X: math.Min(lo.X, p.X), Z: math.Min(lo.Z, p.Z)}
		hi = dynamo.Vec2{X: math.Max(hi.X, p.X), Z: math.Max(hi.Z, p.Z)}
	}
	pad := math.Max(1, 0.15*hi.Sub(lo).Len())
	return square(lo.Sub(dynamo.Vec2{X: pad, Z: pad}), hi.Add(dynamo.Vec2{X: pad, Z: pad}), w, h)
}

// square grows the shorter side of [lo, hi] around its centre until one
// world unit spans the same number of sub-pixels on both axes.
func square(lo, hi dynamo.Vec2, w, h int) Viewport {
	span := hi.Sub(lo)
	scale := math.Max(span.X/float64(w), span.Z/float64(h))
	if scale <= 0 {
		scale = 1
	}
	mid := lo.Add(hi).Scale(0.5)
	half := dynamo.Vec2{X: scale * float64(w) / 2, Z: scale * float64(h) / 2}
	return Viewport{Min: mid.Sub(half), Max: mid.Add(half), W: w, H: h}
}

// Scale is world units per sub-pixel.
func (v Viewport) Scale() float64 { return (v.Max.X - v.Min.X) / float64(v.W) }

func (v Viewport) ToPixel(p dynamo.Vec2) (int, int) {
	x := (p.X - v.Min.X) / (v.Max.X - v.Min.X) * float64(v.W)
	z := (p.Z - v.Min.Z) / (v.Max.Z - v.Min.Z) * float64(v.H)
	return int(math.Floor(x)), v.H - 1 - int(math.Floor(z))
}

// ToWorld returns the centre of sub-pixel (px, py).
func (v Viewport) ToWorld(px, py int) dynamo.Vec2 {
	s := v.Scale()
	return dynamo.Vec2{
		X: v.Min.X + (float64(px)+0.5)*s,
		Z: v.Min.Z + (float64(v.H-1-py)+0.5)*(v.Max.Z-v.Min.Z)/float64(v.H),
	}
}

// Backdrop draws everything on the course that does not move: contour
// lines of the height field, sand, water, walls and the hole.
func Backdrop(c *course.Course, v Viewport, cols, rows int) *Canvas {
	cv := NewCanvas(cols, rows)

	heights := make([][]float64, v.H)
	wet := make([][]bool, v.H)
	lo, hi := math.Inf(1), math.Inf(-1)
	for py := range heights {
		heights[py] = make([]float64, v.W)
		wet[py] = make([]bool, v.W)
		for px := range heights[py] {
			h, err := c.Height(v.ToWorld(px, py))
			if err != nil || h < 0 || math.IsNaN(h) {
				wet[py][px] = true
				continue
			}
			heights[py][px] = h
			lo, hi = math.Min(lo, h), math.Max(hi, h)
		}
	}

	interval := (hi - lo) / contourLevels
	level := func(h float64) int {
		if interval <= 0 {
			return 0
		}
		return int(math.Floor((h - lo) / interval))
	}

	for py := 0; py < v.H; py++ {
		for px := 0; px < v.W; px++ {
			switch {
			case wet[py][px]:
				if (px+py)%2 == 0 {
					cv.Set(px, py, LayerWater)
				}
			case c.IsSand(v.ToWorld(px, py)):
				if px%2 == 0 && py%3 == 0 {
					cv.Set(px, py, LayerSand)
				}
			default:
				l := level(heights[py][px])
				if px+1 < v.W && !wet[py][px+1] && level(heights[py][px+1]) != l ||
					py+1 < v.H && !wet[py+1][px] && level(heights[py+1][px]) != l {
					cv.Set(px, py, LayerContour)
				}
			}
		}
	}

	if c.Walls != nil {
		for _, s := range c.Walls.Segments {
			x0, y0 := v.ToPixel(s.A)
			x1, y1 := v.ToPixel(s.B)
			cv.DrawLine(x0, y0, x1, y1, LayerWall)
		}
	}

	hx, hy := v.ToPixel(c.Target.Pos)
	cv.DrawCircle(hx, hy, max(2, int(c.Target.Radius/v.Scale())), LayerHole)
	return cv
}
