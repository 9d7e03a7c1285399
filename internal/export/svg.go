// Package export draws courses and stored runs as SVG images.
package export

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/viz"
)

// SVGOptions sizes the image. Cols and Rows are the size of the backdrop
// canvas in Braille cells; Scale is the width of one sub-pixel in the image.
type SVGOptions struct {
	Cols, Rows int
	Scale      float64
	Theme      viz.Theme
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Cols: 120, Rows: 60, Scale: 4, Theme: viz.ThemeLinks}
}

// CanvasToSVG converts a Braille canvas to SVG circles, colored by layer.
func CanvasToSVG(sb *strings.Builder, canvas *viz.Canvas, scale float64, th viz.Theme) {
	if canvas == nil {
		return
	}

	// Braille dot-to-bit mapping
	pixelMap := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}
	colors := layerColors(th)
	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r <= 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)
			fill := colors[canvas.Layer(col, row)]

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] != 0 {
						cx := baseX + float64(dx)*scale + scale/2
						cy := baseY + float64(dy)*scale + scale/2
						fmt.Fprintf(sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"/>\n", cx, cy, dotRadius, fill)
					}
				}
			}
		}
	}
}

func layerColors(th viz.Theme) map[viz.Layer]string {
	return map[viz.Layer]string{
		viz.LayerNone:    string(th.Muted),
		viz.LayerContour: string(th.Contour),
		viz.LayerSand:    string(th.Sand),
		viz.LayerWater:   string(th.Water),
		viz.LayerWall:    string(th.Wall),
		viz.LayerTrail:   string(th.Trail),
		viz.LayerHole:    string(th.Hole),
		viz.LayerBall:    string(th.Ball),
	}
}

// CourseSVG draws the course with the ball path on top of it. The path
// starts at path[0] and the ball is drawn where it ends.
func CourseSVG(w io.Writer, crs *course.Course, path []dynamo.Vec2, opts SVGOptions) error {
	view := viz.FitCourse(crs, opts.Cols*2, opts.Rows*4, path...)
	backdrop := viz.Backdrop(crs, view, opts.Cols, opts.Rows)

	width := float64(opts.Cols) * opts.Scale * 2
	height := float64(opts.Rows) * opts.Scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g>
`, width, height, width, height)
	CanvasToSVG(&sb, backdrop, opts.Scale, opts.Theme)
	sb.WriteString("</g>\n")

	if len(path) > 1 {
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, opts.Theme.Trail)
		for i, p := range path {
			x, y := toImage(view, p, opts.Scale)
			if i == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}
	if len(path) > 0 {
		x, y := toImage(view, path[len(path)-1], opts.Scale)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"/>\n", x, y, 2*opts.Scale, opts.Theme.Ball)
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// toImage maps a world position to image coordinates, continuous rather
// than snapped to sub-pixels.
func toImage(v viz.Viewport, p dynamo.Vec2, scale float64) (float64, float64) {
	x := (p.X - v.Min.X) / (v.Max.X - v.Min.X) * float64(v.W)
	z := (p.Z - v.Min.Z) / (v.Max.Z - v.Min.Z) * float64(v.H)
	return x * scale, (float64(v.H) - z) * scale
}

// WriteCourseSVG writes CourseSVG to a file.
func WriteCourseSVG(path string, crs *course.Course, ballPath []dynamo.Vec2, opts SVGOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := CourseSVG(f, crs, ballPath, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
