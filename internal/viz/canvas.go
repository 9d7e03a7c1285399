package viz

import (
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Layer says what a cell shows. When several layers touch one cell the
// highest wins the color.
type Layer uint8

const (
	LayerNone Layer = iota
	LayerContour
	LayerSand
	LayerWater
	LayerWall
	LayerTrail
	LayerHole
	LayerBall
)

type Canvas struct {
	Width, Height int
	Grid          [][]rune
	layers        [][]Layer
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		layers: make([][]Layer, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.layers[i] = make([]Layer, w)
	}
	c.Clear()
	return c
}

// PixelSize is the canvas size in sub-pixels.
func (c *Canvas) PixelSize() (int, int) { return c.Width * 2, c.Height * 4 }

// Set sets the sub-pixel (x, y) on layer l.
func (c *Canvas) Set(x, y int, l Layer) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	if l > c.layers[row][col] {
		c.layers[row][col] = l
	}
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.layers[i][j] = LayerNone
		}
	}
}

// CopyFrom overwrites c with src. Both must have the same size.
func (c *Canvas) CopyFrom(src *Canvas) {
	for i := range c.Grid {
		copy(c.Grid[i], src.Grid[i])
		copy(c.layers[i], src.layers[i])
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, l Layer) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0, l)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawCircle draws the outline of a circle with the midpoint algorithm.
func (c *Canvas) DrawCircle(cx, cy, r int, l Layer) {
	x, y, d := r, 0, 1-r
	for x >= y {
		for _, p := range [8][2]int{{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y}} {
			c.Set(cx+p[0], cy+p[1], l)
		}
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

// Dot fills a size×size block centred on (x, y).
func (c *Canvas) Dot(x, y, size int, l Layer) {
	for dy := 0; dy < size; dy++ {
		for dx := 0; dx < size; dx++ {
			c.Set(x-size/2+dx, y-size/2+dy, l)
		}
	}
}

// Layer returns the layer that colors the cell at (col, row).
func (c *Canvas) Layer(col, row int) Layer { return c.layers[row][col] }

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render colors each cell by its layer. Runs of one layer share a style.
func (c *Canvas) Render(th Theme) string {
	styles := th.layerStyles()
	var b strings.Builder
	for i, row := range c.Grid {
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && c.layers[i][j] == c.layers[i][start] {
				continue
			}
			run := string(row[start:j])
			if st, ok := styles[c.layers[i][start]]; ok {
				run = st.Render(run)
			}
			b.WriteString(run)
			start = j
		}
		b.WriteString("\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
