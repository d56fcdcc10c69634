package viz

import "strings"

// Blank is the empty braille cell. Each cell holds a 2x4 block of dots, so a
// canvas of w x h cells addresses 2w x 4h dots with (0, 0) at the top left.
const Blank rune = 0x2800

// dotBits[row][col] is the braille bit of a dot inside its cell.
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille raster the live view projects the lab onto.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Size is the canvas extent in dots.
func (c *Canvas) Size() (w, h int) { return c.Width * 2, c.Height * 4 }

// cell locates dot (x, y). ok is false off the canvas.
func (c *Canvas) cell(x, y int) (row, col int, bit rune, ok bool) {
	w, h := c.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return 0, 0, 0, false
	}
	return y / 4, x / 2, dotBits[y%4][x%2], true
}

// Set lights dot (x, y); dots off the canvas are dropped so projected
// geometry can run past the edges.
func (c *Canvas) Set(x, y int) {
	if row, col, bit, ok := c.cell(x, y); ok {
		c.Grid[row][col] |= bit
	}
}

func (c *Canvas) Lit(x, y int) bool {
	row, col, bit, ok := c.cell(x, y)
	return ok && c.Grid[row][col]&bit != 0
}

// Dots calls fn for every lit dot, row by row.
func (c *Canvas) Dots(fn func(x, y int)) {
	w, h := c.Size()
	for y := 0; y < h; y++ {
		if c.rowBlank(y / 4) {
			y += 3 - y%4
			continue
		}
		for x := 0; x < w; x++ {
			if c.Lit(x, y) {
				fn(x, y)
			}
		}
	}
}

func (c *Canvas) rowBlank(row int) bool {
	for _, r := range c.Grid[row] {
		if r != Blank {
			return false
		}
	}
	return true
}

func (c *Canvas) Clear() {
	for _, row := range c.Grid {
		for j := range row {
			row[j] = Blank
		}
	}
}

// DrawLine rasterizes a segment with Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), -absInt(y1-y0)
	sx, sy := 1, 1
	if x1 < x0 {
		sx = -1
	}
	if y1 < y0 {
		sy = -1
	}
	err := dx + dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawCircle draws a circle outline with the midpoint algorithm. A radius
// below one dot marks only the center.
func (c *Canvas) DrawCircle(cx, cy, r int) {
	if r <= 0 {
		c.Set(cx, cy)
		return
	}
	x, y, d := r, 0, 1-r
	for x >= y {
		for _, p := range [][2]int{{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y}} {
			c.Set(cx+p[0], cy+p[1])
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

// DrawCross marks a point with a small plus sign, e.g. the particle.
func (c *Canvas) DrawCross(x, y, size int) {
	c.DrawLine(x-size, y, x+size, y)
	c.DrawLine(x, y-size, x, y+size)
}

func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(c.Height * (c.Width*3 + 1))
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
