// Package hexgrid maps pixel positions onto a hexagonal lattice aligned to the map viewport.
//
// The lattice is addressed with axial coordinates internally; cell keys use the
// even-q (flat top, circle) or even-r (pointy top) offset scheme so that keys are
// stable for a given zoom and offset.
package hexgrid

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jengzang/records-hexbin/internal/spatial"
)

// Orientation selects the cell shape
type Orientation string

const (
	FlatTop   Orientation = "flatTop"
	PointyTop Orientation = "pointyTop"
	Circle    Orientation = "circle"
)

const sqrt3 = 1.7320508075688772

// Valid reports whether o is a known orientation
func (o Orientation) Valid() bool {
	switch o {
	case FlatTop, PointyTop, Circle:
		return true
	}
	return false
}

// Locator converts a surface pixel to a coordinate
type Locator func(p spatial.Pixel) spatial.LatLng

// Mapper holds the lattice parameters of one draw pass
type Mapper struct {
	Size        float64
	Gap         float64
	Offset      spatial.Pixel
	Zoom        int
	Orientation Orientation
	Locate      Locator
}

// Cell is the geometry of one lattice slot
type Cell struct {
	Key         string          `json:"key"`
	X           int             `json:"x"`
	Y           int             `json:"y"`
	Center      spatial.Pixel   `json:"center"`
	Outline     []spatial.Pixel `json:"outline,omitempty"`
	Radius      float64         `json:"radius,omitempty"`
	Orientation Orientation     `json:"orientation"`
	Size        float64         `json:"size"`
	LatLng      spatial.LatLng  `json:"latlng"`
}

// Key builds the cell key for a zoom and offset coordinates
func Key(zoom, x, y int) string {
	return strconv.Itoa(zoom) + "_" + strconv.Itoa(x) + "_" + strconv.Itoa(y)
}

// ParseKey splits a cell key into zoom and offset coordinates
func ParseKey(key string) (zoom, x, y int, err error) {
	parts := strings.Split(key, "_")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid cell key %q", key)
	}
	vals := make([]int, 3)
	for i, p := range parts {
		if vals[i], err = strconv.Atoi(p); err != nil {
			return 0, 0, 0, fmt.Errorf("invalid cell key %q: %w", key, err)
		}
	}
	return vals[0], vals[1], vals[2], nil
}

// Cell resolves the lattice slot containing the surface pixel (x, y).
// scale shrinks or grows the outline around the center; the slot itself does not change.
func (m Mapper) Cell(x, y, scale float64) Cell {
	xs := (x + m.Offset.X) / m.Size
	ys := (y + m.Offset.Y) / m.Size

	var ax, ay int
	if m.Orientation == PointyTop {
		t := math.Floor(xs + sqrt3*ys + 1)
		ax = int(math.Floor((math.Floor(2*xs+1) + t) / 3))
		ay = int(math.Floor((t + math.Floor(-xs+sqrt3*ys+1)) / 3))
	} else {
		t := math.Floor(ys + sqrt3*xs + 1)
		ay = int(math.Floor((math.Floor(2*ys+1) + t) / 3))
		ax = int(math.Floor((t + math.Floor(-ys+sqrt3*xs+1)) / 3))
	}
	return m.axial(ax, ay, scale)
}

// axial builds the slot geometry for axial coordinates
func (m Mapper) axial(ax, ay int, scale float64) Cell {
	if scale <= 0 {
		scale = 1
	}
	size := m.Size
	c := Cell{Orientation: m.Orientation, Size: size}
	if c.Orientation == "" {
		c.Orientation = FlatTop
	}

	if m.Orientation == PointyTop {
		c.Center = spatial.Pixel{
			X: (float64(ax)-float64(ay)/2)*size - m.Offset.X,
			Y: float64(ay)/2*sqrt3*size - m.Offset.Y,
		}
		c.X = ax - floorDiv2(ay)
		c.Y = ay
	} else {
		c.Center = spatial.Pixel{
			X: float64(ax)/2*sqrt3*size - m.Offset.X,
			Y: (float64(ay)-float64(ax)/2)*size - m.Offset.Y,
		}
		c.X = ax
		c.Y = ay - floorDiv2(ax)
	}
	c.Key = Key(m.Zoom, c.X, c.Y)

	s0 := size - m.Gap
	switch m.Orientation {
	case Circle:
		c.Radius = s0 / 2 * scale
	case PointyTop:
		c.Outline = pointyOutline(c.Center, s0, scale)
	default:
		c.Outline = flatOutline(c.Center, s0, scale)
	}

	if m.Locate != nil {
		c.LatLng = m.Locate(spatial.Pixel{X: math.Round(c.Center.X), Y: math.Round(c.Center.Y)})
	}
	return c
}

// FromOffset converts offset coordinates back to the slot geometry
func (m Mapper) FromOffset(x, y int, scale float64) Cell {
	if m.Orientation == PointyTop {
		return m.axial(x+floorDiv2(y), y, scale)
	}
	return m.axial(x, y+floorDiv2(x), scale)
}

// Gutter returns the empty slots inside the offset-coordinate rectangle [x0,x1]x[y0,y1].
// occupied is asked for every key; slots it reports are skipped.
func (m Mapper) Gutter(x0, y0, x1, y1 int, occupied func(key string) bool) []Cell {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	var cells []Cell
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if occupied != nil && occupied(Key(m.Zoom, x, y)) {
				continue
			}
			cells = append(cells, m.FromOffset(x, y, 1))
		}
	}
	return cells
}

func flatOutline(c spatial.Pixel, s0, scale float64) []spatial.Pixel {
	s2 := s0 / sqrt3 * scale
	s4 := s0 / sqrt3 / 2 * scale
	h := s0 / 2 * scale
	return []spatial.Pixel{
		{X: c.X - s2, Y: c.Y},
		{X: c.X - s4, Y: c.Y - h},
		{X: c.X + s4, Y: c.Y - h},
		{X: c.X + s2, Y: c.Y},
		{X: c.X + s4, Y: c.Y + h},
		{X: c.X - s4, Y: c.Y + h},
	}
}

func pointyOutline(c spatial.Pixel, s0, scale float64) []spatial.Pixel {
	s2 := s0 / sqrt3 * scale
	s4 := s0 / sqrt3 / 2 * scale
	h := s0 / 2 * scale
	return []spatial.Pixel{
		{X: c.X, Y: c.Y - s2},
		{X: c.X - h, Y: c.Y - s4},
		{X: c.X - h, Y: c.Y + s4},
		{X: c.X, Y: c.Y + s2},
		{X: c.X + h, Y: c.Y + s4},
		{X: c.X + h, Y: c.Y - s4},
	}
}

// floorDiv2 is floor(v/2) for negative values too
func floorDiv2(v int) int {
	return int(math.Floor(float64(v) / 2))
}

// Contains reports whether the surface pixel lies inside the outline (or circle)
func (c Cell) Contains(p spatial.Pixel) bool {
	const tolerance = 1e-6
	if c.Orientation == Circle {
		return c.Center.Dist(p) <= c.Radius+tolerance
	}
	return spatial.PointInPolygon(p, c.Outline, tolerance)
}

// Path renders the outline as an SVG path
func (c Cell) Path() string {
	if c.Orientation == Circle {
		r := c.Radius
		return fmt.Sprintf("M%s %s a %s,%s 0 1,0 %s,0 a %s,%s 0 1,0 %s,0",
			num(c.Center.X-r), num(c.Center.Y), num(r), num(r), num(r*2), num(r), num(r), num(-r*2))
	}
	var b strings.Builder
	for i, p := range c.Outline {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(num(p.X))
		b.WriteString(" ")
		b.WriteString(num(p.Y))
	}
	if len(c.Outline) > 0 {
		b.WriteString(" Z")
	}
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
