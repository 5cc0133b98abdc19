package hittest

import (
	"image"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"

	"github.com/jengzang/records-hexbin/internal/spatial"
)

// coverage above which an antialiased pixel takes the id color
const coverageThreshold = 0x80

// PickBuffer is the off-screen id raster. Later paints overwrite earlier ones,
// so overlapping drawables resolve to the last one painted.
type PickBuffer struct {
	img *image.RGBA
}

// NewPickBuffer creates an empty buffer of the given size
func NewPickBuffer(w, h int) *PickBuffer {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &PickBuffer{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Image exposes the raster
func (b *PickBuffer) Image() *image.RGBA { return b.img }

// EncodePNG writes the raster as PNG
func (b *PickBuffer) EncodePNG(w io.Writer) error {
	return png.Encode(w, b.img)
}

// Pick returns the id painted at (x, y)
func (b *PickBuffer) Pick(x, y int) (int, bool) {
	if !(image.Point{X: x, Y: y}.In(b.img.Rect)) {
		return -1, false
	}
	id := Decode(b.img.RGBAAt(x, y))
	return id, id >= 0
}

// FillPolygon paints a closed polygon
func (b *PickBuffer) FillPolygon(pts []spatial.Pixel, id int) {
	if len(pts) < 3 {
		return
	}
	b.paint([][]spatial.Pixel{pts}, id)
}

// FillCircle paints a disk
func (b *PickBuffer) FillCircle(c spatial.Pixel, r float64, id int) {
	if r <= 0 {
		return
	}
	b.paint([][]spatial.Pixel{circle(c, r)}, id)
}

// StrokePolyline paints a polyline of the given width with round joins and caps
func (b *PickBuffer) StrokePolyline(pts []spatial.Pixel, width float64, id int) {
	if len(pts) == 0 || width <= 0 {
		return
	}
	hw := width / 2
	shapes := make([][]spatial.Pixel, 0, len(pts)*2)
	for i, p := range pts {
		shapes = append(shapes, circle(p, hw))
		if i == 0 {
			continue
		}
		q := pts[i-1]
		d := p.Dist(q)
		if d == 0 {
			continue
		}
		nx, ny := -(p.Y-q.Y)/d*hw, (p.X-q.X)/d*hw
		shapes = append(shapes, []spatial.Pixel{
			{X: q.X + nx, Y: q.Y + ny},
			{X: p.X + nx, Y: p.Y + ny},
			{X: p.X - nx, Y: p.Y - ny},
			{X: q.X - nx, Y: q.Y - ny},
		})
	}
	b.paint(shapes, id)
}

// paint rasterizes the union of shapes inside their bounding box and copies
// covered pixels as the flat id color.
func (b *PickBuffer) paint(shapes [][]spatial.Pixel, id int) {
	if id < 0 {
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range shapes {
		for _, p := range s {
			minX, minY = math.Min(minX, p.X), math.Min(minY, p.Y)
			maxX, maxY = math.Max(maxX, p.X), math.Max(maxY, p.Y)
		}
	}
	box := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
	box = box.Intersect(b.img.Rect)
	if box.Empty() {
		return
	}

	z := vector.NewRasterizer(box.Dx(), box.Dy())
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	for _, s := range shapes {
		if len(s) < 3 {
			continue
		}
		// the rasterizer sums signed coverage; keep every shape wound the same way
		if signedArea(s) < 0 {
			s = reversed(s)
		}
		z.MoveTo(float32(s[0].X-ox), float32(s[0].Y-oy))
		for _, p := range s[1:] {
			z.LineTo(float32(p.X-ox), float32(p.Y-oy))
		}
		z.ClosePath()
	}
	mask := image.NewAlpha(image.Rect(0, 0, box.Dx(), box.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	c := Encode(id)
	for y := 0; y < box.Dy(); y++ {
		for x := 0; x < box.Dx(); x++ {
			if mask.AlphaAt(x, y).A >= coverageThreshold {
				b.img.SetRGBA(box.Min.X+x, box.Min.Y+y, c)
			}
		}
	}
}

func circle(c spatial.Pixel, r float64) []spatial.Pixel {
	n := int(math.Max(8, math.Min(48, math.Ceil(r*2))))
	pts := make([]spatial.Pixel, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = spatial.Pixel{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
	}
	return pts
}

func signedArea(pts []spatial.Pixel) float64 {
	var a float64
	j := len(pts) - 1
	for i := range pts {
		a += pts[j].X*pts[i].Y - pts[i].X*pts[j].Y
		j = i
	}
	return a / 2
}

func reversed(pts []spatial.Pixel) []spatial.Pixel {
	out := make([]spatial.Pixel, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}
