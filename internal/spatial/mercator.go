package spatial

import (
	"fmt"
	"math"
)

// MaxLatitude is the Web-Mercator clamp
const MaxLatitude = 85.0511287798

// TileSize is the world width in pixels at zoom 0
const TileSize = 256.0

// Project converts a coordinate to world pixels at the given zoom (Web-Mercator, 256px tiles)
func Project(ll LatLng, zoom int) Pixel {
	scale := TileSize * math.Pow(2, float64(zoom))
	m := MXY(ll)
	return Pixel{X: m.X * scale, Y: m.Y * scale}
}

// Unproject converts world pixels at the given zoom back to a coordinate
func Unproject(p Pixel, zoom int) LatLng {
	scale := TileSize * math.Pow(2, float64(zoom))
	x := p.X/scale - 0.5
	y := 0.5 - p.Y/scale
	lng := x * 360
	lat := 90 - 360*math.Atan(math.Exp(-y*2*math.Pi))/math.Pi
	return LatLng{Lat: lat, Lng: lng}
}

// MXY returns the normalized Web-Mercator position of a coordinate, both axes in 0..1
func MXY(ll LatLng) Pixel {
	lat := math.Max(-MaxLatitude, math.Min(MaxLatitude, ll.Lat))
	sin := math.Sin(lat * math.Pi / 180)
	return Pixel{
		X: 0.5 + ll.Lng/360,
		Y: 0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi),
	}
}

// Viewport is a Web-Mercator map view: a center, an integer zoom and a surface size.
type Viewport struct {
	Center LatLng `json:"center"`
	Zoom   int    `json:"zoom"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Validate checks the viewport can be rendered
func (v Viewport) Validate() error {
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("invalid viewport size %dx%d", v.Width, v.Height)
	}
	if v.Zoom < 0 || v.Zoom > 24 {
		return fmt.Errorf("invalid zoom %d", v.Zoom)
	}
	return nil
}

// Origin returns the rounded world pixel of the top-left corner
func (v Viewport) Origin() Pixel {
	c := Project(v.Center, v.Zoom)
	return Pixel{
		X: math.Round(c.X - float64(v.Width)/2),
		Y: math.Round(c.Y - float64(v.Height)/2),
	}
}

// GetZoom returns the zoom level
func (v Viewport) GetZoom() int { return v.Zoom }

// Size returns the surface size in pixels
func (v Viewport) Size() (int, int) { return v.Width, v.Height }

// Bounds returns the north-west and south-east corners
func (v Viewport) Bounds() (LatLng, LatLng) {
	o := v.Origin()
	nw := Unproject(o, v.Zoom)
	se := Unproject(Pixel{X: o.X + float64(v.Width), Y: o.Y + float64(v.Height)}, v.Zoom)
	return nw, se
}

// Project converts a coordinate to world pixels at zoom
func (v Viewport) Project(ll LatLng, zoom int) Pixel { return Project(ll, zoom) }

// Unproject converts world pixels at zoom to a coordinate
func (v Viewport) Unproject(p Pixel, zoom int) LatLng { return Unproject(p, zoom) }

// LatLngToContainerPoint converts a coordinate to surface pixels
func (v Viewport) LatLngToContainerPoint(ll LatLng) Pixel {
	p := Project(ll, v.Zoom)
	o := v.Origin()
	return Pixel{X: p.X - o.X, Y: p.Y - o.Y}
}

// ContainerPointToLatLng converts surface pixels to a coordinate
func (v Viewport) ContainerPointToLatLng(p Pixel) LatLng {
	o := v.Origin()
	return Unproject(Pixel{X: p.X + o.X, Y: p.Y + o.Y}, v.Zoom)
}
