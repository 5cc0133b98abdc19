package hexgrid

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/jengzang/records-hexbin/internal/spatial"
)

func TestCellContainsPixel(t *testing.T) {
	for _, o := range []Orientation{FlatTop, PointyTop} {
		m := Mapper{Size: 16, Offset: spatial.Pixel{X: 134217, Y: 89478}, Zoom: 12, Orientation: o}
		r := rand.New(rand.NewSource(42))
		for i := 0; i < 5000; i++ {
			p := spatial.Pixel{X: r.Float64()*1200 - 100, Y: r.Float64()*900 - 100}
			c := m.Cell(p.X, p.Y, 1)
			if !c.Contains(p) {
				t.Fatalf("%s: pixel %+v not inside outline of %s (center %+v)", o, p, c.Key, c.Center)
			}
		}
	}
}

func TestCellIdempotent(t *testing.T) {
	for _, o := range []Orientation{FlatTop, PointyTop, Circle} {
		m := Mapper{Size: 23, Offset: spatial.Pixel{X: -517, Y: 311}, Zoom: 7, Orientation: o}
		r := rand.New(rand.NewSource(7))
		for i := 0; i < 5000; i++ {
			x, y := r.Float64()*2000-1000, r.Float64()*2000-1000
			c := m.Cell(x, y, 1)
			again := m.Cell(c.Center.X, c.Center.Y, 1)
			if again.Key != c.Key {
				t.Fatalf("%s: center of %s maps to %s", o, c.Key, again.Key)
			}
		}
	}
}

func TestNeighborsDifferByOne(t *testing.T) {
	m := Mapper{Size: 20, Orientation: FlatTop}
	c := m.Cell(100, 100, 1)
	// straight below in a flat-top lattice is the same column, next row
	below := m.Cell(c.Center.X, c.Center.Y+20, 1)
	if below.X != c.X || below.Y != c.Y+1 {
		t.Errorf("Expected cell below %d_%d to be %d_%d, got %d_%d", c.X, c.Y, c.X, c.Y+1, below.X, below.Y)
	}
}

func TestKeyRoundTrip(t *testing.T) {
	key := Key(9, -4, 17)
	if key != "9_-4_17" {
		t.Fatalf("Key: got %q, want %q", key, "9_-4_17")
	}
	z, x, y, err := ParseKey(key)
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if z != 9 || x != -4 || y != 17 {
		t.Errorf("ParseKey: got %d %d %d", z, x, y)
	}
	if _, _, _, err := ParseKey("9_x_1"); err == nil {
		t.Error("expected error for malformed key")
	}
}

func TestFromOffsetMatchesCell(t *testing.T) {
	for _, o := range []Orientation{FlatTop, PointyTop} {
		m := Mapper{Size: 16, Offset: spatial.Pixel{X: 40, Y: 90}, Zoom: 3, Orientation: o}
		c := m.Cell(321, 123, 1)
		back := m.FromOffset(c.X, c.Y, 1)
		if back.Key != c.Key || back.Center != c.Center {
			t.Errorf("%s: FromOffset(%d,%d) = %s %+v, want %s %+v", o, c.X, c.Y, back.Key, back.Center, c.Key, c.Center)
		}
	}
}

func TestGapAndScaleShrinkOutline(t *testing.T) {
	m := Mapper{Size: 20, Gap: 4, Orientation: FlatTop}
	c := m.Cell(0, 0, 0.5)
	// flat top: vertical half extent is (size-gap)/2*scale
	top := c.Outline[1].Y
	if got, want := c.Center.Y-top, 4.0; got != want {
		t.Errorf("Expected half height %f, got %f", want, got)
	}

	circle := Mapper{Size: 20, Gap: 4, Orientation: Circle}.Cell(0, 0, 1)
	if circle.Radius != 8 {
		t.Errorf("Expected radius 8, got %f", circle.Radius)
	}
	if !strings.HasPrefix(circle.Path(), "M") || !strings.Contains(circle.Path(), " a ") {
		t.Errorf("unexpected circle path %q", circle.Path())
	}
}

func TestLocatorReceivesRoundedCenter(t *testing.T) {
	var got spatial.Pixel
	m := Mapper{Size: 16, Orientation: FlatTop, Locate: func(p spatial.Pixel) spatial.LatLng {
		got = p
		return spatial.LatLng{Lat: 1, Lng: 2}
	}}
	c := m.Cell(50, 50, 1)
	if c.LatLng.Lat != 1 || c.LatLng.Lng != 2 {
		t.Errorf("Expected located latlng, got %+v", c.LatLng)
	}
	if got.X != float64(int(got.X)) || got.Y != float64(int(got.Y)) {
		t.Errorf("Expected integer pixel, got %+v", got)
	}
}

func TestGutterSkipsOccupied(t *testing.T) {
	m := Mapper{Size: 16, Zoom: 5, Orientation: PointyTop}
	occupied := map[string]bool{Key(5, 1, 1): true}
	cells := m.Gutter(0, 0, 2, 2, func(k string) bool { return occupied[k] })
	if len(cells) != 8 {
		t.Fatalf("Expected 8 gutter cells, got %d", len(cells))
	}
	for _, c := range cells {
		if c.Key == Key(5, 1, 1) {
			t.Error("occupied cell returned as gutter")
		}
		if !strings.HasPrefix(c.Key, "5_") {
			t.Errorf("gutter key %q missing zoom prefix", c.Key)
		}
	}
}

func TestPathFlatTop(t *testing.T) {
	c := Mapper{Size: 2 * sqrt3, Orientation: FlatTop}.Cell(0, 0, 1)
	if c.Key != "0_0_0" {
		t.Fatalf("Expected origin cell, got %s", c.Key)
	}
	p := c.Path()
	if !strings.HasPrefix(p, "M-2 0 L") || !strings.HasSuffix(p, " Z") {
		t.Errorf("unexpected path %q", p)
	}
}
