package spatial

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	a := LatLng{Lat: 0, Lng: 0}
	b := LatLng{Lat: 0, Lng: 1}
	want := EarthRadiusMeters * math.Pi / 180
	if got := Distance(a, b); math.Abs(got-want) > 1 {
		t.Errorf("Distance: got %v, want ~%v", got, want)
	}
	if got := Distance(a, b); got != math.Round(got) {
		t.Errorf("Distance should be whole meters, got %v", got)
	}
	if got := Distance(LatLng{NullIsland: true}, b); got != 0 {
		t.Errorf("null island distance: got %v, want 0", got)
	}
	if got := Distance(b, b); got != 0 {
		t.Errorf("same point distance: got %v, want 0", got)
	}
}

func TestInterpolate(t *testing.T) {
	a := LatLng{Lat: 0, Lng: 0}
	b := LatLng{Lat: 0, Lng: 10}
	mid := Interpolate(a, b, 0.5)
	if math.Abs(mid.Lat) > 1e-9 || math.Abs(mid.Lng-5) > 1e-9 {
		t.Errorf("Interpolate: got %+v, want (0,5)", mid)
	}
	if Interpolate(a, b, 0) != a || Interpolate(a, b, 1) != b {
		t.Error("Interpolate should return the endpoints at 0 and 1")
	}
}

func TestProjectUnprojectRoundTrip(t *testing.T) {
	if p := Project(LatLng{}, 0); p.X != 128 || p.Y != 128 {
		t.Errorf("Project(0,0): got %+v, want (128,128)", p)
	}
	for _, ll := range []LatLng{{Lat: 39.9, Lng: 116.4}, {Lat: -33.86, Lng: 151.2}, {Lat: 51.5, Lng: -0.12}} {
		for _, z := range []int{0, 5, 12, 18} {
			got := Unproject(Project(ll, z), z)
			if math.Abs(got.Lat-ll.Lat) > 1e-9 || math.Abs(got.Lng-ll.Lng) > 1e-9 {
				t.Errorf("round trip at zoom %d: got %+v, want %+v", z, got, ll)
			}
		}
	}
}

func TestViewport(t *testing.T) {
	v := Viewport{Center: LatLng{}, Zoom: 1, Width: 512, Height: 512}
	if err := v.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if o := v.Origin(); o.X != 0 || o.Y != 0 {
		t.Errorf("Origin: got %+v", o)
	}
	nw, se := v.Bounds()
	if math.Abs(nw.Lng+180) > 1e-9 || math.Abs(se.Lng-180) > 1e-9 {
		t.Errorf("Bounds lng: got %v..%v", nw.Lng, se.Lng)
	}
	if math.Abs(nw.Lat-MaxLatitude) > 1e-6 || math.Abs(se.Lat+MaxLatitude) > 1e-6 {
		t.Errorf("Bounds lat: got %v..%v", nw.Lat, se.Lat)
	}
	c := v.LatLngToContainerPoint(LatLng{})
	if c.X != 256 || c.Y != 256 {
		t.Errorf("center container point: got %+v", c)
	}
	if back := v.ContainerPointToLatLng(c); math.Abs(back.Lat) > 1e-9 || math.Abs(back.Lng) > 1e-9 {
		t.Errorf("ContainerPointToLatLng: got %+v", back)
	}
	if err := (Viewport{Width: 0, Height: 10}).Validate(); err == nil {
		t.Error("zero width should be rejected")
	}
}

func TestSegmentInBox(t *testing.T) {
	nw := LatLng{Lat: 10, Lng: 0}
	se := LatLng{Lat: 0, Lng: 10}
	tests := []struct {
		name   string
		p0, p1 LatLng
		want   bool
	}{
		{"endpoint inside", LatLng{Lat: 5, Lng: 5}, LatLng{Lat: 50, Lng: 50}, true},
		{"crosses horizontally", LatLng{Lat: 5, Lng: -10}, LatLng{Lat: 5, Lng: 20}, true},
		{"crosses vertically", LatLng{Lat: -10, Lng: 5}, LatLng{Lat: 20, Lng: 5}, true},
		{"passes beside", LatLng{Lat: 20, Lng: -10}, LatLng{Lat: 20, Lng: 20}, false},
		{"diagonal miss", LatLng{Lat: 12, Lng: -5}, LatLng{Lat: 30, Lng: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SegmentInBox(tt.p0, tt.p1, nw, se); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if got := SegmentInBox(tt.p0, tt.p1, se, nw); got != tt.want {
				t.Errorf("swapped corners: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointInPolygon(t *testing.T) {
	sq := []Pixel{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	if !PointInPolygon(Pixel{5, 5}, sq, 0) {
		t.Error("center should be inside")
	}
	if !PointInPolygon(Pixel{10, 5}, sq, 1e-9) {
		t.Error("edge should count with tolerance")
	}
	if PointInPolygon(Pixel{11, 5}, sq, 1e-9) {
		t.Error("outside point reported inside")
	}
}
