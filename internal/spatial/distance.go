package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// LatLng is a WGS84 coordinate in degrees.
// NullIsland marks the sentinel produced for unparseable input.
type LatLng struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	NullIsland bool    `json:"nullIsland,omitempty"`
}

// S2 converts the coordinate to an s2.LatLng
func (ll LatLng) S2() s2.LatLng {
	return s2.LatLngFromDegrees(ll.Lat, ll.Lng)
}

// Distance returns the great-circle distance between two coordinates in whole meters.
// Either side being the null-island sentinel yields 0.
func Distance(a, b LatLng) float64 {
	if a.NullIsland || b.NullIsland {
		return 0
	}
	if a.Lat == b.Lat && a.Lng == b.Lng {
		return 0
	}
	return math.Round(a.S2().Distance(b.S2()).Radians() * EarthRadiusMeters)
}

// Interpolate returns the point at fraction f along the great circle from a to b
func Interpolate(a, b LatLng, f float64) LatLng {
	if f <= 0 {
		return a
	}
	if f >= 1 {
		return b
	}
	p := s2.Interpolate(f, s2.PointFromLatLng(a.S2()), s2.PointFromLatLng(b.S2()))
	ll := s2.LatLngFromPoint(p)
	return LatLng{Lat: ll.Lat.Degrees(), Lng: ll.Lng.Degrees()}
}

// Constants
const (
	EarthRadiusMeters = 6378136.78 // equatorial radius, matches the map's distance readout
	EarthRadiusKm     = EarthRadiusMeters / 1000
)
