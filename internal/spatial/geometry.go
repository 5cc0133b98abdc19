package spatial

import "math"

// Pixel is a position in screen or world pixel space
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the euclidean distance between two pixels
func (p Pixel) Dist(q Pixel) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Lerp moves from p towards q by fraction t
func (p Pixel) Lerp(q Pixel, t float64) Pixel {
	return Pixel{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

// PointInPolygon checks if a pixel is inside a polygon using ray casting.
// Points within tolerance of an edge count as inside.
func PointInPolygon(point Pixel, polygon []Pixel, tolerance float64) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	j := len(polygon) - 1

	for i := 0; i < len(polygon); i++ {
		a, b := polygon[j], polygon[i]
		if segmentDistance(point, a, b) <= tolerance {
			return true
		}
		if ((b.Y > point.Y) != (a.Y > point.Y)) &&
			(point.X < (a.X-b.X)*(point.Y-b.Y)/(a.Y-b.Y)+b.X) {
			inside = !inside
		}
		j = i
	}

	return inside
}

// segmentDistance calculates the distance from p to the segment a-b
func segmentDistance(p, a, b Pixel) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(Pixel{X: a.X + t*dx, Y: a.Y + t*dy})
}

// SegmentInBox reports whether the straight segment p0-p1 touches the box spanned by
// the north-west and south-east corners. Either endpoint inside is enough; otherwise
// the segment is tested against each of the four edges.
func SegmentInBox(p0, p1, nw, se LatLng) bool {
	minLat, maxLat := math.Min(nw.Lat, se.Lat), math.Max(nw.Lat, se.Lat)
	minLng, maxLng := math.Min(nw.Lng, se.Lng), math.Max(nw.Lng, se.Lng)

	in := func(p LatLng) bool {
		return p.Lng >= minLng && p.Lng <= maxLng && p.Lat >= minLat && p.Lat <= maxLat
	}
	if in(p0) || in(p1) {
		return true
	}

	// west/east edges
	for _, lng := range []float64{minLng, maxLng} {
		if (p0.Lng-lng)*(p1.Lng-lng) <= 0 && p0.Lng != p1.Lng {
			t := p0.Lat + (p1.Lat-p0.Lat)*(lng-p0.Lng)/(p1.Lng-p0.Lng)
			if t >= minLat && t <= maxLat {
				return true
			}
		}
	}

	// south/north edges
	for _, lat := range []float64{minLat, maxLat} {
		if (p0.Lat-lat)*(p1.Lat-lat) <= 0 && p0.Lat != p1.Lat {
			t := p0.Lng + (p1.Lng-p0.Lng)*(lat-p0.Lat)/(p1.Lat-p0.Lat)
			if t >= minLng && t <= maxLng {
				return true
			}
		}
	}

	return false
}
