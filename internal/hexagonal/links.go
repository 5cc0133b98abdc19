package hexagonal

import (
	"math"
	"strconv"
	"strings"

	"github.com/jengzang/records-hexbin/internal/spatial"
)

// neighborDistance is the center distance, in cell sizes, up to which two
// cells are joined directly
const neighborDistance = 1.1

// curveSteps is the number of segments a cubic is flattened into
const curveSteps = 12

// routeLinks builds the links of all visible groups and returns how many were emitted
func (e *Engine) routeLinks(nw, se spatial.LatLng) int {
	n := 0
	for _, g := range e.groupOrder {
		if !e.visibility[g] {
			continue
		}
		ps := e.points[g]
		if len(ps) < 2 {
			continue
		}
		for i, p1 := range ps {
			if !p1.Filter || p1.Cell == "" {
				continue
			}
			for _, i0 := range p1.Link {
				if i0 < 0 || i0 >= len(ps) {
					continue
				}
				p0 := ps[i0]
				if !p0.Filter || p0.Cell == "" {
					continue
				}
				if p0.Cell == p1.Cell {
					continue
				}
				if !p0.Visible && !p1.Visible && !spatial.SegmentInBox(p0.LatLng, p1.LatLng, nw, se) {
					continue
				}

				h0, h1 := e.hexagons[p0.Cell], e.hexagons[p1.Cell]
				if h0 == nil || h1 == nil {
					continue
				}
				ref := LinkRef{Group: g, End: i, Start: i0}
				path, poly := e.linkPath(ref, h0, h1)

				style := p1.Style
				if p1.IsMarker() {
					style = p0.Style
				}
				e.links = append(e.links, &Link{
					Group:    g,
					Start:    PointRef{Group: g, Index: i0},
					End:      PointRef{Group: g, Index: i},
					Ref:      ref,
					Path:     path,
					Polyline: poly,
					Style:    style,
					Selected: p1.Selected,
				})
				n++
			}
		}
	}
	return n
}

// linkPath routes a link from the center of h0 to the center of h1. Cells
// crossed on the way are registered so the link can be picked through them.
func (e *Engine) linkPath(ref LinkRef, h0, h1 *Hexagon) (string, []spatial.Pixel) {
	c0, c1 := h0.Center, h1.Center
	join := 1 - e.opts.LinkJoin
	dist := c0.Dist(c1) / e.size

	var mid []spatial.Pixel
	if e.opts.LinkMode != LinkLine && dist >= neighborDistance {
		mid = e.crossedCells(ref, h0.Key, h1.Key, c0, c1, dist)
	}

	var pb pathBuilder
	if len(mid) == 0 {
		m := c0.Lerp(c1, 0.5)
		pb.moveTo(c0.Lerp(m, join))
		pb.lineTo(m)
		pb.lineTo(c1.Lerp(m, join))
		return pb.String(), pb.poly
	}

	a := c0.Lerp(mid[0], join)
	b := c1.Lerp(mid[len(mid)-1], join)
	pts := make([]spatial.Pixel, 0, len(mid)+2)
	pts = append(pts, a)
	pts = append(pts, mid...)
	pts = append(pts, b)

	switch e.opts.LinkMode {
	case LinkSpline:
		pb.spline(pts)
	case LinkCurve:
		pb.moveTo(a)
		pb.cubicTo(mid[0], mid[len(mid)-1], b)
	case LinkAligned:
		pb.polyline(aligned(pts))
	default:
		pb.polyline(pts)
	}
	return pb.String(), pb.poly
}

// crossedCells samples the straight line between two centers and returns the
// centers of the distinct cells it passes, in order, without the end cells
func (e *Engine) crossedCells(ref LinkRef, k0, k1 string, c0, c1 spatial.Pixel, dist float64) []spatial.Pixel {
	d := 1 / math.Ceil(dist)
	seen := map[string]bool{k0: true, k1: true}
	var centers []spatial.Pixel
	for t := d; t < 1-d/2; t += d {
		s := c0.Lerp(c1, t)
		c := e.mapper.Cell(s.X, s.Y, 1)
		if seen[c.Key] {
			continue
		}
		seen[c.Key] = true
		centers = append(centers, c.Center)

		hex := e.hexagon(c, false, true)
		r := ref
		hex.Link = &r
		hex.Links = append(hex.Links, ref)
		if hex.LinkOnly {
			hex.Group = ref.Group
			hex.Groups[ref.Group]++
		}
	}
	return centers
}

// aligned keeps the ends and the first and last crossed cells only
func aligned(pts []spatial.Pixel) []spatial.Pixel {
	if len(pts) <= 4 {
		return pts
	}
	return []spatial.Pixel{pts[0], pts[1], pts[len(pts)-2], pts[len(pts)-1]}
}

// pathBuilder writes an SVG path and keeps a flattened polyline of it for the pick buffer
type pathBuilder struct {
	b    strings.Builder
	poly []spatial.Pixel
}

func (pb *pathBuilder) moveTo(p spatial.Pixel) {
	pb.b.WriteString("M" + num(p.X) + " " + num(p.Y))
	pb.poly = append(pb.poly, p)
}

func (pb *pathBuilder) lineTo(p spatial.Pixel) {
	pb.b.WriteString(" L" + num(p.X) + " " + num(p.Y))
	pb.poly = append(pb.poly, p)
}

func (pb *pathBuilder) cubicTo(c1, c2, p spatial.Pixel) {
	pb.b.WriteString(" C" + num(c1.X) + " " + num(c1.Y) + ", " + num(c2.X) + " " + num(c2.Y) + ", " + num(p.X) + " " + num(p.Y))
	p0 := pb.poly[len(pb.poly)-1]
	for i := 1; i <= curveSteps; i++ {
		t := float64(i) / curveSteps
		u := 1 - t
		pb.poly = append(pb.poly, spatial.Pixel{
			X: u*u*u*p0.X + 3*u*u*t*c1.X + 3*u*t*t*c2.X + t*t*t*p.X,
			Y: u*u*u*p0.Y + 3*u*u*t*c1.Y + 3*u*t*t*c2.Y + t*t*t*p.Y,
		})
	}
}

func (pb *pathBuilder) polyline(pts []spatial.Pixel) {
	pb.moveTo(pts[0])
	for _, p := range pts[1:] {
		pb.lineTo(p)
	}
}

// spline draws a Catmull-Rom spline through pts as cubic segments
func (pb *pathBuilder) spline(pts []spatial.Pixel) {
	pb.moveTo(pts[0])
	for i := 0; i < len(pts)-1; i++ {
		p0 := pts[max(i-1, 0)]
		p1 := pts[i]
		p2 := pts[i+1]
		p3 := pts[min(i+2, len(pts)-1)]
		c1 := spatial.Pixel{X: p1.X + (p2.X-p0.X)/6, Y: p1.Y + (p2.Y-p0.Y)/6}
		c2 := spatial.Pixel{X: p2.X - (p3.X-p1.X)/6, Y: p2.Y - (p3.Y-p1.Y)/6}
		pb.cubicTo(c1, c2, p2)
	}
}

func (pb *pathBuilder) String() string { return pb.b.String() }

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
