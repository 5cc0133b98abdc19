package hexagonal

import (
	"fmt"
	"math"

	"github.com/jengzang/records-hexbin/internal/hittest"
	"github.com/jengzang/records-hexbin/internal/spatial"
)

// SetSelection resolves sel, marks the selected points with a new watermark
// and schedules a redraw. Highlights are filled in by the next draw pass.
// Selecting by groups or ids switches the selection mode to groups or points.
func (e *Engine) SetSelection(sel Selector) Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.resolveSelection(sel)
	e.selection = s
	e.refreshLocked()
	return s
}

// ClearSelection replaces the selection with an empty one
func (e *Engine) ClearSelection() Selection {
	return e.SetSelection(Selector{})
}

// Selection returns the active selection as of the last draw pass
func (e *Engine) Selection() Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection
}

func (e *Engine) resolveSelection(sel Selector) Selection {
	e.seq++
	s := Selection{
		Mode:        e.opts.SelectionMode,
		Timestamp:   e.seq,
		Selected:    []PointRef{},
		Highlighted: []Highlight{},
	}

	switch {
	case len(sel.Groups) > 0:
		e.opts.SelectionMode = SelectGroups
		s.Type = "groups"
		s.Mode = SelectGroups
		for _, g := range sel.Groups {
			e.selectGroup(&s, g)
		}

	case len(sel.IDs) > 0:
		e.opts.SelectionMode = SelectPoints
		s.Type = "ids"
		s.Mode = SelectPoints
		ids := make(map[string]bool, len(sel.IDs))
		for _, id := range sel.IDs {
			ids[id] = true
		}
		for _, g := range e.groupOrder {
			for i, p := range e.points[g] {
				if ids[p.ID] {
					e.mark(&s, g, i)
				}
			}
		}

	case sel.LatLng != nil:
		s.Type = "latlng"
		e.selectAt(&s, *sel.LatLng)
	}
	return s
}

// selectAt resolves a pointer hit through the pick buffer of the last draw pass
func (e *Engine) selectAt(s *Selection, ll spatial.LatLng) {
	ref, ok := e.pickAt(ll)
	if !ok {
		return
	}
	g := ref.Group
	point0 := e.point(g, ref.Index)
	if point0 == nil {
		return
	}
	var point1 *Point
	if ref.IsLink() {
		point1 = e.point(g, ref.Pred)
	}
	head := e.points[g][0]
	hex := e.hexagons[point0.Cell]
	if hex == nil {
		hex = e.hexagonAt(point0.LatLng)
	}

	if point1 != nil {
		dist1S := spatial.Distance(point1.LatLng, ll)
		q := dist1S / (spatial.Distance(point1.LatLng, point0.LatLng) + 0.1)
		t := point1.Time*(1-q) + point0.Time*q
		if math.IsNaN(t) {
			t = 0
		}
		s.Target = &Target{
			LatLng: ll,
			Point:  PointRef{Group: g, Index: ref.Index},
			Link:   []PointRef{{Group: g, Index: ref.Pred}, {Group: g, Index: ref.Index}},
			Dist:   point1.Dist + dist1S,
			Time:   t,
			Span:   t - head.Time,
		}
	} else {
		target := point0.LatLng
		if hex != nil {
			target = hex.LatLng
		}
		s.Target = &Target{
			LatLng: target,
			Point:  PointRef{Group: g, Index: ref.Index},
			Dist:   point0.Dist,
			Time:   point0.Time,
			Span:   point0.Span,
		}
	}

	switch s.Mode {
	case SelectPoint:
		e.mark(s, g, ref.Index)
		if point1 != nil {
			e.mark(s, g, ref.Pred)
		}
	case SelectPoints:
		if hex == nil {
			return
		}
		for _, r := range hex.Points {
			e.mark(s, r.Group, r.Index)
		}
	case SelectGroup:
		e.selectGroup(s, g)
	case SelectGroups:
		if hex == nil {
			return
		}
		for _, og := range e.groupOrder {
			if hex.Groups[og] > 0 {
				e.selectGroup(s, og)
			}
		}
	case SelectLinked:
		for _, i := range walkLinks(e.points[g], ref.Index) {
			e.mark(s, g, i)
		}
	}
}

// pickAt reads the pick buffer under a coordinate
func (e *Engine) pickAt(ll spatial.LatLng) (hittest.Ref, bool) {
	if e.size == 0 || e.pick == nil {
		return hittest.Ref{}, false
	}
	p := e.view.Project(ll, e.view.GetZoom())
	x := int(math.Floor(p.X - e.mapper.Offset.X))
	y := int(math.Floor(p.Y - e.mapper.Offset.Y))
	id, ok := e.pick.Pick(x, y)
	if !ok {
		return hittest.Ref{}, false
	}
	return e.registry.Lookup(id)
}

func (e *Engine) selectGroup(s *Selection, g string) {
	for i := range e.points[g] {
		e.mark(s, g, i)
	}
}

func (e *Engine) mark(s *Selection, g string, i int) {
	p := e.point(g, i)
	if p == nil {
		return
	}
	p.Selected = s.Timestamp
	s.Selected = append(s.Selected, PointRef{Group: g, Index: i})
}

// walkLinks collects start and every point reachable through predecessor
// links. Each edge is followed once, so cycles terminate.
func walkLinks(ps []*Point, start int) []int {
	if start < 0 || start >= len(ps) {
		return nil
	}
	var out []int
	seen := make(map[int]bool)
	edges := make(map[string]bool)
	stack := []int{start}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if i < 0 || i >= len(ps) {
			continue
		}
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
		links := ps[i].Link
		for k := len(links) - 1; k >= 0; k-- {
			edge := fmt.Sprintf("%d_%d", i, links[k])
			if edges[edge] {
				continue
			}
			edges[edge] = true
			stack = append(stack, links[k])
		}
	}
	return out
}
