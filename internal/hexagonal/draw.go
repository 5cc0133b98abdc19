package hexagonal

import (
	"github.com/jengzang/records-hexbin/internal/hexgrid"
	"github.com/jengzang/records-hexbin/internal/hittest"
	"github.com/jengzang/records-hexbin/internal/spatial"
)

// Shape kinds
const (
	ShapeGutter  = "gutter"
	ShapeLink    = "link"
	ShapeHexagon = "hexagon"
	ShapeMarker  = "marker"
)

// Shape is one styled drawable of a frame
type Shape struct {
	Kind string `json:"kind"`
	// pick id, -1 when the shape is not pickable
	ID          int           `json:"id"`
	Key         string        `json:"key,omitempty"`
	Path        string        `json:"path"`
	Center      spatial.Pixel `json:"center"`
	Fill        string        `json:"fill"`
	Stroke      string        `json:"stroke"`
	StrokeWidth float64       `json:"strokeWidth"`
	Highlighted bool          `json:"highlighted,omitempty"`

	// markers only
	Type      MarkerType `json:"type,omitempty"`
	Thumb     string     `json:"thumb,omitempty"`
	ThumbSize float64    `json:"thumbSize,omitempty"`
}

// Frame is the output of one redraw, in paint order: gutter, links, hexagons, markers
type Frame struct {
	Zoom      int          `json:"zoom"`
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Size      float64      `json:"size"`
	Display   displayState `json:"display"`
	Gutter    []Shape      `json:"gutter"`
	Links     []Shape      `json:"links"`
	Hexagons  []Shape      `json:"hexagons"`
	Markers   []Shape      `json:"markers"`
	Totals    Totals       `json:"totals"`
	Selection Selection    `json:"selection"`
}

// Shapes returns all shapes in paint order
func (f *Frame) Shapes() []Shape {
	out := make([]Shape, 0, len(f.Gutter)+len(f.Links)+len(f.Hexagons)+len(f.Markers))
	out = append(out, f.Gutter...)
	out = append(out, f.Links...)
	out = append(out, f.Hexagons...)
	return append(out, f.Markers...)
}

// draw styles the cells and links of the last hexagonalize pass and paints
// the pick buffer. Ids are registered in paint order.
func (e *Engine) draw() *Frame {
	w, h := e.view.Size()
	e.registry.Reset()
	e.pick = hittest.NewPickBuffer(w, h)
	e.selection.Highlighted = []Highlight{}

	f := &Frame{
		Zoom:     e.view.GetZoom(),
		Width:    w,
		Height:   h,
		Size:     e.size,
		Display:  e.display,
		Gutter:   []Shape{},
		Links:    []Shape{},
		Hexagons: []Shape{},
		Markers:  []Shape{},
	}

	var ts uint64
	if e.display.Highlight {
		ts = e.selection.Timestamp
	}
	highlighted := func(selected uint64) bool {
		return ts > 0 && selected >= ts
	}

	for _, c := range e.gutter {
		f.Gutter = append(f.Gutter, Shape{
			Kind:        ShapeGutter,
			ID:          -1,
			Key:         c.Key,
			Path:        c.Path(),
			Center:      c.Center,
			Fill:        e.opts.GutterFill,
			Stroke:      e.opts.GutterStroke,
			StrokeWidth: e.opts.BorderDefault,
		})
	}

	if e.display.Links {
		for _, l := range e.links {
			s := e.drawLink(l)
			if highlighted(l.Selected) && e.selection.Mode != SelectPoints {
				ref := l.Ref
				s.Highlighted = true
				s.Stroke = e.opts.HighlightStrokeColor
				e.selection.Highlighted = append(e.selection.Highlighted, Highlight{Link: &ref})
			}
			f.Links = append(f.Links, s)
		}
	}

	if e.display.Hexagons {
		for _, key := range e.hexOrder {
			hex := e.hexagons[key]
			if hex.LinkOnly || hex.Point == nil || !hex.Visible {
				continue
			}
			// the marker replaces the hexagon of its cell
			if e.display.Markers && hex.Marker != nil {
				continue
			}
			s := e.drawHexagon(hex)
			if highlighted(hex.Selected) {
				ref := *hex.Point
				s.Highlighted = true
				s.Stroke = e.opts.HighlightStrokeColor
				s.StrokeWidth = e.opts.HighlightStrokeWidth
				e.selection.Highlighted = append(e.selection.Highlighted, Highlight{Point: &ref})
			}
			f.Hexagons = append(f.Hexagons, s)
		}
	}

	if e.display.Markers {
		for _, key := range e.hexOrder {
			hex := e.hexagons[key]
			if hex.Marker == nil {
				continue
			}
			p := e.point(hex.Marker.Group, hex.Marker.Index)
			if p == nil {
				continue
			}
			s := e.drawMarker(hex, p)
			if highlighted(p.Selected) {
				ref := *hex.Marker
				s.Highlighted = true
				s.Stroke = e.opts.HighlightStrokeColor
				s.StrokeWidth = e.opts.HighlightStrokeWidth
				e.selection.Highlighted = append(e.selection.Highlighted, Highlight{Marker: &ref})
			}
			f.Markers = append(f.Markers, s)
		}
	}

	e.totals.LinksDrawn = len(f.Links)
	e.totals.HexagonsDrawn = len(f.Hexagons)
	e.totals.MarkersDrawn = len(f.Markers)

	f.Selection = e.selection
	return f
}

func (e *Engine) drawLink(l *Link) Shape {
	gs := e.groupStyle[l.Group]
	color := first(l.Style.Fill, gs.Fill, e.opts.FillDefault)
	if !e.opts.LinkFill {
		color = first(l.Style.Stroke, gs.Stroke, e.opts.StrokeDefault)
	}
	if c, ok := e.linkCluster(l); ok {
		color = c
	}
	if e.opts.LinkColor != "" {
		color = e.opts.LinkColor
	}

	id := -1
	if e.opts.LinkSelectable {
		id = e.registry.Register(hittest.Ref{
			Kind:  hittest.KindLink,
			Group: l.Group,
			Index: l.Ref.End,
			Pred:  l.Ref.Start,
		})
		width := e.opts.LinkWidth + e.opts.BorderDefault*2 + e.opts.SelectionTolerance
		e.pick.StrokePolyline(l.Polyline, width, id)
	}
	return Shape{
		Kind:        ShapeLink,
		ID:          id,
		Path:        l.Path,
		Fill:        "none",
		Stroke:      color,
		StrokeWidth: e.opts.LinkWidth,
	}
}

// linkCluster colors a link by the cell of its start point, falling back to its end
func (e *Engine) linkCluster(l *Link) (string, bool) {
	if e.opts.ClusterMode == ClusterOff {
		return "", false
	}
	for _, ref := range []PointRef{l.Start, l.End} {
		p := e.point(ref.Group, ref.Index)
		if p == nil {
			continue
		}
		if hex, ok := e.hexagons[p.Cell]; ok {
			return e.clusterColor(hex.Cluster)
		}
	}
	return "", false
}

func (e *Engine) drawHexagon(hex *Hexagon) Shape {
	gs := e.groupStyle[hex.Group]
	fill := first(hex.Style.Fill, gs.Fill, e.opts.FillDefault)
	if c, ok := e.clusterColor(hex.Cluster); ok {
		fill = c
	}

	id := e.registry.Register(hittest.Ref{
		Kind:  hittest.KindPoint,
		Group: hex.Point.Group,
		Index: hex.Point.Index,
	})
	paintCell(e.pick, hex.Cell, id)

	return Shape{
		Kind:        ShapeHexagon,
		ID:          id,
		Key:         hex.Key,
		Path:        hex.Path(),
		Center:      hex.Center,
		Fill:        fill,
		Stroke:      first(hex.Style.Stroke, gs.Stroke, e.opts.StrokeDefault),
		StrokeWidth: e.opts.BorderDefault,
	}
}

func (e *Engine) drawMarker(hex *Hexagon, p *Point) Shape {
	gs := e.groupStyle[p.Group]
	stroke := first(p.Style.Stroke, gs.Stroke, e.opts.StrokeDefault)
	if c, ok := e.clusterColor(hex.Cluster); ok && hex.Point != nil {
		stroke = c
	}

	scaler := e.opts.MarkerImageScaler
	if p.Type == TypeIcon {
		scaler = e.opts.MarkerIconScaler
	}
	scale := p.Style.Scale
	if scale <= 0 {
		scale = 1
	}

	id := e.registry.Register(hittest.Ref{
		Kind:  hittest.KindMarker,
		Group: hex.Marker.Group,
		Index: hex.Marker.Index,
	})
	paintCell(e.pick, hex.markerCell, id)

	return Shape{
		Kind:        ShapeMarker,
		ID:          id,
		Key:         hex.Key,
		Path:        hex.markerCell.Path(),
		Center:      hex.markerCell.Center,
		Fill:        first(p.Style.Fill, gs.Fill, e.opts.FillDefault),
		Stroke:      stroke,
		StrokeWidth: e.opts.BorderDefault,
		Type:        p.Type,
		Thumb:       p.Style.Thumb,
		ThumbSize:   (e.size - e.opts.HexagonGap) * scale * scaler,
	}
}

// clusterColor returns the ramp color of a cell for the active cluster mode
func (e *Engine) clusterColor(c Cluster) (string, bool) {
	var v, lo, hi float64
	switch e.opts.ClusterMode {
	case ClusterPopulation:
		return e.ramp.At(float64(c.Population), 1, float64(e.totals.PopulationCellMax)).String(), true
	case ClusterSum:
		v = c.Sum
	case ClusterAvg:
		v = c.Avg
	case ClusterMin:
		v = c.Min
	case ClusterMax:
		v = c.Max
	default:
		return "", false
	}
	lo, hi = e.totals.Min, e.totals.Max
	if e.opts.ClusterMin != nil {
		lo = *e.opts.ClusterMin
	}
	if e.opts.ClusterMax != nil {
		hi = *e.opts.ClusterMax
	}
	return e.ramp.At(v, lo, hi).String(), true
}

func paintCell(b *hittest.PickBuffer, c hexgrid.Cell, id int) {
	if c.Orientation == hexgrid.Circle {
		b.FillCircle(c.Center, c.Radius, id)
		return
	}
	b.FillPolygon(c.Outline, id)
}

// first returns the first non-empty value
func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
