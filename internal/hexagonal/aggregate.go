package hexagonal

import (
	"math"

	"github.com/jengzang/records-hexbin/internal/hexgrid"
	"github.com/jengzang/records-hexbin/internal/spatial"
)

// hexagonalize rebuilds cells, links and totals for the current view
func (e *Engine) hexagonalize() {
	view := e.view
	zoom := view.GetZoom()
	w, h := view.Size()
	nw, se := view.Bounds()

	size := e.opts.CellSize(zoom)
	o := view.Project(nw, zoom)
	offset := spatial.Pixel{X: math.Round(o.X), Y: math.Round(o.Y)}
	overhang := size * 2

	e.size = size
	e.mapper = hexgrid.Mapper{
		Size:        size,
		Gap:         e.opts.HexagonGap,
		Offset:      offset,
		Zoom:        zoom,
		Orientation: e.opts.Orientation,
		Locate: func(p spatial.Pixel) spatial.LatLng {
			return view.Unproject(spatial.Pixel{X: p.X + offset.X, Y: p.Y + offset.Y}, zoom)
		},
	}

	e.display = displayState{
		Hexagons:  e.opts.HexagonDisplay.At(zoom),
		Markers:   e.opts.MarkerDisplay.At(zoom),
		Links:     e.opts.LinkDisplay.At(zoom),
		Gutter:    e.opts.GutterDisplay.At(zoom),
		Highlight: e.opts.HighlightDisplay.At(zoom),
		Info:      e.opts.InfoDisplay.At(zoom),
	}

	e.hexagons = make(map[string]*Hexagon)
	e.hexOrder = e.hexOrder[:0]
	e.links = e.links[:0]
	e.gutter = nil

	var (
		tSum        float64
		tMin        = math.Inf(1)
		tMax        = math.Inf(-1)
		tPopulation int
		tCellMax    = 1
		tMarkers    int
	)

	scale := spatial.TileSize * math.Pow(2, float64(zoom))

	// points
	for _, g := range e.groupOrder {
		if !e.visibility[g] {
			continue
		}
		for i, p := range e.points[g] {
			p.Position = spatial.Pixel{
				X: math.Round(p.MXY.X*scale - offset.X),
				Y: math.Round(p.MXY.Y*scale - offset.Y),
			}
			p.Visible = p.Position.X >= -overhang && p.Position.Y >= -overhang &&
				p.Position.X <= float64(w)+overhang && p.Position.Y <= float64(h)+overhang
			p.Filter = e.filters.Passes(p)
			p.Cell = ""

			if !p.Filter {
				continue
			}
			// invisible points only matter as link ends
			if !p.Visible && !e.display.Links {
				continue
			}

			c := e.mapper.Cell(p.Position.X, p.Position.Y, 1)
			p.Cell = c.Key

			d, ok := p.Data[e.opts.ClusterProperty]
			if !ok || math.IsNaN(d) {
				d = e.opts.ClusterDefault
			}

			hex := e.hexagon(c, p.Visible, false)
			ref := PointRef{Group: g, Index: i}
			hex.Point = &ref
			hex.Points = append(hex.Points, ref)
			hex.Selected = max(hex.Selected, p.Selected)
			hex.Group = g
			hex.Groups[g]++
			hex.IDs[p.ID] = true
			hex.Cluster.add(d)
			hex.Style.Fill = p.Style.Fill
			hex.Style.Stroke = p.Style.Stroke
			hex.Style.Scale = p.Style.Scale

			tCellMax = max(tCellMax, hex.Cluster.Population)
			tSum += d
			tMin = math.Min(tMin, d)
			tMax = math.Max(tMax, d)
			tPopulation++
		}
	}

	// markers share the cell keyspace and overwrite the combined style
	if e.display.Markers {
		for _, g := range e.groupOrder {
			if !e.visibility[g] {
				continue
			}
			for i, p := range e.points[g] {
				if !p.IsMarker() || !p.Filter || !p.Visible {
					continue
				}
				c := e.mapper.Cell(p.Position.X, p.Position.Y, p.Style.Scale)
				hex := e.hexagon(c, true, false)
				ref := PointRef{Group: g, Index: i}
				hex.Marker = &ref
				hex.Markers = append(hex.Markers, ref)
				hex.markerCell = c
				hex.Style = p.Style
				hex.Selected = max(hex.Selected, p.Selected)
				hex.Group = g
				hex.Groups[g]++
				tMarkers++
			}
		}
	}

	tLinks := 0
	if e.display.Links {
		tLinks = e.routeLinks(nw, se)
	}

	if e.display.Gutter {
		c0 := e.mapper.Cell(0, 0, 1)
		c1 := e.mapper.Cell(float64(w), float64(h), 1)
		e.gutter = e.mapper.Gutter(c0.X, c0.Y, c1.X, c1.Y, func(key string) bool {
			_, ok := e.hexagons[key]
			return ok
		})
	}

	t := Totals{
		Points:            tPopulation,
		Population:        tPopulation,
		PopulationCellMax: tCellMax,
		Sum:               tSum,
		Hexagons:          len(e.hexagons),
		Markers:           tMarkers,
		Links:             tLinks,
	}
	if tPopulation > 0 {
		t.Avg = tSum / float64(tPopulation)
		t.Min, t.Max = tMin, tMax
		t.Delta = tMax - tMin
	}
	e.totals = t
}

// hexagon returns the cell for c, creating it on first use
func (e *Engine) hexagon(c hexgrid.Cell, visible, linkOnly bool) *Hexagon {
	if hex, ok := e.hexagons[c.Key]; ok {
		return hex
	}
	hex := newHexagon(c, visible)
	hex.LinkOnly = linkOnly
	e.hexagons[c.Key] = hex
	e.hexOrder = append(e.hexOrder, c.Key)
	return hex
}
