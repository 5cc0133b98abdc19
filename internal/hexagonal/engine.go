// Package hexagonal bins geolocated points into a hexagonal grid over a map view.
//
// An Engine owns the points, grouped and ordered. Every redraw rebuilds the
// cells, the links between linked points, the styled frame and the pick buffer
// used to resolve pointer hits. Mutations schedule a debounced redraw.
package hexagonal

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/jengzang/records-hexbin/internal/colors"
	"github.com/jengzang/records-hexbin/internal/filter"
	"github.com/jengzang/records-hexbin/internal/hexgrid"
	"github.com/jengzang/records-hexbin/internal/hittest"
	"github.com/jengzang/records-hexbin/internal/metrics"
	"github.com/jengzang/records-hexbin/internal/spatial"
	"github.com/jengzang/records-hexbin/internal/thumbs"
)

// Engine is the binning engine. All methods are safe for concurrent use; each
// one runs to completion before the next starts.
type Engine struct {
	mu   sync.Mutex
	opts Options
	view Map

	// groups
	points     map[string][]*Point
	groupOrder []string
	visibility map[string]bool
	groupStyle map[string]GroupStyle
	groupName  map[string]string
	incID      int
	incGroup   int

	filters *filter.Engine
	ramp    colors.Ramp
	thumbs  *thumbs.Cache

	// rebuilt every redraw
	mapper    hexgrid.Mapper
	size      float64
	hexagons  map[string]*Hexagon
	hexOrder  []string
	links     []*Link
	gutter    []hexgrid.Cell
	display   displayState
	totals    Totals
	registry  hittest.Registry
	pick      *hittest.PickBuffer
	frame     *Frame
	selection Selection

	// watermark sequence
	seq uint64

	timer  *time.Timer
	onDraw func(*Frame)
}

type displayState struct {
	Hexagons  bool `json:"hexagons"`
	Markers   bool `json:"markers"`
	Links     bool `json:"links"`
	Gutter    bool `json:"gutter"`
	Highlight bool `json:"highlight"`
	Info      bool `json:"info"`
}

// New creates an engine drawing over view
func New(view Map, opts Options) (*Engine, error) {
	if view == nil {
		return nil, fmt.Errorf("map is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	e := &Engine{
		opts:       opts,
		view:       view,
		points:     make(map[string][]*Point),
		visibility: make(map[string]bool),
		groupStyle: make(map[string]GroupStyle),
		groupName:  make(map[string]string),
		filters:    filter.New(),
		hexagons:   make(map[string]*Hexagon),
		pick:       hittest.NewPickBuffer(0, 0),
	}
	e.ramp = colors.NewRamp(opts.ClusterColors, opts.ClusterScale)
	e.thumbs = thumbs.New(opts.ThumbFetchSize, e.Refresh)
	e.selection = Selection{Mode: opts.SelectionMode, Selected: []PointRef{}, Highlighted: []Highlight{}}
	return e, nil
}

// Options returns a copy of the current options
func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// SetView replaces the host map, e.g. after a pan or zoom, and schedules a redraw
func (e *Engine) SetView(view Map) {
	if view == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view = view
	e.refreshLocked()
}

// OnDraw registers a callback receiving every frame produced by a redraw
func (e *Engine) OnDraw(fn func(*Frame)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onDraw = fn
}

// Thumbs exposes the marker thumbnail cache
func (e *Engine) Thumbs() *thumbs.Cache { return e.thumbs }

// Refresh schedules a redraw. Calls within the refresh delay collapse into one.
func (e *Engine) Refresh() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshLocked()
}

func (e *Engine) refreshLocked() {
	if e.opts.RefreshDelay < 0 {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.opts.RefreshDelay, func() {
		e.Redraw()
	})
}

// Redraw runs the full pipeline synchronously and returns the new frame
func (e *Engine) Redraw() *Frame {
	e.mu.Lock()
	start := time.Now()
	e.hexagonalize()
	e.totals.HexTime = ms(time.Since(start))
	f := e.draw()
	e.totals.DrawTime = ms(time.Since(start))
	f.Totals = e.totals
	e.frame = f
	fn := e.onDraw
	e.mu.Unlock()

	metrics.ObserveRedraw(time.Since(start), f.Totals.Hexagons, f.Totals.Links)
	if fn != nil {
		fn(f)
	}
	return f
}

// Frame returns the last drawn frame, drawing one if none exists yet
func (e *Engine) Frame() *Frame {
	e.mu.Lock()
	f := e.frame
	e.mu.Unlock()
	if f == nil {
		return e.Redraw()
	}
	return f
}

// Totals returns the statistics of the last draw pass
func (e *Engine) Totals() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totals
}

// PickBuffer returns the pick raster of the last draw pass
func (e *Engine) PickBuffer() *hittest.PickBuffer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pick
}

// Point returns a copy of the point at ref
func (e *Engine) Point(ref PointRef) (Point, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.point(ref.Group, ref.Index)
	if p == nil {
		return Point{}, false
	}
	return *p, true
}

// Points returns copies of the points of a group
func (e *Engine) Points(group string) []Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	ps := e.points[group]
	out := make([]Point, len(ps))
	for i, p := range ps {
		out[i] = *p
	}
	return out
}

// Hexagon returns the cell of the last draw pass under a coordinate
func (e *Engine) Hexagon(ll spatial.LatLng) (*Hexagon, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := e.hexagonAt(ll)
	return h, h != nil
}

func (e *Engine) hexagonAt(ll spatial.LatLng) *Hexagon {
	if e.size == 0 {
		return nil
	}
	zoom := e.view.GetZoom()
	p := e.view.Project(ll, zoom)
	// points are binned at their rounded pixel position
	c := e.mapper.Cell(math.Round(p.X-e.mapper.Offset.X), math.Round(p.Y-e.mapper.Offset.Y), 1)
	return e.hexagons[c.Key]
}

func (e *Engine) point(group string, i int) *Point {
	ps := e.points[group]
	if i < 0 || i >= len(ps) {
		return nil
	}
	return ps[i]
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func warnf(format string, args ...interface{}) {
	log.Printf("[Hexagonal] warning: "+format, args...)
}
