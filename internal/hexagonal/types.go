package hexagonal

import (
	"encoding/json"

	"github.com/jengzang/records-hexbin/internal/hexgrid"
	"github.com/jengzang/records-hexbin/internal/spatial"
)

// Meta is the free-form metadata submitted with a point
type Meta map[string]interface{}

// clone returns a shallow copy so batch helpers can change keys safely
func (m Meta) clone() Meta {
	out := make(Meta, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MarkerType tells how a point is drawn
type MarkerType string

const (
	TypePoint MarkerType = "point"
	TypeImage MarkerType = "image"
	TypeIcon  MarkerType = "icon"
)

// Style is a visual override. Empty strings fall back to the group style and
// then to the defaults.
type Style struct {
	Fill   string  `json:"fill,omitempty"`
	Stroke string  `json:"stroke,omitempty"`
	Scale  float64 `json:"scale"`
	Thumb  string  `json:"thumb,omitempty"`
}

// Point is one ingested location
type Point struct {
	ID     string             `json:"id"`
	Group  string             `json:"group"`
	Name   string             `json:"name"`
	Tags   string             `json:"tags"`
	LatLng spatial.LatLng     `json:"latlng"`
	MXY    spatial.Pixel      `json:"mxy"`
	Data   map[string]float64 `json:"data"`
	Link   []int              `json:"link"`
	Dist   float64            `json:"dist"`
	Time   float64            `json:"time"`
	Span   float64            `json:"span"`
	Marker string             `json:"marker,omitempty"`
	Type   MarkerType         `json:"type"`
	Style  Style              `json:"style"`

	// watermark of the last selection that included the point, 0 = never
	Selected uint64 `json:"selected"`

	// recomputed every redraw
	Position spatial.Pixel `json:"position"`
	Visible  bool          `json:"visible"`
	Filter   bool          `json:"filter"`
	Cell     string        `json:"cell,omitempty"`
}

// Number implements filter.Subject
func (p *Point) Number(property string) (float64, bool) {
	v, ok := p.Data[property]
	return v, ok
}

// Text implements filter.Subject
func (p *Point) Text(property string) (string, bool) {
	switch property {
	case "name":
		return p.Name, true
	case "tags":
		return p.Tags, true
	case "group":
		return p.Group, true
	case "id":
		return p.ID, true
	}
	return "", false
}

// IsMarker reports whether the point carries an image or icon
func (p *Point) IsMarker() bool { return p.Marker != "" }

// PointRef addresses a point by group and index
type PointRef struct {
	Group string
	Index int
}

// MarshalJSON renders [group, index]
func (r PointRef) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{r.Group, r.Index})
}

// LinkRef addresses a link by group, end point and start point
type LinkRef struct {
	Group string
	End   int
	Start int
}

// MarshalJSON renders [group, end, start]
func (r LinkRef) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{r.Group, r.End, r.Start})
}

// Cluster holds the folded statistics of a cell
type Cluster struct {
	Population int     `json:"population"`
	Sum        float64 `json:"sum"`
	Avg        float64 `json:"avg"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
}

// add folds one value in; min and max are seeded by the first value
func (c *Cluster) add(v float64) {
	if c.Population == 0 {
		c.Min, c.Max = v, v
	}
	c.Population++
	c.Sum += v
	c.Avg = c.Sum / float64(c.Population)
	if v < c.Min {
		c.Min = v
	}
	if v > c.Max {
		c.Max = v
	}
}

// Hexagon is one populated cell of the current draw pass
type Hexagon struct {
	hexgrid.Cell

	Point   *PointRef       `json:"point,omitempty"`
	Points  []PointRef      `json:"points"`
	Group   string          `json:"group"`
	Groups  map[string]int  `json:"groups"`
	IDs     map[string]bool `json:"ids"`
	Marker  *PointRef       `json:"marker,omitempty"`
	Markers []PointRef      `json:"markers"`

	Link     *LinkRef  `json:"link,omitempty"`
	Links    []LinkRef `json:"links"`
	LinkOnly bool      `json:"linkOnly"`

	Cluster  Cluster `json:"cluster"`
	Style    Style   `json:"style"`
	Visible  bool    `json:"visible"`
	Selected uint64  `json:"selected"`

	// outline of the last marker, drawn at the marker's scale
	markerCell hexgrid.Cell
}

func newHexagon(c hexgrid.Cell, visible bool) *Hexagon {
	return &Hexagon{
		Cell:    c,
		Groups:  make(map[string]int),
		IDs:     make(map[string]bool),
		Style:   Style{Scale: 1},
		Visible: visible,
	}
}

// Link is a routed connection between a point and one of its predecessors
type Link struct {
	Group    string          `json:"group"`
	Start    PointRef        `json:"start"`
	End      PointRef        `json:"end"`
	Ref      LinkRef         `json:"link"`
	Path     string          `json:"path"`
	Polyline []spatial.Pixel `json:"-"`
	Style    Style           `json:"style"`
	Selected uint64          `json:"selected"`
}

// Totals summarize the last draw pass
type Totals struct {
	Points            int     `json:"points"`
	Population        int     `json:"population"`
	PopulationCellMax int     `json:"populationCellMax"`
	Sum               float64 `json:"sum"`
	Avg               float64 `json:"avg"`
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	Delta             float64 `json:"delta"`
	Hexagons          int     `json:"hexagons"`
	Markers           int     `json:"markers"`
	Links             int     `json:"links"`
	HexagonsDrawn     int     `json:"hexagonsDrawn"`
	MarkersDrawn      int     `json:"markersDrawn"`
	LinksDrawn        int     `json:"linksDrawn"`
	// milliseconds
	HexTime  float64 `json:"hexTime"`
	DrawTime float64 `json:"drawTime"`
}

// Target is the location a pointer selection resolved to, interpolated
// along the clicked link when a link was hit
type Target struct {
	LatLng spatial.LatLng `json:"latlng"`
	Point  PointRef       `json:"point"`
	Link   []PointRef     `json:"link,omitempty"`
	Dist   float64        `json:"dist"`
	Time   float64        `json:"time"`
	Span   float64        `json:"span"`
}

// Highlight is one drawable highlighted in the last draw pass
type Highlight struct {
	Point  *PointRef `json:"point,omitempty"`
	Marker *PointRef `json:"marker,omitempty"`
	Link   *LinkRef  `json:"link,omitempty"`
}

// Selection is the result of one selection call
type Selection struct {
	Type        string        `json:"type"`
	Mode        SelectionMode `json:"mode"`
	Timestamp   uint64        `json:"ts"`
	Selected    []PointRef    `json:"selected"`
	Highlighted []Highlight   `json:"highlighted"`
	Target      *Target       `json:"target,omitempty"`
}

// Selector is a selection request. Groups take precedence over IDs, which take
// precedence over LatLng.
type Selector struct {
	LatLng *spatial.LatLng `json:"latlng,omitempty"`
	Groups []string        `json:"groups,omitempty"`
	IDs    []string        `json:"ids,omitempty"`
}

// GroupStyle overrides fill and stroke for a whole group
type GroupStyle struct {
	Fill   string `json:"fill,omitempty"`
	Stroke string `json:"stroke,omitempty"`
}

// GroupInfo describes a group
type GroupInfo struct {
	Group   string     `json:"group"`
	Name    string     `json:"name"`
	Visible bool       `json:"visible"`
	Points  int        `json:"points"`
	Markers int        `json:"markers"`
	Style   GroupStyle `json:"style"`
}

// Map is the host map the engine draws over
type Map interface {
	GetZoom() int
	// Size returns the drawing surface in pixels
	Size() (int, int)
	// Bounds returns the north-west and south-east corners of the view
	Bounds() (nw, se spatial.LatLng)
	Project(ll spatial.LatLng, zoom int) spatial.Pixel
	Unproject(p spatial.Pixel, zoom int) spatial.LatLng
}
