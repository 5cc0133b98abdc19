package hexagonal

import (
	"fmt"
	"math"
	"time"

	"github.com/jengzang/records-hexbin/internal/colors"
	"github.com/jengzang/records-hexbin/internal/hexgrid"
)

// LinkMode selects how a link between distant cells is routed
type LinkMode string

const (
	LinkLine      LinkMode = "line"
	LinkSpline    LinkMode = "spline"
	LinkCurve     LinkMode = "curve"
	LinkAligned   LinkMode = "aligned"
	LinkHexagonal LinkMode = "hexagonal"
)

// ClusterMode selects the cell statistic that drives cluster coloring.
// An empty mode keeps the point styles.
type ClusterMode string

const (
	ClusterOff        ClusterMode = ""
	ClusterPopulation ClusterMode = "population"
	ClusterSum        ClusterMode = "sum"
	ClusterAvg        ClusterMode = "avg"
	ClusterMin        ClusterMode = "min"
	ClusterMax        ClusterMode = "max"
)

// SelectionMode selects what a pointer selection expands to
type SelectionMode string

const (
	SelectPoint  SelectionMode = "point"
	SelectPoints SelectionMode = "points"
	SelectGroup  SelectionMode = "group"
	SelectGroups SelectionMode = "groups"
	SelectLinked SelectionMode = "linked"
)

// Display gates a layer, optionally to a zoom range
type Display struct {
	Enabled bool `json:"enabled" yaml:"enabled" koanf:"enabled"`
	MinZoom *int `json:"minZoom,omitempty" yaml:"min_zoom,omitempty" koanf:"min_zoom"`
	MaxZoom *int `json:"maxZoom,omitempty" yaml:"max_zoom,omitempty" koanf:"max_zoom"`
}

// At reports whether the layer is shown at zoom
func (d Display) At(zoom int) bool {
	if !d.Enabled {
		return false
	}
	if d.MinZoom != nil && zoom < *d.MinZoom {
		return false
	}
	if d.MaxZoom != nil && zoom > *d.MaxZoom {
		return false
	}
	return true
}

// Options is the full engine configuration
type Options struct {
	// empty: ungrouped points get an auto-numbered group each
	GroupDefault string `json:"groupDefault" yaml:"group_default" koanf:"group_default"`

	HexagonDisplay Display `json:"hexagonDisplay" yaml:"hexagon_display" koanf:"hexagon_display"`
	// a fixed cell size in pixels; 0 uses SizeFunc
	HexagonSize float64 `json:"hexagonSize" yaml:"hexagon_size" koanf:"hexagon_size"`
	// SizeFunc derives the cell size from the zoom when HexagonSize is 0
	SizeFunc    func(zoom int) float64 `json:"-" yaml:"-" koanf:"-"`
	HexagonGap  float64                `json:"hexagonGap" yaml:"hexagon_gap" koanf:"hexagon_gap"`
	Orientation hexgrid.Orientation    `json:"hexagonOrientation" yaml:"hexagon_orientation" koanf:"hexagon_orientation"`

	FillDefault   string  `json:"fillDefault" yaml:"fill_default" koanf:"fill_default"`
	StrokeDefault string  `json:"strokeDefault" yaml:"stroke_default" koanf:"stroke_default"`
	BorderDefault float64 `json:"borderDefault" yaml:"border_default" koanf:"border_default"`

	MarkerDisplay     Display `json:"markerDisplay" yaml:"marker_display" koanf:"marker_display"`
	MarkerScaler      float64 `json:"markerScaler" yaml:"marker_scaler" koanf:"marker_scaler"`
	MarkerImageScaler float64 `json:"markerImageScaler" yaml:"marker_image_scaler" koanf:"marker_image_scaler"`
	MarkerIconScaler  float64 `json:"markerIconScaler" yaml:"marker_icon_scaler" koanf:"marker_icon_scaler"`
	ThumbFetchSize    int     `json:"thumbFetchSize" yaml:"thumb_fetch_size" koanf:"thumb_fetch_size"`

	LinkDisplay Display `json:"linkDisplay" yaml:"link_display" koanf:"link_display"`
	LinkWidth   float64 `json:"linkWidth" yaml:"link_width" koanf:"link_width"`
	LinkFill    bool    `json:"linkFill" yaml:"link_fill" koanf:"link_fill"`
	// overrides the style/cluster color of filled links
	LinkColor      string   `json:"linkColor,omitempty" yaml:"link_color,omitempty" koanf:"link_color"`
	LinkMode       LinkMode `json:"linkMode" yaml:"link_mode" koanf:"link_mode"`
	LinkJoin       float64  `json:"linkJoin" yaml:"link_join" koanf:"link_join"`
	LinkSelectable bool     `json:"linkSelectable" yaml:"link_selectable" koanf:"link_selectable"`

	GutterDisplay Display `json:"gutterDisplay" yaml:"gutter_display" koanf:"gutter_display"`
	GutterFill    string  `json:"gutterFill,omitempty" yaml:"gutter_fill,omitempty" koanf:"gutter_fill"`
	GutterStroke  string  `json:"gutterStroke" yaml:"gutter_stroke" koanf:"gutter_stroke"`

	ClusterMode     ClusterMode   `json:"clusterMode" yaml:"cluster_mode" koanf:"cluster_mode"`
	ClusterProperty string        `json:"clusterProperty" yaml:"cluster_property" koanf:"cluster_property"`
	ClusterDefault  float64       `json:"clusterDefaultValue" yaml:"cluster_default_value" koanf:"cluster_default_value"`
	ClusterMin      *float64      `json:"clusterMinValue,omitempty" yaml:"cluster_min_value,omitempty" koanf:"cluster_min_value"`
	ClusterMax      *float64      `json:"clusterMaxValue,omitempty" yaml:"cluster_max_value,omitempty" koanf:"cluster_max_value"`
	ClusterScale    colors.Scale  `json:"clusterScale" yaml:"cluster_scale" koanf:"cluster_scale"`
	ClusterColors   []interface{} `json:"clusterColors" yaml:"cluster_colors" koanf:"cluster_colors"`

	SelectionMode      SelectionMode `json:"selectionMode" yaml:"selection_mode" koanf:"selection_mode"`
	SelectionTolerance float64       `json:"selectionTolerance" yaml:"selection_tolerance" koanf:"selection_tolerance"`

	HighlightDisplay     Display `json:"highlightDisplay" yaml:"highlight_display" koanf:"highlight_display"`
	HighlightStrokeColor string  `json:"highlightStrokeColor" yaml:"highlight_stroke_color" koanf:"highlight_stroke_color"`
	HighlightStrokeWidth float64 `json:"highlightStrokeWidth" yaml:"highlight_stroke_width" koanf:"highlight_stroke_width"`

	InfoDisplay Display `json:"infoDisplay" yaml:"info_display" koanf:"info_display"`

	// trailing debounce of Refresh; negative disables scheduled redraws
	RefreshDelay time.Duration `json:"refreshDelay" yaml:"refresh_delay" koanf:"refresh_delay"`
}

// DefaultSize is the default zoom-dependent cell size
func DefaultSize(zoom int) float64 {
	return math.Max(16, math.Pow(2, float64(zoom-6)))
}

// DefaultOptions returns the stock configuration
func DefaultOptions() Options {
	on := Display{Enabled: true}
	return Options{
		GroupDefault:   "_group",
		HexagonDisplay: on,
		SizeFunc:       DefaultSize,
		Orientation:    hexgrid.FlatTop,

		FillDefault:   "#fd1",
		StrokeDefault: "#303234",
		BorderDefault: 1.5,

		MarkerDisplay:     on,
		MarkerScaler:      1,
		MarkerImageScaler: 1.15,
		MarkerIconScaler:  0.65,
		ThumbFetchSize:    64,

		LinkDisplay:    on,
		LinkWidth:      2,
		LinkFill:       true,
		LinkMode:       LinkSpline,
		LinkJoin:       1,
		LinkSelectable: true,

		GutterStroke: "#202224",

		ClusterScale:  colors.Log,
		ClusterColors: []interface{}{"#4d4", "#dd4", "#d44", "#800"},

		SelectionMode:      SelectGroup,
		SelectionTolerance: 4,

		HighlightDisplay:     on,
		HighlightStrokeColor: "rgba(255,255,255)",
		HighlightStrokeWidth: 2,

		InfoDisplay: on,

		RefreshDelay: 100 * time.Millisecond,
	}
}

// CellSize returns the cell size at zoom
func (o Options) CellSize(zoom int) float64 {
	if o.HexagonSize > 0 {
		return o.HexagonSize
	}
	if o.SizeFunc != nil {
		if s := o.SizeFunc(zoom); s > 0 {
			return s
		}
	}
	return 16
}

// Validate checks the options once before an engine uses them
func (o *Options) Validate() error {
	if o.Orientation == "" {
		o.Orientation = hexgrid.FlatTop
	}
	if !o.Orientation.Valid() {
		return fmt.Errorf("invalid hexagon orientation %q", o.Orientation)
	}
	if o.HexagonSize < 0 {
		return fmt.Errorf("hexagon size must be non-negative")
	}
	if o.HexagonGap < 0 {
		return fmt.Errorf("hexagon gap must be non-negative")
	}
	if o.HexagonSize > 0 && o.HexagonGap >= o.HexagonSize {
		return fmt.Errorf("hexagon gap %v must be smaller than the size %v", o.HexagonGap, o.HexagonSize)
	}

	switch o.LinkMode {
	case "":
		o.LinkMode = LinkSpline
	case LinkLine, LinkSpline, LinkCurve, LinkAligned, LinkHexagonal:
	default:
		return fmt.Errorf("invalid link mode %q", o.LinkMode)
	}
	if o.LinkJoin < 0 || o.LinkJoin > 1 {
		return fmt.Errorf("link join must be within 0..1, got %v", o.LinkJoin)
	}

	if !validClusterMode(o.ClusterMode) {
		return fmt.Errorf("invalid cluster mode %q", o.ClusterMode)
	}
	o.ClusterScale = colors.ParseScale(string(o.ClusterScale))

	switch o.SelectionMode {
	case "":
		o.SelectionMode = SelectGroup
	case SelectPoint, SelectPoints, SelectGroup, SelectGroups, SelectLinked:
	default:
		return fmt.Errorf("invalid selection mode %q", o.SelectionMode)
	}

	if o.MarkerScaler <= 0 {
		o.MarkerScaler = 1
	}
	if o.ThumbFetchSize <= 0 {
		o.ThumbFetchSize = 64
	}
	if o.SelectionTolerance < 0 {
		return fmt.Errorf("selection tolerance must be non-negative")
	}
	return nil
}

func validClusterMode(m ClusterMode) bool {
	switch m {
	case ClusterOff, ClusterPopulation, ClusterSum, ClusterAvg, ClusterMin, ClusterMax:
		return true
	}
	return false
}
