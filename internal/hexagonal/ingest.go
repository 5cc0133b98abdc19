package hexagonal

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/spf13/cast"

	"github.com/jengzang/records-hexbin/internal/metrics"
	"github.com/jengzang/records-hexbin/internal/spatial"
)

// AddPoint adds one point. latlng may be a spatial.LatLng, an orb.Point, a
// {lat, lng|lon} map or a [lng, lat] pair; anything else becomes a null-island
// point with a warning. It returns the number of points added.
func (e *Engine) AddPoint(latlng interface{}, meta Meta) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.addPoint(latlng, meta)
	e.refreshLocked()
	return n
}

// AddLine adds points that share meta, all in one group and each linked to its predecessor
func (e *Engine) AddLine(latlngs interface{}, meta Meta) int {
	return e.addBatch("AddLine", latlngs, meta, true)
}

// AddPoints adds points that share meta, all in one group and unlinked
func (e *Engine) AddPoints(latlngs interface{}, meta Meta) int {
	return e.addBatch("AddPoints", latlngs, meta, false)
}

func (e *Engine) addBatch(op string, latlngs interface{}, meta Meta, link bool) int {
	list, ok := toList(latlngs)
	if !ok {
		warnf("%s: parameter must be a list, got %T", op, latlngs)
		return 0
	}
	if len(list) == 0 {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	m := meta.clone()
	m[prop(m, "groupProperty", "group")] = e.resolveGroup(m)
	m[prop(m, "linkProperty", "link")] = link

	c := 0
	for _, ll := range list {
		c += e.addPoint(ll, m)
	}
	e.refreshLocked()
	return c
}

func (e *Engine) addPoint(latlng interface{}, meta Meta) int {
	if meta == nil {
		meta = Meta{}
	}
	ll := validLatLng(latlng)
	group := e.resolveGroup(meta)
	link := e.resolveLink(meta, group)
	marker, kind := resolveMarker(meta)

	p := &Point{
		ID:     e.resolveID(meta),
		Group:  group,
		Name:   resolveName(meta),
		Tags:   resolveTags(meta),
		LatLng: ll,
		MXY:    spatial.MXY(ll),
		Data:   resolveData(meta),
		Link:   link,
		Marker: marker,
		Type:   kind,
		Style:  e.resolveStyle(meta, marker != ""),
	}
	p.Dist = e.resolveDist(meta, ll, group, link)
	p.Time, p.Span = e.resolveTime(meta, group)

	if p.Marker != "" {
		if id := e.thumbs.Fetch(p.Marker); id != "" {
			p.Style.Thumb = id
		} else {
			p.Marker, p.Type = "", TypePoint
		}
	}

	e.points[group] = append(e.points[group], p)
	metrics.PointsIngested.Inc()
	return 1
}

// prop returns the key to read, honoring a "<name>Property" override
func prop(meta Meta, override, def string) string {
	if s, ok := meta[override].(string); ok && s != "" {
		return s
	}
	return def
}

func validLatLng(v interface{}) spatial.LatLng {
	switch ll := v.(type) {
	case spatial.LatLng:
		return ll
	case *spatial.LatLng:
		if ll != nil {
			return *ll
		}
	case orb.Point:
		return spatial.LatLng{Lat: ll.Lat(), Lng: ll.Lon()}
	case Meta:
		return latLngFromMap(map[string]interface{}(ll))
	case map[string]interface{}:
		return latLngFromMap(ll)
	case []float64:
		if len(ll) >= 2 && !math.IsNaN(ll[0]) && !math.IsNaN(ll[1]) {
			return spatial.LatLng{Lat: ll[1], Lng: ll[0]}
		}
	case []interface{}:
		if len(ll) >= 2 {
			lng, ok0 := number(ll[0])
			lat, ok1 := number(ll[1])
			if ok0 && ok1 {
				return spatial.LatLng{Lat: lat, Lng: lng}
			}
		}
	}
	warnf("latlng: unknown format %v", v)
	return spatial.LatLng{NullIsland: true}
}

func latLngFromMap(m map[string]interface{}) spatial.LatLng {
	lat, ok := number(m["lat"])
	if ok {
		if lng, ok := number(m["lng"]); ok {
			return spatial.LatLng{Lat: lat, Lng: lng}
		}
		if lng, ok := number(m["lon"]); ok {
			return spatial.LatLng{Lat: lat, Lng: lng}
		}
	}
	warnf("latlng: unknown format %v", m)
	return spatial.LatLng{NullIsland: true}
}

// number accepts numeric values only, never strings or bools
func number(v interface{}) (float64, bool) {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		f, err := cast.ToFloat64E(v)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (e *Engine) resolveGroup(meta Meta) string {
	var group string
	switch v := meta[prop(meta, "groupProperty", "group")].(type) {
	case string:
		group = v
	default:
		if f, ok := number(v); ok {
			group = formatNumber(f)
		}
	}
	if group == "" {
		group = e.opts.GroupDefault
	}
	if group == "" {
		e.incGroup++
		group = strconv.Itoa(e.incGroup)
	}
	if _, ok := e.points[group]; !ok {
		e.points[group] = []*Point{}
		e.groupOrder = append(e.groupOrder, group)
		e.visibility[group] = true
	}
	return group
}

func (e *Engine) resolveID(meta Meta) string {
	switch v := meta[prop(meta, "idProperty", "id")].(type) {
	case string:
		if v != "" {
			return v
		}
	default:
		if f, ok := number(v); ok {
			return formatNumber(f)
		}
	}
	e.incID++
	return strconv.Itoa(e.incID)
}

func (e *Engine) resolveLink(meta Meta, group string) []int {
	v := meta[prop(meta, "linkProperty", "link")]
	gl := len(e.points[group])

	if b, ok := v.(bool); ok {
		if !b || gl == 0 {
			return []int{}
		}
		return []int{gl - 1}
	}
	if f, ok := number(v); ok {
		if i := int(math.Floor(f)); i >= 0 {
			return []int{i}
		}
		return []int{}
	}
	if v == nil {
		return []int{}
	}
	list, err := cast.ToSliceE(v)
	if err != nil {
		return []int{}
	}
	links := []int{}
	for _, l := range list {
		if f, ok := number(l); ok {
			if i := int(math.Floor(f)); i >= 0 {
				links = append(links, i)
			}
		}
	}
	return links
}

func resolveName(meta Meta) string {
	switch v := meta[prop(meta, "nameProperty", "name")].(type) {
	case string:
		return v
	default:
		if f, ok := number(v); ok {
			return formatNumber(f)
		}
	}
	return ""
}

func resolveTags(meta Meta) string {
	v, ok := meta[prop(meta, "tagProperty", "tags")]
	if !ok || v == nil || v == false {
		return ""
	}
	s := cast.ToString(v)
	if s == "undefined" || s == "false" {
		return ""
	}
	return s
}

// resolveData keeps numbers and numeric strings
func resolveData(meta Meta) map[string]float64 {
	data := make(map[string]float64)
	for k, v := range meta {
		if f, ok := number(v); ok {
			data[k] = f
			continue
		}
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
				data[k] = f
			}
		}
	}
	return data
}

func resolveMarker(meta Meta) (string, MarkerType) {
	if s, ok := meta[prop(meta, "imageProperty", "image")].(string); ok && s != "" {
		return s, TypeImage
	}
	if s, ok := meta[prop(meta, "iconProperty", "icon")].(string); ok && s != "" {
		return s, TypeIcon
	}
	return "", TypePoint
}

func (e *Engine) resolveStyle(meta Meta, marker bool) Style {
	s := Style{Scale: 1}
	if v, ok := meta[prop(meta, "fillProperty", "fill")].(string); ok {
		s.Fill = v
	}
	if v, ok := meta[prop(meta, "strokeProperty", "stroke")].(string); ok {
		s.Stroke = v
	}
	scale, explicit := number(meta[prop(meta, "scaleProperty", "scale")])
	if explicit && scale > 0 {
		s.Scale = scale
	} else if marker {
		s.Scale = e.opts.MarkerScaler
	}
	return s
}

func (e *Engine) resolveDist(meta Meta, ll spatial.LatLng, group string, links []int) float64 {
	if key, ok := meta["distProperty"].(string); ok && key != "" {
		if d, ok := number(meta[key]); ok {
			return d
		}
	}
	dist := 0.0
	for _, l := range links {
		if p0 := e.point(group, l); p0 != nil {
			if d := p0.Dist + spatial.Distance(p0.LatLng, ll); d > dist {
				dist = d
			}
		}
	}
	return dist
}

// resolveTime returns the time in milliseconds and the span since the group's first point
func (e *Engine) resolveTime(meta Meta, group string) (float64, float64) {
	t := parseTime(meta[prop(meta, "timeProperty", "time")])
	span := 0.0
	if first := e.point(group, 0); first != nil {
		span = math.Max(0, t-first.Time)
	}
	return t, span
}

func parseTime(v interface{}) float64 {
	if f, ok := number(v); ok {
		return f
	}
	s, ok := v.(string)
	if !ok {
		return 0
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	t, err := cast.ToTimeE(s)
	if err != nil {
		return 0
	}
	return float64(t.UnixMilli())
}

// toList accepts the coordinate list shapes the batch helpers understand
func toList(v interface{}) ([]interface{}, bool) {
	switch l := v.(type) {
	case nil:
		return nil, false
	case []interface{}:
		return l, true
	case []spatial.LatLng:
		out := make([]interface{}, len(l))
		for i, ll := range l {
			out[i] = ll
		}
		return out, true
	case [][]float64:
		out := make([]interface{}, len(l))
		for i, ll := range l {
			out[i] = ll
		}
		return out, true
	case orb.LineString:
		return pointsToList(l), true
	case orb.MultiPoint:
		return pointsToList(l), true
	case []orb.Point:
		return pointsToList(l), true
	}
	list, err := cast.ToSliceE(v)
	if err != nil {
		return nil, false
	}
	return list, true
}

func pointsToList(ps []orb.Point) []interface{} {
	out := make([]interface{}, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}
