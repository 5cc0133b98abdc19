package hexagonal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const fetchTimeout = 30 * time.Second

// AddGeoJSON decomposes GeoJSON into points. source may be GeoJSON text or
// bytes, a decoded map, an orb/geojson value, or a path or URL ending in
// .json/.geojson. Line-like geometries are linked, and a FeatureCollection links
// its features unless its properties say otherwise. meta wins over properties.
func (e *Engine) AddGeoJSON(source interface{}, meta Meta) int {
	data, obj, err := loadGeoJSON(source)
	if err != nil {
		warnf("AddGeoJSON: %v", err)
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var n int
	if obj != nil {
		n = e.addGeoObject(obj, nil, meta)
	} else {
		n = e.addGeoBytes(data, meta)
	}
	e.refreshLocked()
	return n
}

// loadGeoJSON returns either raw bytes or an already decoded orb value
func loadGeoJSON(source interface{}) ([]byte, interface{}, error) {
	switch s := source.(type) {
	case string:
		t := strings.TrimSpace(s)
		if strings.HasSuffix(t, ".json") || strings.HasSuffix(t, ".geojson") {
			data, err := fetchSource(t)
			return data, nil, err
		}
		return []byte(t), nil, nil
	case []byte:
		return s, nil, nil
	case json.RawMessage:
		return s, nil, nil
	case map[string]interface{}:
		data, err := json.Marshal(s)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode geojson object: %w", err)
		}
		return data, nil, nil
	case *geojson.FeatureCollection, *geojson.Feature, *geojson.Geometry, orb.Geometry:
		return nil, s, nil
	}
	return nil, nil, fmt.Errorf("invalid geojson source %T", source)
}

func fetchSource(src string) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request for %s: %w", src, err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", src, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch %s: status %d", src, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src, err)
	}
	return data, nil
}

// geoHeader is the part of any GeoJSON object needed to dispatch it
type geoHeader struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
}

func (e *Engine) addGeoBytes(data []byte, meta Meta) int {
	var h geoHeader
	if err := json.Unmarshal(data, &h); err != nil || h.Type == "" {
		warnf("AddGeoJSON: invalid geojson")
		return 0
	}

	switch h.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			warnf("AddGeoJSON: invalid feature collection: %v", err)
			return 0
		}
		return e.addFeatureCollection(fc, h.Properties, meta)
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			warnf("AddGeoJSON: invalid feature: %v", err)
			return 0
		}
		return e.addGeometry(f.Geometry, merge(f.Properties, meta))
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			warnf("AddGeoJSON: invalid geometry: %v", err)
			return 0
		}
		return e.addGeometry(g.Geometry(), merge(h.Properties, meta))
	}
}

func (e *Engine) addGeoObject(obj interface{}, props map[string]interface{}, meta Meta) int {
	switch g := obj.(type) {
	case *geojson.FeatureCollection:
		var fcProps map[string]interface{}
		if p, ok := g.ExtraMembers["properties"].(map[string]interface{}); ok {
			fcProps = p
		}
		return e.addFeatureCollection(g, fcProps, meta)
	case *geojson.Feature:
		return e.addGeometry(g.Geometry, merge(g.Properties, meta))
	case *geojson.Geometry:
		return e.addGeometry(g.Geometry(), merge(props, meta))
	case orb.Geometry:
		return e.addGeometry(g, merge(props, meta))
	}
	return 0
}

func (e *Engine) addFeatureCollection(fc *geojson.FeatureCollection, props map[string]interface{}, meta Meta) int {
	gp := Meta{}
	for k, v := range props {
		gp[k] = v
	}
	if _, ok := gp["link"]; !ok {
		gp["link"] = true
	}
	c := 0
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		m := merge(gp, Meta(f.Properties))
		c += e.addGeometry(f.Geometry, merge(m, meta))
	}
	return c
}

func (e *Engine) addGeometry(g orb.Geometry, m Meta) int {
	switch geom := g.(type) {
	case orb.Point:
		return e.addPoint(geom, m)
	case orb.MultiPoint:
		return e.addVertices(geom, m, false)
	case orb.LineString:
		return e.addVertices(geom, m, true)
	case orb.MultiLineString:
		if len(geom) == 0 {
			return 0
		}
		m[prop(m, "groupProperty", "group")] = e.resolveGroup(m)
		linkKey := prop(m, "linkProperty", "link")
		c := 0
		for _, line := range geom {
			m[linkKey] = false
			for _, p := range line {
				c += e.addPoint(p, m)
				m[linkKey] = true
			}
		}
		return c
	}
	warnf("AddGeoJSON: no valid data in geojson (%T)", g)
	return 0
}

func (e *Engine) addVertices(ps []orb.Point, m Meta, link bool) int {
	if len(ps) == 0 {
		return 0
	}
	m[prop(m, "groupProperty", "group")] = e.resolveGroup(m)
	m[prop(m, "linkProperty", "link")] = link
	for _, p := range ps {
		e.addPoint(p, m)
	}
	return len(ps)
}

// merge copies a then b into a fresh Meta; b wins
func merge(a map[string]interface{}, b Meta) Meta {
	out := make(Meta, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
