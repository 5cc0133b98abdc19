package models

import (
	"encoding/json"
	"time"

	"github.com/jengzang/records-hexbin/internal/hexagonal"
	"github.com/jengzang/records-hexbin/internal/spatial"
)

// SessionInfo describes a live engine session
type SessionInfo struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"createdAt"`
	LastUsed  time.Time        `json:"lastUsed"`
	Viewport  spatial.Viewport `json:"viewport"`
	Totals    hexagonal.Totals `json:"totals"`
}

// CreateSessionRequest creates a session. Nil fields use the server defaults.
type CreateSessionRequest struct {
	Viewport *spatial.Viewport `json:"viewport"`
	Options  json.RawMessage   `json:"options"`
}

// AddPointsRequest adds coordinates to a session. Mode is point, line or
// points; LatLngs holds one coordinate for point and a list otherwise.
type AddPointsRequest struct {
	Mode    string         `json:"mode"`
	LatLngs interface{}    `json:"latlngs" binding:"required"`
	Meta    hexagonal.Meta `json:"meta"`
}

// GeoJSONRequest adds GeoJSON from an inline document or a URL
type GeoJSONRequest struct {
	Data json.RawMessage `json:"data"`
	URL  string          `json:"url"`
	Meta hexagonal.Meta  `json:"meta"`
}

// RemovePointsRequest removes one point by id, a whole group, or everything
type RemovePointsRequest struct {
	ID    string `json:"id"`
	Group string `json:"group"`
	All   bool   `json:"all"`
}

// CountResponse reports how many points an operation touched
type CountResponse struct {
	Count  int              `json:"count"`
	Totals hexagonal.Totals `json:"totals"`
}

// GroupOrderRequest reorders groups by mode or by an explicit order
type GroupOrderRequest struct {
	Mode  string   `json:"mode"`
	Group string   `json:"group"`
	Order []string `json:"order"`
}

// GroupUpdateRequest changes the style, name or visibility of a group
type GroupUpdateRequest struct {
	Fill    *string `json:"fill"`
	Stroke  *string `json:"stroke"`
	Name    *string `json:"name"`
	Visible *bool   `json:"visible"`
}

// ImportTracksRequest bins recorded tracks into a session
type ImportTracksRequest struct {
	TrackPointFilter
	Group string `json:"group"`
	// seconds between fixes that start a new segment, 0 links everything
	SplitGap int64 `json:"splitGap"`
}
