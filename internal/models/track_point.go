package models

// TrackPoint is a recorded GPS fix from the track table
type TrackPoint struct {
	ID        int64   `json:"id" db:"id"`
	DataTime  int64   `json:"dataTime" db:"dataTime"` // Unix timestamp in seconds
	Longitude float64 `json:"longitude" db:"longitude"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Heading   float64 `json:"heading" db:"heading"`
	Accuracy  float64 `json:"accuracy" db:"accuracy"`
	Speed     float64 `json:"speed" db:"speed"`
	Distance  float64 `json:"distance" db:"distance"`
	Altitude  float64 `json:"altitude" db:"altitude"`

	// 行政区划
	Province string `json:"province,omitempty" db:"province"`
	City     string `json:"city,omitempty" db:"city"`
	County   string `json:"county,omitempty" db:"county"`
}

// TrackPointFilter selects the track points to import
type TrackPointFilter struct {
	StartTime int64   `form:"startTime" json:"startTime"` // Unix timestamp
	EndTime   int64   `form:"endTime" json:"endTime"`     // Unix timestamp
	Province  string  `form:"province" json:"province"`
	City      string  `form:"city" json:"city"`
	County    string  `form:"county" json:"county"`
	MinSpeed  float64 `form:"minSpeed" json:"minSpeed"`
	MaxSpeed  float64 `form:"maxSpeed" json:"maxSpeed"`
	// 0 means DefaultTrackLimit
	Limit int `form:"limit" json:"limit"`
}

const (
	DefaultTrackLimit = 50000
	MaxTrackLimit     = 500000
)
