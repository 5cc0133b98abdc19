package service

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/jengzang/records-hexbin/internal/hexagonal"
	"github.com/jengzang/records-hexbin/internal/models"
	"github.com/jengzang/records-hexbin/internal/repository"
	"github.com/jengzang/records-hexbin/internal/spatial"
)

// DefaultTrackGroup is the group imported tracks land in when none is named
const DefaultTrackGroup = "tracks"

// ErrInvalidImport wraps import requests that cannot be served
var ErrInvalidImport = errors.New("invalid import request")

// ImportResult reports a track import
type ImportResult struct {
	Group    string           `json:"group"`
	Imported int              `json:"imported"`
	Segments int              `json:"segments"`
	Totals   hexagonal.Totals `json:"totals"`
}

// TrackService bins recorded tracks into engines
type TrackService struct {
	trackRepo *repository.TrackRepository
}

// NewTrackService creates a new track service
func NewTrackService(trackRepo *repository.TrackRepository) *TrackService {
	return &TrackService{
		trackRepo: trackRepo,
	}
}

// ImportTracks loads the track points matching req in time order and adds
// them to engine as linked points. A gap longer than req.SplitGap seconds
// starts a new segment.
func (s *TrackService) ImportTracks(engine *hexagonal.Engine, req models.ImportTracksRequest) (*ImportResult, error) {
	if req.SplitGap < 0 {
		return nil, fmt.Errorf("%w: splitGap must be non-negative", ErrInvalidImport)
	}
	if req.StartTime > 0 && req.EndTime > 0 && req.StartTime > req.EndTime {
		return nil, fmt.Errorf("%w: startTime is after endTime", ErrInvalidImport)
	}

	points, err := s.trackRepo.GetTrackPoints(req.TrackPointFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to load track points: %w", err)
	}

	group := req.Group
	if group == "" {
		group = DefaultTrackGroup
	}
	result := &ImportResult{Group: group}

	var prev int64
	for i, p := range points {
		link := i > 0
		if link && req.SplitGap > 0 && p.DataTime-prev > req.SplitGap {
			link = false
		}
		if !link {
			result.Segments++
		}
		prev = p.DataTime

		result.Imported += engine.AddPoint(spatial.LatLng{Lat: p.Latitude, Lng: p.Longitude}, hexagonal.Meta{
			"group":    group,
			"id":       strconv.FormatInt(p.ID, 10),
			"link":     link,
			"time":     float64(p.DataTime) * 1000,
			"speed":    p.Speed,
			"altitude": p.Altitude,
			"accuracy": p.Accuracy,
		})
	}

	result.Totals = engine.Totals()
	log.Printf("[TrackImport] imported %d points in %d segments into group %q", result.Imported, result.Segments, group)
	return result, nil
}
