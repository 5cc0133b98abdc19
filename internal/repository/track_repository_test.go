package repository

import (
	"path/filepath"
	"testing"

	"github.com/jengzang/records-hexbin/internal/database"
	"github.com/jengzang/records-hexbin/internal/models"
)

func newTestRepo(t *testing.T) *TrackRepository {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "tracks.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	return NewTrackRepository(db)
}

func TestGetTrackPoints(t *testing.T) {
	repo := newTestRepo(t)
	points := []models.TrackPoint{
		{DataTime: 300, Longitude: 114.2, Latitude: 30.2, Speed: 12, City: "武汉市"},
		{DataTime: 100, Longitude: 114.0, Latitude: 30.0, Speed: 1, City: "武汉市"},
		{DataTime: 200, Longitude: 114.1, Latitude: 30.1, Speed: 5, City: "鄂州市"},
	}
	if err := repo.InsertTrackPoints(points); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	tests := []struct {
		name   string
		filter models.TrackPointFilter
		want   []int64
	}{
		{"all in time order", models.TrackPointFilter{}, []int64{100, 200, 300}},
		{"time range", models.TrackPointFilter{StartTime: 150, EndTime: 300}, []int64{200, 300}},
		{"city", models.TrackPointFilter{City: "武汉市"}, []int64{100, 300}},
		{"speed", models.TrackPointFilter{MinSpeed: 2, MaxSpeed: 10}, []int64{200}},
		{"limit", models.TrackPointFilter{Limit: 1}, []int64{100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetTrackPoints(tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d points, got %d", len(tt.want), len(got))
			}
			for i, p := range got {
				if p.DataTime != tt.want[i] {
					t.Errorf("point %d: expected time %d, got %d", i, tt.want[i], p.DataTime)
				}
			}
		})
	}

	n, err := repo.CountTrackPoints(models.TrackPointFilter{City: "武汉市"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected count 2, got %d", n)
	}
}
