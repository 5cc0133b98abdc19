package service

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jengzang/records-hexbin/internal/config"
	"github.com/jengzang/records-hexbin/internal/database"
	"github.com/jengzang/records-hexbin/internal/hexagonal"
	"github.com/jengzang/records-hexbin/internal/models"
	"github.com/jengzang/records-hexbin/internal/repository"
	"github.com/jengzang/records-hexbin/internal/spatial"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.MaxSessions = 2
	cfg.Server.SessionTTL = time.Minute
	cfg.Viewport = spatial.Viewport{Center: spatial.LatLng{Lat: 30, Lng: 114}, Zoom: 10, Width: 400, Height: 400}
	return cfg
}

func TestSessionLifecycle(t *testing.T) {
	svc := NewSessionService(testConfig())

	sess, err := svc.Create(models.CreateSessionRequest{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("expected a session id")
	}
	if sess.Engine.Options().RefreshDelay >= 0 {
		t.Errorf("session engines should redraw on request")
	}

	got, err := svc.Get(sess.ID)
	if err != nil || got != sess {
		t.Fatalf("Get returned %v, %v", got, err)
	}

	view := spatial.Viewport{Center: spatial.LatLng{Lat: 31, Lng: 115}, Zoom: 12, Width: 200, Height: 100}
	if _, err := svc.SetViewport(sess.ID, view); err != nil {
		t.Fatalf("SetViewport failed: %v", err)
	}
	if sess.Viewport() != view {
		t.Errorf("viewport not updated: %+v", sess.Viewport())
	}
	if _, err := svc.SetViewport(sess.ID, spatial.Viewport{}); err == nil {
		t.Errorf("expected invalid viewport error")
	}

	if len(svc.List()) != 1 {
		t.Errorf("expected one listed session")
	}
	if err := svc.Delete(sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := svc.Delete(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestSessionOptions(t *testing.T) {
	svc := NewSessionService(testConfig())

	sess, err := svc.Create(models.CreateSessionRequest{
		Options: json.RawMessage(`{"hexagonSize": 32, "linkMode": "line"}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	opts := sess.Engine.Options()
	if opts.HexagonSize != 32 || opts.LinkMode != hexagonal.LinkLine {
		t.Errorf("options not applied: size %v mode %q", opts.HexagonSize, opts.LinkMode)
	}

	if _, err := svc.Create(models.CreateSessionRequest{Options: json.RawMessage(`{"linkMode": "zigzag"}`)}); err == nil {
		t.Errorf("expected invalid options error")
	}
}

func TestSessionLimitAndEviction(t *testing.T) {
	svc := NewSessionService(testConfig())
	now := time.Unix(1000, 0)
	svc.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if _, err := svc.Create(models.CreateSessionRequest{}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.Create(models.CreateSessionRequest{}); !errors.Is(err, ErrTooManySessions) {
		t.Fatalf("expected ErrTooManySessions, got %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := svc.Create(models.CreateSessionRequest{}); err != nil {
		t.Fatalf("idle sessions should have been evicted: %v", err)
	}
	if n := len(svc.List()); n != 1 {
		t.Errorf("expected 1 live session, got %d", n)
	}
}

func TestImportTracks(t *testing.T) {
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "tracks.db")})
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	repo := repository.NewTrackRepository(db)
	err = repo.InsertTrackPoints([]models.TrackPoint{
		{DataTime: 100, Longitude: 114.00, Latitude: 30.00, Speed: 1},
		{DataTime: 110, Longitude: 114.01, Latitude: 30.01, Speed: 2},
		{DataTime: 5000, Longitude: 114.05, Latitude: 30.05, Speed: 3},
	})
	if err != nil {
		t.Fatal(err)
	}

	svc := NewSessionService(testConfig())
	sess, err := svc.Create(models.CreateSessionRequest{})
	if err != nil {
		t.Fatal(err)
	}

	tracks := NewTrackService(repo)
	res, err := tracks.ImportTracks(sess.Engine, models.ImportTracksRequest{SplitGap: 600})
	if err != nil {
		t.Fatalf("ImportTracks failed: %v", err)
	}
	if res.Imported != 3 || res.Segments != 2 || res.Group != DefaultTrackGroup {
		t.Errorf("unexpected result %+v", res)
	}

	ps := sess.Engine.Points(DefaultTrackGroup)
	if len(ps) != 3 {
		t.Fatalf("expected 3 points, got %d", len(ps))
	}
	if len(ps[0].Link) != 0 || len(ps[1].Link) != 1 || len(ps[2].Link) != 0 {
		t.Errorf("unexpected links %v %v %v", ps[0].Link, ps[1].Link, ps[2].Link)
	}
	if ps[1].Time != 110000 {
		t.Errorf("expected time in milliseconds, got %v", ps[1].Time)
	}
	if v, ok := ps[2].Number("speed"); !ok || v != 3 {
		t.Errorf("expected speed data, got %v %v", v, ok)
	}

	if _, err := tracks.ImportTracks(sess.Engine, models.ImportTracksRequest{SplitGap: -1}); err == nil {
		t.Errorf("expected error for negative split gap")
	}
}
