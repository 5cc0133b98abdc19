package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "hexbin ") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestBinGeoJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "route.geojson")
	doc := `{"type":"LineString","coordinates":[[114,30],[114.05,30.02],[114.1,30.04]]}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "bin", path,
		"--config", filepath.Join(dir, "missing.yml"),
		"--lat", "30.02", "--lng", "114.05", "--zoom", "10", "--width", "400", "--height", "400",
		"--size", "20", "--group", "route", "--cells")
	if err != nil {
		t.Fatalf("bin failed: %v\n%s", err, out)
	}

	var res struct {
		Totals struct {
			Points int `json:"points"`
			Links  int `json:"links"`
		} `json:"totals"`
		Groups []struct {
			Group string `json:"group"`
		} `json:"groups"`
		Hexagons []json.RawMessage `json:"hexagons"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid output %q: %v", out, err)
	}
	if res.Totals.Points != 3 || res.Totals.Links != 2 {
		t.Errorf("unexpected totals %+v", res.Totals)
	}
	if len(res.Groups) != 1 || res.Groups[0].Group != "route" {
		t.Errorf("unexpected groups %+v", res.Groups)
	}
	if len(res.Hexagons) != 3 {
		t.Errorf("expected 3 drawn cells, got %d", len(res.Hexagons))
	}
}

func TestBinRequiresInput(t *testing.T) {
	if _, err := run(t, "bin", "--config", filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected an error without file or --tracks")
	}
}
