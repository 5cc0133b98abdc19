package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/records-hexbin/internal/config"
	"github.com/jengzang/records-hexbin/internal/service"
	"github.com/jengzang/records-hexbin/internal/spatial"
	"github.com/jengzang/records-hexbin/internal/thumbs"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.DefaultConfig()
	cfg.Engine.HexagonSize = 20
	cfg.Viewport = spatial.Viewport{Center: spatial.LatLng{Lat: 30, Lng: 114}, Zoom: 10, Width: 400, Height: 400}
	return SetupRouter(service.NewSessionService(cfg), nil, nil)
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: invalid envelope %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w, env
}

func createSession(t *testing.T, r http.Handler) string {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/api/v1/sessions", "{}")
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: status %d body %s", w.Code, w.Body.String())
	}
	var info struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &info); err != nil || info.ID == "" {
		t.Fatalf("create session: no id in %s", env.Data)
	}
	return info.ID
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	w, _ := do(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("health: status %d", w.Code)
	}

	createSession(t, r)
	w, _ = do(t, r, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "hexbin_sessions") {
		t.Errorf("metrics output misses the session gauge")
	}
}

func TestSessionFlow(t *testing.T) {
	r := newTestRouter(t)
	id := createSession(t, r)
	base := "/api/v1/sessions/" + id

	w, env := do(t, r, http.MethodPost, base+"/points",
		`{"mode":"line","latlngs":[[114,30],[114.05,30.02]],"meta":{"group":"a","speed":3}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add points: status %d body %s", w.Code, w.Body.String())
	}
	var count struct {
		Count int `json:"count"`
	}
	json.Unmarshal(env.Data, &count)
	if count.Count != 2 {
		t.Errorf("expected 2 points added, got %d", count.Count)
	}

	w, env = do(t, r, http.MethodGet, base+"/frame", "")
	if w.Code != http.StatusOK {
		t.Fatalf("frame: status %d", w.Code)
	}
	var frame struct {
		Totals struct {
			Points int `json:"points"`
			Links  int `json:"links"`
		} `json:"totals"`
		Hexagons []json.RawMessage `json:"hexagons"`
	}
	if err := json.Unmarshal(env.Data, &frame); err != nil {
		t.Fatal(err)
	}
	if frame.Totals.Points != 2 || len(frame.Hexagons) != 2 || frame.Totals.Links != 1 {
		t.Errorf("unexpected frame totals %+v with %d hexagons", frame.Totals, len(frame.Hexagons))
	}

	w, env = do(t, r, http.MethodGet, base+"/groups", "")
	var groups []struct {
		Group  string `json:"group"`
		Points int    `json:"points"`
	}
	json.Unmarshal(env.Data, &groups)
	if w.Code != http.StatusOK || len(groups) != 1 || groups[0].Group != "a" || groups[0].Points != 2 {
		t.Errorf("unexpected groups %s", env.Data)
	}

	if w, _ := do(t, r, http.MethodPut, base+"/groups/a", `{"fill":"#f00","name":"Alpha"}`); w.Code != http.StatusOK {
		t.Errorf("update group: status %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodPut, base+"/groups/zzz", `{"visible":false}`); w.Code != http.StatusNotFound {
		t.Errorf("hiding an unknown group: status %d", w.Code)
	}

	if w, _ := do(t, r, http.MethodPost, base+"/filters", `{"property":"speed","operator":"bogus","value":1}`); w.Code != http.StatusBadRequest {
		t.Errorf("invalid filter: status %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodPost, base+"/filters", `{"property":"speed","operator":">","value":1}`); w.Code != http.StatusOK {
		t.Errorf("valid filter: status %d", w.Code)
	}
	_, env = do(t, r, http.MethodDelete, base+"/filters", "")
	var filters struct {
		Filters []json.RawMessage `json:"filters"`
	}
	json.Unmarshal(env.Data, &filters)
	if len(filters.Filters) != 0 {
		t.Errorf("filters not cleared: %s", env.Data)
	}

	w, env = do(t, r, http.MethodPost, base+"/selection", `{"groups":["a"]}`)
	var sel struct {
		Type     string            `json:"type"`
		Selected []json.RawMessage `json:"selected"`
	}
	json.Unmarshal(env.Data, &sel)
	if w.Code != http.StatusOK || sel.Type != "groups" || len(sel.Selected) != 2 {
		t.Errorf("unexpected selection %s", env.Data)
	}

	w, _ = do(t, r, http.MethodGet, base+"/pick.png", "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Errorf("pick.png: status %d type %q", w.Code, w.Header().Get("Content-Type"))
	}

	w, env = do(t, r, http.MethodDelete, base+"/points", `{"group":"a"}`)
	json.Unmarshal(env.Data, &count)
	if w.Code != http.StatusOK || count.Count != 2 {
		t.Errorf("remove group: status %d count %d", w.Code, count.Count)
	}

	if w, _ := do(t, r, http.MethodDelete, base, ""); w.Code != http.StatusOK {
		t.Errorf("delete session: status %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodGet, base, ""); w.Code != http.StatusNotFound {
		t.Errorf("deleted session: status %d", w.Code)
	}
}

func TestBadRequests(t *testing.T) {
	r := newTestRouter(t)
	id := createSession(t, r)
	base := "/api/v1/sessions/" + id

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"invalid viewport", http.MethodPost, "/api/v1/sessions", `{"viewport":{"zoom":10,"width":0,"height":0}}`, http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/api/v1/sessions/nope/frame", "", http.StatusNotFound},
		{"unknown mode", http.MethodPost, base + "/points", `{"mode":"zigzag","latlngs":[114,30]}`, http.StatusBadRequest},
		{"remove without target", http.MethodDelete, base + "/points", `{}`, http.StatusBadRequest},
		{"local geojson path", http.MethodPost, base + "/geojson", `{"url":"/etc/data.geojson"}`, http.StatusBadRequest},
		{"geojson without source", http.MethodPost, base + "/geojson", `{}`, http.StatusBadRequest},
		{"order without mode", http.MethodPut, base + "/groups/order", `{}`, http.StatusBadRequest},
		{"hexagon without coordinates", http.MethodGet, base + "/hexagon", "", http.StatusBadRequest},
		{"unknown thumb", http.MethodGet, base + "/thumbs/nope", "", http.StatusNotFound},
		{"import without database", http.MethodPost, base + "/import/tracks", `{}`, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := do(t, r, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d (%s)", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestGeoJSONAndHexagonLookup(t *testing.T) {
	r := newTestRouter(t)
	id := createSession(t, r)
	base := "/api/v1/sessions/" + id

	fc := `{"data":{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"name":"x"},"geometry":{"type":"Point","coordinates":[114.01,30.01]}}
	]},"meta":{"group":"g"}}`
	w, env := do(t, r, http.MethodPost, base+"/geojson", fc)
	var count struct {
		Count int `json:"count"`
	}
	json.Unmarshal(env.Data, &count)
	if w.Code != http.StatusOK || count.Count != 1 {
		t.Fatalf("geojson: status %d body %s", w.Code, w.Body.String())
	}

	do(t, r, http.MethodGet, base+"/frame", "")
	w, env = do(t, r, http.MethodGet, base+"/hexagon?lat=30.01&lng=114.01", "")
	if w.Code != http.StatusOK {
		t.Fatalf("hexagon: status %d body %s", w.Code, w.Body.String())
	}
	var hex struct {
		Group string `json:"group"`
	}
	json.Unmarshal(env.Data, &hex)
	if hex.Group != "g" {
		t.Errorf("expected hexagon of group g, got %s", env.Data)
	}
}

func TestThumbsNeverReadServerFiles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.DefaultConfig()
	cfg.Viewport = spatial.Viewport{Center: spatial.LatLng{Lat: 30, Lng: 114}, Zoom: 10, Width: 400, Height: 400}
	svc := service.NewSessionService(cfg)
	r := SetupRouter(svc, nil, nil)
	id := createSession(t, r)
	base := "/api/v1/sessions/" + id

	// a readable solid blue image on the server
	path := filepath.Join(t.TempDir(), "secret.png")
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{B: 255, A: 255}}, image.Point{}, draw.Src)
	var file bytes.Buffer
	png.Encode(&file, img)
	if err := os.WriteFile(path, file.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	meta, _ := json.Marshal(map[string]string{"group": "m", "image": path})
	w, _ := do(t, r, http.MethodPost, base+"/points", `{"mode":"point","latlngs":[114,30],"meta":`+string(meta)+`}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add marker: status %d body %s", w.Code, w.Body.String())
	}

	sess, err := svc.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	sess.Engine.Thumbs().Wait()
	th, ok := sess.Engine.Thumbs().Get(thumbs.ID(path))
	if !ok || th.Status != thumbs.Failed {
		t.Fatalf("expected the local path to fail, got %+v", th)
	}

	w, _ = do(t, r, http.MethodGet, base+"/thumbs/"+thumbs.ID(path), "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("thumb: status %d type %q", w.Code, w.Header().Get("Content-Type"))
	}
	served, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("thumb is not a png: %v", err)
	}
	b := served.Bounds()
	if _, _, blue, _ := served.At(b.Dx()/2, 1).RGBA(); blue>>8 == 255 {
		t.Errorf("thumb shows the server file instead of the placeholder")
	}
}
