package thumbs

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		source string
		kind   Kind
		ok     bool
	}{
		{"photos/a.JPG", KindImage, true},
		{"photos/a.jpeg", KindImage, true},
		{"https://x.org/a.png", KindImage, true},
		{"icons/pin.svg", KindIcon, true},
		{`<svg xmlns="http://www.w3.org/2000/svg"></svg>`, KindIcon, true},
		{"data:image/svg+xml,%3Csvg%3E", KindIcon, true},
		{"data:image/png;base64,AAAA", KindImage, true},
		{"readme.txt", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		kind, _, ok := Classify(tt.source)
		if kind != tt.kind || ok != tt.ok {
			t.Errorf("Classify(%q): got %q,%v want %q,%v", tt.source, kind, ok, tt.kind, tt.ok)
		}
	}

	_, src, _ := Classify("<svg width='1'></svg>")
	if src[:19] != "data:image/svg+xml," {
		t.Errorf("svg markup should become a data uri, got %q", src)
	}
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{B: 255, A: 255}
			if x >= (w-h)/2 && x < (w+h)/2 {
				c = color.RGBA{R: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "wide.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func TestFetchCropsToSquare(t *testing.T) {
	var refreshed int32
	c := New(16, func() { atomic.AddInt32(&refreshed, 1) })

	path := writePNG(t, 100, 50)
	id := c.Fetch(path)
	if id == "" {
		t.Fatal("Fetch rejected a png path")
	}
	if again := c.Fetch(path); again != id {
		t.Errorf("same source should reuse the thumb, got %q and %q", id, again)
	}
	c.Wait()

	th, ok := c.Get(id)
	if !ok || th.Status != Loaded {
		t.Fatalf("thumb not loaded: %+v", th)
	}
	if th.Image.Bounds().Dx() != 16 || th.Image.Bounds().Dy() != 16 {
		t.Errorf("thumb size: got %v", th.Image.Bounds())
	}
	if th.Original != (image.Point{X: 100, Y: 50}) {
		t.Errorf("original size: got %v", th.Original)
	}
	// the center crop only keeps the red middle band
	if r := th.Image.RGBAAt(1, 8); r.R < 200 || r.B > 50 {
		t.Errorf("expected red edge after center crop, got %v", r)
	}
	called, resolved := c.Counts()
	if called != 1 || resolved != 1 {
		t.Errorf("counts: got %d/%d", called, resolved)
	}
	if atomic.LoadInt32(&refreshed) != 1 {
		t.Errorf("refresh should fire once all loads resolved, got %d", refreshed)
	}

	var buf bytes.Buffer
	if err := th.EncodePNG(&buf); err != nil {
		t.Errorf("EncodePNG: %v", err)
	}
}

func TestFailedLoadUsesPlaceholder(t *testing.T) {
	c := New(8, nil)
	c.SetLoader(func(ctx context.Context, source string) ([]byte, error) {
		return nil, errors.New("gone")
	})
	id := c.Fetch("https://example.invalid/missing.png")
	c.Wait()

	th, _ := c.Get(id)
	if th.Status != Failed || th.Image == nil {
		t.Fatalf("expected placeholder, got %+v", th)
	}
	if _, resolved := c.Counts(); resolved != 1 {
		t.Errorf("failed load must still count as resolved")
	}
}

func TestDataURIAndShortName(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	png.Encode(&buf, img)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	c := New(4, nil)
	id := c.Fetch(uri)
	c.Wait()
	if th, _ := c.Get(id); th.Status != Loaded {
		t.Fatalf("data uri not loaded: %+v", th)
	}

	svg := c.Fetch(`<svg xmlns="http://www.w3.org/2000/svg"/>`)
	c.Wait()
	th, _ := c.Get(svg)
	if th.Kind != KindIcon || th.Status != Loaded || len(th.SVG) == 0 {
		t.Errorf("svg icon: got %+v", th)
	}

	if c.Fetch("nope") != "" {
		t.Error("unclassifiable short source should be rejected")
	}
}

func TestRemoteLoaderRefusesLocalSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("secret"))
	}))
	defer srv.Close()

	path := writePNG(t, 4, 4)
	load := RemoteLoader(nil)
	tests := []struct {
		name   string
		source string
	}{
		{"file path", path},
		{"file url", "file://" + path},
		{"relative path", "photos/a.png"},
		{"loopback server", srv.URL + "/a.png"},
		{"unspecified address", "http://0.0.0.0/a.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := load(context.Background(), tt.source)
			if !errors.Is(err, ErrSourceRejected) {
				t.Errorf("expected rejection, got %q, %v", data, err)
			}
		})
	}

	if data, err := load(context.Background(), "data:image/svg+xml,%3Csvg%2F%3E"); err != nil || string(data) != "<svg/>" {
		t.Errorf("data uri: got %q, %v", data, err)
	}

	onlyTiles := RemoteLoader([]string{"tiles.example.org"})
	if _, err := onlyTiles(context.Background(), "https://other.example.org/a.png"); !errors.Is(err, ErrSourceRejected) {
		t.Errorf("host outside the allowlist: got %v", err)
	}
}

func TestRemoteLoaderFailsToPlaceholder(t *testing.T) {
	c := New(8, nil)
	c.SetLoader(RemoteLoader(nil))
	id := c.Fetch(writePNG(t, 4, 4))
	c.Wait()

	th, _ := c.Get(id)
	if th.Status != Failed || th.Image == nil {
		t.Fatalf("local file was read: %+v", th)
	}
}
