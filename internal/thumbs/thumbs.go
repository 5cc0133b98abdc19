// Package thumbs loads marker images and icons and keeps square thumbnails of them.
package thumbs

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// Kind tells how a thumb is drawn
type Kind string

const (
	KindImage Kind = "image"
	KindIcon  Kind = "icon"
)

// Status of a thumb load
type Status int

const (
	Pending Status = iota
	Failed
	Loaded
)

// maxFetchBytes caps the body read for one remote source
const maxFetchBytes = 16 << 20

// refreshInterval is the minimum spacing of refreshes while loads are still outstanding
const refreshInterval = time.Second

// Thumb is a loaded (or pending) marker graphic
type Thumb struct {
	ID       string
	Kind     Kind
	Source   string
	Status   Status
	Size     int
	Original image.Point
	// Image is the square raster; nil for vector icons
	Image *image.RGBA
	// SVG holds the markup of vector icons
	SVG []byte
}

// ErrSourceRejected marks sources a restricted loader will not read
var ErrSourceRejected = errors.New("thumb source rejected")

// Loader fetches the raw bytes behind a source
type Loader func(ctx context.Context, source string) ([]byte, error)

// Cache owns all thumbs of an engine
type Cache struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	size     int
	thumbs   map[string]*Thumb
	errThumb *image.RGBA
	called   int
	resolved int
	last     time.Time
	timeout  time.Duration

	load      Loader
	onRefresh func()
}

// New creates a cache producing thumbs of size x size pixels.
// onRefresh is called when every pending load resolved, or at most once per second while loads are outstanding.
func New(size int, onRefresh func()) *Cache {
	if size <= 0 {
		size = 64
	}
	c := &Cache{
		size:      size,
		thumbs:    make(map[string]*Thumb),
		errThumb:  placeholder(size),
		timeout:   10 * time.Second,
		onRefresh: onRefresh,
	}
	c.load = c.defaultLoader
	return c
}

// SetLoader replaces the byte loader
func (c *Cache) SetLoader(l Loader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load = l
}

// Classify determines the thumb kind of a source. Raw SVG markup is turned into a data URI.
func Classify(source string) (Kind, string, bool) {
	l := len(source)
	if l == 0 {
		return "", source, false
	}
	start := strings.ToLower(source[:min(14, l)])
	end := strings.ToLower(source[max(0, l-4):])

	switch {
	case end == ".jpg" || end == "jpeg" || end == ".png":
		return KindImage, source, true
	case end == ".svg":
		return KindIcon, source, true
	case strings.HasPrefix(start, "<svg ") || strings.HasPrefix(start, "<?xml"):
		return KindIcon, "data:image/svg+xml," + url.PathEscape(source), true
	case start == "data:image/svg":
		return KindIcon, source, true
	case strings.HasPrefix(start, "data:image"):
		return KindImage, source, true
	}
	return "", source, false
}

// ID returns the stable thumb id of a source
func ID(source string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source)).String()
}

// Fetch registers a source and starts loading it in the background. It returns
// the thumb id, or "" when the source cannot be classified. A short source that
// names an existing thumb resolves to it.
func (c *Cache) Fetch(source string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(source) < 24 {
		if _, ok := c.thumbs[source]; ok {
			return source
		}
	}

	kind, normalized, ok := Classify(source)
	if !ok {
		log.Printf("[Thumbs] warning: invalid source %.64q", source)
		return ""
	}
	id := ID(source)
	if _, ok := c.thumbs[id]; ok {
		return id
	}

	t := &Thumb{ID: id, Kind: kind, Source: normalized, Status: Pending, Size: c.size}
	c.thumbs[id] = t
	c.called++

	c.wg.Add(1)
	go c.resolve(t, c.load)
	return id
}

// Get returns the thumb registered under id
func (c *Cache) Get(id string) (Thumb, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.thumbs[id]
	if !ok {
		return Thumb{}, false
	}
	return *t, true
}

// Counts returns how many loads were started and how many resolved
func (c *Cache) Counts() (called, resolved int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.called, c.resolved
}

// Wait blocks until every started load resolved
func (c *Cache) Wait() {
	c.wg.Wait()
}

// EncodePNG writes the raster of a thumb
func (t Thumb) EncodePNG(w io.Writer) error {
	if t.Image == nil {
		return fmt.Errorf("thumb %s has no raster", t.ID)
	}
	return png.Encode(w, t.Image)
}

func (c *Cache) resolve(t *Thumb, load Loader) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var (
		img    *image.RGBA
		orig   image.Point
		svg    []byte
		status = Loaded
	)
	data, err := load(ctx, t.Source)
	if err == nil {
		if isSVG(t.Source, data) {
			svg = data
		} else {
			img, orig, err = square(data, c.size)
		}
	}
	if err != nil {
		log.Printf("[Thumbs] failed to load %.64q: %v", t.Source, err)
		img, svg, status = c.errThumb, nil, Failed
	}

	c.mu.Lock()
	t.Image, t.SVG, t.Original, t.Status = img, svg, orig, status
	c.resolved++
	refresh := false
	now := time.Now()
	if c.called == c.resolved || c.last.Add(refreshInterval).Before(now) {
		c.last = now
		refresh = true
	}
	fn := c.onRefresh
	c.mu.Unlock()

	if refresh && fn != nil {
		fn()
	}
}

// square center-crops an image to a square and scales it to size
func square(data []byte, size int) (*image.RGBA, image.Point, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("failed to decode image: %w", err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	crop := b
	if r := w - h; r > 0 {
		crop = image.Rect(b.Min.X+r/2, b.Min.Y, b.Min.X+r/2+h, b.Max.Y)
	} else if r < 0 {
		crop = image.Rect(b.Min.X, b.Min.Y-r/2, b.Max.X, b.Min.Y-r/2+w)
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)
	return dst, image.Point{X: w, Y: h}, nil
}

func isSVG(source string, data []byte) bool {
	if strings.HasPrefix(strings.ToLower(source), "data:image/svg") || strings.HasSuffix(strings.ToLower(source), ".svg") {
		return true
	}
	head := bytes.TrimSpace(data[:min(len(data), 64)])
	return bytes.HasPrefix(head, []byte("<svg")) || bytes.HasPrefix(head, []byte("<?xml"))
}

// placeholder is the thumb used for failed loads
func placeholder(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	bg := color.RGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff}
	fg := color.RGBA{R: 0xd4, G: 0x44, B: 0x44, A: 0xff}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	// diagonal cross
	for i := 0; i < size; i++ {
		for d := -1; d <= 1; d++ {
			if j := i + d; j >= 0 && j < size {
				img.SetRGBA(i, j, fg)
				img.SetRGBA(size-1-i, j, fg)
			}
		}
	}
	return img
}

func (c *Cache) defaultLoader(ctx context.Context, source string) ([]byte, error) {
	switch {
	case strings.HasPrefix(source, "data:"):
		return decodeDataURI(source)
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		return fetch(ctx, http.DefaultClient, source)
	default:
		return os.ReadFile(source)
	}
}

// RemoteLoader reads data URIs and http(s) URLs only. Local paths are refused,
// and so are connections to loopback, private and link-local addresses.
// A non-empty hosts list restricts the hosts that may be fetched.
func RemoteLoader(hosts []string) Loader {
	allow := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		allow[strings.ToLower(h)] = true
	}
	allowed := func(u *url.URL) bool {
		if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
			return false
		}
		return len(allow) == 0 || allow[strings.ToLower(u.Hostname())]
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second, Control: refusePrivate}
	client := &http.Client{
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: 5 * time.Second,
			MaxIdleConns:        8,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			if !allowed(req.URL) {
				return fmt.Errorf("%w: redirect to %s", ErrSourceRejected, req.URL.Host)
			}
			return nil
		},
	}

	return func(ctx context.Context, source string) ([]byte, error) {
		if strings.HasPrefix(source, "data:") {
			return decodeDataURI(source)
		}
		u, err := url.Parse(source)
		if err != nil || !allowed(u) {
			return nil, fmt.Errorf("%w: %.64q", ErrSourceRejected, source)
		}
		return fetch(ctx, client, source)
	}
}

// refusePrivate is a dialer control rejecting non-public addresses
func refusePrivate(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast() {
		return fmt.Errorf("%w: address %s", ErrSourceRejected, host)
	}
	return nil
}

func fetch(ctx context.Context, client *http.Client, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
}

// decodeDataURI handles base64 and percent-encoded data URIs
func decodeDataURI(uri string) ([]byte, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, fmt.Errorf("malformed data uri")
	}
	header, payload := uri[5:comma], uri[comma+1:]
	if strings.HasSuffix(header, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("malformed data uri: %w", err)
	}
	return []byte(s), nil
}
