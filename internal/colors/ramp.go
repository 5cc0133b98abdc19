// Package colors maps cluster values onto a color ramp.
package colors

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cast"
)

// RGBA is a color with 0..255 channels and 0..1 alpha.
// Channels stay floats so interpolated values are reported exactly.
type RGBA struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// String renders the color as a CSS rgba() value
func (c RGBA) String() string {
	return "rgba(" + num(c.R) + "," + num(c.G) + "," + num(c.B) + "," + num(c.A) + ")"
}

// Bytes clamps the color to 8-bit channels
func (c RGBA) Bytes() (r, g, b, a uint8) {
	clamp := func(v float64) uint8 {
		return uint8(math.Max(0, math.Min(255, math.Round(v))))
	}
	return clamp(c.R), clamp(c.G), clamp(c.B), clamp(c.A * 255)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Scale is the value-to-ramp mapping
type Scale string

const (
	Linear Scale = "linear"
	Sqrt   Scale = "sqrt"
	Log    Scale = "log"
)

// ParseScale returns the named scale; anything unknown is linear
func ParseScale(s string) Scale {
	switch Scale(strings.ToLower(s)) {
	case Sqrt:
		return Sqrt
	case Log:
		return Log
	}
	return Linear
}

// DefaultStops is used when a ramp definition is unusable
var DefaultStops = []RGBA{{48, 50, 52, 1}, {224, 226, 228, 1}}

// Ramp interpolates between ordered color stops
type Ramp struct {
	Stops []RGBA
	Scale Scale
}

// NewRamp builds a ramp from stop definitions. A stop may be a CSS color string
// (#rgb, #rgba, #rrggbb, #rrggbbaa, rgb(), rgba()) or an [r,g,b,a] list.
// An empty or invalid list falls back to DefaultStops with a warning.
func NewRamp(stops []interface{}, scale Scale) Ramp {
	r := Ramp{Scale: scale}
	if len(stops) == 0 {
		log.Printf("[Colors] warning: empty color ramp, using default")
		r.Stops = append([]RGBA(nil), DefaultStops...)
		return r
	}
	for _, s := range stops {
		c, err := ParseStop(s)
		if err != nil {
			log.Printf("[Colors] warning: %v", err)
			c = RGBA{0, 0, 0, 1}
		}
		r.Stops = append(r.Stops, c)
	}
	if len(r.Stops) < 2 {
		r.Stops = append(r.Stops, r.Stops[0])
	}
	return r
}

// NewRampFromStrings is NewRamp for a list of CSS colors
func NewRampFromStrings(stops []string, scale Scale) Ramp {
	vals := make([]interface{}, len(stops))
	for i, s := range stops {
		vals[i] = s
	}
	return NewRamp(vals, scale)
}

// ParseStop converts one stop definition to a color
func ParseStop(v interface{}) (RGBA, error) {
	switch s := v.(type) {
	case string:
		return Parse(s)
	case RGBA:
		return s, nil
	case []float64:
		vals := make([]interface{}, len(s))
		for i, f := range s {
			vals[i] = f
		}
		v = vals
	}
	vals, err := cast.ToSliceE(v)
	if err != nil {
		return RGBA{}, fmt.Errorf("invalid color stop %v", v)
	}
	c := RGBA{A: 1}
	ch := []*float64{&c.R, &c.G, &c.B, &c.A}
	for i := 0; i < len(vals) && i < 4; i++ {
		f, err := cast.ToFloat64E(vals[i])
		if err != nil {
			return RGBA{}, fmt.Errorf("invalid color stop %v: %w", v, err)
		}
		*ch[i] = f
	}
	return c, nil
}

// Parse reads a CSS hex or rgb()/rgba() color
func Parse(s string) (RGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if strings.HasPrefix(s, "#") {
		return parseHex(s)
	}
	if strings.HasPrefix(s, "rgb") {
		open := strings.Index(s, "(")
		end := strings.LastIndex(s, ")")
		if open < 0 || end < open {
			return RGBA{}, fmt.Errorf("invalid color %q", s)
		}
		parts := strings.Split(s[open+1:end], ",")
		if len(parts) < 3 || len(parts) > 4 {
			return RGBA{}, fmt.Errorf("invalid color %q", s)
		}
		c := RGBA{A: 1}
		ch := []*float64{&c.R, &c.G, &c.B, &c.A}
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
			}
			*ch[i] = f
		}
		return c, nil
	}
	return RGBA{}, fmt.Errorf("invalid color %q", s)
}

func parseHex(s string) (RGBA, error) {
	alpha := 1.0
	switch len(s) {
	case 5, 9:
		// trailing alpha digit(s)
		n := (len(s) - 1) / 4
		a, err := strconv.ParseUint(s[len(s)-n:], 16, 8)
		if err != nil {
			return RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		if n == 1 {
			a *= 17
		}
		alpha = float64(a) / 255
		s = s[:len(s)-n]
	}
	col, err := colorful.Hex(s)
	if err != nil {
		return RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := col.RGB255()
	return RGBA{R: float64(r), G: float64(g), B: float64(b), A: alpha}, nil
}

// At maps value onto the ramp for the domain [min, max].
// Values at or beyond either end return that end's stop unchanged.
func (r Ramp) At(value, min, max float64) RGBA {
	stops := r.Stops
	if len(stops) == 0 {
		stops = DefaultStops
	}
	l := len(stops) - 1
	t0, t1 := math.Min(min, max), math.Max(min, max)

	if math.IsNaN(value) || value <= t0 {
		return stops[0]
	}
	if value >= t1 || l == 0 {
		return stops[l]
	}

	var t float64
	switch r.Scale {
	case Log:
		t = math.Log(value-t0+1) / math.Log(t1-t0+1)
	case Sqrt:
		t = math.Sqrt(value-t0) / math.Sqrt(t1-t0)
	default:
		t = (value - t0) / (t1 - t0)
	}

	t *= float64(l)
	f := int(math.Floor(t))
	if f >= l {
		return stops[l]
	}
	t -= float64(f)
	a, b := stops[f], stops[f+1]
	return RGBA{
		R: a.R*(1-t) + b.R*t,
		G: a.G*(1-t) + b.G*t,
		B: a.B*(1-t) + b.B*t,
		A: a.A*(1-t) + b.A*t,
	}
}
