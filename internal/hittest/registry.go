// Package hittest resolves pointer hits through a color-encoded pick buffer.
//
// Every drawable registered in a draw pass gets the next sequential id. The id is
// painted into an off-screen raster as a flat opaque color, so a hit is a single
// pixel read followed by a slice lookup.
package hittest

import (
	"encoding/json"
	"image/color"
)

// idOffset keeps every encoded id inside the opaque color range and away from
// the zero-valued background.
const idOffset = 0x100000

// MaxID is the largest id that still fits into 24 bits after the offset
const MaxID = 0xffffff - idOffset

// Kind tells what a registered drawable is
type Kind int

const (
	KindPoint Kind = iota
	KindMarker
	KindLink
)

// Ref points back at the data behind a drawable.
// For cells Index is the representative point; for links Index is the end
// point and Pred the predecessor it links to.
type Ref struct {
	Kind  Kind
	Group string
	Index int
	Pred  int
}

// IsLink reports whether the ref is a link
func (r Ref) IsLink() bool { return r.Kind == KindLink }

// MarshalJSON renders [group, index] or [group, index, pred]
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.IsLink() {
		return json.Marshal([]interface{}{r.Group, r.Index, r.Pred})
	}
	return json.Marshal([]interface{}{r.Group, r.Index})
}

// Registry is the append-only id table of one draw pass
type Registry struct {
	refs []Ref
}

// Reset clears the table at the start of a draw pass
func (r *Registry) Reset() {
	r.refs = r.refs[:0]
}

// Register appends a ref and returns its id, or -1 once ids are exhausted
func (r *Registry) Register(ref Ref) int {
	if len(r.refs) > MaxID {
		return -1
	}
	r.refs = append(r.refs, ref)
	return len(r.refs) - 1
}

// Lookup returns the ref registered under id
func (r *Registry) Lookup(id int) (Ref, bool) {
	if id < 0 || id >= len(r.refs) {
		return Ref{}, false
	}
	return r.refs[id], true
}

// Len returns the number of registered drawables
func (r *Registry) Len() int { return len(r.refs) }

// Encode returns the pick color for id
func Encode(id int) color.RGBA {
	v := id + idOffset
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// Decode recovers the id from a pick color. Transparent pixels decode to -1.
func Decode(c color.RGBA) int {
	if c.A == 0 {
		return -1
	}
	return (int(c.R)-16)*65536 + int(c.G)*256 + int(c.B)
}

// Hex renders the pick color as #rrggbb
func Hex(id int) string {
	const digits = "0123456789abcdef"
	c := Encode(id)
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		b[1+i*2] = digits[v>>4]
		b[2+i*2] = digits[v&0x0f]
	}
	return string(b)
}
