// Package filter evaluates per-point predicates. All active predicates must pass.
package filter

import (
	"log"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Operator is a normalized predicate operator
type Operator string

const (
	Equal        Operator = "="
	NotEqual     Operator = "!="
	Greater      Operator = ">"
	GreaterEqual Operator = ">="
	Less         Operator = "<"
	LessEqual    Operator = "<="
	Between      Operator = "><"
	Outside      Operator = "<>"
	Contains     Operator = "contains"
	StartsWith   Operator = "startswith"
	EndsWith     Operator = "endswith"
)

var aliases = map[string]Operator{
	"=":            Equal,
	"!=":           NotEqual,
	"not":          NotEqual,
	">":            Greater,
	"greater":      Greater,
	">=":           GreaterEqual,
	"greaterequal": GreaterEqual,
	"<":            Less,
	"less":         Less,
	"smaller":      Less,
	"<=":           LessEqual,
	"lessequal":    LessEqual,
	"smallerequal": LessEqual,
	"><":           Between,
	"between":      Between,
	"<>":           Outside,
	"apart":        Outside,
	"outside":      Outside,
	"contains":     Contains,
	"startswith":   StartsWith,
	"endswith":     EndsWith,
}

// ParseOperator resolves an operator or one of its aliases
func ParseOperator(s string) (Operator, bool) {
	op, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	return op, ok
}

func (o Operator) isRange() bool { return o == Between || o == Outside }

func (o Operator) isText() bool { return o == Contains || o == StartsWith || o == EndsWith }

// Predicate is a filter as submitted by a caller.
// Range operators take Value0/Value1, or a two-element Value.
type Predicate struct {
	Property string      `json:"property"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value,omitempty"`
	Value0   interface{} `json:"value0,omitempty"`
	Value1   interface{} `json:"value1,omitempty"`
}

// Filter is a validated predicate
type Filter struct {
	Property string   `json:"property"`
	Operator Operator `json:"operator"`
	Value    float64  `json:"value,omitempty"`
	Value0   float64  `json:"value0,omitempty"`
	Value1   float64  `json:"value1,omitempty"`
	Text     string   `json:"text,omitempty"`
}

// Subject is anything a filter can be evaluated against
type Subject interface {
	// Number returns a numeric data field
	Number(property string) (float64, bool)
	// Text returns one of the text fields name, tags, group or id
	Text(property string) (string, bool)
}

// Compile validates a predicate
func Compile(p Predicate) (Filter, bool) {
	if p.Property == "" {
		return Filter{}, false
	}
	op, ok := ParseOperator(p.Operator)
	if !ok {
		return Filter{}, false
	}
	f := Filter{Property: p.Property, Operator: op}

	switch {
	case op.isText():
		if p.Value == nil {
			return Filter{}, false
		}
		s, err := cast.ToStringE(p.Value)
		if err != nil {
			return Filter{}, false
		}
		f.Text = strings.ToLower(s)
	case op.isRange():
		v0, v1 := p.Value0, p.Value1
		if pair, err := cast.ToSliceE(p.Value); err == nil && len(pair) == 2 {
			v0, v1 = pair[0], pair[1]
		}
		lo, ok0 := number(v0)
		hi, ok1 := number(v1)
		if !ok0 || !ok1 {
			return Filter{}, false
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		f.Value0, f.Value1 = lo, hi
	default:
		v, ok := number(p.Value)
		if !ok {
			return Filter{}, false
		}
		f.Value = v
	}
	return f, true
}

func number(v interface{}) (float64, bool) {
	if v == nil {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Pass evaluates a single filter
func (f Filter) Pass(s Subject) bool {
	if f.Operator.isText() {
		t, ok := s.Text(f.Property)
		if !ok {
			return false
		}
		t = strings.ToLower(t)
		switch f.Operator {
		case Contains:
			return strings.Contains(t, f.Text)
		case StartsWith:
			return strings.HasPrefix(t, f.Text)
		default:
			return strings.HasSuffix(t, f.Text)
		}
	}

	v, ok := s.Number(f.Property)
	if !ok {
		// a missing field is only ever "not equal"
		return f.Operator == NotEqual
	}
	switch f.Operator {
	case Equal:
		return v == f.Value
	case NotEqual:
		return v != f.Value
	case Greater:
		return v > f.Value
	case GreaterEqual:
		return v >= f.Value
	case Less:
		return v < f.Value
	case LessEqual:
		return v <= f.Value
	case Between:
		return v >= f.Value0 && v <= f.Value1
	case Outside:
		return v < f.Value0 || v > f.Value1
	}
	return false
}

// Engine holds the ordered filter list and the active toggle
type Engine struct {
	filters []Filter
	active  bool
}

// New creates an active engine with no filters
func New() *Engine {
	return &Engine{active: true}
}

// Add appends a predicate. It returns 1 when accepted and 0 when rejected.
func (e *Engine) Add(p Predicate) int {
	f, ok := Compile(p)
	if !ok {
		log.Printf("[Filter] warning: rejected predicate %+v", p)
		return 0
	}
	e.filters = append(e.filters, f)
	return 1
}

// Clear removes the filter at index, or all filters for a negative index.
// It reports whether anything was removed.
func (e *Engine) Clear(index int) bool {
	if len(e.filters) == 0 {
		return false
	}
	if index < 0 {
		e.filters = nil
		return true
	}
	if index >= len(e.filters) {
		return false
	}
	e.filters = append(e.filters[:index], e.filters[index+1:]...)
	return true
}

// Settings is a bulk update: an optional active flag and predicates to append
type Settings struct {
	Active  *bool       `json:"active,omitempty"`
	Filters []Predicate `json:"filters,omitempty"`
}

// Set applies a bulk update and returns how many predicates were added
func (e *Engine) Set(s Settings) int {
	if s.Active != nil {
		e.active = *s.Active
	}
	n := 0
	for _, p := range s.Filters {
		n += e.Add(p)
	}
	return n
}

// Toggle flips the active flag and returns the new state
func (e *Engine) Toggle() bool {
	e.active = !e.active
	return e.active
}

// Active reports whether filtering is on
func (e *Engine) Active() bool { return e.active }

// Filters returns a copy of the current list
func (e *Engine) Filters() []Filter {
	return append([]Filter(nil), e.filters...)
}

// Passes reports whether s passes every filter. An inactive engine or an
// empty list passes everything.
func (e *Engine) Passes(s Subject) bool {
	if !e.active || len(e.filters) == 0 {
		return true
	}
	for _, f := range e.filters {
		if !f.Pass(s) {
			return false
		}
	}
	return true
}
