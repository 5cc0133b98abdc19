package filter

import "testing"

type subject struct {
	data map[string]float64
	text map[string]string
}

func (s subject) Number(p string) (float64, bool) {
	v, ok := s.data[p]
	return v, ok
}

func (s subject) Text(p string) (string, bool) {
	v, ok := s.text[p]
	return v, ok
}

func point(speed float64, name string) subject {
	return subject{
		data: map[string]float64{"speed": speed},
		text: map[string]string{"name": name, "tags": "", "group": "g", "id": "1"},
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	e := New()
	bad := []Predicate{
		{Property: "speed", Operator: "~", Value: 1},
		{Property: "speed", Operator: ">", Value: "fast"},
		{Property: "speed", Operator: "between", Value0: 1},
		{Property: "", Operator: "=", Value: 1},
		{Property: "name", Operator: "contains"},
	}
	for _, p := range bad {
		if got := e.Add(p); got != 0 {
			t.Errorf("Add(%+v): got %d, want 0", p, got)
		}
	}
	if len(e.Filters()) != 0 {
		t.Errorf("Expected empty list, got %d filters", len(e.Filters()))
	}
}

func TestAliasesNormalize(t *testing.T) {
	tests := map[string]Operator{
		"not": NotEqual, "GREATER": Greater, "greaterequal": GreaterEqual,
		"smaller": Less, "less": Less, "smallerequal": LessEqual, "lessequal": LessEqual,
		"between": Between, "apart": Outside, "outside": Outside, "StartsWith": StartsWith,
	}
	for in, want := range tests {
		got, ok := ParseOperator(in)
		if !ok || got != want {
			t.Errorf("ParseOperator(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestNumericOperators(t *testing.T) {
	p := point(10, "x")
	tests := []struct {
		op   string
		v    interface{}
		want bool
	}{
		{"=", 10, true},
		{"=", "10", true},
		{"!=", 10, false},
		{">", 9, true},
		{">=", 10, true},
		{"<", 10, false},
		{"<=", 10, true},
	}
	for _, tt := range tests {
		f, ok := Compile(Predicate{Property: "speed", Operator: tt.op, Value: tt.v})
		if !ok {
			t.Fatalf("Compile(%s %v) rejected", tt.op, tt.v)
		}
		if got := f.Pass(p); got != tt.want {
			t.Errorf("speed %s %v: got %v, want %v", tt.op, tt.v, got, tt.want)
		}
	}
}

func TestRangeOperatorsNormalizeOrder(t *testing.T) {
	f, ok := Compile(Predicate{Property: "speed", Operator: "between", Value0: 20, Value1: 5})
	if !ok {
		t.Fatal("between rejected")
	}
	if f.Value0 != 5 || f.Value1 != 20 {
		t.Errorf("Expected [5,20], got [%v,%v]", f.Value0, f.Value1)
	}
	if !f.Pass(point(5, "")) || !f.Pass(point(20, "")) || f.Pass(point(21, "")) {
		t.Error("between is inclusive on both ends")
	}

	out, _ := Compile(Predicate{Property: "speed", Operator: "<>", Value: []interface{}{5.0, 20.0}})
	if out.Pass(point(10, "")) || !out.Pass(point(4, "")) || !out.Pass(point(21, "")) {
		t.Error("outside passes strictly outside the range")
	}
}

func TestMissingPropertyOnlyPassesNotEqual(t *testing.T) {
	p := subject{data: map[string]float64{}, text: map[string]string{}}
	ne, _ := Compile(Predicate{Property: "alt", Operator: "!=", Value: 1})
	gt, _ := Compile(Predicate{Property: "alt", Operator: ">", Value: 1})
	if !ne.Pass(p) {
		t.Error("!= should pass on a missing field")
	}
	if gt.Pass(p) {
		t.Error("> should fail on a missing field")
	}
}

func TestStringOperatorsCaseInsensitive(t *testing.T) {
	p := point(0, "Beijing West")
	tests := []struct {
		op, v string
		want  bool
	}{
		{"contains", "JING", true},
		{"startswith", "bei", true},
		{"endswith", "WEST", true},
		{"endswith", "east", false},
	}
	for _, tt := range tests {
		f, ok := Compile(Predicate{Property: "name", Operator: tt.op, Value: tt.v})
		if !ok {
			t.Fatalf("Compile(%s) rejected", tt.op)
		}
		if got := f.Pass(p); got != tt.want {
			t.Errorf("name %s %q: got %v, want %v", tt.op, tt.v, got, tt.want)
		}
	}
}

func TestPassesIsConjunction(t *testing.T) {
	e := New()
	e.Add(Predicate{Property: "speed", Operator: ">", Value: 5})
	e.Add(Predicate{Property: "name", Operator: "contains", Value: "a"})

	cases := []struct {
		p    subject
		want bool
	}{
		{point(10, "abc"), true},
		{point(10, "xyz"), false},
		{point(1, "abc"), false},
		{point(1, "xyz"), false},
	}
	for _, c := range cases {
		if got := e.Passes(c.p); got != c.want {
			t.Errorf("Passes(%v): got %v, want %v", c.p, got, c.want)
		}
	}

	if e.Toggle() {
		t.Fatal("Toggle should deactivate")
	}
	for _, c := range cases {
		if !e.Passes(c.p) {
			t.Errorf("inactive engine must pass %v", c.p)
		}
	}
}

func TestClearAndSet(t *testing.T) {
	e := New()
	off := false
	n := e.Set(Settings{Active: &off, Filters: []Predicate{
		{Property: "speed", Operator: ">", Value: 1},
		{Property: "speed", Operator: "<", Value: 9},
		{Property: "speed", Operator: "??", Value: 9},
	}})
	if n != 2 {
		t.Errorf("Set: got %d added, want 2", n)
	}
	if e.Active() {
		t.Error("Set should have deactivated filtering")
	}
	if !e.Clear(0) || len(e.Filters()) != 1 || e.Filters()[0].Operator != Less {
		t.Errorf("Clear(0) left %+v", e.Filters())
	}
	if e.Clear(5) {
		t.Error("Clear out of range should do nothing")
	}
	if !e.Clear(-1) || len(e.Filters()) != 0 {
		t.Error("Clear(-1) should remove everything")
	}
}
