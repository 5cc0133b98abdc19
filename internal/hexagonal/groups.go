package hexagonal

import (
	"strings"

	"github.com/jengzang/records-hexbin/internal/colors"
	"github.com/jengzang/records-hexbin/internal/filter"
)

// SetGroupOrder reorders the groups. Later groups are painted on top.
//
//	reverse          reverses the order
//	top, totop       moves group to the end
//	bottom, tobottom moves group to the front
//	up, scrollup     rotates the last group to the front
//	down, scrolldown rotates the first group to the end
//
// Unknown modes and unknown groups leave the order unchanged.
func (e *Engine) SetGroupOrder(mode string, group string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order := e.groupOrder
	if len(order) == 0 {
		return
	}
	switch strings.ToLower(mode) {
	case "reverse":
		out := make([]string, 0, len(order))
		for i := len(order) - 1; i >= 0; i-- {
			out = append(out, order[i])
		}
		e.groupOrder = out
	case "top", "totop":
		rest, ok := without(order, group)
		if !ok {
			return
		}
		e.groupOrder = append(rest, group)
	case "bottom", "tobottom":
		rest, ok := without(order, group)
		if !ok {
			return
		}
		e.groupOrder = append([]string{group}, rest...)
	case "up", "scrollup":
		last := order[len(order)-1]
		e.groupOrder = append([]string{last}, order[:len(order)-1]...)
	case "down", "scrolldown":
		e.groupOrder = append(append([]string(nil), order[1:]...), order[0])
	default:
		warnf("unknown group order mode %q", mode)
		return
	}
	e.refreshLocked()
}

// SetGroupOrderList replaces the group order. Unknown groups are ignored and
// groups missing from order keep their relative order after the listed ones.
func (e *Engine) SetGroupOrderList(order []string) {
	if len(order) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[string]bool, len(order))
	out := make([]string, 0, len(e.groupOrder))
	for _, g := range order {
		if _, ok := e.points[g]; !ok || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	for _, g := range e.groupOrder {
		if !seen[g] {
			out = append(out, g)
		}
	}
	e.groupOrder = out
	e.refreshLocked()
}

// GroupOrder returns the current group order
func (e *Engine) GroupOrder() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.groupOrder...)
}

func without(list []string, v string) ([]string, bool) {
	out := make([]string, 0, len(list))
	found := false
	for _, s := range list {
		if s == v {
			found = true
			continue
		}
		out = append(out, s)
	}
	return out, found
}

// SetGroupStyle overrides fill and stroke of a group. Empty values fall back
// to the defaults.
func (e *Engine) SetGroupStyle(group string, style GroupStyle) {
	if group == "" {
		warnf("set group style: invalid group name %q", group)
		return
	}
	if style.Fill != "" {
		if _, err := colors.Parse(style.Fill); err != nil {
			warnf("set group style: %v", err)
			style.Fill = ""
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.groupStyle[group] = style
	e.refreshLocked()
}

// SetGroupName sets the display name of a group
func (e *Engine) SetGroupName(group, name string) {
	if group == "" {
		warnf("set group name: invalid group name %q", group)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.groupName[group] = name
}

// SetGroupVisibility shows or hides a group. It returns false for an unknown group.
func (e *Engine) SetGroupVisibility(group string, visible bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.points[group]; !ok {
		return false
	}
	e.visibility[group] = visible
	e.refreshLocked()
	return true
}

// Groups describes the groups in group order
func (e *Engine) Groups() []GroupInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]GroupInfo, 0, len(e.groupOrder))
	for _, g := range e.groupOrder {
		info := GroupInfo{
			Group:   g,
			Name:    e.groupName[g],
			Visible: e.visibility[g],
			Points:  len(e.points[g]),
			Style:   e.groupStyle[g],
		}
		if info.Name == "" {
			info.Name = g
		}
		for _, p := range e.points[g] {
			if p.IsMarker() {
				info.Markers++
			}
		}
		out = append(out, info)
	}
	return out
}

// Markers returns the marker points of a group in point order
func (e *Engine) Markers(group string) []PointRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []PointRef
	for i, p := range e.points[group] {
		if p.IsMarker() {
			out = append(out, PointRef{Group: group, Index: i})
		}
	}
	return out
}

// ClusteringSettings changes the cluster coloring; nil fields are left as they are
type ClusteringSettings struct {
	Property     *string       `json:"property,omitempty"`
	DefaultValue *float64      `json:"defaultValue,omitempty"`
	Min          *float64      `json:"min,omitempty"`
	Max          *float64      `json:"max,omitempty"`
	Mode         *ClusterMode  `json:"mode,omitempty"`
	Scale        *string       `json:"scale,omitempty"`
	Colors       []interface{} `json:"colors,omitempty"`
}

// SetClustering applies s and rebuilds the color ramp
func (e *Engine) SetClustering(s ClusteringSettings) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s.Property != nil && *s.Property != "" {
		e.opts.ClusterProperty = *s.Property
	}
	if s.DefaultValue != nil {
		e.opts.ClusterDefault = *s.DefaultValue
	}
	if s.Min != nil {
		v := *s.Min
		e.opts.ClusterMin = &v
	}
	if s.Max != nil {
		v := *s.Max
		e.opts.ClusterMax = &v
	}
	if s.Mode != nil {
		if validClusterMode(*s.Mode) {
			e.opts.ClusterMode = *s.Mode
		} else {
			warnf("set clustering: invalid mode %q", *s.Mode)
		}
	}
	if s.Scale != nil {
		e.opts.ClusterScale = colors.ParseScale(*s.Scale)
	}
	if s.Colors != nil {
		e.opts.ClusterColors = s.Colors
	}
	e.ramp = colors.NewRamp(e.opts.ClusterColors, e.opts.ClusterScale)
	e.refreshLocked()
}

// AddFilter appends a filter and returns 1, or 0 when p is invalid
func (e *Engine) AddFilter(p filter.Predicate) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.filters.Add(p)
	if n > 0 {
		e.refreshLocked()
	}
	return n
}

// ClearFilter removes the filter at index, or all filters for -1
func (e *Engine) ClearFilter(index int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.filters.Clear(index)
	e.refreshLocked()
	return ok
}

// SetFilter replaces the filter settings and returns the number of filters added
func (e *Engine) SetFilter(s filter.Settings) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.filters.Set(s)
	e.refreshLocked()
	return n
}

// ToggleFilter flips the active flag and returns the new state
func (e *Engine) ToggleFilter() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	active := e.filters.Toggle()
	e.refreshLocked()
	return active
}

// Filters returns the active flag and the compiled filters
func (e *Engine) Filters() (bool, []filter.Filter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filters.Active(), e.filters.Filters()
}
