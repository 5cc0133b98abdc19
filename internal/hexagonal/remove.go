package hexagonal

import (
	"github.com/jengzang/records-hexbin/internal/metrics"
)

// RemovePoint removes every point with the given id, limited to one group when
// group is not empty. Links of the remaining points are re-indexed: indices
// above a removed point shift down, links to it move to its first predecessor
// or are dropped. An emptied group is removed. It returns the number removed.
func (e *Engine) RemovePoint(id string, group string) int {
	if id == "" {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	c := 0
	for _, g := range append([]string(nil), e.groupOrder...) {
		if group != "" && group != g {
			continue
		}
		for i := 0; i < len(e.points[g]); {
			if e.points[g][i].ID != id {
				i++
				continue
			}
			e.removeAt(g, i)
			c++
		}
		if len(e.points[g]) == 0 {
			e.removeGroup(g)
		}
	}

	metrics.PointsRemoved.Add(float64(c))
	e.refreshLocked()
	return c
}

// removeAt deletes the point at index i of group g and re-links the rest
func (e *Engine) removeAt(g string, i int) {
	ps := e.points[g]
	removed := ps[i]
	redirect := -1
	if len(removed.Link) > 0 {
		redirect = removed.Link[0]
		if redirect == i {
			redirect = -1
		} else if redirect > i {
			redirect--
		}
	}

	ps = append(ps[:i], ps[i+1:]...)
	e.points[g] = ps

	for j, p := range ps {
		links := p.Link[:0]
		for _, l := range p.Link {
			switch {
			case l > i:
				l--
			case l == i:
				l = redirect
			}
			if l < 0 || l == j {
				continue
			}
			links = append(links, l)
		}
		p.Link = links
	}
}

// RemoveGroup removes a group with all its points and returns the number removed
func (e *Engine) RemoveGroup(group string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.removeGroup(group)
	metrics.PointsRemoved.Add(float64(c))
	e.refreshLocked()
	return c
}

func (e *Engine) removeGroup(group string) int {
	ps, ok := e.points[group]
	if !ok {
		return 0
	}
	for i, g := range e.groupOrder {
		if g == group {
			e.groupOrder = append(e.groupOrder[:i], e.groupOrder[i+1:]...)
			break
		}
	}
	delete(e.points, group)
	delete(e.visibility, group)
	delete(e.groupStyle, group)
	delete(e.groupName, group)
	return len(ps)
}

// RemoveAll removes every group and returns the number of points removed
func (e *Engine) RemoveAll() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := 0
	for _, g := range append([]string(nil), e.groupOrder...) {
		c += e.removeGroup(g)
	}
	metrics.PointsRemoved.Add(float64(c))
	e.refreshLocked()
	return c
}
