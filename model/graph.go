package model

import (
	"github.com/zyedidia/generic/mapset"
)

// ConnectedComponent returns every group reachable from id over same-colour links,
// ordered by row, then column. The start group is always included.
func (b *Board) ConnectedComponent(id GroupID) []*Group {
	return b.collect(id, Directions[:])
}

// VerticalChain is ConnectedComponent restricted to Top and Bottom links.
func (b *Board) VerticalChain(id GroupID) []*Group {
	return b.collect(id, []Direction{Top, Bottom})
}

func (b *Board) collect(id GroupID, dirs []Direction) []*Group {
	start := b.groups[id]
	if start == nil {
		return nil
	}
	visited := mapset.New[GroupID]()
	stack := []*Group{start}
	var out []*Group
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Has(current.ID) {
			continue
		}
		visited.Put(current.ID)
		out = append(out, current)
		for _, d := range dirs {
			neighbor := b.groups[current.Links[d]]
			if neighbor != nil && neighbor.Color == start.Color && !visited.Has(neighbor.ID) {
				stack = append(stack, neighbor)
			}
		}
	}
	SortByPosition(out)
	return out
}

// IsEscapeable reports whether a TopRowEligible group shares id's component.
// Diagnostic only; turns validate with ExitStart.
func (b *Board) IsEscapeable(id GroupID) bool {
	for _, g := range b.ConnectedComponent(id) {
		if g.TopRowEligible {
			return true
		}
	}
	return false
}

// ExitStart returns the first member, in the given order, that sits on the exit row
// or touches an Empty cell. ok is false when the component is sealed in.
func (b *Board) ExitStart(component []*Group) (start Coord, ok bool) {
	for _, g := range component {
		if g.Pos.Row == ExitRow {
			return g.Pos, true
		}
		for _, n := range b.Neighbors(g.Pos) {
			if b.IsEmpty(n) {
				return g.Pos, true
			}
		}
	}
	return Coord{}, false
}

// Chain walks same-colour links depth-first in Left, Right, Top, Bottom priority
// and stops after limit groups.
func (b *Board) Chain(id GroupID, limit int) []*Group {
	var result []*Group
	visited := mapset.New[GroupID]()
	var walk func(g *Group)
	walk = func(g *Group) {
		if g == nil || visited.Has(g.ID) || len(result) >= limit {
			return
		}
		visited.Put(g.ID)
		result = append(result, g)
		for _, d := range Directions {
			n := b.groups[g.Links[d]]
			if n != nil && n.Color == g.Color {
				walk(n)
				if len(result) >= limit {
					return
				}
			}
		}
	}
	walk(b.groups[id])
	return result
}

// Coords maps groups to their positions.
func Coords(groups []*Group) []Coord {
	out := make([]Coord, len(groups))
	for i, g := range groups {
		out[i] = g.Pos
	}
	return out
}
