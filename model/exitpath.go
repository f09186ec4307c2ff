package model

import (
	"github.com/zyedidia/generic/mapset"
)

// ExitPathFinder searches exit corridors over one board and keeps a canonical
// path per connected group so siblings converge on the same corridor.
type ExitPathFinder struct {
	Board *Board

	// canonical is keyed by the component key the caller picks for a turn.
	canonical map[GroupID]ExitPath
}

func NewExitPathFinder(b *Board) *ExitPathFinder {
	return &ExitPathFinder{
		Board:     b,
		canonical: make(map[GroupID]ExitPath),
	}
}

// Reset drops every cached canonical path.
func (f *ExitPathFinder) Reset() {
	f.canonical = make(map[GroupID]ExitPath)
}

func (f *ExitPathFinder) Canonical(key GroupID) (ExitPath, bool) {
	p, ok := f.canonical[key]
	return p, ok
}

// FindPath runs a FIFO breadth-first search from start through Empty cells and
// cells holding a group of color, stopping at the first Empty exit-row cell.
// Returns nil when no exit is reachable.
func (f *ExitPathFinder) FindPath(start Coord, color Color) ExitPath {
	return f.search(start, color, func(c Coord) bool {
		return c.Row == ExitRow && f.Board.IsEmpty(c)
	})
}

// PathFor returns the exit path of start as a member of the group keyed by key.
// The first path found for a key becomes canonical; later members merge into it.
func (f *ExitPathFinder) PathFor(key GroupID, start Coord, color Color) ExitPath {
	if canonical, ok := f.canonical[key]; ok {
		return f.MergeIntoExitPath(start, canonical, color)
	}
	path := f.FindPath(start, color)
	if len(path) > 0 {
		f.canonical[key] = path
	}
	return path
}

// MergeIntoExitPath searches from start until any coordinate of canonical is
// reached, then splices the canonical suffix after that merge point.
func (f *ExitPathFinder) MergeIntoExitPath(start Coord, canonical ExitPath, color Color) ExitPath {
	if len(canonical) == 0 {
		return nil
	}
	prefix := f.search(start, color, func(c Coord) bool {
		return canonical.IndexOf(c) >= 0
	})
	if len(prefix) == 0 {
		return nil
	}
	merge := canonical.IndexOf(prefix.Last())
	out := make(ExitPath, 0, len(prefix)+len(canonical)-merge-1)
	out = append(out, prefix...)
	out = append(out, canonical[merge+1:]...)
	return out
}

// PathTo is a bounded search from start to a specific target coordinate.
func (f *ExitPathFinder) PathTo(start, target Coord, color Color) ExitPath {
	return f.search(start, color, func(c Coord) bool {
		return c == target
	})
}

func (f *ExitPathFinder) traversable(c Coord, color Color) bool {
	cell := f.Board.Cell(c)
	switch cell.Kind {
	case CellEmpty:
		return true
	case CellGroup:
		g := f.Board.Group(cell.Group)
		return g != nil && g.Color == color
	case CellObstacle:
		return false
	}
	return false
}

func (f *ExitPathFinder) search(start Coord, color Color, goal func(Coord) bool) ExitPath {
	if !f.Board.InBounds(start) {
		return nil
	}
	queue := []Coord{start}
	cameFrom := make(map[Coord]Coord)
	visited := mapset.New[Coord]()
	visited.Put(start)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if goal(current) {
			return rebuild(cameFrom, start, current)
		}
		for _, n := range f.Board.Neighbors(current) {
			if visited.Has(n) || !f.traversable(n, color) {
				continue
			}
			visited.Put(n)
			cameFrom[n] = current
			queue = append(queue, n)
		}
	}
	return nil
}

func rebuild(cameFrom map[Coord]Coord, start, end Coord) ExitPath {
	path := ExitPath{end}
	for step := end; step != start; {
		step = cameFrom[step]
		path = append(path, step)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
