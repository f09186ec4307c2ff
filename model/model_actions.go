package model

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrOutOfBounds = errors.New("coordinate out of bounds")
	ErrOccupied    = errors.New("cell occupied")
)

// NewEmptyBoard creates a cols x rows board with every cell Empty.
func NewEmptyBoard(cols, rows, squadSize int) *Board {
	b := &Board{
		Cols:      cols,
		Rows:      rows,
		SquadSize: squadSize,
		cells:     make([]Cell, cols*rows),
		groups:    make(map[GroupID]*Group),
	}
	for i := range b.cells {
		b.cells[i] = Empty()
	}
	return b
}

// NewBoard places a static layout. layout[row][col] holds a colour, ColorNone for Empty;
// obstacles lists blocked coordinates. Links are built once everything is placed.
func NewBoard(layout [][]Color, obstacles []Coord, squadSize int) (*Board, error) {
	rows := len(layout)
	if rows == 0 {
		return nil, fmt.Errorf("empty layout: %w", ErrOutOfBounds)
	}
	cols := len(layout[0])
	b := NewEmptyBoard(cols, rows, squadSize)
	// create
	for r := 0; r < rows; r++ {
		if len(layout[r]) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", r, len(layout[r]), cols, ErrOutOfBounds)
		}
		for c := 0; c < cols; c++ {
			if layout[r][c] == ColorNone {
				continue
			}
			if _, err := b.Place(Coord{c, r}, layout[r][c]); err != nil {
				return nil, err
			}
		}
	}
	for _, o := range obstacles {
		if err := b.PlaceObstacle(o); err != nil {
			return nil, err
		}
	}
	// connect
	b.Relink()
	return b, nil
}

func (b *Board) InBounds(c Coord) bool {
	return c.Col >= 0 && c.Col < b.Cols && c.Row >= 0 && c.Row < b.Rows
}

func (b *Board) index(c Coord) int {
	return c.Row*b.Cols + c.Col
}

// Cell returns the occupant at c. Out-of-bounds coordinates read as Obstacle.
func (b *Board) Cell(c Coord) Cell {
	if !b.InBounds(c) {
		return Obstacle()
	}
	return b.cells[b.index(c)]
}

func (b *Board) IsEmpty(c Coord) bool {
	return b.InBounds(c) && b.cells[b.index(c)].Kind == CellEmpty
}

// Neighbors returns the in-bounds 4-neighbours of c in Left, Right, Top, Bottom order.
func (b *Board) Neighbors(c Coord) []Coord {
	out := make([]Coord, 0, 4)
	for _, d := range Directions {
		n := c.Step(d)
		if b.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

func (b *Board) Group(id GroupID) *Group {
	return b.groups[id]
}

// GroupAt returns the group occupying c or nil.
func (b *Board) GroupAt(c Coord) *Group {
	cell := b.Cell(c)
	if cell.Kind != CellGroup {
		return nil
	}
	return b.groups[cell.Group]
}

func (b *Board) GroupCount() int {
	return len(b.groups)
}

// Groups returns live groups ordered by row, then column.
func (b *Board) Groups() []*Group {
	out := make([]*Group, 0, len(b.groups))
	for _, g := range b.groups {
		out = append(out, g)
	}
	SortByPosition(out)
	return out
}

// GroupsWithColor returns the groups of color on the given row, ordered by column.
func (b *Board) GroupsWithColor(color Color, row int) []*Group {
	var out []*Group
	for c := 0; c < b.Cols; c++ {
		if g := b.GroupAt(Coord{c, row}); g != nil && g.Color == color {
			out = append(out, g)
		}
	}
	return out
}

// HasColor reports whether any live group has color.
func (b *Board) HasColor(color Color) bool {
	for _, g := range b.groups {
		if g.Color == color {
			return true
		}
	}
	return false
}

func SortByPosition(groups []*Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, c := groups[i].Pos, groups[j].Pos
		if a.Row != c.Row {
			return a.Row < c.Row
		}
		return a.Col < c.Col
	})
}

// Place creates a group of color at c with SquadSize fresh units.
func (b *Board) Place(c Coord, color Color) (*Group, error) {
	if !b.InBounds(c) {
		return nil, fmt.Errorf("place %v: %w", c, ErrOutOfBounds)
	}
	if b.cells[b.index(c)].Kind != CellEmpty {
		return nil, fmt.Errorf("place %v: %w", c, ErrOccupied)
	}
	g := &Group{
		ID:    b.nextGroup,
		Color: color,
		Links: [4]GroupID{NoGroup, NoGroup, NoGroup, NoGroup},
	}
	b.nextGroup++
	for i := 0; i < b.SquadSize; i++ {
		g.Units = append(g.Units, Unit{ID: b.nextUnit, Color: color, Group: g.ID})
		b.nextUnit++
	}
	b.groups[g.ID] = g
	b.setPos(g, c)
	return g, nil
}

func (b *Board) PlaceObstacle(c Coord) error {
	if !b.InBounds(c) {
		return fmt.Errorf("obstacle %v: %w", c, ErrOutOfBounds)
	}
	if b.cells[b.index(c)].Kind != CellEmpty {
		return fmt.Errorf("obstacle %v: %w", c, ErrOccupied)
	}
	b.cells[b.index(c)] = Obstacle()
	return nil
}

func (b *Board) setPos(g *Group, c Coord) {
	g.Pos = c
	g.TopRowEligible = c.Row == ExitRow
	b.cells[b.index(c)] = Occupied(g.ID)
}

// Clear removes the groups at coords from the board and returns them.
// Coordinates without a group are skipped.
func (b *Board) Clear(coords []Coord) []*Group {
	var removed []*Group
	for _, c := range coords {
		g := b.GroupAt(c)
		if g == nil {
			continue
		}
		b.unlink(g)
		b.cells[b.index(c)] = Empty()
		delete(b.groups, g.ID)
		removed = append(removed, g)
	}
	return removed
}

// Move relocates a group to an Empty cell. Links are left for Relink.
func (b *Board) Move(id GroupID, to Coord) error {
	g := b.groups[id]
	if g == nil {
		return fmt.Errorf("move group %d: not on board", id)
	}
	if !b.InBounds(to) {
		return fmt.Errorf("move group %d to %v: %w", id, to, ErrOutOfBounds)
	}
	if b.cells[b.index(to)].Kind != CellEmpty {
		return fmt.Errorf("move group %d to %v: %w", id, to, ErrOccupied)
	}
	b.cells[b.index(g.Pos)] = Empty()
	b.setPos(g, to)
	return nil
}

// Relink rebuilds every adjacency link from the current occupancy.
func (b *Board) Relink() {
	for _, g := range b.groups {
		g.Links = [4]GroupID{NoGroup, NoGroup, NoGroup, NoGroup}
	}
	for _, g := range b.groups {
		for _, d := range Directions {
			b.tryLink(g, d)
		}
	}
}

func (b *Board) tryLink(source *Group, d Direction) {
	neighbor := b.GroupAt(source.Pos.Step(d))
	if neighbor == nil || neighbor.Color != source.Color {
		return
	}
	source.Links[d] = neighbor.ID
	neighbor.Links[d.Opposite()] = source.ID
}

func (b *Board) unlink(g *Group) {
	for _, d := range Directions {
		if n := b.groups[g.Links[d]]; n != nil {
			n.Links[d.Opposite()] = NoGroup
		}
		g.Links[d] = NoGroup
	}
}
