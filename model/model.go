package model

import (
	"fmt"
	"time"
)

// ExitRow is the only row a group may leave the player board from.
const ExitRow = 0

type Color int

const (
	ColorNone Color = iota
	Color1
	Color2
	Color3
	Color4
	Color5
	Color6
)

func (c Color) Name() string {
	switch c {
	case ColorNone:
		return "NONE"
	case Color1, Color2, Color3, Color4, Color5, Color6:
		return fmt.Sprintf("Color_%d", int(c))
	default:
		return fmt.Sprintf("n/a:%d", c)
	}
}

type Coord struct {
	Col, Row int
}

func (c Coord) Step(d Direction) Coord {
	switch d {
	case Left:
		return Coord{c.Col - 1, c.Row}
	case Right:
		return Coord{c.Col + 1, c.Row}
	case Top:
		return Coord{c.Col, c.Row + 1}
	case Bottom:
		return Coord{c.Col, c.Row - 1}
	}
	return c
}

// Adjacent reports whether a and b are one axis-aligned unit step apart.
func Adjacent(a, b Coord) bool {
	dc, dr := a.Col-b.Col, a.Row-b.Row
	if dc < 0 {
		dc = -dc
	}
	if dr < 0 {
		dr = -dr
	}
	return dc+dr == 1
}

type Direction int

const (
	Left Direction = iota
	Right
	Top
	Bottom
)

var Directions = [4]Direction{Left, Right, Top, Bottom}

func (d Direction) Opposite() Direction {
	switch d {
	case Left:
		return Right
	case Right:
		return Left
	case Top:
		return Bottom
	default:
		return Top
	}
}

type GroupID int32

const NoGroup GroupID = -1

type UnitID int32

type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellObstacle
	CellGroup
)

// Cell is the occupant of one coordinate. Build it with Empty, Obstacle or Occupied.
type Cell struct {
	Kind  CellKind
	Group GroupID
}

func Empty() Cell              { return Cell{Kind: CellEmpty, Group: NoGroup} }
func Obstacle() Cell           { return Cell{Kind: CellObstacle, Group: NoGroup} }
func Occupied(id GroupID) Cell { return Cell{Kind: CellGroup, Group: id} }

type Unit struct {
	ID    UnitID
	Color Color
	Group GroupID
}

type Group struct {
	ID    GroupID
	Color Color
	Pos   Coord
	Units []Unit
	// Links holds the same-colour neighbour per Direction, NoGroup when unlinked.
	Links          [4]GroupID
	TopRowEligible bool
}

func (g *Group) Size() int {
	return len(g.Units)
}

// Board is a coordinate-indexed occupancy map plus the arena of live groups.
type Board struct {
	Cols, Rows int
	SquadSize  int
	cells      []Cell
	groups     map[GroupID]*Group
	nextGroup  GroupID
	nextUnit   UnitID
}

// Relocation is one group dropped by gravity compaction.
type Relocation struct {
	Group GroupID
	From  Coord
	To    Coord
	Rows  int
	Fall  time.Duration
}

// ExitPath is an ordered coordinate sequence ending on the exit row.
type ExitPath []Coord

func (p ExitPath) IndexOf(c Coord) int {
	for i, pc := range p {
		if pc == c {
			return i
		}
	}
	return -1
}

func (p ExitPath) Last() Coord {
	return p[len(p)-1]
}
