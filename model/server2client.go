package model

import (
	"fmt"
	"time"
)

type ServerMessage struct {
	Setup     []Setup
	Snapshots []Snapshot
	Moves     []Movement
	Feedback  []Feedback
	Outcomes  []Outcome
	Rejected  []string
}

type Setup struct {
	SessionID string
	Cols      int
	Rows      int
	Platforms int
	Capacity  int
	SquadSize int
}

type CellView struct {
	Col, Row int
	Kind     CellKind
	Color    Color
	Group    GroupID
}

type PlatformView struct {
	Index     int
	Affinity  Color
	Committed int
	Reserved  int
	Max       int
	Columns   int
}

type Snapshot struct {
	Player    []CellView
	Opponent  []CellView
	Platforms []PlatformView
	Turn      string
}

type Side int

const (
	SidePlayer Side = iota
	SideOpponent
)

type MovementKind int

const (
	MoveExit MovementKind = iota
	MoveAdmit
	MoveAttack
	MoveFall
)

func (k MovementKind) Name() string {
	switch k {
	case MoveExit:
		return "EXIT"
	case MoveAdmit:
		return "ADMIT"
	case MoveAttack:
		return "ATTACK"
	case MoveFall:
		return "FALL"
	default:
		return fmt.Sprintf("n/a:%d", k)
	}
}

type Movement struct {
	Kind     MovementKind
	Side     Side
	Group    GroupID
	Unit     UnitID
	Target   GroupID
	Path     []Coord
	Platform int
	Duration time.Duration
}

type Feedback int

const (
	FeedbackInvalid Feedback = iota + 1
	FeedbackSelect
	FeedbackAdmit
	FeedbackHit
	FeedbackSettle
	FeedbackWin
	FeedbackLose
)

func (f Feedback) Name() string {
	switch f {
	case FeedbackInvalid:
		return "INVALID"
	case FeedbackSelect:
		return "SELECT"
	case FeedbackAdmit:
		return "ADMIT"
	case FeedbackHit:
		return "HIT"
	case FeedbackSettle:
		return "SETTLE"
	case FeedbackWin:
		return "WIN"
	case FeedbackLose:
		return "LOSE"
	default:
		return fmt.Sprintf("n/a:%d", f)
	}
}

type Outcome int

const (
	Playing Outcome = iota
	Won
	Lost
)

func (o Outcome) Name() string {
	switch o {
	case Playing:
		return "PLAYING"
	case Won:
		return "WON"
	case Lost:
		return "LOST"
	default:
		return fmt.Sprintf("n/a:%d", o)
	}
}

// Cells flattens a board into views ordered by row, then column.
func (b *Board) Cells() []CellView {
	out := make([]CellView, 0, len(b.cells))
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			cell := b.cells[b.index(Coord{c, r})]
			v := CellView{Col: c, Row: r, Kind: cell.Kind, Group: cell.Group}
			if g := b.groups[cell.Group]; g != nil && cell.Kind == CellGroup {
				v.Color = g.Color
			}
			out = append(out, v)
		}
	}
	return out
}

func (a *Allocator) Views() []PlatformView {
	out := make([]PlatformView, len(a.Platforms))
	for i, p := range a.Platforms {
		out[i] = PlatformView{
			Index:     p.Index,
			Affinity:  p.Affinity,
			Committed: p.Committed,
			Reserved:  p.Reserved,
			Max:       p.Max,
			Columns:   p.Columns,
		}
	}
	return out
}
