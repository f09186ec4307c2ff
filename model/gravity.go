package model

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// GravityCompactor packs groups toward the exit row after clears.
type GravityCompactor struct {
	FallPerRow time.Duration
	FallMin    time.Duration
}

// Compact packs every column toward row 0, keeping vertical order. Obstacles do
// not move and act as a floor for the groups above them. Positions are
// reassigned and links rebuilt before returning.
func (gc GravityCompactor) Compact(b *Board) []Relocation {
	var relocs []Relocation
	for col := 0; col < b.Cols; col++ {
		relocs = append(relocs, gc.compactColumn(b, col)...)
	}
	if len(relocs) > 0 {
		b.Relink()
	}
	return relocs
}

func (gc GravityCompactor) compactColumn(b *Board, col int) []Relocation {
	var relocs []Relocation
	target := ExitRow
	for row := ExitRow; row < b.Rows; row++ {
		from := Coord{col, row}
		cell := b.Cell(from)
		switch cell.Kind {
		case CellObstacle:
			target = row + 1
		case CellGroup:
			if row != target {
				to := Coord{col, target}
				if err := b.Move(cell.Group, to); err != nil {
					log.WithError(err).Error("compaction move rejected")
					target = row + 1
					continue
				}
				relocs = append(relocs, Relocation{
					Group: cell.Group,
					From:  from,
					To:    to,
					Rows:  row - target,
					Fall:  gc.fallFor(row - target),
				})
			}
			target++
		case CellEmpty:
		}
	}
	return relocs
}

func (gc GravityCompactor) fallFor(rows int) time.Duration {
	fall := time.Duration(rows) * gc.FallPerRow
	if fall < gc.FallMin {
		return gc.FallMin
	}
	return fall
}

// Settle dispatches one animation per relocation and calls onSettled once all of
// them have signalled completion, or immediately when nothing moved.
func (gc GravityCompactor) Settle(relocs []Relocation, animate func(Relocation, func()), onSettled func()) {
	if len(relocs) == 0 {
		onSettled()
		return
	}
	remaining := len(relocs)
	for _, r := range relocs {
		done := false
		animate(r, func() {
			if done {
				log.WithField("group", r.Group).Warn("fall completion signalled twice")
				return
			}
			done = true
			remaining--
			if remaining == 0 {
				onSettled()
			}
		})
	}
}
