package model

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var (
	ErrOverRelease   = errors.New("release exceeds committed units")
	ErrNoReservation = errors.New("commit without reservation")
	ErrNoPlatform    = errors.New("no such platform")
)

// Platform is a capacity-bounded staging area. Units sit in arrival order, so
// slot i is at row i/Columns, column i%Columns.
type Platform struct {
	Index     int
	Affinity  Color
	Committed int
	Reserved  int
	Max       int
	Columns   int

	units   []Unit
	engaged int
}

func (p *Platform) Free() int {
	return p.Max - p.Committed - p.Reserved
}

// Units returns the idle units in slot order.
func (p *Platform) Units() []Unit {
	return p.units
}

// AvailableSets counts whole squads of idle units.
func (p *Platform) AvailableSets(squadSize int) int {
	if squadSize <= 0 {
		return 0
	}
	return len(p.units) / squadSize
}

// Slot returns the grid slot of the i-th idle unit.
func (p *Platform) Slot(i int) Coord {
	cols := p.Columns
	if cols <= 0 {
		cols = 1
	}
	return Coord{Col: i % cols, Row: i / cols}
}

// TakeSquads dequeues up to n squads oldest-first. The units stay committed until Release.
func (p *Platform) TakeSquads(n, squadSize int) [][]Unit {
	if avail := p.AvailableSets(squadSize); n > avail {
		n = avail
	}
	squads := make([][]Unit, 0, n)
	for i := 0; i < n; i++ {
		squad := make([]Unit, squadSize)
		copy(squad, p.units[:squadSize])
		p.units = p.units[squadSize:]
		p.engaged += squadSize
		squads = append(squads, squad)
	}
	return squads
}

type Assignment struct {
	Platform int
	Count    int
}

// Allocation is the result of Allocate. Shortfall > 0 means the request was only
// partially reserved.
type Allocation struct {
	Color       Color
	Requested   int
	Assignments []Assignment
	Shortfall   int
}

func (a Allocation) Reserved() int {
	return a.Requested - a.Shortfall
}

// Slots flattens the assignments into one platform index per reserved unit.
func (a Allocation) Slots() []int {
	out := make([]int, 0, a.Reserved())
	for _, as := range a.Assignments {
		for i := 0; i < as.Count; i++ {
			out = append(out, as.Platform)
		}
	}
	return out
}

// Allocator books platform capacity in two phases: reserve on dispatch, commit on arrival.
type Allocator struct {
	Platforms []*Platform
}

func NewAllocator(count, capacity, columns int) *Allocator {
	a := &Allocator{}
	for i := 0; i < count; i++ {
		a.Platforms = append(a.Platforms, &Platform{Index: i, Max: capacity, Columns: columns})
	}
	return a
}

func (a *Allocator) Platform(index int) (*Platform, error) {
	if index < 0 || index >= len(a.Platforms) {
		return nil, fmt.Errorf("platform %d: %w", index, ErrNoPlatform)
	}
	return a.Platforms[index], nil
}

// Capacity is the free space usable by color: platforms already holding color
// plus idle ones.
func (a *Allocator) Capacity(color Color) int {
	total := 0
	for _, p := range a.Platforms {
		if p.Affinity == color || p.Affinity == ColorNone {
			total += p.Free()
		}
	}
	return total
}

// Allocate reserves total units of color, same-colour platforms first, then idle
// ones, each in index order. Idle platforms take the colour on first reservation.
func (a *Allocator) Allocate(color Color, total int) Allocation {
	alloc := Allocation{Color: color, Requested: total}
	remaining := total
	for _, pass := range []Color{color, ColorNone} {
		for _, p := range a.Platforms {
			if remaining == 0 {
				break
			}
			if p.Affinity != pass || p.Free() <= 0 {
				continue
			}
			n := min(remaining, p.Free())
			p.Reserved += n
			p.Affinity = color
			remaining -= n
			alloc.Assignments = append(alloc.Assignments, Assignment{Platform: p.Index, Count: n})
		}
	}
	alloc.Shortfall = remaining
	return alloc
}

// Commit converts reservations on one platform into committed units.
func (a *Allocator) Commit(index int, units ...Unit) error {
	p, err := a.Platform(index)
	if err != nil {
		return err
	}
	if len(units) > p.Reserved {
		log.WithFields(log.Fields{
			"platform": index,
			"reserved": p.Reserved,
			"units":    len(units),
		}).Error("commit without reservation")
		return fmt.Errorf("platform %d: %w", index, ErrNoReservation)
	}
	p.Reserved -= len(units)
	p.Committed += len(units)
	p.units = append(p.units, units...)
	return nil
}

// Release removes count committed units. Engaged units go first. When nothing is
// committed or reserved any more the platform returns to ColorNone.
// Over-release is a no-op.
func (a *Allocator) Release(index, count int) error {
	p, err := a.Platform(index)
	if err != nil {
		return err
	}
	if count > p.Committed {
		log.WithFields(log.Fields{
			"platform":  index,
			"committed": p.Committed,
			"count":     count,
		}).Error("release exceeds committed units")
		return fmt.Errorf("platform %d: %w", index, ErrOverRelease)
	}
	p.Committed -= count
	fromEngaged := min(count, p.engaged)
	p.engaged -= fromEngaged
	if rest := count - fromEngaged; rest > 0 {
		p.units = p.units[rest:]
	}
	if p.Committed == 0 && p.Reserved == 0 {
		p.Affinity = ColorNone
	}
	return nil
}

// Empty reports whether no platform holds or expects units.
func (a *Allocator) Empty() bool {
	for _, p := range a.Platforms {
		if p.Committed > 0 || p.Reserved > 0 {
			return false
		}
	}
	return true
}
