package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGravity = GravityCompactor{FallPerRow: 100 * time.Millisecond, FallMin: 150 * time.Millisecond}

func TestCompact_PacksTowardExitRow(t *testing.T) {
	b := mustBoard(t,
		"2.4",
		"15.",
		"..#",
		"35.",
	)
	relocs := testGravity.Compact(b)
	require.Len(t, relocs, 4)

	assert.Equal(t, Coord{0, 1}, relocs[0].To)
	assert.Equal(t, Coord{0, 2}, relocs[0].From)
	assert.Equal(t, 1, relocs[0].Rows)
	assert.Equal(t, 150*time.Millisecond, relocs[0].Fall)

	assert.Equal(t, Color1, b.GroupAt(Coord{0, 1}).Color)
	assert.Equal(t, Color2, b.GroupAt(Coord{0, 2}).Color)
	assert.True(t, b.IsEmpty(Coord{0, 3}))

	// obstacle at (2,1) is a floor
	assert.Equal(t, Color4, b.GroupAt(Coord{2, 2}).Color)
	assert.Equal(t, CellObstacle, b.Cell(Coord{2, 1}).Kind)

	for _, r := range relocs {
		g := b.Group(r.Group)
		require.NotNil(t, g)
		assert.Equal(t, r.To, g.Pos)
		assert.Equal(t, Occupied(g.ID), b.Cell(r.To))
	}

	low, high := b.GroupAt(Coord{1, 0}), b.GroupAt(Coord{1, 1})
	assert.Equal(t, high.ID, low.Links[Top])
	assert.Equal(t, low.ID, high.Links[Bottom])
	assertLinksConsistent(t, b)
}

func TestCompact_FallScalesWithRows(t *testing.T) {
	b := mustBoard(t,
		"1",
		".",
		".",
		".",
	)
	relocs := testGravity.Compact(b)
	require.Len(t, relocs, 1)
	assert.Equal(t, 3, relocs[0].Rows)
	assert.Equal(t, 300*time.Millisecond, relocs[0].Fall)
	assert.True(t, b.GroupAt(Coord{0, 0}).TopRowEligible)
}

func TestCompact_Idempotent(t *testing.T) {
	b := mustBoard(t,
		"1.2",
		".3.",
		"..4",
		"2..",
	)
	assert.NotEmpty(t, testGravity.Compact(b))
	assert.Empty(t, testGravity.Compact(b))
}

func TestSettle_ImmediateWhenNothingMoved(t *testing.T) {
	settled := 0
	testGravity.Settle(nil, func(Relocation, func()) {
		t.Fatal("no animation expected")
	}, func() { settled++ })
	assert.Equal(t, 1, settled)
}

func TestSettle_WaitsForEveryRelocation(t *testing.T) {
	relocs := []Relocation{{Group: 1}, {Group: 2}, {Group: 3}}
	var pending []func()
	settled := 0
	testGravity.Settle(relocs, func(_ Relocation, done func()) {
		pending = append(pending, done)
	}, func() { settled++ })

	require.Len(t, pending, 3)
	pending[1]()
	pending[1]()
	pending[0]()
	assert.Equal(t, 0, settled)
	pending[2]()
	assert.Equal(t, 1, settled)
}
