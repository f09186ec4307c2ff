package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertValidExitPath(t *testing.T, b *Board, start Coord, p ExitPath) {
	t.Helper()
	require.NotEmpty(t, p)
	assert.Equal(t, start, p[0])
	assert.Equal(t, ExitRow, p.Last().Row)
	assert.True(t, b.IsEmpty(p.Last()), "exit %v is not empty", p.Last())
	for i := 1; i < len(p); i++ {
		assert.True(t, Adjacent(p[i-1], p[i]), "step %v -> %v", p[i-1], p[i])
	}
}

func TestFindPath_StraightDown(t *testing.T) {
	b := mustBoard(t,
		".....",
		".....",
		"..1..",
		".....",
		".....",
	)
	f := NewExitPathFinder(b)
	p := f.FindPath(Coord{2, 2}, Color1)
	assert.Equal(t, ExitPath{{2, 2}, {2, 1}, {2, 0}}, p)
	assert.Len(t, p, 3)
}

func TestFindPath_AvoidsObstaclesAndOtherColours(t *testing.T) {
	b := mustBoard(t,
		"1..",
		"1#.",
		"12.",
	)
	f := NewExitPathFinder(b)
	p := f.FindPath(Coord{0, 2}, Color1)
	assertValidExitPath(t, b, Coord{0, 2}, p)
	assert.Equal(t, ExitPath{{0, 2}, {1, 2}, {2, 2}, {2, 1}, {2, 0}}, p)
}

func TestFindPath_ThroughSameColour(t *testing.T) {
	b := mustBoard(t,
		"1.",
		"1#",
		".#",
	)
	f := NewExitPathFinder(b)
	assert.Equal(t, ExitPath{{0, 2}, {0, 1}, {0, 0}}, f.FindPath(Coord{0, 2}, Color1))
	assert.Empty(t, f.FindPath(Coord{0, 2}, Color2))
}

func TestFindPath_NoExit(t *testing.T) {
	b := mustBoard(t,
		"1",
		"#",
		".",
	)
	f := NewExitPathFinder(b)
	assert.Empty(t, f.FindPath(Coord{0, 2}, Color1))
}

func TestFindPath_StartOnEmptyExitCell(t *testing.T) {
	b := mustBoard(t, "..")
	f := NewExitPathFinder(b)
	assert.Equal(t, ExitPath{{1, 0}}, f.FindPath(Coord{1, 0}, Color2))
}

func TestFindPath_PropertyOverBoards(t *testing.T) {
	boards := [][]string{
		{"1212", "2.21", "1..2", "2.1."},
		{"111", "1#1", "1.1"},
		{"3#3", "3#3", "..."},
	}
	for _, rows := range boards {
		b := mustBoard(t, rows...)
		f := NewExitPathFinder(b)
		for _, g := range b.Groups() {
			p := f.FindPath(g.Pos, g.Color)
			if len(p) == 0 {
				continue
			}
			assertValidExitPath(t, b, g.Pos, p)
		}
	}
}

func TestMergeIntoExitPath_SplicesCanonicalTail(t *testing.T) {
	b := mustBoard(t,
		"11..",
		"#...",
		"#...",
	)
	f := NewExitPathFinder(b)
	canonical := f.FindPath(Coord{1, 1}, Color1)
	require.Equal(t, ExitPath{{1, 1}, {1, 0}}, canonical)

	merged := f.MergeIntoExitPath(Coord{0, 2}, canonical, Color1)
	assert.Equal(t, ExitPath{{0, 2}, {1, 2}, {1, 1}, {1, 0}}, merged)
	assertValidExitPath(t, b, Coord{0, 2}, merged)

	merge := merged.IndexOf(Coord{1, 1})
	assert.Equal(t, []Coord(canonical), []Coord(merged[merge:]))
}

func TestMergeIntoExitPath_StartOnCanonical(t *testing.T) {
	b := mustBoard(t,
		"..",
		"..",
	)
	f := NewExitPathFinder(b)
	canonical := ExitPath{{0, 1}, {0, 0}}
	assert.Equal(t, canonical, f.MergeIntoExitPath(Coord{0, 1}, canonical, Color1))
	assert.Empty(t, f.MergeIntoExitPath(Coord{0, 1}, nil, Color1))
}

func TestPathFor_CachesCanonicalPerKey(t *testing.T) {
	b := mustBoard(t,
		"...",
		"...",
		"...",
	)
	f := NewExitPathFinder(b)
	first := f.PathFor(7, Coord{1, 1}, Color1)
	assert.Equal(t, ExitPath{{1, 1}, {1, 0}}, first)
	cached, ok := f.Canonical(7)
	require.True(t, ok)
	assert.Equal(t, first, cached)

	// A sibling converges on the cached corridor instead of dropping straight down.
	second := f.PathFor(7, Coord{0, 2}, Color1)
	assert.Equal(t, Coord{1, 0}, second.Last())
	assertValidExitPath(t, b, Coord{0, 2}, second)

	other := f.PathFor(8, Coord{0, 2}, Color1)
	assert.Equal(t, ExitPath{{0, 2}, {0, 1}, {0, 0}}, other)

	f.Reset()
	_, ok = f.Canonical(7)
	assert.False(t, ok)
}

func TestPathTo_Target(t *testing.T) {
	b := mustBoard(t,
		"1.2",
		"...",
	)
	f := NewExitPathFinder(b)
	p := f.PathTo(Coord{0, 1}, Coord{1, 0}, Color1)
	require.Len(t, p, 3)
	assert.Equal(t, Coord{1, 0}, p.Last())
	assert.Empty(t, f.PathTo(Coord{0, 1}, Coord{2, 1}, Color1))
}
