package level

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/squadclash/model"
)

const small = `
name: small
capacity: 8
timings:
  step: 50ms
player: |
  1.
  #2
opponent: |
  22
  11
`

func TestParse_DefaultsAndBoards(t *testing.T) {
	l, err := Parse(strings.NewReader(small))
	require.NoError(t, err)
	assert.Equal(t, "small", l.Name)
	assert.Equal(t, 2, l.Rows)
	assert.Equal(t, 2, l.Cols)
	assert.Equal(t, 5, l.Platforms)
	assert.Equal(t, 8, l.Capacity)
	assert.Equal(t, 4, l.SquadSize)
	assert.Equal(t, 0.95, l.NearEnd)
	assert.Equal(t, 50*time.Millisecond, l.Timings.Step)
	assert.Equal(t, 300*time.Millisecond, l.Timings.FallMin)

	player, opponent, err := l.Boards()
	require.NoError(t, err)
	assert.Equal(t, model.Color1, player.GroupAt(model.Coord{Col: 0, Row: 1}).Color)
	assert.Equal(t, model.CellObstacle, player.Cell(model.Coord{Col: 0, Row: 0}).Kind)
	assert.Equal(t, model.Color2, player.GroupAt(model.Coord{Col: 1, Row: 0}).Color)
	assert.Equal(t, 4, opponent.GroupCount())
	assert.Len(t, player.GroupAt(model.Coord{Col: 1, Row: 0}).Units, 4)

	again, _, err := l.Boards()
	require.NoError(t, err)
	assert.NotSame(t, player, again)
}

func TestParse_RejectsBadLayouts(t *testing.T) {
	cases := map[string]string{
		"ragged":    "player: |\n  11\n  1\nopponent: |\n  11\n  11\n",
		"glyph":     "player: |\n  1x\nopponent: |\n  11\n",
		"size":      "player: |\n  11\nopponent: |\n  111\n",
		"exit row":  "exit_row: 2\nplayer: |\n  1\nopponent: |\n  1\n",
		"no player": "opponent: |\n  1\n",
	}
	for name, doc := range cases {
		_, err := Parse(strings.NewReader(doc))
		assert.True(t, errors.Is(err, ErrBadLayout), "%s: %v", name, err)
	}
}

func TestBuildBoard_TopLineIsHighestRow(t *testing.T) {
	b, err := BuildBoard([]string{"3.", ".#", "12"}, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Rows)
	assert.Equal(t, model.Color3, b.GroupAt(model.Coord{Col: 0, Row: 2}).Color)
	assert.Equal(t, model.Color1, b.GroupAt(model.Coord{Col: 0, Row: 0}).Color)
	assert.Equal(t, model.CellObstacle, b.Cell(model.Coord{Col: 1, Row: 1}).Kind)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level.yaml")
	require.NoError(t, os.WriteFile(path, []byte(small), 0o644))
	l, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, l.Rows)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_ShippedLevel(t *testing.T) {
	l, err := Load(filepath.Join("..", "levels", "level_1.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5, l.Rows)
	assert.Equal(t, 5, l.Cols)
	assert.Equal(t, 250*time.Millisecond, l.Gravity().FallMin)
}
