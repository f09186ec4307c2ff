package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/squadclash/model"
)

func TestSelect_RejectsWithoutMutation(t *testing.T) {
	cases := []struct {
		name   string
		player []string
		cell   model.Coord
		err    error
	}{
		{"empty", []string{"1.", ".."}, model.Coord{Col: 1, Row: 1}, ErrEmptyCell},
		{"obstacle", []string{"1#"}, model.Coord{Col: 1, Row: 0}, ErrObstacle},
		{"out of bounds", []string{"1#"}, model.Coord{Col: 5, Row: 5}, ErrObstacle},
		{"walled in", []string{"2", "1", "#"}, model.Coord{Col: 0, Row: 1}, ErrNoExit},
		{"sealed pocket", []string{".", "1", "#"}, model.Coord{Col: 0, Row: 1}, ErrNoExit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, anim, rec := newTestEngine(t, 5, 16, tc.player, []string{"2"})
			before := e.Player.GroupCount()

			err := e.Select(tc.cell)
			assert.True(t, errors.Is(err, tc.err), "got %v", err)
			assert.Equal(t, TS_IDLE, e.State())
			assert.Equal(t, []model.Feedback{model.FeedbackInvalid}, rec.feedback)
			assert.Empty(t, anim.jobs)
			assert.Equal(t, before, e.Player.GroupCount())
			assert.True(t, e.Platforms.Empty())
			assert.Nil(t, e.Turn())
		})
	}
}

func TestSelect_RejectsWhenPlatformsCannotTakeTheGroup(t *testing.T) {
	e, anim, _ := newTestEngine(t, 1, 4, []string{"11"}, []string{"2"})
	err := e.Select(model.Coord{Col: 0, Row: 0})
	assert.True(t, errors.Is(err, ErrNoCapacity))
	assert.Equal(t, 2, e.Player.GroupCount())
	assert.True(t, e.Platforms.Empty())
	assert.Empty(t, anim.jobs)
}

func TestSelect_AdmitsGroupAfterTransfer(t *testing.T) {
	e, anim, rec := newTestEngine(t, 5, 16,
		[]string{
			"1..",
			"...",
			"..3",
		},
		[]string{"2"},
	)
	require.NoError(t, e.Select(model.Coord{Col: 0, Row: 2}))

	// the board is cleared before anything moves
	assert.True(t, e.Player.IsEmpty(model.Coord{Col: 0, Row: 2}))
	assert.Equal(t, TS_AWAITING_TRANSFER, e.State())
	assert.Equal(t, 4, e.Platforms.Platforms[0].Reserved)
	assert.Equal(t, model.Color1, e.Platforms.Platforms[0].Affinity)

	moves := anim.pending(jobMove)
	require.Len(t, moves, 1)
	assert.Equal(t, []model.Coord{{Col: 0, Row: 2}, {Col: 0, Row: 1}, {Col: 0, Row: 0}}, moves[0].path)

	assert.True(t, errors.Is(e.Select(model.Coord{Col: 2, Row: 0}), ErrTurnInProgress))

	anim.nearEnd()
	require.Len(t, anim.pending(jobAdmit), 4)
	assert.Equal(t, 4, anim.finish(jobAdmit))
	assert.Equal(t, 4, e.Platforms.Platforms[0].Committed)
	assert.Zero(t, e.Platforms.Platforms[0].Reserved)
	assert.Equal(t, TS_AWAITING_TRANSFER, e.State(), "walk still running")

	anim.finish(jobMove)
	assert.Equal(t, TS_IDLE, e.State())
	assert.Nil(t, e.Turn())
	assert.True(t, e.Quiescent())
	assert.Equal(t, model.Playing, e.Outcome())
	assert.Equal(t, []TurnState{TS_VALIDATING, TS_ROUTING, TS_AWAITING_TRANSFER, TS_IDLE}, rec.states)
	assert.Equal(t, model.FeedbackSelect, rec.feedback[0])
	assert.Len(t, rec.movesOf(model.MoveAdmit), 4)
}

func TestSelect_ComponentConvergesOnOneExit(t *testing.T) {
	e, anim, rec := newTestEngine(t, 5, 16,
		[]string{
			"11",
			"..",
		},
		[]string{"2"},
	)
	require.NoError(t, e.Select(model.Coord{Col: 1, Row: 1}))

	ctx := e.Turn()
	require.NotNil(t, ctx)
	require.Len(t, ctx.Routes, 2)
	assert.Equal(t, model.ExitPath{{Col: 0, Row: 1}, {Col: 0, Row: 0}}, ctx.Routes[0].Path)
	assert.Equal(t, model.ExitPath{{Col: 1, Row: 1}, {Col: 0, Row: 1}, {Col: 0, Row: 0}}, ctx.Routes[1].Path)
	assert.Equal(t, []int{0, 0, 0, 0}, ctx.Routes[0].Slots)
	assert.Equal(t, 8, ctx.Allocation.Reserved())

	anim.drain()
	assert.Equal(t, 8, e.Platforms.Platforms[0].Committed)
	assert.Zero(t, e.Player.GroupCount())

	// nothing left to select and nothing of colour 1 to hit
	assert.Equal(t, model.Lost, e.Outcome())
	assert.Equal(t, []model.Outcome{model.Lost}, rec.outcomes)
	assert.Equal(t, model.FeedbackLose, rec.feedback[len(rec.feedback)-1])
	assert.True(t, errors.Is(e.Select(model.Coord{}), ErrGameOver))
}

func TestSelect_DirectAttackBeforeAdmission(t *testing.T) {
	e, anim, rec := newTestEngine(t, 5, 16,
		[]string{"111"},
		[]string{
			"1",
			"1",
		},
	)
	top := e.Opponent.GroupAt(model.Coord{Col: 0, Row: 1})
	front := e.Opponent.GroupAt(model.Coord{Col: 0, Row: 0})

	require.NoError(t, e.Select(model.Coord{Col: 1, Row: 0}))
	ctx := e.Turn()
	require.Len(t, ctx.Targets, 2, "min(routed groups, attackable groups)")
	assert.Equal(t, front.ID, ctx.Routes[0].Target.ID)
	assert.Equal(t, top.ID, ctx.Routes[1].Target.ID)
	assert.Nil(t, ctx.Routes[2].Target)
	assert.Equal(t, 4, e.Platforms.Platforms[0].Reserved, "only the leftover group is admitted")

	anim.nearEnd()
	attacks := anim.pending(jobAttack)
	require.Len(t, attacks, 2)
	assert.Equal(t, -1, attacks[0].attack.Platform)
	assert.Len(t, attacks[0].attack.Duels, 4)
	assert.Len(t, anim.pending(jobAdmit), 4)

	anim.drain()
	assert.Equal(t, 4, e.Platforms.Platforms[0].Committed)
	assert.Zero(t, e.Opponent.GroupCount())
	assert.Equal(t, model.Won, e.Outcome())
	assert.Len(t, rec.movesOf(model.MoveAttack), 2)

	hits := 0
	for _, f := range rec.feedback {
		if f == model.FeedbackHit {
			hits++
		}
	}
	assert.Equal(t, 2, hits)
	assert.Equal(t, model.FeedbackWin, rec.feedback[len(rec.feedback)-1])
}

func TestAttackTargets_NeedFrontRowHead(t *testing.T) {
	e, _, _ := newTestEngine(t, 5, 16, []string{"3"}, []string{"1", "2"})
	assert.Empty(t, e.attackTargets(model.Color1, 4), "the 1 sits behind a 2")
	assert.Len(t, e.attackTargets(model.Color2, 4), 1)
	assert.Empty(t, e.attackTargets(model.ColorNone, 4))
}

func TestSelect_EngagedTargetsAreNotAttackedTwice(t *testing.T) {
	e, anim, _ := newTestEngine(t, 5, 16,
		[]string{"3", "1"},
		[]string{"2", "1"},
	)
	seed(t, e, 0, model.Color1, 4)
	require.NoError(t, e.Select(model.Coord{Col: 0, Row: 0}))
	require.Len(t, e.Turn().Targets, 1)

	e.TriggerAttackCheck()
	anim.nearEnd()
	assert.Len(t, anim.pending(jobAttack), 1, "platform squad must not hit the engaged group")
	assert.Equal(t, 4, e.Platforms.Platforms[0].Committed)
}

func TestAttackCheck_CoalescesRetriggers(t *testing.T) {
	e, anim, _ := newTestEngine(t, 5, 16,
		[]string{"3"},
		[]string{
			"2",
			"1",
			"1",
		},
	)
	seed(t, e, 0, model.Color1, 8)

	e.TriggerAttackCheck()
	require.Len(t, anim.pending(jobAttack), 2)
	assert.Equal(t, 1, e.attack.runs)

	e.TriggerAttackCheck()
	e.TriggerAttackCheck()
	assert.Equal(t, 1, e.attack.runs, "never two concurrent passes")
	assert.Len(t, anim.pending(jobAttack), 2)
	assert.True(t, e.attack.pending)

	anim.finish(jobAttack)
	assert.Zero(t, e.Platforms.Platforms[0].Committed)
	assert.Equal(t, model.ColorNone, e.Platforms.Platforms[0].Affinity)
	assert.True(t, e.settle.running)
	assert.Equal(t, 1, e.attack.runs, "attack check waits for the board to settle")

	falls := anim.pending(jobFall)
	require.Len(t, falls, 1)
	assert.Equal(t, model.Coord{Col: 0, Row: 0}, falls[0].reloc.To)
	assert.Equal(t, 2, falls[0].reloc.Rows)

	anim.finish(jobFall)
	assert.Equal(t, 2, e.attack.runs, "exactly one rerun")
	assert.Equal(t, 1, e.settle.runs)
	assert.True(t, e.Quiescent())
	assert.Equal(t, model.Color2, e.Opponent.GroupAt(model.Coord{Col: 0, Row: 0}).Color)
	assert.Zero(t, e.engaged.Size())
	assert.Equal(t, model.Playing, e.Outcome())
}

func TestBoardSettle_CoalescesRetriggers(t *testing.T) {
	e, anim, _ := newTestEngine(t, 5, 16, []string{"3"}, []string{"2", "1"})
	e.hits = append(e.hits, e.Opponent.GroupAt(model.Coord{Col: 0, Row: 0}).ID)

	e.TriggerBoardSettle()
	require.Len(t, anim.pending(jobFall), 1)
	e.TriggerBoardSettle()
	assert.Equal(t, 1, e.settle.runs)

	anim.finish(jobFall)
	assert.Equal(t, 2, e.settle.runs)
	assert.False(t, e.settle.running)
	assert.Equal(t, 1, e.Opponent.GroupCount())
}

func TestEvaluate_LostWhenNothingCanMove(t *testing.T) {
	e, _, rec := newTestEngine(t, 5, 16, []string{".", "1", "#"}, []string{"2"})
	e.Evaluate()
	assert.Equal(t, model.Lost, e.Outcome())
	assert.Equal(t, []model.Outcome{model.Lost}, rec.outcomes)
}

func TestSnapshot(t *testing.T) {
	e, _, _ := newTestEngine(t, 2, 16, []string{"1#"}, []string{"2"})
	s := e.Snapshot()
	assert.Len(t, s.Player, 2)
	assert.Len(t, s.Opponent, 1)
	assert.Len(t, s.Platforms, 2)
	assert.Equal(t, "IDLE", s.Turn)
	assert.Equal(t, model.Color1, s.Player[0].Color)
	assert.Equal(t, model.CellObstacle, s.Player[1].Kind)
}
