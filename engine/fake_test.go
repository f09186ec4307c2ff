package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zucenko/squadclash/level"
	"github.com/zucenko/squadclash/model"
)

type jobKind int

const (
	jobMove jobKind = iota
	jobAdmit
	jobAttack
	jobFall
)

type job struct {
	kind     jobKind
	group    model.GroupID
	path     []model.Coord
	unit     model.Unit
	platform int
	attack   Attack
	reloc    model.Relocation
	nearEnd  func()
	complete func()
}

// fakeAnimator queues every job; tests complete them by hand.
type fakeAnimator struct {
	jobs []*job
}

func (f *fakeAnimator) MoveEntityAlongPath(group model.GroupID, path []model.Coord, onNearEnd, onComplete func()) {
	f.jobs = append(f.jobs, &job{kind: jobMove, group: group, path: path, nearEnd: onNearEnd, complete: onComplete})
}

func (f *fakeAnimator) AnimateAdmission(unit model.Unit, platform int, onComplete func()) {
	f.jobs = append(f.jobs, &job{kind: jobAdmit, unit: unit, platform: platform, complete: onComplete})
}

func (f *fakeAnimator) AnimateAttack(attack Attack, onComplete func()) {
	f.jobs = append(f.jobs, &job{kind: jobAttack, attack: attack, complete: onComplete})
}

func (f *fakeAnimator) AnimateFall(reloc model.Relocation, onComplete func()) {
	f.jobs = append(f.jobs, &job{kind: jobFall, reloc: reloc, complete: onComplete})
}

func (f *fakeAnimator) pending(kind jobKind) []*job {
	var out []*job
	for _, j := range f.jobs {
		if j.kind == kind {
			out = append(out, j)
		}
	}
	return out
}

func (f *fakeAnimator) remove(j *job) {
	for i, x := range f.jobs {
		if x == j {
			f.jobs = append(f.jobs[:i], f.jobs[i+1:]...)
			return
		}
	}
}

// nearEnd fires the near-end callbacks of all queued moves; moves stay queued.
func (f *fakeAnimator) nearEnd() {
	for _, j := range f.pending(jobMove) {
		if j.nearEnd != nil {
			j.nearEnd()
			j.nearEnd = nil
		}
	}
}

// finish completes every queued job of kind, including ones queued meanwhile.
func (f *fakeAnimator) finish(kind jobKind) int {
	n := 0
	for {
		queued := f.pending(kind)
		if len(queued) == 0 {
			return n
		}
		for _, j := range queued {
			f.remove(j)
			if j.nearEnd != nil {
				j.nearEnd()
			}
			j.complete()
			n++
		}
	}
}

// drain completes everything in queue order until nothing is left.
func (f *fakeAnimator) drain() {
	for len(f.jobs) > 0 {
		j := f.jobs[0]
		f.jobs = f.jobs[1:]
		if j.nearEnd != nil {
			j.nearEnd()
		}
		j.complete()
	}
}

type recorder struct {
	NopObserver
	feedback []model.Feedback
	moves    []model.Movement
	states   []TurnState
	outcomes []model.Outcome
}

func (r *recorder) PlayFeedback(kind model.Feedback) { r.feedback = append(r.feedback, kind) }
func (r *recorder) Moved(m model.Movement)           { r.moves = append(r.moves, m) }
func (r *recorder) TurnStateChanged(s TurnState)     { r.states = append(r.states, s) }
func (r *recorder) OutcomeChanged(o model.Outcome)   { r.outcomes = append(r.outcomes, o) }

func (r *recorder) movesOf(kind model.MovementKind) []model.Movement {
	var out []model.Movement
	for _, m := range r.moves {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func board(t *testing.T, rows ...string) *model.Board {
	t.Helper()
	b, err := level.BuildBoard(rows, 4)
	require.NoError(t, err)
	return b
}

func newTestEngine(t *testing.T, platforms, capacity int, player, opponent []string) (*Engine, *fakeAnimator, *recorder) {
	t.Helper()
	anim := &fakeAnimator{}
	rec := &recorder{}
	e := New(Config{
		Player:    board(t, player...),
		Opponent:  board(t, opponent...),
		Platforms: platforms,
		Capacity:  capacity,
		Columns:   4,
	}, anim, rec, rec)
	return e, anim, rec
}

func seed(t *testing.T, e *Engine, platform int, color model.Color, n int) {
	t.Helper()
	alloc := e.Platforms.Allocate(color, n)
	require.Zero(t, alloc.Shortfall)
	units := make([]model.Unit, n)
	for i := range units {
		units[i] = model.Unit{ID: model.UnitID(1000 + i), Color: color, Group: model.NoGroup}
	}
	require.NoError(t, e.Platforms.Commit(platform, units...))
}
