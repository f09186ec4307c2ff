package animation

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/zucenko/squadclash/engine"
	"github.com/zucenko/squadclash/model"
)

type Timings struct {
	Step    time.Duration
	Admit   time.Duration
	Attack  time.Duration
	NearEnd float32
}

// Point is a position in board units; X is the column, Y the row.
type Point struct {
	X, Y float32
}

// Action is what happens while and after one tween runs.
type Action struct {
	nexts    []func(a *TweenAnimator)
	onChange func(float32)
	onFinish []func()
	finished bool
}

func (a *Action) addOnFinish(f func()) {
	if f == nil {
		return
	}
	a.onFinish = append(a.onFinish, f)
}

// next schedules t to start once a finishes and returns the action of t.
func (a *Action) next(t *gween.Tween) *Action {
	action := &Action{}
	a.nexts = append(a.nexts, func(ta *TweenAnimator) {
		ta.Tweens[t] = action
	})
	return action
}

// TweenAnimator drives engine jobs with gween tweens. It has no goroutine of its
// own: whoever owns the engine calls Update from the same loop.
type TweenAnimator struct {
	Tweens  map[*gween.Tween]*Action
	timings Timings

	walking    map[model.GroupID]Point
	falling    map[model.GroupID]Point
	admissions map[int]*Action
}

var _ engine.Animator = (*TweenAnimator)(nil)

func NewTweenAnimator(timings Timings) *TweenAnimator {
	if timings.NearEnd <= 0 || timings.NearEnd > 1 {
		timings.NearEnd = 0.95
	}
	return &TweenAnimator{
		Tweens:     make(map[*gween.Tween]*Action),
		timings:    timings,
		walking:    make(map[model.GroupID]Point),
		falling:    make(map[model.GroupID]Point),
		admissions: make(map[int]*Action),
	}
}

func seconds(d time.Duration) float32 {
	return float32(d.Seconds())
}

func (ta *TweenAnimator) start(duration time.Duration, easing ease.TweenFunc) (*gween.Tween, *Action) {
	t := gween.New(0, 1, seconds(duration), easing)
	a := &Action{}
	ta.Tweens[t] = a
	return t, a
}

// MoveEntityAlongPath walks group along path at one Step per cell.
func (ta *TweenAnimator) MoveEntityAlongPath(group model.GroupID, path []model.Coord, onNearEnd, onComplete func()) {
	steps := len(path) - 1
	if steps < 1 {
		steps = 1
	}
	_, a := ta.start(time.Duration(steps)*ta.timings.Step, ease.Linear)
	nearEnd := false
	fireNearEnd := func() {
		if nearEnd {
			return
		}
		nearEnd = true
		if onNearEnd != nil {
			onNearEnd()
		}
	}
	a.onChange = func(p float32) {
		ta.walking[group] = along(path, p)
		if p >= ta.timings.NearEnd {
			fireNearEnd()
		}
	}
	a.addOnFinish(func() {
		delete(ta.walking, group)
		fireNearEnd()
	})
	a.addOnFinish(onComplete)
}

// AnimateAdmission queues units per platform, so one platform takes one unit
// per Admit interval.
func (ta *TweenAnimator) AnimateAdmission(unit model.Unit, platform int, onComplete func()) {
	t := gween.New(0, 1, seconds(ta.timings.Admit), ease.OutQuad)
	var a *Action
	if last, ok := ta.admissions[platform]; ok && !last.finished {
		a = last.next(t)
	} else {
		a = &Action{}
		ta.Tweens[t] = a
	}
	ta.admissions[platform] = a
	a.addOnFinish(onComplete)
}

func (ta *TweenAnimator) AnimateAttack(attack engine.Attack, onComplete func()) {
	_, a := ta.start(ta.timings.Attack, ease.InOutQuad)
	a.addOnFinish(onComplete)
}

// AnimateFall drops the group over its relocation fall time.
func (ta *TweenAnimator) AnimateFall(reloc model.Relocation, onComplete func()) {
	fall := reloc.Fall
	if fall <= 0 {
		fall = ta.timings.Step
	}
	_, a := ta.start(fall, ease.OutBounce)
	from := Point{float32(reloc.From.Col), float32(reloc.From.Row)}
	to := Point{float32(reloc.To.Col), float32(reloc.To.Row)}
	a.onChange = func(p float32) {
		ta.falling[reloc.Group] = Point{from.X + (to.X-from.X)*p, from.Y + (to.Y-from.Y)*p}
	}
	a.addOnFinish(func() { delete(ta.falling, reloc.Group) })
	a.addOnFinish(onComplete)
}

// Update advances every running tween by dt seconds. Callbacks run after all
// tweens were advanced; tweens they start begin on the next Update.
func (ta *TweenAnimator) Update(dt float32) {
	type step struct {
		action   *Action
		curr     float32
		finished bool
	}
	steps := make([]step, 0, len(ta.Tweens))
	for t, a := range ta.Tweens {
		curr, finished := t.Update(dt)
		if finished {
			delete(ta.Tweens, t)
		}
		steps = append(steps, step{a, curr, finished})
	}
	finished := 0
	for _, s := range steps {
		if s.action.onChange != nil {
			s.action.onChange(s.curr)
		}
		if !s.finished {
			continue
		}
		finished++
		s.action.finished = true
		for _, next := range s.action.nexts {
			next(ta)
		}
		for _, onFinish := range s.action.onFinish {
			onFinish()
		}
	}
	if finished > 0 {
		log.WithFields(log.Fields{"finished": finished, "running": len(ta.Tweens)}).Trace("tweens finished")
	}
}

// Busy reports whether any tween is still running.
func (ta *TweenAnimator) Busy() bool {
	return len(ta.Tweens) > 0
}

// Walking returns the current position of a group walking out, if any.
func (ta *TweenAnimator) Walking(group model.GroupID) (Point, bool) {
	p, ok := ta.walking[group]
	return p, ok
}

// Falling returns the current position of a falling opposing group, if any.
func (ta *TweenAnimator) Falling(group model.GroupID) (Point, bool) {
	p, ok := ta.falling[group]
	return p, ok
}

// along interpolates a position at progress p of path.
func along(path []model.Coord, p float32) Point {
	if len(path) == 0 {
		return Point{}
	}
	if len(path) == 1 || p <= 0 {
		return Point{float32(path[0].Col), float32(path[0].Row)}
	}
	if p >= 1 {
		last := path[len(path)-1]
		return Point{float32(last.Col), float32(last.Row)}
	}
	pos := p * float32(len(path)-1)
	i := int(pos)
	frac := pos - float32(i)
	a, b := path[i], path[i+1]
	return Point{
		X: float32(a.Col) + float32(b.Col-a.Col)*frac,
		Y: float32(a.Row) + float32(b.Row-a.Row)*frac,
	}
}
