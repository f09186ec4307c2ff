package engine

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/squadclash/model"
	"github.com/zyedidia/generic/mapset"
)

// New builds an engine over two boards. feedback and observer may be nil.
func New(cfg Config, animator Animator, feedback FeedbackPlayer, observer Observer) *Engine {
	if feedback == nil {
		feedback = nopFeedback{}
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &Engine{
		Player:    cfg.Player,
		Opponent:  cfg.Opponent,
		Platforms: model.NewAllocator(cfg.Platforms, cfg.Capacity, cfg.Columns),
		Paths:     model.NewExitPathFinder(cfg.Player),
		Gravity:   cfg.Gravity,
		SquadSize: cfg.Player.SquadSize,
		animator:  animator,
		feedback:  feedback,
		observer:  observer,
		engaged:   mapset.New[model.GroupID](),
		outcome:   model.Playing,
	}
}

func (e *Engine) State() TurnState {
	return e.state
}

func (e *Engine) Outcome() model.Outcome {
	return e.outcome
}

// Turn returns the context of the turn in flight, nil when idle.
func (e *Engine) Turn() *TurnContext {
	return e.turn
}

// Quiescent reports that no turn and no pass is running or pending.
func (e *Engine) Quiescent() bool {
	return e.state == TS_IDLE &&
		!e.attack.running && !e.attack.pending &&
		!e.settle.running && !e.settle.pending
}

func (e *Engine) Snapshot() model.Snapshot {
	return model.Snapshot{
		Player:    e.Player.Cells(),
		Opponent:  e.Opponent.Cells(),
		Platforms: e.Platforms.Views(),
		Turn:      e.state.Name(),
	}
}

func (e *Engine) setState(s TurnState) {
	if e.state == s {
		return
	}
	log.WithFields(log.Fields{"from": e.state.Name(), "to": s.Name(), "turn": e.turns}).Debug("turn state")
	e.state = s
	e.observer.TurnStateChanged(s)
}

// Select handles OnCellSelected. Invalid selections and selections made while a
// turn is in flight are rejected without touching any state.
func (e *Engine) Select(c model.Coord) error {
	if e.outcome != model.Playing {
		return ErrGameOver
	}
	if e.state != TS_IDLE {
		log.WithField("cell", c).Debug("selection dropped, turn in progress")
		return ErrTurnInProgress
	}
	e.turns++
	e.setState(TS_VALIDATING)
	ctx, err := e.validate(c)
	if err != nil {
		log.WithError(err).WithField("cell", c).Info("selection rejected")
		e.feedback.PlayFeedback(model.FeedbackInvalid)
		e.setState(TS_IDLE)
		return err
	}
	e.turn = ctx
	e.feedback.PlayFeedback(model.FeedbackSelect)

	e.setState(TS_ROUTING)
	e.route(ctx)

	e.setState(TS_AWAITING_TRANSFER)
	e.dispatch(ctx)
	return nil
}

func (e *Engine) validate(c model.Coord) (*TurnContext, error) {
	ctx := &TurnContext{Selected: c}
	cell := e.Player.Cell(c)
	switch cell.Kind {
	case model.CellEmpty:
		return nil, fmt.Errorf("cell %v: %w", c, ErrEmptyCell)
	case model.CellObstacle:
		return nil, fmt.Errorf("cell %v: %w", c, ErrObstacle)
	case model.CellGroup:
	}
	selected := e.Player.Group(cell.Group)
	ctx.Color = selected.Color
	ctx.Component = e.Player.ConnectedComponent(selected.ID)

	start, ok := e.Player.ExitStart(ctx.Component)
	if !ok {
		return nil, fmt.Errorf("cell %v: %w", c, ErrNoExit)
	}
	// an exit-row member frees its own cell; anyone else needs an open corridor
	if start.Row != model.ExitRow && len(e.Paths.FindPath(start, ctx.Color)) == 0 {
		return nil, fmt.Errorf("cell %v sealed in: %w", c, ErrNoExit)
	}
	ctx.CanExit = true
	ctx.ExitStart = start

	ctx.Targets = e.attackTargets(ctx.Color, len(ctx.Component))
	need := (len(ctx.Component) - len(ctx.Targets)) * e.SquadSize
	if free := e.Platforms.Capacity(ctx.Color); free < need {
		return nil, fmt.Errorf("need %d slots of %s, %d free: %w", need, ctx.Color.Name(), free, ErrNoCapacity)
	}
	return ctx, nil
}

// route clears the component from the board, then computes every member's exit
// path over the updated board. The first members to reach the exit take the
// direct-attack targets; the rest get platform slots.
func (e *Engine) route(ctx *TurnContext) {
	e.Paths.Reset()
	e.Player.Clear(model.Coords(ctx.Component))
	e.observer.BoardChanged()

	key := ctx.Component[0].ID
	e.Paths.PathFor(key, ctx.ExitStart, ctx.Color)
	for _, g := range ctx.Component {
		path := e.Paths.PathFor(key, g.Pos, ctx.Color)
		if len(path) == 0 {
			log.WithFields(log.Fields{"group": g.ID, "pos": g.Pos}).Error("member of an exitable component has no path")
			path = model.ExitPath{g.Pos}
		}
		ctx.Routes = append(ctx.Routes, Route{Group: g, Path: path})
	}
	sort.SliceStable(ctx.Routes, func(i, j int) bool {
		return len(ctx.Routes[i].Path) < len(ctx.Routes[j].Path)
	})

	for i := range ctx.Targets {
		ctx.Routes[i].Target = ctx.Targets[i]
	}
	e.engage(ctx.Targets)

	admitted := ctx.Routes[len(ctx.Targets):]
	if len(admitted) == 0 {
		return
	}
	ctx.Allocation = e.Platforms.Allocate(ctx.Color, len(admitted)*e.SquadSize)
	if ctx.Allocation.Shortfall > 0 {
		log.WithFields(log.Fields{
			"color":     ctx.Color.Name(),
			"requested": ctx.Allocation.Requested,
			"shortfall": ctx.Allocation.Shortfall,
		}).Error("allocation shortfall after capacity check")
	}
	slots := ctx.Allocation.Slots()
	for i := range admitted {
		n := min(e.SquadSize, len(slots))
		admitted[i].Slots = slots[:n]
		slots = slots[n:]
	}
}

// dispatch starts one job per routed group and waits on the turn barrier.
func (e *Engine) dispatch(ctx *TurnContext) {
	ctx.Outstanding = NewBarrier("turn", len(ctx.Routes), func() { e.finishTurn(ctx) })
	for _, r := range ctx.Routes {
		e.dispatchRoute(r, ctx.Outstanding.Job())
	}
}

// dispatchRoute walks one group out. Its follow-up (admission or attack) starts
// at the near-end mark; the job completes once the walk and the follow-up both did.
func (e *Engine) dispatchRoute(r Route, done func()) {
	job := NewBarrier("route", 2, done)
	walked, followed := job.Job(), job.Job()

	started := false
	followUp := func() {
		if started {
			return
		}
		started = true
		if r.Target != nil {
			e.directAttack(r, followed)
		} else {
			e.admit(r, followed)
		}
	}

	e.observer.Moved(model.Movement{
		Kind:  model.MoveExit,
		Side:  model.SidePlayer,
		Group: r.Group.ID,
		Path:  r.Path,
	})
	e.animator.MoveEntityAlongPath(r.Group.ID, r.Path, followUp, func() {
		followUp()
		walked()
	})
}

func (e *Engine) directAttack(r Route, done func()) {
	a := Attack{
		Platform: -1,
		Source:   r.Group.ID,
		Target:   r.Target.ID,
		From:     r.Path.Last(),
		To:       r.Target.Pos,
		Duels:    PairSquads(r.Group.Units, r.Target.Units),
	}
	e.observer.Moved(model.Movement{
		Kind:     model.MoveAttack,
		Side:     model.SidePlayer,
		Group:    a.Source,
		Target:   a.Target,
		Path:     []model.Coord{a.From, a.To},
		Platform: a.Platform,
	})
	e.animator.AnimateAttack(a, func() {
		e.landAttack(a)
		done()
	})
}

// admit transfers the group's units one by one; each arrival commits its slot.
func (e *Engine) admit(r Route, done func()) {
	units := r.Group.Units
	if len(units) > len(r.Slots) {
		log.WithFields(log.Fields{"group": r.Group.ID, "units": len(units), "slots": len(r.Slots)}).Error("units without a platform slot")
		units = units[:len(r.Slots)]
	}
	b := NewBarrier("admission", len(units), done)
	for i, u := range units {
		u, platform, arrived := u, r.Slots[i], b.Job()
		e.observer.Moved(model.Movement{
			Kind:     model.MoveAdmit,
			Side:     model.SidePlayer,
			Group:    r.Group.ID,
			Unit:     u.ID,
			Platform: platform,
		})
		e.animator.AnimateAdmission(u, platform, func() {
			if err := e.Platforms.Commit(platform, u); err == nil {
				e.feedback.PlayFeedback(model.FeedbackAdmit)
				e.observer.BoardChanged()
			}
			arrived()
		})
	}
}

func (e *Engine) finishTurn(ctx *TurnContext) {
	log.WithFields(log.Fields{
		"turn":    e.turns,
		"color":   ctx.Color.Name(),
		"groups":  len(ctx.Routes),
		"attacks": len(ctx.Targets),
	}).Debug("turn transfers complete")
	e.turn = nil
	e.setState(TS_IDLE)
	e.TriggerAttackCheck()
	e.Evaluate()
}

// Evaluate settles the outcome once nothing is in flight. It is called after
// every turn and pass; callers only need it for the opening position.
func (e *Engine) Evaluate() {
	if e.outcome != model.Playing || !e.Quiescent() {
		return
	}
	switch {
	case e.Opponent.GroupCount() == 0:
		e.outcome = model.Won
		e.feedback.PlayFeedback(model.FeedbackWin)
	case !e.hasMove() && !e.canAttack():
		e.outcome = model.Lost
		e.feedback.PlayFeedback(model.FeedbackLose)
	default:
		return
	}
	log.WithFields(log.Fields{"outcome": e.outcome.Name(), "turns": e.turns}).Info("game over")
	e.observer.OutcomeChanged(e.outcome)
}

// hasMove reports whether any player component would pass validation.
func (e *Engine) hasMove() bool {
	seen := mapset.New[model.GroupID]()
	for _, g := range e.Player.Groups() {
		if seen.Has(g.ID) {
			continue
		}
		for _, m := range e.Player.ConnectedComponent(g.ID) {
			seen.Put(m.ID)
		}
		if _, err := e.validate(g.Pos); err == nil {
			return true
		}
	}
	return false
}

func (e *Engine) canAttack() bool {
	for _, p := range e.Platforms.Platforms {
		if p.AvailableSets(e.SquadSize) > 0 && len(e.attackTargets(p.Affinity, 1)) > 0 {
			return true
		}
	}
	return false
}
