package engine

import (
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/squadclash/model"
)

// TriggerAttackCheck asks for an attack pass. A trigger arriving while a pass
// runs, or while the opposing board settles, is remembered and served once
// the running work completes.
func (e *Engine) TriggerAttackCheck() {
	if e.attack.running || e.settle.running {
		e.attack.pending = true
		return
	}
	e.runAttackCheck()
}

// TriggerBoardSettle asks for a settle pass with the same coalescing rules.
func (e *Engine) TriggerBoardSettle() {
	if e.settle.running {
		e.settle.pending = true
		return
	}
	e.runBoardSettle()
}

// runAttackCheck pairs the oldest idle squads of every coloured platform with
// the opposing groups they can reach and waits for all attacks to land.
func (e *Engine) runAttackCheck() {
	e.attack.running = true
	e.attack.pending = false
	e.attack.runs++

	var attacks []Attack
	for _, p := range e.Platforms.Platforms {
		if p.Committed == 0 || p.Affinity == model.ColorNone {
			continue
		}
		targets := e.attackTargets(p.Affinity, p.AvailableSets(e.SquadSize))
		squads := p.TakeSquads(len(targets), e.SquadSize)
		e.engage(targets)
		for i, squad := range squads {
			attacks = append(attacks, Attack{
				Platform: p.Index,
				Source:   model.NoGroup,
				Target:   targets[i].ID,
				From:     p.Slot(0),
				To:       targets[i].Pos,
				Duels:    PairSquads(squad, targets[i].Units),
			})
		}
	}
	log.WithFields(log.Fields{"run": e.attack.runs, "attacks": len(attacks)}).Debug("attack check")

	b := NewBarrier("attack", len(attacks), e.finishAttackCheck)
	for _, a := range attacks {
		a, done := a, b.Job()
		e.observer.Moved(model.Movement{
			Kind:     model.MoveAttack,
			Side:     model.SideOpponent,
			Group:    model.NoGroup,
			Target:   a.Target,
			Path:     []model.Coord{a.From, a.To},
			Platform: a.Platform,
		})
		e.animator.AnimateAttack(a, func() {
			if err := e.Platforms.Release(a.Platform, e.SquadSize); err != nil {
				log.WithError(err).WithField("target", a.Target).Error("attack release")
			}
			e.landAttack(a)
			done()
		})
	}
}

func (e *Engine) finishAttackCheck() {
	e.attack.running = false
	if len(e.hits) > 0 {
		e.TriggerBoardSettle()
	}
	if e.attack.pending {
		e.TriggerAttackCheck()
	}
	e.Evaluate()
}

// runBoardSettle applies the batched hits to the opposing board, compacts it
// and waits for every fall before asking for the next attack check.
func (e *Engine) runBoardSettle() {
	e.settle.running = true
	e.settle.pending = false
	e.settle.runs++

	hits := e.hits
	e.hits = nil
	var coords []model.Coord
	for _, id := range hits {
		if g := e.Opponent.Group(id); g != nil {
			coords = append(coords, g.Pos)
		}
	}
	for _, g := range e.Opponent.Clear(coords) {
		e.engaged.Remove(g.ID)
	}
	relocs := e.Gravity.Compact(e.Opponent)
	log.WithFields(log.Fields{"run": e.settle.runs, "cleared": len(coords), "falls": len(relocs)}).Debug("board settle")
	e.observer.BoardChanged()

	for _, r := range relocs {
		e.observer.Moved(model.Movement{
			Kind:     model.MoveFall,
			Side:     model.SideOpponent,
			Group:    r.Group,
			Path:     []model.Coord{r.From, r.To},
			Duration: r.Fall,
		})
	}
	if len(relocs) > 0 {
		e.feedback.PlayFeedback(model.FeedbackSettle)
	}
	e.Gravity.Settle(relocs, e.animator.AnimateFall, e.finishBoardSettle)
}

func (e *Engine) finishBoardSettle() {
	e.settle.running = false
	if e.settle.pending || len(e.hits) > 0 {
		// the rerun asks for the attack check when it completes
		e.TriggerBoardSettle()
		return
	}
	e.TriggerAttackCheck()
	e.Evaluate()
}
