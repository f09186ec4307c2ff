package engine

import (
	"github.com/zucenko/squadclash/model"
)

// PairSquads matches an attacking squad against a defending one. Both squads
// are reversed, then attacker i fights defender (i+n/2) mod n, which for
// four-member squads is the [2,3,0,1] remap.
func PairSquads(attackers, defenders []model.Unit) []Duel {
	n := min(len(attackers), len(defenders))
	if n == 0 {
		return nil
	}
	a := reversed(attackers[:n])
	d := reversed(defenders[:n])
	duels := make([]Duel, n)
	for i := range duels {
		duels[i] = Duel{Attacker: a[i], Defender: d[(i+n/2)%n]}
	}
	return duels
}

func reversed(units []model.Unit) []model.Unit {
	out := make([]model.Unit, len(units))
	for i, u := range units {
		out[len(units)-1-i] = u
	}
	return out
}

// attackTargets lists up to limit opposing groups of color that can be hit:
// front-row heads in column order, each followed up its vertical chain. A
// chain is cut at the first group already engaged by another attack.
func (e *Engine) attackTargets(color model.Color, limit int) []*model.Group {
	if color == model.ColorNone || limit <= 0 {
		return nil
	}
	var targets []*model.Group
	for _, head := range e.Opponent.GroupsWithColor(color, model.ExitRow) {
		for _, g := range e.Opponent.VerticalChain(head.ID) {
			if len(targets) == limit {
				return targets
			}
			if e.engaged.Has(g.ID) {
				break
			}
			targets = append(targets, g)
		}
	}
	return targets
}

func (e *Engine) engage(targets []*model.Group) {
	for _, g := range targets {
		e.engaged.Put(g.ID)
	}
}

// landAttack records the hit on the target; the opposing board is only
// changed by the next settle.
func (e *Engine) landAttack(a Attack) {
	e.hits = append(e.hits, a.Target)
	e.feedback.PlayFeedback(model.FeedbackHit)
	e.observer.BoardChanged()
}
