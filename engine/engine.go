package engine

import (
	"github.com/zucenko/squadclash/model"
	"github.com/zyedidia/generic/mapset"
)

// Animator moves entities for the engine. Every call returns immediately and
// reports back through its callbacks on the engine's goroutine; each onComplete
// must be called exactly once.
type Animator interface {
	// MoveEntityAlongPath walks a player group along its exit path. onNearEnd
	// fires once when progress crosses the near-end threshold, before onComplete.
	MoveEntityAlongPath(group model.GroupID, path []model.Coord, onNearEnd, onComplete func())
	AnimateAdmission(unit model.Unit, platform int, onComplete func())
	AnimateAttack(attack Attack, onComplete func())
	AnimateFall(reloc model.Relocation, onComplete func())
}

// FeedbackPlayer is told about notable moments. It never blocks the engine.
type FeedbackPlayer interface {
	PlayFeedback(kind model.Feedback)
}

// Observer receives typed notifications about engine progress.
type Observer interface {
	TurnStateChanged(state TurnState)
	Moved(movement model.Movement)
	BoardChanged()
	OutcomeChanged(outcome model.Outcome)
}

type TurnState int

const (
	TS_IDLE TurnState = iota
	TS_VALIDATING
	TS_ROUTING
	TS_AWAITING_TRANSFER
)

// Duel is one member-vs-member fight inside an attack.
type Duel struct {
	Attacker model.Unit
	Defender model.Unit
}

// Attack is one squad hitting one opposing group. Platform is -1 when the squad
// comes straight off the player board.
type Attack struct {
	Platform int
	Source   model.GroupID
	Target   model.GroupID
	From     model.Coord
	To       model.Coord
	Duels    []Duel
}

// Route is one routed member of the selected component.
type Route struct {
	Group  *model.Group
	Path   model.ExitPath
	Target *model.Group
	Slots  []int
}

// TurnContext lives for one turn.
type TurnContext struct {
	Selected    model.Coord
	Color       model.Color
	Component   []*model.Group
	CanExit     bool
	ExitStart   model.Coord
	Targets     []*model.Group
	Routes      []Route
	Allocation  model.Allocation
	Outstanding *Barrier
}

// pass is the running/pending pair that coalesces one kind of board pass.
type pass struct {
	running bool
	pending bool
	runs    int
}

type Config struct {
	Player    *model.Board
	Opponent  *model.Board
	Platforms int
	Capacity  int
	Columns   int
	Gravity   model.GravityCompactor
}

// Engine resolves turns for one player board against one opposing board. It is
// not safe for concurrent use; every call and every collaborator callback must
// happen on the same goroutine.
type Engine struct {
	Player    *model.Board
	Opponent  *model.Board
	Platforms *model.Allocator
	Paths     *model.ExitPathFinder
	Gravity   model.GravityCompactor
	SquadSize int

	animator Animator
	feedback FeedbackPlayer
	observer Observer

	state   TurnState
	turn    *TurnContext
	attack  pass
	settle  pass
	engaged mapset.Set[model.GroupID]
	hits    []model.GroupID
	outcome model.Outcome
	turns   int
}
