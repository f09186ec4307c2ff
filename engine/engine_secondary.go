package engine

import (
	"errors"
	"fmt"

	"github.com/zucenko/squadclash/model"
)

var (
	ErrTurnInProgress = errors.New("turn in progress")
	ErrGameOver       = errors.New("game over")
	ErrEmptyCell      = errors.New("empty cell selected")
	ErrObstacle       = errors.New("obstacle selected")
	ErrNoExit         = errors.New("group has no exit")
	ErrNoCapacity     = errors.New("not enough platform capacity")
)

func (s TurnState) Name() string {
	switch s {
	case TS_IDLE:
		return "IDLE"
	case TS_VALIDATING:
		return "VALIDATING"
	case TS_ROUTING:
		return "ROUTING"
	case TS_AWAITING_TRANSFER:
		return "AWAITING_TRANSFER"
	default:
		return fmt.Sprintf("n/a:%d", s)
	}
}

type NopObserver struct{}

func (NopObserver) TurnStateChanged(TurnState)   {}
func (NopObserver) Moved(model.Movement)         {}
func (NopObserver) BoardChanged()                {}
func (NopObserver) OutcomeChanged(model.Outcome) {}

type nopFeedback struct{}

func (nopFeedback) PlayFeedback(model.Feedback) {}

// Observers fans notifications out to several observers in order.
type Observers []Observer

func (o Observers) TurnStateChanged(s TurnState) {
	for _, x := range o {
		x.TurnStateChanged(s)
	}
}

func (o Observers) Moved(m model.Movement) {
	for _, x := range o {
		x.Moved(m)
	}
}

func (o Observers) BoardChanged() {
	for _, x := range o {
		x.BoardChanged()
	}
}

func (o Observers) OutcomeChanged(out model.Outcome) {
	for _, x := range o {
		x.OutcomeChanged(out)
	}
}
