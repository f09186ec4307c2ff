package server

import (
	"github.com/zucenko/squadclash/engine"
	"github.com/zucenko/squadclash/model"
)

// Outbox gathers what the engine reports between two flushes of a session.
type Outbox struct {
	message model.ServerMessage
	dirty   bool
}

var _ engine.Observer = (*Outbox)(nil)
var _ engine.FeedbackPlayer = (*Outbox)(nil)

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) TurnStateChanged(engine.TurnState) {
	o.dirty = true
}

func (o *Outbox) Moved(m model.Movement) {
	// the write loop encodes on another goroutine
	m.Path = append([]model.Coord(nil), m.Path...)
	o.message.Moves = append(o.message.Moves, m)
}

func (o *Outbox) BoardChanged() {
	o.dirty = true
}

func (o *Outbox) OutcomeChanged(out model.Outcome) {
	o.message.Outcomes = append(o.message.Outcomes, out)
	o.dirty = true
}

func (o *Outbox) PlayFeedback(f model.Feedback) {
	o.message.Feedback = append(o.message.Feedback, f)
}

// Flush hands over everything gathered since the previous flush, nil when
// nothing happened. A snapshot is attached only when the board or the turn
// state changed.
func (o *Outbox) Flush(snapshot func() model.Snapshot) *model.ServerMessage {
	m := o.message
	if !o.dirty && len(m.Moves) == 0 && len(m.Feedback) == 0 && len(m.Outcomes) == 0 {
		return nil
	}
	if o.dirty {
		m.Snapshots = []model.Snapshot{snapshot()}
	}
	o.message = model.ServerMessage{}
	o.dirty = false
	return &m
}
