package server

import (
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/squadclash/engine"
	"github.com/zucenko/squadclash/model"
)

// SessionStats counts what happened in one session for the closing log line.
type SessionStats struct {
	engine.NopObserver
	Turns   int
	Exits   int
	Attacks int
	Falls   int
}

func (st *SessionStats) TurnStateChanged(s engine.TurnState) {
	if s == engine.TS_ROUTING {
		st.Turns++
	}
}

func (st *SessionStats) Moved(m model.Movement) {
	switch m.Kind {
	case model.MoveExit:
		st.Exits++
	case model.MoveAttack:
		st.Attacks++
	case model.MoveFall:
		st.Falls++
	}
}

func (st *SessionStats) Fields() log.Fields {
	return log.Fields{"turns": st.Turns, "exits": st.Exits, "attacks": st.Attacks, "falls": st.Falls}
}
