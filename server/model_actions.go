package server

import (
	"encoding/gob"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/squadclash/animation"
	"github.com/zucenko/squadclash/engine"
	"github.com/zucenko/squadclash/level"
	"github.com/zucenko/squadclash/model"
)

const requestTimeout = 200 * time.Millisecond

func NewGameServer(l *level.Level) *GameServer {
	return &GameServer{
		Level:         l,
		Tick:          20 * time.Millisecond,
		GameSessions:  make(map[string]*GameSession),
		GameRequests:  make(chan GameRequest),
		WatchRequests: make(chan WatchRequest),
		Ended:         make(chan string),
		Upgrader:      &websocket.Upgrader{},
	}
}

// NewEngine builds an engine with fresh boards of l, animated by a tween
// animator that the caller must Update.
func NewEngine(l *level.Level, feedback engine.FeedbackPlayer, observer engine.Observer) (*engine.Engine, *animation.TweenAnimator, error) {
	player, opponent, err := l.Boards()
	if err != nil {
		return nil, nil, err
	}
	ta := animation.NewTweenAnimator(animation.Timings{
		Step:    l.Timings.Step,
		Admit:   l.Timings.Admit,
		Attack:  l.Timings.Attack,
		NearEnd: float32(l.NearEnd),
	})
	e := engine.New(engine.Config{
		Player:    player,
		Opponent:  opponent,
		Platforms: l.Platforms,
		Capacity:  l.Capacity,
		Columns:   l.PlatformColumns,
		Gravity:   l.Gravity(),
	}, ta, feedback, observer)
	return e, ta, nil
}

// HandleHttpCall starts a new game and plays it over the upgraded connection.
func (s *GameServer) HandleHttpCall() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("HandleHttpCall - connection received")
		gcas := make(chan GameContextAwaiting, 1)
		select {
		case s.GameRequests <- GameRequest{GameContextAwaiting: gcas}:
		case <-time.After(requestTimeout):
			log.Warn("GameRequests TIMEOUTED")
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}
		s.connect(w, r, gcas, false)
	}
}

// HandleWatch attaches a spectator to the session named by the :id parameter.
func (s *GameServer) HandleWatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := way.Param(r.Context(), "id")
		log.WithField("session", id).Info("HandleWatch - connection received")
		gcas := make(chan GameContextAwaiting, 1)
		select {
		case s.WatchRequests <- WatchRequest{SessionID: id, GameContextAwaiting: gcas}:
		case <-time.After(requestTimeout):
			log.Warn("WatchRequests TIMEOUTED")
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}
		s.connect(w, r, gcas, true)
	}
}

func (s *GameServer) connect(w http.ResponseWriter, r *http.Request, gcas chan GameContextAwaiting, watch bool) {
	var gca GameContextAwaiting
	select {
	case gca = <-gcas:
	case <-time.After(requestTimeout):
		log.Warn("GameContextAwaiting <- TIMEOUTED")
		w.WriteHeader(HTTP_TIMEOUT)
		return
	}
	if gca.ResponseCode != GAME_READY {
		log.WithField("code", gca.ResponseCode.Name()).Info("connect refused")
		w.WriteHeader(gca.ResponseCode.ToHttp())
		return
	}

	con, err := s.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has replied already
		log.Warnf("websocket upgrade err %v", err)
		return
	}
	defer con.Close()

	gameOver := make(chan struct{})
	select {
	case gca.GameSession.PlayerConnectRequests <- PlayerConnectRequest{
		Con:      con,
		GameOver: gameOver,
		Watch:    watch}:
	case <-time.After(requestTimeout):
		log.Warn("PlayerConnectRequests TIMEOUTED")
		return
	}

	<-gameOver
	log.WithField("session", gca.GameSession.ID).Info("connection done")
}

func (s *GameServer) Loop() {
	log.Info("GameServer.Loop starting")
	for {
		select {
		case gameReq := <-s.GameRequests:
			gs, err := s.newGameSession()
			if err != nil {
				log.Errorf("cannot create game session: %v", err)
				gameReq.GameContextAwaiting <- GameContextAwaiting{ResponseCode: GAME_INVALID}
				continue
			}
			s.GameSessions[gs.ID] = gs
			go gs.Loop()
			log.WithFields(log.Fields{"session": gs.ID, "sessions": len(s.GameSessions)}).Info("GameSession created")
			gameReq.GameContextAwaiting <- GameContextAwaiting{
				ResponseCode: GAME_READY,
				GameSession:  gs,
			}
		case watchReq := <-s.WatchRequests:
			gs, found := s.GameSessions[watchReq.SessionID]
			code := GAME_READY
			if !found {
				code = GAME_NOT_FOUND
			}
			watchReq.GameContextAwaiting <- GameContextAwaiting{ResponseCode: code, GameSession: gs}
		case id := <-s.Ended:
			delete(s.GameSessions, id)
			log.WithFields(log.Fields{"session": id, "sessions": len(s.GameSessions)}).Info("GameSession ended")
		}
	}
}

func (s *GameServer) newGameSession() (*GameSession, error) {
	gs := &GameSession{
		ID:                    uuid.NewString(),
		State:                 GS_NEW,
		Outbox:                NewOutbox(),
		Stats:                 &SessionStats{},
		PlayerSessions:        make([]*PlayerSession, 0),
		Errors:                make(chan int32),
		Events:                make(chan PlayerEvent, 10),
		PlayerConnectRequests: make(chan PlayerConnectRequest),
		capacity:              s.Level.Capacity,
		tick:                  s.Tick,
		nextId:                1,
		ended:                 s.Ended,
	}
	e, ta, err := NewEngine(s.Level, gs.Outbox, engine.Observers{gs.Outbox, gs.Stats})
	if err != nil {
		return nil, err
	}
	gs.Engine, gs.Animator = e, ta
	return gs, nil
}

func (gs *GameSession) Loop() {
	log.WithField("session", gs.ID).Info("GameSession.Loop start")
	ticker := time.NewTicker(gs.tick)
	defer ticker.Stop()
	last := time.Now()
	for gs.State != GS_ERR {
		select {
		case pcr := <-gs.PlayerConnectRequests:
			ps := gs.addPlayer(pcr.Con, pcr.GameOver, pcr.Watch)
			ps.send(gs.MakeGameSetupMessage())
			if !ps.Watcher && gs.State == GS_NEW {
				gs.State = GS_PLAY
			}
		case errPlayer := <-gs.Errors:
			gs.dropPlayer(errPlayer)
		case pe := <-gs.Events:
			messageToPlayer, messageToWatchers := gs.Turn(pe)
			for _, ps := range gs.PlayerSessions {
				if ps.Id == pe.Player {
					ps.send(messageToPlayer)
				} else {
					ps.send(messageToWatchers)
				}
			}
		case now := <-ticker.C:
			gs.Animator.Update(float32(now.Sub(last).Seconds()))
			last = now
		}
		gs.broadcast(gs.Outbox.Flush(gs.Engine.Snapshot))
		if gs.State == GS_PLAY && gs.Engine.Outcome() != model.Playing {
			log.WithFields(gs.Stats.Fields()).WithFields(log.Fields{"session": gs.ID, "outcome": gs.Engine.Outcome().Name()}).Info("game over")
			gs.State = GS_OVER
			for _, ps := range gs.PlayerSessions {
				ps.State = PS_OVER
			}
		}
	}
	log.WithFields(gs.Stats.Fields()).WithField("session", gs.ID).Info("GameSession.Loop end")
	gs.ended <- gs.ID
}

// Turn applies one selection. Rejections go back to the selecting player only;
// spectators cannot select.
func (gs *GameSession) Turn(pe PlayerEvent) (
	messageToPlayer *model.ServerMessage,
	messageToWatchers *model.ServerMessage) {
	ps := gs.playerSession(pe.Player)
	if ps == nil || ps.Watcher {
		log.WithField("player", pe.Player).Debug("selection from a spectator ignored")
		return nil, nil
	}
	err := gs.Engine.Select(pe.GameEvent.Coord())
	message := gs.Outbox.Flush(gs.Engine.Snapshot)
	if err != nil {
		if message == nil {
			message = &model.ServerMessage{}
		}
		message.Rejected = append(message.Rejected, err.Error())
		return message, nil
	}
	return message, message
}

func (gs *GameSession) MakeGameSetupMessage() *model.ServerMessage {
	e := gs.Engine
	m := &model.ServerMessage{
		Setup: []model.Setup{{
			SessionID: gs.ID,
			Cols:      e.Player.Cols,
			Rows:      e.Player.Rows,
			Platforms: len(e.Platforms.Platforms),
			Capacity:  gs.capacity,
			SquadSize: e.SquadSize,
		}},
		Snapshots: []model.Snapshot{e.Snapshot()},
	}
	if o := e.Outcome(); o != model.Playing {
		m.Outcomes = []model.Outcome{o}
	}
	return m
}

func (gs *GameSession) broadcast(m *model.ServerMessage) {
	if m == nil {
		return
	}
	for _, ps := range gs.PlayerSessions {
		ps.send(m)
	}
}

func (gs *GameSession) playerSession(id int32) *PlayerSession {
	for _, ps := range gs.PlayerSessions {
		if ps.Id == id {
			return ps
		}
	}
	return nil
}

func (gs *GameSession) addPlayer(
	conn *websocket.Conn,
	gameOver chan struct{},
	watch bool,
) *PlayerSession {
	ps := &PlayerSession{
		State:          PS_PLAY,
		Id:             gs.nextId,
		Watcher:        watch || gs.State != GS_NEW,
		GameSession:    gs,
		Conn:           conn,
		GameOver:       gameOver,
		MessagesToSend: make(chan model.ServerMessage, 10),
		done:           make(chan struct{}),
	}
	gs.nextId++
	log.WithFields(log.Fields{"session": gs.ID, "player": ps.Id, "watcher": ps.Watcher}).Info("GameSession.addPlayer")
	if conn != nil {
		conn.SetPingHandler(
			func(message string) error {
				err := conn.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(time.Second))
				ps.DebugLastPing = time.Now()
				ps.DebugPings++
				if err == websocket.ErrCloseSent {
					return nil
				} else if e, ok := err.(net.Error); ok && e.Timeout() {
					return nil
				}
				return err
			})
		go ps.LoopChannelRead()
		go ps.LoopChannelWrite()
	}
	gs.PlayerSessions = append(gs.PlayerSessions, ps)
	return ps
}

// dropPlayer ends a failed connection. Losing the player ends the session and
// every spectator with it.
func (gs *GameSession) dropPlayer(id int32) {
	ps := gs.playerSession(id)
	if ps == nil {
		return
	}
	ps.State = PS_ERR
	if ps.Watcher {
		gs.remove(ps)
		return
	}
	log.WithField("session", gs.ID).Warn("player lost, killing GS")
	gs.State = GS_ERR
	for _, other := range gs.PlayerSessions {
		if other != ps {
			other.State = PS_ERR_SEC
		}
	}
	for len(gs.PlayerSessions) > 0 {
		gs.remove(gs.PlayerSessions[0])
	}
}

func (gs *GameSession) remove(ps *PlayerSession) {
	for i, other := range gs.PlayerSessions {
		if other == ps {
			gs.PlayerSessions = append(gs.PlayerSessions[:i], gs.PlayerSessions[i+1:]...)
			break
		}
	}
	close(ps.done)
	if ps.GameOver != nil {
		close(ps.GameOver)
	}
}

func (ps *PlayerSession) send(m *model.ServerMessage) {
	if m == nil {
		return
	}
	select {
	case ps.MessagesToSend <- *m:
	default:
		log.WithField("player", ps.Id).Warn("MessagesToSend FULL, dropping message")
	}
}

// fail reports a broken connection unless the session already let go of it.
func (ps *PlayerSession) fail(reason string, err error) {
	log.WithFields(log.Fields{"player": ps.Id, "err": err}).Warn(reason)
	select {
	case ps.GameSession.Errors <- ps.Id:
	case <-ps.done:
	}
}

func (ps *PlayerSession) LoopChannelRead() {
	log.Debug("LoopChannelRead STARTED")
	for {
		_, r, err := ps.Conn.NextReader()
		if err != nil {
			ps.fail("LoopChannelRead err reading message from Conn", err)
			break
		}
		cm := &model.ClientMessage{}
		if err := gob.NewDecoder(r).Decode(cm); err != nil {
			ps.fail("LoopChannelRead cant decode", err)
			break
		}
		ps.DebugLastMessage = time.Now()
		ps.DebugInMessages++

		select {
		case ps.GameSession.Events <- PlayerEvent{
			Player:    ps.Id,
			GameEvent: GameEvent{Col: cm.Col, Row: cm.Row},
		}:
		case <-ps.done:
			return
		default:
			log.Warn("dropping selection, GameSession.Events FULL")
		}
	}
	log.Debug("LoopChannelRead ENDED")
}

// LoopChannelWrite only consumes, so a full buffer never blocks the session.
func (ps *PlayerSession) LoopChannelWrite() {
	log.Debug("LoopChannelWrite STARTED")
loop:
	for {
		select {
		case <-ps.done:
			break loop
		case mes := <-ps.MessagesToSend:
			if err := ps.write(mes); err != nil {
				ps.fail("LoopChannelWrite cant write", err)
				break loop
			}
			ps.DebugOutMessages++
		}
	}
	log.Debug("LoopChannelWrite ENDED")
}

func (ps *PlayerSession) write(mes model.ServerMessage) error {
	w, err := ps.Conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(w).Encode(mes); err != nil {
		return errors.Join(err, w.Close())
	}
	return w.Close()
}
