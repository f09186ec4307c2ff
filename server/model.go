package server

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/zucenko/squadclash/animation"
	"github.com/zucenko/squadclash/engine"
	"github.com/zucenko/squadclash/level"
	"github.com/zucenko/squadclash/model"
)

type GameServer struct {
	Level         *level.Level
	Tick          time.Duration
	GameSessions  map[string]*GameSession
	GameRequests  chan GameRequest
	WatchRequests chan WatchRequest
	Ended         chan string
	Upgrader      *websocket.Upgrader
}

type GameSessionState int

const (
	GS_NEW GameSessionState = iota
	GS_PLAY
	GS_ERR
	GS_OVER
)

// GameSession owns one engine. Everything touching the engine runs on the
// goroutine of Loop.
type GameSession struct {
	ID                    string
	State                 GameSessionState
	Engine                *engine.Engine
	Animator              *animation.TweenAnimator
	Outbox                *Outbox
	Stats                 *SessionStats
	PlayerSessions        []*PlayerSession
	Errors                chan int32
	Events                chan PlayerEvent
	PlayerConnectRequests chan PlayerConnectRequest

	capacity int
	tick     time.Duration
	nextId   int32
	ended    chan<- string
}

type PlayerSessionState int

const (
	PS_NEW PlayerSessionState = iota + 1
	PS_PLAY
	PS_OVER
	PS_ERR
	PS_ERR_SEC
)

type PlayerSession struct {
	State       PlayerSessionState
	Id          int32
	Watcher     bool
	GameSession *GameSession
	Conn        *websocket.Conn
	GameOver    chan struct{}

	MessagesToSend chan model.ServerMessage
	done           chan struct{}

	DebugInMessages  int
	DebugOutMessages int
	DebugLastMessage time.Time
	DebugLastPing    time.Time
	DebugPings       int
}
