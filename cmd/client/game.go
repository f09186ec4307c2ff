package main

import (
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/golang/freetype/truetype"
	"github.com/hajimehoshi/ebiten"
	"github.com/hajimehoshi/ebiten/ebitenutil"
	"github.com/hajimehoshi/ebiten/inpututil"
	"github.com/hajimehoshi/ebiten/text"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/squadclash/animation"
	"github.com/zucenko/squadclash/engine"
	"github.com/zucenko/squadclash/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	size     = 40
	unitSize = 9
	margin   = 20
	gap      = 16
	header   = 28
)

func hex(u uint32) color.RGBA {
	return color.RGBA{uint8(u >> 16), uint8(u >> 8), uint8(u), 0xff}
}

var COLOR_BG = hex(0x464646)
var COLOR_EMPTY = hex(0x1c1c1c)
var COLOR_STONE = hex(0x444444)
var COLOR_ATTACK = hex(0xffffff)

var COLORS = map[model.Color]color.RGBA{
	model.ColorNone: hex(0x888888),
	model.Color1:    hex(0xfa3636),
	model.Color2:    hex(0xedbc1e),
	model.Color3:    hex(0x0abd38),
	model.Color4:    hex(0x34fbf6),
	model.Color5:    hex(0x321ecc),
	model.Color6:    hex(0xcb18dd),
}

type GameState int

const (
	CONNECTING GameState = iota + 1
	PLAYING
	WATCHING
	GAME_OVER
)

func (s GameState) Name() string {
	switch s {
	case CONNECTING:
		return "CONNECTING"
	case PLAYING:
		return "PLAYING"
	case WATCHING:
		return "WATCHING"
	case GAME_OVER:
		return "GAME_OVER"
	default:
		return fmt.Sprintf("N/A(%d)", s)
	}
}

// Game mirrors the server state from snapshots and replays movements locally.
type Game struct {
	State    GameState
	Conn     *Connection
	Setup    model.Setup
	Snapshot model.Snapshot
	Animator *animation.TweenAnimator
	Outcome  model.Outcome
	Message  string

	watch         bool
	panel         *Panel
	playerColors  map[model.GroupID]model.Color
	walkingColors map[model.GroupID]model.Color
	attacks       map[int]model.Movement
	nextAttack    int

	width, height                       int
	boardLeft, platformsLeft            float64
	opponentTop, platformTop, playerTop float64
	platformWidth                       float64
}

var theGame *Game
var Font font.Face

func init() {
	tt, err := truetype.Parse(goregular.TTF)
	if err != nil {
		log.Fatal(err)
	}
	const dpi = 72
	Font = truetype.NewFace(tt, &truetype.Options{
		Size:    16,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
}

func NewGame(conn *Connection, watch bool) *Game {
	return &Game{
		State: CONNECTING,
		Conn:  conn,
		Animator: animation.NewTweenAnimator(animation.Timings{
			Step:   120 * time.Millisecond,
			Admit:  80 * time.Millisecond,
			Attack: 300 * time.Millisecond,
		}),
		watch:         watch,
		panel:         NewPanel(6),
		playerColors:  make(map[model.GroupID]model.Color),
		walkingColors: make(map[model.GroupID]model.Color),
		attacks:       make(map[int]model.Movement),
	}
}

func (g *Game) apply(m model.ServerMessage) {
	for _, s := range m.Setup {
		g.Setup = s
		g.State = PLAYING
		if g.watch {
			g.State = WATCHING
		}
		log.WithField("session", s.SessionID).Info("game setup")
	}
	for _, mv := range m.Moves {
		g.replay(mv)
	}
	for _, s := range m.Snapshots {
		g.setSnapshot(s)
	}
	for _, f := range m.Feedback {
		log.WithField("feedback", f.Name()).Debug("feedback")
	}
	for _, r := range m.Rejected {
		g.Message = r
	}
	for _, o := range m.Outcomes {
		g.Outcome = o
		g.State = GAME_OVER
		g.Message = o.Name()
	}
}

func (g *Game) replay(mv model.Movement) {
	switch mv.Kind {
	case model.MoveExit:
		g.walkingColors[mv.Group] = g.playerColors[mv.Group]
		g.Message = ""
		g.Animator.MoveEntityAlongPath(mv.Group, mv.Path, nil, func() {
			delete(g.walkingColors, mv.Group)
		})
	case model.MoveAttack:
		id := g.nextAttack
		g.nextAttack++
		g.attacks[id] = mv
		g.Animator.AnimateAttack(engine.Attack{Platform: mv.Platform, Source: mv.Group, Target: mv.Target}, func() {
			delete(g.attacks, id)
		})
	case model.MoveFall:
		if len(mv.Path) == 2 {
			g.Animator.AnimateFall(model.Relocation{Group: mv.Group, From: mv.Path[0], To: mv.Path[1], Fall: mv.Duration}, nil)
		}
	}
}

func (g *Game) setSnapshot(s model.Snapshot) {
	g.Snapshot = s
	colors := func(cells []model.CellView) map[model.GroupID]model.Color {
		out := make(map[model.GroupID]model.Color)
		for _, c := range cells {
			if c.Kind == model.CellGroup {
				out[c.Group] = c.Color
			}
		}
		return out
	}
	g.playerColors = colors(s.Player)
}

// layout sizes the window from the setup and the first snapshot.
func (g *Game) layout() (int, int) {
	columns, rowsOfUnits := 1, 1
	if len(g.Snapshot.Platforms) > 0 {
		p := g.Snapshot.Platforms[0]
		if p.Columns > 0 {
			columns = p.Columns
			rowsOfUnits = (p.Max + p.Columns - 1) / p.Columns
		}
	}
	g.platformWidth = float64(columns*unitSize + 8)
	platforms := float64(g.Setup.Platforms)*(g.platformWidth+gap) - gap
	board := float64(g.Setup.Cols * size)

	inner := board
	if platforms > inner {
		inner = platforms
	}
	g.width = int(inner) + 2*margin
	g.boardLeft = (float64(g.width) - board) / 2
	g.platformsLeft = (float64(g.width) - platforms) / 2
	g.opponentTop = margin + header
	g.platformTop = g.opponentTop + float64(g.Setup.Rows*size) + gap
	g.playerTop = g.platformTop + float64(rowsOfUnits*unitSize+8) + gap
	g.height = int(g.playerTop) + g.Setup.Rows*size + margin + header
	return g.width, g.height
}

func (g *Game) opponentXY(col, row float32) (float64, float64) {
	return g.boardLeft + float64(col)*size, g.opponentTop + (float64(g.Setup.Rows-1)-float64(row))*size
}

func (g *Game) playerXY(col, row float32) (float64, float64) {
	return g.boardLeft + float64(col)*size, g.playerTop + float64(row)*size
}

func (g *Game) platformX(index int) float64 {
	return g.platformsLeft + float64(index)*(g.platformWidth+gap)
}

// cellAt maps a screen position to a player board cell.
func (g *Game) cellAt(x, y int) (model.Coord, bool) {
	fx, fy := float64(x)-g.boardLeft, float64(y)-g.playerTop
	if fx < 0 || fy < 0 {
		return model.Coord{}, false
	}
	c := model.Coord{Col: int(fx) / size, Row: int(fy) / size}
	return c, c.Col < g.Setup.Cols && c.Row < g.Setup.Rows
}

func (g *Game) drain() {
	for {
		select {
		case m := <-g.Conn.Incoming:
			g.apply(m)
			continue
		default:
		}
		break
	}
	select {
	case <-g.Conn.Closed:
		if g.State != GAME_OVER {
			g.State = GAME_OVER
			g.Message = "connection lost"
		}
	default:
	}
}

func (g *Game) update(screen *ebiten.Image) error {
	g.drain()
	g.Animator.Update(1.0 / 60)

	if g.State == PLAYING && inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		if c, ok := g.cellAt(ebiten.CursorPosition()); ok {
			if err := g.Conn.Select(c); err != nil {
				log.Warnf("cannot send selection %v", err)
			}
		}
	}

	// spectators join with WATCH=<session id>
	if inpututil.IsKeyJustPressed(ebiten.KeyC) && g.Setup.SessionID != "" {
		if err := clipboard.WriteAll(g.Setup.SessionID); err != nil {
			log.Warnf("cannot copy session id %v", err)
		} else {
			g.Message = "session id copied"
		}
	}

	if ebiten.IsDrawingSkipped() {
		return nil
	}
	g.draw(screen)
	return nil
}

func tile(screen *ebiten.Image, x, y float64, clr color.Color) {
	ebitenutil.DrawRect(screen, x+2, y+2, size-4, size-4, clr)
}

func (g *Game) draw(screen *ebiten.Image) {
	if err := screen.Fill(COLOR_BG); err != nil {
		log.Printf("%v", err)
	}

	for _, c := range g.Snapshot.Opponent {
		x, y := g.opponentXY(float32(c.Col), float32(c.Row))
		switch c.Kind {
		case model.CellObstacle:
			tile(screen, x, y, COLOR_STONE)
		case model.CellGroup:
			if p, falling := g.Animator.Falling(c.Group); falling {
				tile(screen, x, y, COLOR_EMPTY)
				x, y = g.opponentXY(p.X, p.Y)
			}
			tile(screen, x, y, COLORS[c.Color])
		default:
			tile(screen, x, y, COLOR_EMPTY)
		}
	}

	for _, p := range g.Snapshot.Platforms {
		x := g.platformX(p.Index)
		rows := 1
		if p.Columns > 0 {
			rows = (p.Max + p.Columns - 1) / p.Columns
		}
		g.panel.SetBounds(x, g.platformTop, g.platformWidth, float64(rows*unitSize+8))
		g.panel.SetColor(COLORS[p.Affinity], 1)
		g.panel.Draw(screen)
		for i := 0; i < p.Committed+p.Reserved && p.Columns > 0; i++ {
			ux := x + 4 + float64(i%p.Columns*unitSize)
			uy := g.platformTop + 4 + float64(i/p.Columns*unitSize)
			c := COLORS[p.Affinity]
			var clr color.Color = c
			if i >= p.Committed {
				clr = color.NRGBA{c.R, c.G, c.B, 0x60}
			}
			ebitenutil.DrawRect(screen, ux+1, uy+1, unitSize-2, unitSize-2, clr)
		}
	}

	for _, c := range g.Snapshot.Player {
		x, y := g.playerXY(float32(c.Col), float32(c.Row))
		switch c.Kind {
		case model.CellObstacle:
			tile(screen, x, y, COLOR_STONE)
		case model.CellGroup:
			tile(screen, x, y, COLORS[c.Color])
		default:
			tile(screen, x, y, COLOR_EMPTY)
		}
	}
	for id, clr := range g.walkingColors {
		if p, ok := g.Animator.Walking(id); ok {
			x, y := g.playerXY(p.X, p.Y)
			tile(screen, x, y, COLORS[clr])
		}
	}

	for _, a := range g.attacks {
		if len(a.Path) != 2 {
			continue
		}
		var x1, y1 float64
		if a.Platform >= 0 {
			x1, y1 = g.platformX(a.Platform)+g.platformWidth/2, g.platformTop
		} else {
			x1, y1 = g.playerXY(float32(a.Path[0].Col), float32(a.Path[0].Row))
			x1, y1 = x1+size/2, y1+size/2
		}
		x2, y2 := g.opponentXY(float32(a.Path[1].Col), float32(a.Path[1].Row))
		ebitenutil.DrawLine(screen, x1, y1, x2+size/2, y2+size/2, COLOR_ATTACK)
	}

	ebitenutil.DebugPrintAt(screen, g.State.Name()+" "+g.Snapshot.Turn, margin, 4)
	if g.Message != "" {
		text.Draw(screen, g.Message, Font, margin, g.height-margin/2, color.White)
	}
}

func main() {
	if lvl, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}
	host := os.Getenv("SERVER")
	if host == "" {
		host = "localhost:8080"
		log.Printf("Defaulting to server %s", host)
	}
	url := "ws://" + host + "/play"
	watch := os.Getenv("WATCH")
	if watch != "" {
		url += "/" + watch
	}

	conn, err := Dial(url)
	if err != nil {
		log.Fatalf("cannot connect to %s: %v", url, err)
	}
	defer conn.Close()
	theGame = NewGame(conn, watch != "")

	select {
	case m := <-conn.Incoming:
		theGame.apply(m)
	case <-conn.Closed:
		log.Fatal("connection closed before setup")
	case <-time.After(5 * time.Second):
		log.Fatal("no setup from server")
	}
	width, height := theGame.layout()
	if err := ebiten.Run(theGame.update, width, height, 1, "squadclash"); err != nil {
		log.Fatal(err)
	}
}
