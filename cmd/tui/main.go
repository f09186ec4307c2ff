package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/squadclash/animation"
	"github.com/zucenko/squadclash/audio"
	"github.com/zucenko/squadclash/engine"
	"github.com/zucenko/squadclash/level"
	"github.com/zucenko/squadclash/model"
	"github.com/zucenko/squadclash/server"
)

const (
	left      = 2
	boardTop  = 2
	frameTime = 16 * time.Millisecond
)

var COLORS = map[model.Color]tcell.Color{
	model.ColorNone: tcell.ColorGray,
	model.Color1:    tcell.NewHexColor(0xfa3636),
	model.Color2:    tcell.NewHexColor(0xedbc1e),
	model.Color3:    tcell.NewHexColor(0x0abd38),
	model.Color4:    tcell.NewHexColor(0x34fbf6),
	model.Color5:    tcell.NewHexColor(0x321ecc),
	model.Color6:    tcell.NewHexColor(0xcb18dd),
}

// Game runs the engine in-process and renders both boards into the terminal.
type Game struct {
	engine.NopObserver

	screen   tcell.Screen
	level    *level.Level
	engine   *engine.Engine
	animator *animation.TweenAnimator
	sound    *audio.FeedbackPlayer

	walking map[model.GroupID]model.Color
	cursor  model.Coord
	message string
	pressed bool
	last    time.Time
}

func NewGame(l *level.Level) (*Game, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse()

	g := &Game{
		screen: screen,
		level:  l,
		sound:  audio.NewFeedbackPlayer(),
	}
	if err := g.sound.Initialize(); err != nil {
		// the game runs without sound
		log.Warnf("audio initialization failed: %v", err)
	}
	if err := g.restart(); err != nil {
		screen.Fini()
		return nil, err
	}
	return g, nil
}

func (g *Game) restart() error {
	e, ta, err := server.NewEngine(g.level, g.sound, g)
	if err != nil {
		return err
	}
	g.engine, g.animator = e, ta
	g.walking = make(map[model.GroupID]model.Color)
	g.message = ""
	g.last = time.Now()
	return nil
}

func (g *Game) Moved(m model.Movement) {
	if m.Kind == model.MoveExit && g.engine.Turn() != nil {
		g.walking[m.Group] = g.engine.Turn().Color
	}
}

func (g *Game) OutcomeChanged(o model.Outcome) {
	g.message = fmt.Sprintf("%s - r restarts, q quits", o.Name())
}

func (g *Game) sel(c model.Coord) {
	if err := g.engine.Select(c); err != nil {
		g.message = err.Error()
		return
	}
	g.message = ""
}

func (g *Game) opponentTop() int {
	return boardTop
}

func (g *Game) platformTop() int {
	return boardTop + g.engine.Opponent.Rows + 1
}

func (g *Game) playerTop() int {
	rows := 1
	if ps := g.engine.Platforms.Platforms; len(ps) > 0 && ps[0].Columns > 0 {
		rows = (ps[0].Max + ps[0].Columns - 1) / ps[0].Columns
	}
	return g.platformTop() + rows + 1
}

// cellAt maps a terminal position to a player board cell; cells are two
// characters wide.
func (g *Game) cellAt(x, y int) (model.Coord, bool) {
	c := model.Coord{Col: (x - left) / 2, Row: y - g.playerTop()}
	if x < left {
		return c, false
	}
	return c, g.engine.Player.InBounds(c)
}

func (g *Game) block(x, y int, r rune, style tcell.Style) {
	g.screen.SetContent(x, y, r, nil, style)
	g.screen.SetContent(x+1, y, r, nil, style)
}

func (g *Game) text(x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		g.screen.SetContent(x+i, y, r, nil, style)
	}
}

func round(f float32) int {
	return int(math.Round(float64(f)))
}

func (g *Game) cell(x, y int, c model.CellView) {
	switch c.Kind {
	case model.CellObstacle:
		g.block(x, y, '▒', tcell.StyleDefault.Foreground(tcell.ColorDarkGray))
	case model.CellGroup:
		g.block(x, y, '█', tcell.StyleDefault.Foreground(COLORS[c.Color]))
	default:
		g.block(x, y, '·', tcell.StyleDefault.Foreground(tcell.ColorDimGray))
	}
}

func (g *Game) draw() {
	g.screen.Clear()
	st := tcell.StyleDefault
	g.text(left, 0, fmt.Sprintf("%s  %s  %s", g.level.Name, g.engine.State().Name(), g.engine.Outcome().Name()), st.Bold(true))

	rows := g.engine.Opponent.Rows
	for _, c := range g.engine.Opponent.Cells() {
		x, y := left+c.Col*2, g.opponentTop()+rows-1-c.Row
		if p, falling := g.animator.Falling(c.Group); falling && c.Kind == model.CellGroup {
			g.cell(x, y, model.CellView{Kind: model.CellEmpty})
			x, y = left+round(p.X)*2, g.opponentTop()+rows-1-round(p.Y)
		}
		g.cell(x, y, c)
	}

	x := left
	for _, p := range g.engine.Platforms.Views() {
		style := st.Foreground(COLORS[p.Affinity])
		for i := 0; i < p.Max && p.Columns > 0; i++ {
			r := '·'
			if i < p.Committed {
				r = '●'
			} else if i < p.Committed+p.Reserved {
				r = '○'
			}
			g.screen.SetContent(x+i%p.Columns, g.platformTop()+i/p.Columns, r, nil, style)
		}
		x += p.Columns + 2
	}

	top := g.playerTop()
	for _, c := range g.engine.Player.Cells() {
		g.cell(left+c.Col*2, top+c.Row, c)
	}
	for id, color := range g.walking {
		p, ok := g.animator.Walking(id)
		if !ok {
			delete(g.walking, id)
			continue
		}
		g.block(left+round(p.X)*2, top+round(p.Y), '█', st.Foreground(COLORS[color]))
	}
	g.block(left+g.cursor.Col*2, top+g.cursor.Row, ' ', st.Reverse(true))

	g.text(left, top+g.engine.Player.Rows+1, g.message, st.Foreground(tcell.ColorYellow))
	g.screen.Show()
}

func (g *Game) moveCursor(dc, dr int) {
	c := model.Coord{Col: g.cursor.Col + dc, Row: g.cursor.Row + dr}
	if g.engine.Player.InBounds(c) {
		g.cursor = c
	}
}

func (g *Game) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyLeft:
			g.moveCursor(-1, 0)
		case tcell.KeyRight:
			g.moveCursor(1, 0)
		case tcell.KeyUp:
			g.moveCursor(0, -1)
		case tcell.KeyDown:
			g.moveCursor(0, 1)
		case tcell.KeyEnter:
			g.sel(g.cursor)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				g.sel(g.cursor)
			case 'r':
				if err := g.restart(); err != nil {
					g.message = err.Error()
				}
			}
		}
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 == 0 {
			g.pressed = false
			break
		}
		if g.pressed {
			break
		}
		g.pressed = true
		if c, ok := g.cellAt(ev.Position()); ok {
			g.cursor = c
			g.sel(c)
		}
	case *tcell.EventResize:
		g.screen.Sync()
	}
	return true
}

func (g *Game) run() {
	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- g.screen.PollEvent()
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if ev == nil || !g.handleInput(ev) {
				return
			}
		case now := <-ticker.C:
			g.animator.Update(float32(now.Sub(g.last).Seconds()))
			g.last = now
			g.draw()
		}
	}
}

func (g *Game) cleanup() {
	g.sound.Cleanup()
	g.screen.Fini()
}

func main() {
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "squadclash.log"
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open log file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	log.SetOutput(f)
	if lvl, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}

	path := os.Getenv("LEVEL")
	if path == "" {
		path = "levels/level_1.yaml"
	}
	l, err := level.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load level: %v\n", err)
		os.Exit(1)
	}

	game, err := NewGame(l)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer game.cleanup()

	game.run()
}
