package level

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/squadclash/model"
	"gopkg.in/yaml.v3"
)

var ErrBadLayout = errors.New("bad layout")

type Timings struct {
	Step       time.Duration `yaml:"step"`
	Admit      time.Duration `yaml:"admit"`
	Attack     time.Duration `yaml:"attack"`
	FallPerRow time.Duration `yaml:"fall_per_row"`
	FallMin    time.Duration `yaml:"fall_min"`
}

// Level is the static configuration of one game. It is read once and never
// changed afterwards.
type Level struct {
	Name            string  `yaml:"name"`
	Rows            int     `yaml:"rows"`
	Cols            int     `yaml:"cols"`
	Platforms       int     `yaml:"platforms"`
	Capacity        int     `yaml:"capacity"`
	PlatformColumns int     `yaml:"platform_columns"`
	SquadSize       int     `yaml:"squad_size"`
	ExitRow         int     `yaml:"exit_row"`
	NearEnd         float64 `yaml:"near_end"`
	Timings         Timings `yaml:"timings"`
	Player          string  `yaml:"player"`
	Opponent        string  `yaml:"opponent"`
}

func Load(path string) (*Level, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	l, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.WithFields(log.Fields{"level": l.Name, "path": path}).Info("level loaded")
	return l, nil
}

func Parse(reader io.Reader) (*Level, error) {
	b, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	var l Level
	if err := yaml.Unmarshal(b, &l); err != nil {
		return nil, err
	}
	l.applyDefaults()
	if l.Rows == 0 || l.Cols == 0 {
		player, err := ParseBoard(strings.NewReader(l.Player), l.SquadSize)
		if err != nil {
			return nil, fmt.Errorf("player: %w", err)
		}
		l.Rows, l.Cols = player.Rows, player.Cols
	}
	if l.ExitRow != model.ExitRow {
		return nil, fmt.Errorf("exit_row %d, only %d is supported: %w", l.ExitRow, model.ExitRow, ErrBadLayout)
	}
	if _, _, err := l.Boards(); err != nil {
		return nil, err
	}
	return &l, nil
}

func (l *Level) applyDefaults() {
	if l.Platforms == 0 {
		l.Platforms = 5
	}
	if l.Capacity == 0 {
		l.Capacity = 16
	}
	if l.PlatformColumns == 0 {
		l.PlatformColumns = 4
	}
	if l.SquadSize == 0 {
		l.SquadSize = 4
	}
	if l.NearEnd == 0 {
		l.NearEnd = 0.95
	}
	if l.Timings.Step == 0 {
		l.Timings.Step = 120 * time.Millisecond
	}
	if l.Timings.Admit == 0 {
		l.Timings.Admit = 100 * time.Millisecond
	}
	if l.Timings.Attack == 0 {
		l.Timings.Attack = 300 * time.Millisecond
	}
	if l.Timings.FallPerRow == 0 {
		l.Timings.FallPerRow = 100 * time.Millisecond
	}
	if l.Timings.FallMin == 0 {
		l.Timings.FallMin = 300 * time.Millisecond
	}
}

// Boards builds fresh player and opposing boards. Every call returns new boards.
func (l *Level) Boards() (player, opponent *model.Board, err error) {
	player, err = l.board("player", l.Player)
	if err != nil {
		return nil, nil, err
	}
	opponent, err = l.board("opponent", l.Opponent)
	if err != nil {
		return nil, nil, err
	}
	return player, opponent, nil
}

func (l *Level) board(name, text string) (*model.Board, error) {
	b, err := ParseBoard(strings.NewReader(text), l.SquadSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if b.Rows != l.Rows || b.Cols != l.Cols {
		return nil, fmt.Errorf("%s is %dx%d, want %dx%d: %w", name, b.Cols, b.Rows, l.Cols, l.Rows, ErrBadLayout)
	}
	return b, nil
}

func (l *Level) Gravity() model.GravityCompactor {
	return model.GravityCompactor{FallPerRow: l.Timings.FallPerRow, FallMin: l.Timings.FallMin}
}

// ParseBoard reads a text grid. The first line is the highest row, the last one
// is the exit row. '.' is empty, '#' an obstacle and '1'..'6' a colour.
// Blank lines are skipped.
func ParseBoard(reader io.Reader, squadSize int) (*model.Board, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Split(bufio.ScanLines)
	lines := make([]string, 0)
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			continue
		}
		lines = append(lines, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return BuildBoard(lines, squadSize)
}

// BuildBoard is ParseBoard over lines already split.
func BuildBoard(lines []string, squadSize int) (*model.Board, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("no rows: %w", ErrBadLayout)
	}
	layout := make([][]model.Color, len(lines))
	var obstacles []model.Coord
	for i, s := range lines {
		row := len(lines) - 1 - i
		if len(s) != len(lines[0]) {
			return nil, fmt.Errorf("row %d has %d cells, want %d: %w", row, len(s), len(lines[0]), ErrBadLayout)
		}
		layout[row] = make([]model.Color, len(s))
		for col, char := range s {
			switch char {
			case '.':
			case '#':
				obstacles = append(obstacles, model.Coord{Col: col, Row: row})
			case '1', '2', '3', '4', '5', '6':
				layout[row][col] = model.Color(char - '0')
			default:
				return nil, fmt.Errorf("unknown cell %q at %d,%d: %w", char, col, row, ErrBadLayout)
			}
		}
	}
	return model.NewBoard(layout, obstacles, squadSize)
}
