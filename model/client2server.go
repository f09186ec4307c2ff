package model

// ClientMessage carries one cell selection on the player board.
type ClientMessage struct {
	Col, Row int
}

func (m ClientMessage) Coord() Coord {
	return Coord{Col: m.Col, Row: m.Row}
}
