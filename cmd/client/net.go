package main

import (
	"encoding/gob"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/squadclash/model"
)

// Connection pumps server messages into a channel the game drains each frame.
type Connection struct {
	conn     *websocket.Conn
	Incoming chan model.ServerMessage
	Closed   chan struct{}
}

func Dial(url string) (*Connection, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	c := &Connection{
		conn:     conn,
		Incoming: make(chan model.ServerMessage, 64),
		Closed:   make(chan struct{}),
	}
	go c.LoopRead()
	return c, nil
}

func (c *Connection) LoopRead() {
	defer close(c.Closed)
	for {
		_, r, err := c.conn.NextReader()
		if err != nil {
			log.Warnf("LoopRead err reading message %v", err)
			return
		}
		var m model.ServerMessage
		if err := gob.NewDecoder(r).Decode(&m); err != nil {
			log.Warnf("LoopRead cant decode %v", err)
			return
		}
		c.Incoming <- m
	}
}

// Select sends one cell selection. Only the game loop writes.
func (c *Connection) Select(coord model.Coord) error {
	w, err := c.conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(w).Encode(model.ClientMessage{Col: coord.Col, Row: coord.Row}); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (c *Connection) Close() error {
	return c.conn.Close()
}
