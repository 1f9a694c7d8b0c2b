package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/poderjkapk-ux/cur-sub000/internal/structs"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 15 * time.Second
	maxMsgSize = 16 * 1024
)

var errQueueFull = errors.New("ws: send queue full")

type Client struct {
	role structs.Role
	id   string
	conn *websocket.Conn
	hub  *Hub
	send chan []byte
	done chan struct{}
	once sync.Once
}

func NewClient(role structs.Role, id string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		role: role,
		id:   id,
		conn: conn,
		hub:  hub,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
	}
}

func (c *Client) Send(b []byte) error {
	select {
	case <-c.done:
		return websocket.ErrCloseSent
	case c.send <- b:
		return nil
	default:
		// backpressure means the peer stopped draining; drop the connection
		return errQueueFull
	}
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
	})
	_ = c.conn.Close()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c.role, c.id, c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// inbound frames only keep the connection alive; commands go over HTTP
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.Unregister(c.role, c.id, c)
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return

		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}
