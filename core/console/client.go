// Package console is a terminal observer for a running session. It connects
// to the session websocket, renders the transcript and thoughts, and sends
// typed messages and listening toggles back.
package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-welfare/core/server"
)

const writeWait = 10 * time.Second

// Frame is an inbound websocket message with its payload left undecoded.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type Client struct {
	conn   *websocket.Conn
	frames chan Frame
	done   chan struct{}

	closeOnce sync.Once
	writeMu   sync.Mutex
	errMu     sync.Mutex
	err       error
}

// Dial connects to the session websocket at url and starts reading frames.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	c := &Client{
		conn:   conn,
		frames: make(chan Frame, 64),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.frames)
	for {
		var frame Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				continue
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.setErr(err)
			}
			return
		}

		select {
		case c.frames <- frame:
		case <-c.done:
			return
		}
	}
}

// Frames is closed when the connection ends. Err reports why.
func (c *Client) Frames() <-chan Frame {
	return c.frames
}

func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *Client) setErr(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	c.err = err
}

func (c *Client) SendText(text string) error {
	return c.send(server.Message{Type: server.TypeText, Payload: text})
}

func (c *Client) SetListening(listening bool) error {
	if listening {
		return c.send(server.Message{Type: server.TypeListenStart})
	}
	return c.send(server.Message{Type: server.TypeListenStop})
}

func (c *Client) send(msg server.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to send %s: %w", msg.Type, err)
	}
	return nil
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.writeMu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()

		err = c.conn.Close()
	})
	return err
}
