package transport

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketConfig configures timeouts for a WebSocket-backed Remote,
// grounded on the teacher's subscription.WebSocketConfig.
type WebSocketConfig struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the teacher's timeout defaults.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     30 * time.Second,
		MaxMessageSize: 1 << 20,
	}
}

// WebSocket is a Remote backed by a gorilla/websocket connection. Reads
// and writes run on their own goroutines (readPump/writePump, after the
// teacher's subscription.wsClient); Send/Recv/Alive only ever touch
// buffered channels and an atomic flag, so they never block the caller's
// update() loop — the contract spec.md §4.G requires.
type WebSocket struct {
	conn   *websocket.Conn
	config WebSocketConfig

	send chan string
	recv chan string

	alive    atomic.Bool
	closeOne sync.Once
	done     chan struct{}
}

// NewWebSocket wraps an already-upgraded connection and starts its pumps.
func NewWebSocket(conn *websocket.Conn, config WebSocketConfig) *WebSocket {
	ws := &WebSocket{
		conn:   conn,
		config: config,
		send:   make(chan string, 256),
		recv:   make(chan string, 256),
		done:   make(chan struct{}),
	}
	ws.alive.Store(true)

	conn.SetReadLimit(config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(config.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	go ws.readPump()
	go ws.writePump()
	return ws
}

func (ws *WebSocket) readPump() {
	defer ws.Close()
	for {
		_, message, err := ws.conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case ws.recv <- string(message):
		case <-ws.done:
			return
		}
	}
}

func (ws *WebSocket) writePump() {
	ticker := time.NewTicker(ws.config.PingPeriod)
	defer ticker.Stop()
	defer ws.Close()

	for {
		select {
		case text := <-ws.send:
			ws.conn.SetWriteDeadline(time.Now().Add(ws.config.WriteWait))
			if err := ws.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				return
			}

		case <-ticker.C:
			ws.conn.SetWriteDeadline(time.Now().Add(ws.config.WriteWait))
			if err := ws.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ws.done:
			return
		}
	}
}

// Close stops both pumps and releases the connection. Idempotent.
func (ws *WebSocket) Close() {
	ws.closeOne.Do(func() {
		ws.alive.Store(false)
		close(ws.done)
		ws.conn.Close()
	})
}

// Alive reports whether the connection is still usable.
func (ws *WebSocket) Alive() bool {
	return ws.alive.Load()
}

// Send queues text for the write pump. It fails fast if the transport is
// no longer alive or its outbound buffer is full, rather than blocking.
func (ws *WebSocket) Send(text string) error {
	if !ws.Alive() {
		return fmt.Errorf("transport: connection closed")
	}
	select {
	case ws.send <- text:
		return nil
	default:
		return fmt.Errorf("transport: outbound buffer full")
	}
}

// Recv returns the next buffered inbound message, if any, without
// blocking.
func (ws *WebSocket) Recv() (string, bool) {
	select {
	case text := <-ws.recv:
		return text, true
	default:
		return "", false
	}
}
