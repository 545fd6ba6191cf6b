package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client is one websocket connection. The room only ever touches send and
// closed (from its own goroutine); the conn belongs to the pumps.
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	closed bool
}

// trySend queues a payload without blocking. A full buffer means the reader
// on the other end is gone or hopelessly behind.
func (c *client) trySend(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *client) readPump(cfg *Config, r *Room) {
	defer func() {
		r.post(disconnectEvent{c: c})
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(64 << 10)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		cmd, err := parseCommand(data)
		if err != nil {
			// Malformed or unknown payloads never close the connection.
			logf(cfg, "ROOM: Ignoring message from %s: %v", c.conn.RemoteAddr(), err)
			continue
		}

		r.post(commandEvent{c: c, cmd: cmd})
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}

	// Channel closed by the room: say goodbye properly.
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
}

func serveWS(cfg *Config, room *Room) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ROOM: Upgrade error from %s: %v", realIP(r), err)
			return
		}

		c := &client{
			conn: conn,
			send: make(chan []byte, 32),
		}

		go c.writePump()
		c.readPump(cfg, room)
	}
}

// qrHandler generates a PNG QR code pointing at the room, for sharing.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + "/"

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// registerChatRoom starts the room actor and wires up:
//   - $path     → WebSocket endpoint for the room
//   - $path/qr  → PNG QR code linking back to the site
func registerChatRoom(ctx context.Context, cfg *Config, path string, mux *httprouter.Router) {
	room := newRoom(cfg)
	go room.run(ctx)

	mux.GET(cfg.prefix+path, serveWS(cfg, room))
	mux.GET(cfg.prefix+path+"/qr", qrHandler(cfg))
}
