package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StatesHandler pushes one JSON snapshot per processed frame over WebSocket.
type StatesHandler struct {
	hub     *Hub
	closing <-chan struct{}
}

// NewStatesHandler creates a new StatesHandler reading from hub. The
// connection is closed when closing is closed.
func NewStatesHandler(hub *Hub, closing <-chan struct{}) *StatesHandler {
	return &StatesHandler{hub: hub, closing: closing}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StatesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe()
	defer cancel()

	// Reader goroutine: detects client disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if u, ok := h.hub.Latest(); ok {
		if err := h.send(conn, u); err != nil {
			return
		}
	}

	for {
		select {
		case <-done:
			return
		case <-h.closing:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := h.send(conn, u); err != nil {
				return
			}
		}
	}
}

func (h *StatesHandler) send(conn *websocket.Conn, u Update) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(u.Snapshot)
}
