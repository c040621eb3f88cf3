// Package api pkg/api/hub.go
package api

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		// Local status endpoint; not exposed beyond the host.
		return true
	},
}

// Hub fans each rendered status line out to every connected websocket
// client. Clients that fall behind or error are dropped.
type Hub struct {
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once
}

func newHub() *Hub {
	return &Hub{
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 16),
		done:       make(chan struct{}),
	}
}

func (h *Hub) run() {
	clients := make(map[*websocket.Conn]bool)

	for {
		select {
		case <-h.done:
			for conn := range clients {
				_ = conn.Close()
			}

			return
		case conn := <-h.register:
			clients[conn] = true
		case conn := <-h.unregister:
			if clients[conn] {
				delete(clients, conn)
				_ = conn.Close()
			}
		case msg := <-h.broadcast:
			for conn := range clients {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					delete(clients, conn)
					_ = conn.Close()
				}
			}
		}
	}
}

// broadcastLine never blocks the renderer: with no hub capacity left the
// line is dropped, clients will get the next one.
func (h *Hub) broadcastLine(line string) {
	select {
	case h.broadcast <- []byte(line):
	default:
	}
}

func (h *Hub) close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		_ = conn.Close()
		return
	}

	// Reader goroutine: the stream is one-way, but reads are needed to
	// notice a closed peer.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				select {
				case h.unregister <- conn:
				case <-h.done:
				}

				return
			}
		}
	}()
}
