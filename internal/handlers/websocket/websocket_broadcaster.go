package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Insanely-69/CelestialSword2/internal/domain/model"
	"github.com/Insanely-69/CelestialSword2/internal/domain/useCases"
)

// Ensure WebSocketBroadcaster implements the Broadcaster interface
var _ useCases.Broadcaster = (*WebSocketBroadcaster)(nil)

// WebSocketBroadcaster implements Broadcaster interface for leaderboard updates.
type WebSocketBroadcaster struct {
	clients  map[*websocket.Conn]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
}

func NewWebSocketBroadcaster() *WebSocketBroadcaster {
	return &WebSocketBroadcaster{
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// BroadcastLeaderboard pushes a refreshed guild snapshot to every connected client.
func (b *WebSocketBroadcaster) BroadcastLeaderboard(snap *model.GuildSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg, err := json.Marshal(snap)
	if err != nil {
		log.Printf("failed to marshal snapshot: %v", err)
		return
	}
	for c := range b.clients {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("websocket write error: %v", err)
			c.Close()
			delete(b.clients, c)
		}
	}
}

// Handler returns an HTTP handler that accepts websocket connections.
func (b *WebSocketBroadcaster) Handler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade error: %v", err)
			return
		}
		b.mu.Lock()
		b.clients[conn] = struct{}{}
		b.mu.Unlock()
		// Read loop keeps the connection alive and reaps it on close
		go func() {
			defer func() {
				b.mu.Lock()
				delete(b.clients, conn)
				b.mu.Unlock()
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}()
	}
}
