package events

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// writeWait bounds a single write to a peer.
	writeWait = 5 * time.Second
	// sendQueue is how many events may wait for a slow peer before it is disconnected.
	sendQueue = 64
)

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes every event to connected websocket clients. Each client has its own queue and writer, so Emit
// never waits on the network.
type Hub struct {
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu      sync.RWMutex
	clients map[*wsClient]bool
}

var _ Emitter = (*Hub)(nil)

// NewHub creates a hub accepting websocket connections from any origin.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger.With().Str("module", "hub").Logger(),
		clients: make(map[*wsClient]bool),
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until the peer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, sendQueue)}
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	go h.writePump(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(client)
			return
		}
	}
}

func (h *Hub) writePump(client *wsClient) {
	for data := range client.send {
		if err := client.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			h.drop(client)
			return
		}
		if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug().Err(err).Msg("failed to send event")
			h.drop(client)
			return
		}
	}
}

// Emit queues ev as JSON for every client. Clients whose queue is full are disconnected.
func (h *Hub) Emit(_ context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal event")
		return
	}

	var lagging []*wsClient
	h.mu.RLock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			lagging = append(lagging, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range lagging {
		h.logger.Info().Msg("dropping slow websocket client")
		h.drop(client)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) drop(client *wsClient) {
	h.mu.Lock()
	if h.clients[client] {
		delete(h.clients, client)
		close(client.send)
		client.conn.Close()
	}
	h.mu.Unlock()
}
