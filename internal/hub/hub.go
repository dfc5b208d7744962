// Package hub broadcasts session status and captured transcripts to local
// UI clients over websocket.
package hub

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event is one broadcast frame.
type Event struct {
	Type           string `json:"type"`
	Mode           string `json:"mode,omitempty"`
	Listening      bool   `json:"listening,omitempty"`
	WakeWordActive bool   `json:"wake_word_active,omitempty"`
	Transcript     string `json:"transcript,omitempty"`
	At             int64  `json:"at"`
}

const (
	EventStatus     = "status"
	EventTranscript = "transcript"

	writeWait      = 5 * time.Second
	sendBufferSize = 8
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans broadcast events out to all connected clients. Slow clients are
// dropped rather than allowed to stall the broadcast path.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu         sync.Mutex
	clients    map[string]*client
	lastStatus []byte
	closed     bool
}

// New builds an empty hub. A nil logger disables hub logging.
func New(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Local-only server; browser panels connect from file:// origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: map[string]*client{},
	}
}

// ServeHTTP upgrades one client connection and registers it for broadcasts.
// The latest status event is replayed immediately so new panels render
// current state without waiting for a transition.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logDebug("websocket upgrade failed", "error", err.Error())
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c.id] = c
	if h.lastStatus != nil {
		c.send <- h.lastStatus
	}
	h.mu.Unlock()

	h.logDebug("hub client connected", "client_id", c.id)
	go h.writePump(c)
	go h.readPump(c)
}

// NotifyStatus broadcasts a status snapshot and retains it for replay.
func (h *Hub) NotifyStatus(mode string, listening bool, wakeWordActive bool) {
	frame, err := json.Marshal(Event{
		Type:           EventStatus,
		Mode:           mode,
		Listening:      listening,
		WakeWordActive: wakeWordActive,
		At:             time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}

	h.mu.Lock()
	h.lastStatus = frame
	h.broadcastLocked(frame)
	h.mu.Unlock()
}

// NotifyTranscript broadcasts one captured command.
func (h *Hub) NotifyTranscript(transcript string) {
	frame, err := json.Marshal(Event{
		Type:       EventTranscript,
		Transcript: transcript,
		At:         time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}

	h.mu.Lock()
	h.broadcastLocked(frame)
	h.mu.Unlock()
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = map[string]*client{}
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}
}

func (h *Hub) broadcastLocked(frame []byte) {
	for id, c := range h.clients {
		select {
		case c.send <- frame:
		default:
			// Full buffer means the client stopped draining; cut it loose.
			delete(h.clients, id)
			close(c.send)
			h.logDebug("hub client dropped: send buffer full", "client_id", id)
		}
	}
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for frame := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			h.removeClient(c)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
}

// readPump discards inbound frames; the hub is broadcast-only. It exists to
// observe the close handshake and unregister promptly.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.removeClient(c)
			return
		}
	}
}

func (h *Hub) logDebug(msg string, args ...any) {
	if h.logger == nil {
		return
	}
	h.logger.Debug(msg, args...)
}
