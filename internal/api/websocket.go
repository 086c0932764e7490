package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/safety-dashboard/internal/dashboard"
	"github.com/plc-visualizer/safety-dashboard/internal/models"
	"github.com/plc-visualizer/safety-dashboard/internal/session"
	"github.com/rs/zerolog/log"
)

// WebSocket message types for the live dashboard protocol
const (
	// Client -> Server messages
	MsgTypePing  = "ping"
	MsgTypeReset = "reset"

	// Server -> Client messages
	MsgTypeConnected    = "connected"
	MsgTypeState        = "state"
	MsgTypeNotification = "notification"
	MsgTypePong         = "pong"
	MsgTypeError        = "error"
)

const writeWait = 10 * time.Second

// WebSocket message structure
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WebSocket error response
type WSErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// HubConfig tunes per-connection buffers.
type HubConfig struct {
	BufferKB  int
	QueueSize int
}

// Hub fans state changes and notifications out to websocket viewers. It
// implements dashboard.Notifier so the resetter can broadcast through it.
type Hub struct {
	store    *dashboard.Store
	sessions *session.Manager
	resetter *dashboard.Resetter
	upgrader websocket.Upgrader
	queue    int

	mu      sync.RWMutex
	clients map[string]*wsClient
}

type wsClient struct {
	id        string
	conn      *websocket.Conn
	send      chan WSMessage
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a websocket hub reading from store.
func NewHub(store *dashboard.Store, sessions *session.Manager, cfg HubConfig) *Hub {
	if cfg.BufferKB <= 0 {
		cfg.BufferKB = 16
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 32
	}
	return &Hub{
		store:    store,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  cfg.BufferKB * 1024,
			WriteBufferSize: cfg.BufferKB * 1024,
		},
		queue:   cfg.QueueSize,
		clients: make(map[string]*wsClient),
	}
}

// AttachResetter enables the "reset" client message. The resetter usually
// notifies through this hub, so it is wired after construction.
func (h *Hub) AttachResetter(r *dashboard.Resetter) {
	h.mu.Lock()
	h.resetter = r
	h.mu.Unlock()
}

// Start subscribes to the store and broadcasts a state message on every
// change until ctx is done, then disconnects all viewers.
func (h *Hub) Start(ctx context.Context) {
	changes, cancel := h.store.Subscribe(16)
	go h.run(ctx, changes, cancel)
}

func (h *Hub) run(ctx context.Context, changes <-chan dashboard.Change, cancel func()) {
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			h.Close()
			return
		case ch, ok := <-changes:
			if !ok {
				return
			}
			log.Debug().Uint64("version", ch.Version).Strs("changed", ch.Changed).Msg("broadcasting state")
			h.broadcast(h.stateMessage())
		}
	}
}

// Notify broadcasts a notification to every connected viewer.
func (h *Hub) Notify(n models.Notification) {
	h.broadcast(WSMessage{
		Type:      MsgTypeNotification,
		ID:        n.ID,
		Payload:   mustJSON(n),
		Timestamp: time.Now().UnixMilli(),
	})
}

// ClientCount returns the number of open websocket connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// HandleWebSocket upgrades HTTP connection to WebSocket and serves the live protocol
func (h *Hub) HandleWebSocket(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &wsClient{
		conn: ws,
		send: make(chan WSMessage, h.queue),
		done: make(chan struct{}),
	}

	sess, ok := h.sessions.StartSession(models.TransportWebSocket, c.RealIP(), client.close)
	if !ok {
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = ws.WriteJSON(errorMessage("too many live viewers", "VIEWER_LIMIT"))
		ws.Close()
		return nil
	}
	client.id = sess.ID

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, client.id)
		h.mu.Unlock()
		h.sessions.EndSession(client.id)
		client.close()
		log.Debug().Str("session", client.id).Msg("websocket client disconnected")
	}()

	go h.writeLoop(client)

	log.Debug().Str("session", client.id).Str("remote", c.RealIP()).Msg("websocket client connected")

	// Send welcome message followed by the current state
	client.enqueue(WSMessage{
		Type:      MsgTypeConnected,
		ID:        client.id,
		Payload:   mustJSON(map[string]string{"sessionId": client.id}),
		Timestamp: time.Now().UnixMilli(),
	})
	client.enqueue(h.stateMessage())

	ws.SetReadLimit(int64(h.upgrader.ReadBufferSize))

	// Main message loop
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("session", client.id).Msg("websocket read failed")
			}
			return nil
		}
		h.sessions.TouchSession(client.id)

		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			client.enqueue(errorMessage("Invalid message: "+err.Error(), "INVALID_PAYLOAD"))
			continue
		}

		switch msg.Type {
		case MsgTypePing:
			// Respond with pong to keep connection alive
			client.enqueue(WSMessage{Type: MsgTypePong, ID: msg.ID, Timestamp: time.Now().UnixMilli()})
		case MsgTypeReset:
			h.handleReset(client)
		default:
			client.enqueue(errorMessage("Unknown message type: "+msg.Type, "INVALID_TYPE"))
		}
	}
}

func (h *Hub) handleReset(client *wsClient) {
	h.mu.RLock()
	r := h.resetter
	h.mu.RUnlock()

	if r == nil {
		client.enqueue(errorMessage("reset is not available", "RESET_UNAVAILABLE"))
		return
	}
	if id := r.Reset(); id == "" {
		client.enqueue(errorMessage("server is shutting down", "RESET_UNAVAILABLE"))
		return
	}
	log.Info().Str("session", client.id).Msg("virtual reset requested over websocket")
}

func (h *Hub) writeLoop(client *wsClient) {
	for {
		select {
		case <-client.done:
			return
		case msg := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Str("session", client.id).Msg("failed to send message")
				client.close()
				return
			}
			h.sessions.RecordSent(client.id)
		}
	}
}

func (h *Hub) broadcast(msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.enqueue(msg)
	}
}

func (h *Hub) stateMessage() WSMessage {
	return WSMessage{
		Type:      MsgTypeState,
		Payload:   mustJSON(h.store.Snapshot()),
		Timestamp: time.Now().UnixMilli(),
	}
}

// enqueue drops the message when the client is not keeping up.
func (c *wsClient) enqueue(msg WSMessage) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		log.Warn().Str("session", c.id).Str("type", msg.Type).Msg("client queue full, dropping message")
	}
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func errorMessage(message, code string) WSMessage {
	return WSMessage{
		Type:      MsgTypeError,
		Timestamp: time.Now().UnixMilli(),
		Payload: mustJSON(WSErrorResponse{
			Type:    MsgTypeError,
			Message: message,
			Code:    code,
		}),
	}
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
