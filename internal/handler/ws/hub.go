package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"EdgeDesk/internal/domain/models"
	domrepo "EdgeDesk/internal/domain/repository"
	xlogger "EdgeDesk/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 45 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Hub fans typed envelopes out to connected dashboard clients. A client
// that cannot keep up with the broadcast stream is dropped rather than
// allowed to stall the others.
type Hub struct {
	logger  *xlogger.Logger
	metrics domrepo.Metrics

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client guards its send channel with a closed flag so that concurrent
// senders (broadcast fan-out, pong replies) never race a drop or a hub
// shutdown closing the channel.
type client struct {
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// trySend queues b without blocking. It reports false when the client is
// already closed or its buffer is full.
func (cl *client) trySend(b []byte) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.closed {
		return false
	}
	select {
	case cl.send <- b:
		return true
	default:
		return false
	}
}

func (cl *client) closeSend() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if !cl.closed {
		cl.closed = true
		close(cl.send)
	}
}

// NewHub creates an empty hub.
func NewHub(logger *xlogger.Logger, metrics domrepo.Metrics) *Hub {
	return &Hub{
		logger:  logger,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// RegisterRoutes mounts the realtime endpoint.
func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

// Serve upgrades the request and runs the client pumps until disconnect.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", xlogger.Error(err))
		return nil
	}

	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.RecordStreamEvent("ws_client_connected")
	h.logger.Info("ws client connected", xlogger.Int("clients", n))

	go h.writePump(cl)
	h.readPump(cl)
	return nil
}

// Broadcast encodes env once and queues it for every connected client.
func (h *Hub) Broadcast(env *models.Envelope) {
	if env == nil {
		return
	}
	b, err := json.Marshal(env)
	if err != nil {
		h.logger.Warn("ws broadcast encode failed", xlogger.Error(err))
		return
	}

	h.mu.RLock()
	stale := make([]*client, 0)
	for cl := range h.clients {
		if !cl.trySend(b) {
			stale = append(stale, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range stale {
		h.drop(cl)
		h.metrics.RecordStreamEvent("ws_client_slow")
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, cl := range clients {
		cl.closeSend()
		_ = cl.conn.Close()
	}
}

func (h *Hub) readPump(cl *client) {
	defer h.drop(cl)
	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("ws client read error", xlogger.Error(err))
			}
			return
		}
		env, err := models.DecodeEnvelope(msg)
		if err != nil {
			h.logger.Debug("ws client sent invalid frame", xlogger.Error(err))
			continue
		}
		if env.Type == models.EnvPing {
			pong := models.Envelope{Type: models.EnvPong, Timestamp: time.Now().UnixMilli()}
			if b, err := json.Marshal(pong); err == nil {
				cl.trySend(b)
			}
		}
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) drop(cl *client) {
	h.mu.Lock()
	_, ok := h.clients[cl]
	if ok {
		delete(h.clients, cl)
		cl.closeSend()
	}
	h.mu.Unlock()
	if ok {
		_ = cl.conn.Close()
		h.metrics.RecordStreamEvent("ws_client_disconnected")
	}
}
