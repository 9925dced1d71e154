package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/observability"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxClientFrame = 512
)

// StreamMessage is the frame pushed to subscribers.
type StreamMessage struct {
	Type string               `json:"type"`
	Data *domain.RevenueEvent `json:"data"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans recorded revenue events out to websocket subscribers. A
// subscriber whose buffer is full is disconnected.
type Hub struct {
	mu       sync.Mutex
	clients  map[*subscriber]struct{}
	buffer   int
	upgrader websocket.Upgrader
	logger   logrus.FieldLogger
}

// NewHub creates a hub with a per-subscriber buffer of bufferSize frames.
func NewHub(bufferSize int, allowedOrigins []string, logger logrus.FieldLogger) *Hub {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		clients: make(map[*subscriber]struct{}),
		buffer:  bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(allowedOrigins, r.Header.Get("Origin"))
			},
		},
		logger: logger.WithField("component", "stream"),
	}
}

// Publish implements ledger.EventPublisher. It never blocks.
func (h *Hub) Publish(e *domain.RevenueEvent) {
	data, err := json.Marshal(StreamMessage{Type: "revenue_event", Data: e})
	if err != nil {
		h.logger.WithError(err).Error("encode stream message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropLocked(c)
			observability.RecordStreamDrop()
			h.logger.WithField("remote", c.conn.RemoteAddr().String()).Warn("slow subscriber dropped")
		}
	}
	observability.SetStreamSubscribers(len(h.clients))
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.dropLocked(c)
	}
	observability.SetStreamSubscribers(0)
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.WithError(err).Debug("websocket upgrade failed")
		return
	}

	c := &subscriber{conn: conn, send: make(chan []byte, h.buffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	observability.SetStreamSubscribers(n)
	h.logger.WithField("remote", conn.RemoteAddr().String()).Info("subscriber connected")

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) remove(c *subscriber) {
	h.mu.Lock()
	h.dropLocked(c)
	n := len(h.clients)
	h.mu.Unlock()
	observability.SetStreamSubscribers(n)
}

// dropLocked unregisters c and closes its send channel. Caller holds h.mu.
func (h *Hub) dropLocked(c *subscriber) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// readPump discards client frames and detects disconnects.
func (h *Hub) readPump(c *subscriber) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxClientFrame)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "subscriber dropped"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}
