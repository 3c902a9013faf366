package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/intersim/internal/config"
	"github.com/zeusync/intersim/internal/core/events/bus"
	"github.com/zeusync/intersim/internal/core/observability/log"
	"github.com/zeusync/intersim/pkg/generic"
)

// MessageTypeSnapshot marks the snapshot sent right after a client connects.
const MessageTypeSnapshot = "snapshot"

// Message is the websocket frame. Type is a bus event type or MessageTypeSnapshot.
type Message struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// hub fans encoded frames out to connected clients. Slow clients lose frames instead of stalling the publisher.
type hub struct {
	upgrader websocket.Upgrader
	buffer   int
	timeout  time.Duration
	logger   log.Log

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	dropped atomic.Uint64
}

func newHub(cfg config.Server, logger log.Log) *hub {
	return &hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		buffer:  max(cfg.SnapshotBuffer, 1),
		timeout: cfg.WriteTimeout,
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("Websocket upgrade failed", log.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, s.hub.buffer)}
	if !s.hub.add(c) {
		_ = conn.Close()
		return
	}

	s.logger.Info("Client connected",
		log.String("remote_addr", conn.RemoteAddr().String()),
		log.Int("total_clients", s.hub.count()))

	if frame, err := encode(MessageTypeSnapshot, time.Now(), s.feed.Latest()); err == nil {
		s.hub.offer(c, frame)
	}

	go s.hub.writeLoop(c)
	s.hub.readLoop(c)

	s.logger.Info("Client disconnected",
		log.String("remote_addr", conn.RemoteAddr().String()),
		log.Int("total_clients", s.hub.count()))
}

// forward is the bus handler feeding every event to the clients.
func (h *hub) forward(e bus.Event) error {
	frame, err := encode(e.Type(), e.Timestamp(), e.Data())
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.offerLocked(c, frame)
	}
	return nil
}

var frames = generic.NewHotPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset, 4)

// encode returns a frame owned by the caller; the scratch buffer goes back to the pool.
func encode(typ string, ts time.Time, data any) ([]byte, error) {
	buf := frames.Get()
	defer frames.Put(buf)

	if err := json.NewEncoder(buf).Encode(Message{Type: typ, Timestamp: ts, Data: data}); err != nil {
		return nil, err
	}
	return bytes.Clone(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})), nil
}

func (h *hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) offer(c *client, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		h.offerLocked(c, frame)
	}
}

func (h *hub) offerLocked(c *client, frame []byte) {
	select {
	case c.send <- frame:
	default:
		h.dropped.Add(1)
	}
}

func (h *hub) writeLoop(c *client) {
	defer c.conn.Close()

	for frame := range c.send {
		if h.timeout > 0 {
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.timeout))
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			h.logger.Debug("Websocket write failed", log.Error(err))
			return
		}
	}

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"),
		time.Now().Add(time.Second))
}

// readLoop discards inbound frames and returns once the connection fails.
func (h *hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
