package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go-payroll/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const defaultWriteTimeout = 10 * time.Second

var welcomeMessage = []byte(`{"message":"Connected to Payroll WS"}`)

// Conn is the part of *websocket.Conn the hub uses.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	SetWriteDeadline(t time.Time) error
	Close() error
}

type client struct {
	conn Conn
	mu   sync.Mutex
}

func (c *client) write(payload []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub fans event payloads out to every connected websocket client.
type Hub struct {
	mu      sync.RWMutex
	clients map[Conn]*client

	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	log          *zap.Logger
}

func NewHub(logger ...*zap.Logger) *Hub {
	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Hub{
		clients: make(map[Conn]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		writeTimeout: defaultWriteTimeout,
		log:          l.Named("realtime.hub"),
	}
}

// Register adds conn and greets it. The welcome message is always the first
// frame the client sees, even if a broadcast races with the registration.
func (h *Hub) Register(conn Conn) error {
	c := &client{conn: conn}
	c.mu.Lock()

	h.mu.Lock()
	h.clients[conn] = c
	h.mu.Unlock()

	err := conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	if err == nil {
		err = conn.WriteMessage(websocket.TextMessage, welcomeMessage)
	}
	c.mu.Unlock()

	if err != nil {
		h.drop(conn)
		return err
	}
	h.log.Debug("client connected", zap.Int("clients", h.Count()))
	return nil
}

// Unregister removes conn; closing it is the caller's business.
func (h *Hub) Unregister(conn Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		h.log.Debug("client disconnected", zap.Int("clients", h.Count()))
	}
}

func (h *Hub) drop(conn Conn) {
	h.Unregister(conn)
	_ = conn.Close()
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast writes payload to every open connection and returns how many
// received it. A connection whose write fails is removed and closed.
func (h *Hub) Broadcast(payload []byte) int {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if err := c.write(payload, h.writeTimeout); err != nil {
			h.log.Warn("dropping websocket client", zap.Error(err))
			h.drop(c.conn)
			continue
		}
		delivered++
	}
	return delivered
}

// ServeWS upgrades the request and keeps the connection registered until
// the client goes away. Inbound frames are read and discarded.
func (h *Hub) ServeWS(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	if err := h.Register(ws); err != nil {
		return
	}
	defer h.drop(ws)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

// Run pumps channel into Broadcast until ctx is done.
func (h *Hub) Run(ctx context.Context, sub events.Subscriber, channel string) error {
	h.log.Info("subscribed to event channel", zap.String("channel", channel))
	return sub.Subscribe(ctx, channel, func(_ context.Context, payload []byte) error {
		h.Broadcast(payload)
		return nil
	})
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clients = make(map[Conn]*client)
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}
