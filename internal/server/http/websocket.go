package http

import (
	"context"
	"sync"
	"time"

	"chessroom/internal/server/core"
	"chessroom/internal/server/processor"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sendBuffer   = 32
	writeTimeout = 10 * time.Second
	maxFrameSize = 16 << 10
)

// Hub owns the websocket connections of the relay and routes processor
// deliveries to them
type Hub struct {
	proc    *processor.Processor
	log     *zap.Logger
	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan core.Envelope
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

func NewHub(proc *processor.Processor, log *zap.Logger) *Hub {
	return &Hub{
		proc:    proc,
		log:     log.Named("ws"),
		clients: make(map[string]*client),
	}
}

// Handle serves one websocket connection until it closes
func (h *Hub) Handle(conn *websocket.Conn) {
	cl := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan core.Envelope, sendBuffer),
	}
	conn.SetReadLimit(maxFrameSize)

	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()
	h.proc.Connect(cl.id)
	h.log.Debug("connection opened", zap.String("conn", cl.id))

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(cl)
	}()

	for {
		messageType, frame, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}
		cmd, err := processor.NewCommand(cl.id, frame)
		if err != nil {
			h.sendError(cl.id, core.ErrInvalidRequest, "malformed message")
			continue
		}
		h.Dispatch(h.proc.Execute(cmd))
	}

	h.mu.Lock()
	delete(h.clients, cl.id)
	h.mu.Unlock()
	h.Dispatch(h.proc.Disconnect(cl.id))
	cl.close()
	<-done
	h.log.Debug("connection closed", zap.String("conn", cl.id))
}

func (h *Hub) writeLoop(cl *client) {
	for env := range cl.send {
		cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := cl.conn.WriteJSON(env); err != nil {
			h.log.Debug("write failed", zap.String("conn", cl.id), zap.Error(err))
			cl.conn.Close()
			// Drain so senders never block on a dead client
			for range cl.send {
			}
			return
		}
	}
}

// Dispatch queues each delivery on its connection. A client whose buffer is
// full is dropped.
func (h *Hub) Dispatch(out []processor.Delivery) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, d := range out {
		cl, ok := h.clients[d.ConnID]
		if !ok {
			continue
		}
		select {
		case cl.send <- d.Envelope:
		default:
			h.log.Warn("send buffer full, dropping connection", zap.String("conn", cl.id))
			cl.conn.Close()
		}
	}
}

func (h *Hub) sendError(connID, code, msg string) {
	env, err := core.NewEnvelope(core.EventError, core.ErrorEvent{Message: msg, Code: code})
	if err != nil {
		return
	}
	h.Dispatch([]processor.Delivery{{ConnID: connID, Envelope: env}})
}

// Broadcast sends env to every open connection
func (h *Hub) Broadcast(env core.Envelope) {
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	out := make([]processor.Delivery, len(ids))
	for i, id := range ids {
		out[i] = processor.Delivery{ConnID: id, Envelope: env}
	}
	h.Dispatch(out)
}

// RunStatsBroadcast pushes online-stats to every connection each interval
func (h *Hub) RunStatsBroadcast(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			env, err := h.proc.Stats()
			if err != nil {
				h.log.Warn("encode stats", zap.Error(err))
				continue
			}
			h.Broadcast(env)
		}
	}
}

// Count returns the number of open connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
