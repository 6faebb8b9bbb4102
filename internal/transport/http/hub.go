package http

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// outboundMessage is the envelope every server-to-client message uses.
type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// client is one websocket connection tracked by the hub. All writes go
// through the send channel so a single goroutine owns the socket writer.
type client struct {
	id     string
	conn   *websocket.Conn
	send   chan outboundMessage
	closed bool
}

// Hub tracks connected clients and implements the session's Broadcaster
// port. Sends are non-blocking: a client whose buffer is full misses the
// message rather than stalling the session.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	nextID  uint64
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// add registers a connection and starts its writer goroutine. The returned
// id is the connection identity used everywhere in the session.
func (h *Hub) add(conn *websocket.Conn) *client {
	c := &client{
		id:   fmt.Sprintf("conn-%d", atomic.AddUint64(&h.nextID, 1)),
		conn: conn,
		send: make(chan outboundMessage, 64),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	go func() {
		for msg := range c.send {
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Printf("ws write to %s failed: %v", c.id, err)
				return
			}
		}
	}()
	return c
}

// remove unregisters a connection and stops its writer.
func (h *Hub) remove(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	delete(h.clients, connID)
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Publish sends an event to every connected client.
func (h *Hub) Publish(event string, payload any) {
	msg := outboundMessage{Type: event, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.closed {
			continue
		}
		select {
		case c.send <- msg:
		default:
			log.Printf("client %s send buffer full, dropping %s", c.id, event)
		}
	}
}

// Send delivers an event to a single client; unknown ids are a no-op.
func (h *Hub) Send(connID, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok || c.closed {
		return
	}
	select {
	case c.send <- outboundMessage{Type: event, Payload: payload}:
	default:
		log.Printf("client %s send buffer full, dropping %s", c.id, event)
	}
}

// Close force-closes a client's socket. The read loop of that connection
// then unwinds through the usual disconnect path.
func (h *Hub) Close(connID string) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	_ = c.conn.Close()
}
