package main

import (
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/coreseekdev/loom/pkg/buffer"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// client is one connected replica's websocket connection. Writes are
// serialized through a mutex, matching WebSocketTransport's guard in the
// teacher's transport package, since gorilla/websocket connections
// aren't safe for concurrent writers.
type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(ops []buffer.Operation) error {
	payload, err := marshalOps(ops)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// relay is an operation broadcast hub: every op a client sends is
// applied to the server's own authoritative buffer (so --diff and
// --script have something to observe) and rebroadcast to every other
// connected client, never back to its sender.
type relay struct {
	mu      sync.Mutex
	buf     *buffer.Buffer
	clients map[uuid.UUID]*client
	hook    scriptHook
}

func newRelay(buf *buffer.Buffer, hook scriptHook) *relay {
	return &relay{buf: buf, clients: make(map[uuid.UUID]*client), hook: hook}
}

func (r *relay) serveWS(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("loomd: upgrade failed: %v", err)
		return
	}
	c := &client{id: uuid.New(), conn: conn}

	r.mu.Lock()
	r.clients[c.id] = c
	r.mu.Unlock()
	log.Printf("loomd: client %s connected", c.id)

	defer func() {
		r.mu.Lock()
		delete(r.clients, c.id)
		r.mu.Unlock()
		conn.Close()
		log.Printf("loomd: client %s disconnected", c.id)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		ops, err := unmarshalOps(data)
		if err != nil {
			log.Printf("loomd: bad message from %s: %v", c.id, err)
			continue
		}
		r.handle(c.id, ops)
	}
}

func (r *relay) handle(from uuid.UUID, ops []buffer.Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accepted := make([]buffer.Operation, 0, len(ops))
	for _, op := range ops {
		if r.hook != nil && !r.hook.Allow(op) {
			log.Printf("loomd: script rejected operation from %s", from)
			continue
		}
		accepted = append(accepted, op)
	}
	if len(accepted) == 0 {
		return
	}
	if err := r.buf.ApplyOps(accepted); err != nil {
		log.Printf("loomd: apply failed: %v", err)
		return
	}
	for id, c := range r.clients {
		if id == from {
			continue
		}
		if err := c.send(accepted); err != nil {
			log.Printf("loomd: send to %s failed: %v", id, err)
		}
	}
}
