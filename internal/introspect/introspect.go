// Package introspect exposes a debug server that broadcasts interpreter
// lifecycle events (collector sweeps, thrown exceptions) over a
// websocket, the way the teacher's internal/network websocket server fans
// a message out to every connected client. Client connections are
// identified with github.com/google/uuid rather than a counter, so every
// connection, a reconnect included, gets a fresh collision-free id.
package introspect

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event is one line of the introspection feed, serialized as JSON to
// every attached client.
type Event struct {
	Kind string `json:"kind"`
	Data any    `json:"data,omitempty"`
}

type client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(ev)
}

// Server accepts websocket connections on /debug and fans every
// Publish()'d Event out to all of them.
type Server struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
}

// New builds a Server ready to be mounted with http.Handle("/debug", s).
func New() *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// ServeHTTP upgrades the connection and registers it until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{id: uuid.NewString(), conn: conn}

	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, c.id)
		s.mu.Unlock()
		conn.Close()
	}()

	_ = c.send(Event{Kind: "hello", Data: c.id})

	// The feed is one-directional (server -> client); this loop only
	// exists to notice when the client disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish fans ev out to every currently attached client, dropping any
// client whose write fails rather than letting one slow reader wedge
// the rest of the feed.
func (s *Server) Publish(ev Event) {
	s.mu.RLock()
	targets := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.RUnlock()

	var dead []string
	for _, c := range targets {
		if err := c.send(ev); err != nil {
			dead = append(dead, c.id)
		}
	}
	if len(dead) == 0 {
		return
	}
	s.mu.Lock()
	for _, id := range dead {
		delete(s.clients, id)
	}
	s.mu.Unlock()
}

// MarshalEvent is a convenience for callers that want to log or test the
// wire shape of an Event without a live connection.
func MarshalEvent(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}
