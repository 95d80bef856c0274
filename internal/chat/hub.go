package chat

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// Emitter delivers events to rooms. The service depends on this interface so
// fan-out can be faked in tests.
type Emitter interface {
	ToRoom(room, event string, data any)
	ToRoomExcept(room string, exceptUserID int64, event string, data any)
	ToUser(userID int64, event string, data any)
}

// Event is the wire envelope for every websocket frame, both directions
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// UserRoom names the personal room every socket of a user joins
func UserRoom(userID int64) string {
	return fmt.Sprintf("user_%d", userID)
}

// ThreadRoom names the room for a thread's live subscribers
func ThreadRoom(threadID int64) string {
	return fmt.Sprintf("thread_%d", threadID)
}

// Hub tracks connected clients and their room memberships
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]bool
	clients map[*Client]bool
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]bool),
		clients: make(map[*Client]bool),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		h.removeFromRoom(room, c)
	}
	close(c.send)
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
	c.rooms[room] = true
}

func (h *Hub) leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(room, c)
	delete(c.rooms, room)
}

// removeFromRoom expects h.mu held
func (h *Hub) removeFromRoom(room string, c *Client) {
	if members := h.rooms[room]; members != nil {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// ToRoom sends an event to every client in a room
func (h *Hub) ToRoom(room, event string, data any) {
	h.ToRoomExcept(room, 0, event, data)
}

// ToRoomExcept sends an event to every client in a room except the sockets of
// one user. A slow client gets dropped rather than blocking the fan-out.
func (h *Hub) ToRoomExcept(room string, exceptUserID int64, event string, data any) {
	frame, err := marshalEvent(event, data)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		if exceptUserID != 0 && c.userID == exceptUserID {
			continue
		}
		select {
		case c.send <- frame:
		default:
			go c.conn.Close()
		}
	}
}

// ToUser sends an event to every socket of a user
func (h *Hub) ToUser(userID int64, event string, data any) {
	h.ToRoom(UserRoom(userID), event, data)
}

func marshalEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Event: event, Data: raw})
}
