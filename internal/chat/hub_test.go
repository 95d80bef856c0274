package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(userID int64) *Client {
	return &Client{
		send:   make(chan []byte, 16),
		userID: userID,
		rooms:  make(map[string]bool),
	}
}

func drain(c *Client) []Event {
	var events []Event
	for {
		select {
		case frame := <-c.send:
			var ev Event
			if err := json.Unmarshal(frame, &ev); err == nil {
				events = append(events, ev)
			}
		default:
			return events
		}
	}
}

func TestHub_ToRoomReachesAllMembers(t *testing.T) {
	hub := NewHub()
	a := newTestClient(1)
	b := newTestClient(2)
	outsider := newTestClient(3)
	for _, c := range []*Client{a, b, outsider} {
		hub.register(c)
	}
	hub.join(a, ThreadRoom(7))
	hub.join(b, ThreadRoom(7))

	hub.ToRoom(ThreadRoom(7), "new_message", map[string]any{"id": 42})

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
	assert.Empty(t, drain(outsider))
}

func TestHub_ToRoomExceptSkipsSenderSockets(t *testing.T) {
	hub := NewHub()
	sender := newTestClient(1)
	senderSecond := newTestClient(1) // same user, second tab
	other := newTestClient(2)
	for _, c := range []*Client{sender, senderSecond, other} {
		hub.register(c)
		hub.join(c, ThreadRoom(9))
	}

	hub.ToRoomExcept(ThreadRoom(9), 1, "typing", map[string]any{"user_id": 1})

	assert.Empty(t, drain(sender))
	assert.Empty(t, drain(senderSecond))
	assert.Len(t, drain(other), 1)
}

func TestHub_ToUserReachesEverySocket(t *testing.T) {
	hub := NewHub()
	first := newTestClient(5)
	second := newTestClient(5)
	for _, c := range []*Client{first, second} {
		hub.register(c)
		hub.join(c, UserRoom(5))
	}

	hub.ToUser(5, "thread_updated", map[string]any{"thread_id": 3})

	assert.Len(t, drain(first), 1)
	assert.Len(t, drain(second), 1)
}

func TestHub_EventEnvelope(t *testing.T) {
	hub := NewHub()
	c := newTestClient(1)
	hub.register(c)
	hub.join(c, UserRoom(1))

	hub.ToUser(1, "connected", map[string]any{"user_id": 1})

	events := drain(c)
	require.Len(t, events, 1)
	assert.Equal(t, "connected", events[0].Event)

	var data map[string]any
	require.NoError(t, json.Unmarshal(events[0].Data, &data))
	assert.Equal(t, float64(1), data["user_id"])
}

func TestHub_LeaveStopsDelivery(t *testing.T) {
	hub := NewHub()
	c := newTestClient(1)
	hub.register(c)
	hub.join(c, ThreadRoom(4))
	hub.leave(c, ThreadRoom(4))

	hub.ToRoom(ThreadRoom(4), "new_message", nil)

	assert.Empty(t, drain(c))
	assert.False(t, c.rooms[ThreadRoom(4)])
}

func TestHub_UnregisterRemovesFromAllRooms(t *testing.T) {
	hub := NewHub()
	c := newTestClient(1)
	hub.register(c)
	hub.join(c, ThreadRoom(1))
	hub.join(c, UserRoom(1))

	hub.unregister(c)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	assert.Empty(t, hub.rooms)
	assert.Empty(t, hub.clients)

	// send channel is closed so the write pump exits
	_, open := <-c.send
	assert.False(t, open)
}

func TestRoomNames(t *testing.T) {
	assert.Equal(t, "user_12", UserRoom(12))
	assert.Equal(t, "thread_34", ThreadRoom(34))
}
