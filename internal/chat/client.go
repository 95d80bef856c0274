package chat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/recruitflow/recruitflow/internal/db"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// cross-origin is enforced by the HTTP middleware in front of the upgrade
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket connection of an authenticated user
type Client struct {
	hub      *Hub
	service  *Service
	conn     *websocket.Conn
	send     chan []byte
	userID   int64
	socketID string
	rooms    map[string]bool
}

// HandleSocket upgrades the request and runs the connection until it drops.
// The socket is acknowledged, joined to the user's personal room and every
// thread room the user participates in, and marked online.
func HandleSocket(hub *Hub, service *Service, userID int64, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:      hub,
		service:  service,
		conn:     conn,
		send:     make(chan []byte, 64),
		userID:   userID,
		socketID: uuid.New().String(),
		rooms:    make(map[string]bool),
	}
	hub.register(client)
	hub.join(client, UserRoom(userID))

	ctx := context.Background()
	if threadIDs, err := service.ThreadIDs(ctx, userID); err == nil {
		for _, id := range threadIDs {
			hub.join(client, ThreadRoom(id))
		}
	}
	if err := service.UpdatePresence(ctx, userID, db.PresenceOnline, &client.socketID); err != nil {
		log.Printf("Failed to mark user %d online: %v", userID, err)
	}

	client.reply("connected", map[string]any{
		"socket_id": client.socketID,
		"user_id":   userID,
	})

	go client.writePump()
	client.readPump()
}

// reply sends an event to this socket only
func (c *Client) reply(event string, data any) {
	frame, err := marshalEvent(event, data)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event, err)
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

// replyError reports a failed event without dropping the connection
func (c *Client) replyError(event string, err error) {
	c.reply("error", map[string]any{
		"event":   event,
		"message": err.Error(),
	})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
		c.service.Disconnect(context.Background(), c.socketID)
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Websocket error for user %d: %v", c.userID, err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			c.replyError("", err)
			continue
		}
		c.dispatch(event)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one client event. Failures become error payloads on this
// socket; the connection stays up.
func (c *Client) dispatch(event Event) {
	ctx := context.Background()

	switch event.Event {
	case "join_thread":
		var payload struct {
			ThreadID int64 `json:"thread_id"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.replyError(event.Event, err)
			return
		}
		ok, err := c.service.CanAccess(ctx, c.userID, payload.ThreadID)
		if err != nil {
			c.replyError(event.Event, err)
			return
		}
		if !ok {
			c.replyError(event.Event, &ErrNotParticipant{ThreadID: payload.ThreadID})
			return
		}
		c.hub.join(c, ThreadRoom(payload.ThreadID))
		c.reply("joined_thread", payload)

	case "leave_thread":
		var payload struct {
			ThreadID int64 `json:"thread_id"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.replyError(event.Event, err)
			return
		}
		c.hub.leave(c, ThreadRoom(payload.ThreadID))
		c.reply("left_thread", payload)

	case "send_message":
		var input SendInput
		if err := json.Unmarshal(event.Data, &input); err != nil {
			c.replyError(event.Event, err)
			return
		}
		if _, err := c.service.Send(ctx, c.userID, input); err != nil {
			c.replyError(event.Event, err)
		}

	case "get_messages":
		var payload struct {
			ThreadID int64 `json:"thread_id"`
			Limit    int   `json:"limit"`
			BeforeID int64 `json:"before_id"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.replyError(event.Event, err)
			return
		}
		messages, err := c.service.Messages(ctx, c.userID, payload.ThreadID, payload.Limit, payload.BeforeID)
		if err != nil {
			c.replyError(event.Event, err)
			return
		}
		c.reply("messages", map[string]any{
			"thread_id": payload.ThreadID,
			"messages":  messages,
		})

	case "get_threads":
		var payload struct {
			EntityType string `json:"entity_type"`
		}
		if len(event.Data) > 0 {
			if err := json.Unmarshal(event.Data, &payload); err != nil {
				c.replyError(event.Event, err)
				return
			}
		}
		threads, err := c.service.ListThreads(ctx, c.userID, payload.EntityType)
		if err != nil {
			c.replyError(event.Event, err)
			return
		}
		c.reply("threads", map[string]any{"threads": threads})

	case "create_thread":
		var input CreateThreadInput
		if err := json.Unmarshal(event.Data, &input); err != nil {
			c.replyError(event.Event, err)
			return
		}
		thread, err := c.service.CreateThread(ctx, c.userID, input)
		if err != nil {
			c.replyError(event.Event, err)
			return
		}
		c.hub.join(c, ThreadRoom(thread.ID))

	case "mark_read":
		var payload struct {
			ThreadID   int64   `json:"thread_id"`
			MessageIDs []int64 `json:"message_ids"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.replyError(event.Event, err)
			return
		}
		if err := c.service.MarkRead(ctx, c.userID, payload.ThreadID, payload.MessageIDs); err != nil {
			c.replyError(event.Event, err)
		}

	case "typing":
		var payload struct {
			ThreadID int64 `json:"thread_id"`
			IsTyping bool  `json:"is_typing"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.replyError(event.Event, err)
			return
		}
		if err := c.service.Typing(ctx, c.userID, payload.ThreadID, payload.IsTyping); err != nil {
			c.replyError(event.Event, err)
		}

	case "update_presence":
		var payload struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.replyError(event.Event, err)
			return
		}
		if err := c.service.UpdatePresence(ctx, c.userID, payload.Status, &c.socketID); err != nil {
			c.replyError(event.Event, err)
		}

	case "get_presence":
		var payload struct {
			UserIDs []int64 `json:"user_ids"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.replyError(event.Event, err)
			return
		}
		presences, err := c.service.PresenceFor(ctx, payload.UserIDs)
		if err != nil {
			c.replyError(event.Event, err)
			return
		}
		c.reply("presence", map[string]any{"presences": presences})

	case "edit_message":
		var payload struct {
			MessageID int64  `json:"message_id"`
			Content   string `json:"content"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.replyError(event.Event, err)
			return
		}
		if _, err := c.service.Edit(ctx, c.userID, payload.MessageID, payload.Content); err != nil {
			c.replyError(event.Event, err)
		}

	case "delete_message":
		var payload struct {
			MessageID int64 `json:"message_id"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.replyError(event.Event, err)
			return
		}
		if err := c.service.Delete(ctx, c.userID, payload.MessageID); err != nil {
			c.replyError(event.Event, err)
		}

	case "search":
		var payload struct {
			Query    string `json:"query"`
			ThreadID int64  `json:"thread_id"`
			Limit    int    `json:"limit"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.replyError(event.Event, err)
			return
		}
		results, err := c.service.Search(ctx, c.userID, payload.Query, payload.ThreadID, payload.Limit)
		if err != nil {
			c.replyError(event.Event, err)
			return
		}
		c.reply("search_results", map[string]any{"messages": results})

	default:
		c.reply("error", map[string]any{
			"event":   event.Event,
			"message": "unknown event",
		})
	}
}
