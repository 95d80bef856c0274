package db

import (
	"time"
)

// Thread entity types. A non-general thread is a singleton per (entity_type, entity_id).
const (
	ThreadGeneral     = "general"
	ThreadCandidate   = "candidate"
	ThreadRequisition = "requisition"
)

// Chat message types
const (
	MessageText   = "text"
	MessageFile   = "file"
	MessageSystem = "system"
)

// Presence status values
const (
	PresenceOnline  = "online"
	PresenceAway    = "away"
	PresenceOffline = "offline"
)

// DeletedMessageText is rendered to non-senders in place of a deleted message
const DeletedMessageText = "[Message deleted]"

// ChatThread is a conversation scoped to a topic or to a specific entity
type ChatThread struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	EntityType    string     `json:"entity_type"`
	EntityID      *int64     `json:"entity_id,omitempty"`
	CreatedBy     int64      `json:"created_by"`
	IsActive      bool       `json:"is_active"`
	IsArchived    bool       `json:"is_archived"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ChatParticipant is a thread membership row
type ChatParticipant struct {
	ThreadID   int64      `json:"thread_id"`
	UserID     int64      `json:"user_id"`
	JoinedAt   time.Time  `json:"joined_at"`
	IsAdmin    bool       `json:"is_admin"`
	MutedUntil *time.Time `json:"muted_until,omitempty"`
}

// ChatMessage is one message within a thread
type ChatMessage struct {
	ID              int64     `json:"id"`
	ThreadID        int64     `json:"thread_id"`
	SenderID        int64     `json:"sender_id"`
	Content         string    `json:"content"`
	Type            string    `json:"type"`
	Metadata        JSONMap   `json:"metadata,omitempty"`
	ParentMessageID *int64    `json:"parent_message_id,omitempty"`
	IsEdited        bool      `json:"is_edited"`
	IsDeleted       bool      `json:"is_deleted"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ThreadSummary annotates a thread with its unread count and last-message
// preview for the thread list.
type ThreadSummary struct {
	ChatThread
	UnreadCount        int     `json:"unread_count"`
	LastMessagePreview *string `json:"last_message_preview,omitempty"`
}

// UserPresence is the last-known status of a user plus typing context
type UserPresence struct {
	UserID         int64     `json:"user_id"`
	Status         string    `json:"status"`
	LastSeen       time.Time `json:"last_seen"`
	IsTyping       bool      `json:"is_typing"`
	TypingInThread *int64    `json:"typing_in_thread,omitempty"`
	SocketID       *string   `json:"socket_id,omitempty"`
}
