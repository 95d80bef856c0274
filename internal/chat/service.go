package chat

import (
	"context"
	"strings"

	"github.com/recruitflow/recruitflow/internal/db"
)

// Store is the persistence surface the chat service needs. *db.Store
// implements it; tests substitute a fake.
type Store interface {
	CreateThread(ctx context.Context, title, entityType string, entityID *int64, createdBy int64) (int64, error)
	GetThread(ctx context.Context, id int64) (*db.ChatThread, error)
	GetThreadByEntity(ctx context.Context, entityType string, entityID int64) (*db.ChatThread, error)
	AddParticipant(ctx context.Context, threadID, userID int64, isAdmin bool) error
	IsParticipant(ctx context.Context, threadID, userID int64) (bool, error)
	ListParticipantIDs(ctx context.Context, threadID int64) ([]int64, error)
	ListThreadIDsForUser(ctx context.Context, userID int64) ([]int64, error)
	ListCoParticipantIDs(ctx context.Context, userID int64) ([]int64, error)
	ListThreadsForUser(ctx context.Context, userID int64, entityType string) ([]db.ThreadSummary, error)
	CreateMessage(ctx context.Context, message *db.ChatMessage) (*db.ChatMessage, error)
	GetMessage(ctx context.Context, id int64) (*db.ChatMessage, error)
	ListMessages(ctx context.Context, threadID int64, limit int, beforeID int64) ([]db.ChatMessage, error)
	MarkMessagesRead(ctx context.Context, userID int64, messageIDs []int64) error
	EditMessage(ctx context.Context, id, senderID int64, content string) error
	SoftDeleteMessage(ctx context.Context, id, senderID int64) error
	SearchMessages(ctx context.Context, userID int64, query string, threadID int64, limit int) ([]db.ChatMessage, error)
	UpsertPresence(ctx context.Context, userID int64, status string, socketID *string) error
	SetTyping(ctx context.Context, userID int64, isTyping bool, threadID *int64) error
	GetPresence(ctx context.Context, userID int64) (*db.UserPresence, error)
	MarkOfflineBySocket(ctx context.Context, socketID string) (int64, error)
}

// Database runs chat operations, transactionally or standalone
type Database interface {
	Store() Store
	WithTx(ctx context.Context, fn func(Store) error) error
}

type pgDatabase struct {
	db *db.DB
}

func (p pgDatabase) Store() Store {
	return p.db.Store()
}

func (p pgDatabase) WithTx(ctx context.Context, fn func(Store) error) error {
	return p.db.WithTx(ctx, func(s *db.Store) error { return fn(s) })
}

// Service implements chat semantics over the storage layer. Every state
// change is persisted before any realtime event is emitted, so a crash
// between the two loses an event but never a message.
type Service struct {
	db      Database
	emitter Emitter
}

// NewService creates a chat service fanning out through emitter
func NewService(database *db.DB, emitter Emitter) *Service {
	return &Service{db: pgDatabase{db: database}, emitter: emitter}
}

// ListThreads returns the caller's threads with unread counts and previews,
// optionally filtered by entity type.
func (s *Service) ListThreads(ctx context.Context, userID int64, entityType string) ([]db.ThreadSummary, error) {
	return s.db.Store().ListThreadsForUser(ctx, userID, entityType)
}

// CreateThreadInput is the payload for opening a thread
type CreateThreadInput struct {
	Title          string  `json:"title"`
	EntityType     string  `json:"entity_type"`
	EntityID       *int64  `json:"entity_id,omitempty"`
	ParticipantIDs []int64 `json:"participant_ids"`
}

// CreateThread opens a conversation. Entity-bound threads are singletons: a
// second create for the same entity returns the existing thread after adding
// any new participants. Every participant's sockets are told about the thread.
func (s *Service) CreateThread(ctx context.Context, userID int64, input CreateThreadInput) (*db.ChatThread, error) {
	if input.EntityType == "" {
		input.EntityType = db.ThreadGeneral
	}
	switch input.EntityType {
	case db.ThreadGeneral:
	case db.ThreadCandidate, db.ThreadRequisition:
		if input.EntityID == nil {
			return nil, &ErrValidation{Field: "entity_id", Message: "is required for entity threads"}
		}
	default:
		return nil, &ErrValidation{Field: "entity_type", Message: "unknown entity type"}
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, &ErrValidation{Field: "title", Message: "is required"}
	}

	var thread *db.ChatThread
	var participants []int64
	err := s.db.WithTx(ctx, func(store Store) error {
		if input.EntityType != db.ThreadGeneral {
			existing, err := store.GetThreadByEntity(ctx, input.EntityType, *input.EntityID)
			if err != nil {
				return err
			}
			thread = existing
		}

		if thread == nil {
			id, err := store.CreateThread(ctx, input.Title, input.EntityType, input.EntityID, userID)
			if err != nil {
				return err
			}
			created, err := store.GetThread(ctx, id)
			if err != nil {
				return err
			}
			thread = created
			if err := store.AddParticipant(ctx, thread.ID, userID, true); err != nil {
				return err
			}
		}

		for _, pid := range input.ParticipantIDs {
			if pid == userID {
				continue
			}
			if err := store.AddParticipant(ctx, thread.ID, pid, false); err != nil {
				return err
			}
		}

		members, err := store.ListParticipantIDs(ctx, thread.ID)
		if err != nil {
			return err
		}
		participants = members
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, pid := range participants {
		s.emitter.ToUser(pid, "new_thread", thread)
	}
	return thread, nil
}

// CanAccess reports whether the user participates in the thread. The socket
// layer uses it to gate room joins.
func (s *Service) CanAccess(ctx context.Context, userID, threadID int64) (bool, error) {
	return s.db.Store().IsParticipant(ctx, threadID, userID)
}

// ThreadIDs returns the ids of every thread the user participates in
func (s *Service) ThreadIDs(ctx context.Context, userID int64) ([]int64, error) {
	return s.db.Store().ListThreadIDsForUser(ctx, userID)
}

// Messages returns a page of thread history and marks the returned messages
// read in the same transaction. The page is selected newest first but handed
// back oldest first, ready to render top-down. Deleted messages are redacted
// for everyone but their sender.
func (s *Service) Messages(ctx context.Context, userID, threadID int64, limit int, beforeID int64) ([]db.ChatMessage, error) {
	var messages []db.ChatMessage
	err := s.db.WithTx(ctx, func(store Store) error {
		member, err := store.IsParticipant(ctx, threadID, userID)
		if err != nil {
			return err
		}
		if !member {
			return &ErrNotParticipant{ThreadID: threadID}
		}

		messages, err = store.ListMessages(ctx, threadID, limit, beforeID)
		if err != nil {
			return err
		}

		var unreadIDs []int64
		for _, m := range messages {
			if m.SenderID != userID && !m.IsDeleted {
				unreadIDs = append(unreadIDs, m.ID)
			}
		}
		return store.MarkMessagesRead(ctx, userID, unreadIDs)
	})
	if err != nil {
		return nil, err
	}

	for i := range messages {
		redactDeleted(&messages[i], userID)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// SendInput is the payload for posting a message
type SendInput struct {
	ThreadID        int64          `json:"thread_id"`
	Content         string         `json:"content"`
	Type            string         `json:"type"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	ParentMessageID *int64         `json:"parent_message_id,omitempty"`
}

// Send persists a message and fans it out: the sender's own sockets get a
// message_sent acknowledgement, everyone else in the thread room gets
// new_message, and the other participants' personal rooms get thread_updated
// so thread lists refresh even when the thread room is not open.
func (s *Service) Send(ctx context.Context, userID int64, input SendInput) (*db.ChatMessage, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, &ErrValidation{Field: "content", Message: "is required"}
	}
	if input.Type == "" {
		input.Type = db.MessageText
	}
	switch input.Type {
	case db.MessageText, db.MessageFile, db.MessageSystem:
	default:
		return nil, &ErrValidation{Field: "type", Message: "unknown message type"}
	}

	var message *db.ChatMessage
	var participants []int64
	err := s.db.WithTx(ctx, func(store Store) error {
		member, err := store.IsParticipant(ctx, input.ThreadID, userID)
		if err != nil {
			return err
		}
		if !member {
			return &ErrNotParticipant{ThreadID: input.ThreadID}
		}

		if input.ParentMessageID != nil {
			parent, err := store.GetMessage(ctx, *input.ParentMessageID)
			if err != nil {
				return err
			}
			if parent == nil || parent.ThreadID != input.ThreadID {
				return &ErrValidation{Field: "parent_message_id", Message: "must reference a message in the same thread"}
			}
		}

		message, err = store.CreateMessage(ctx, &db.ChatMessage{
			ThreadID:        input.ThreadID,
			SenderID:        userID,
			Content:         input.Content,
			Type:            input.Type,
			Metadata:        db.JSONMap(input.Metadata),
			ParentMessageID: input.ParentMessageID,
		})
		if err != nil {
			return err
		}

		participants, err = store.ListParticipantIDs(ctx, input.ThreadID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emitter.ToUser(userID, "message_sent", message)
	s.emitter.ToRoomExcept(ThreadRoom(input.ThreadID), userID, "new_message", message)
	for _, pid := range participants {
		if pid != userID {
			s.emitter.ToUser(pid, "thread_updated", map[string]any{
				"thread_id":  input.ThreadID,
				"message_id": message.ID,
			})
		}
	}
	return message, nil
}

// MarkRead records read receipts and notifies the thread room
func (s *Service) MarkRead(ctx context.Context, userID, threadID int64, messageIDs []int64) error {
	err := s.db.WithTx(ctx, func(store Store) error {
		member, err := store.IsParticipant(ctx, threadID, userID)
		if err != nil {
			return err
		}
		if !member {
			return &ErrNotParticipant{ThreadID: threadID}
		}
		return store.MarkMessagesRead(ctx, userID, messageIDs)
	})
	if err != nil {
		return err
	}

	s.emitter.ToRoomExcept(ThreadRoom(threadID), userID, "messages_read", map[string]any{
		"thread_id":   threadID,
		"user_id":     userID,
		"message_ids": messageIDs,
	})
	return nil
}

// Edit replaces the content of the caller's own message
func (s *Service) Edit(ctx context.Context, userID, messageID int64, content string) (*db.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ErrValidation{Field: "content", Message: "is required"}
	}

	var message *db.ChatMessage
	err := s.db.WithTx(ctx, func(store Store) error {
		current, err := store.GetMessage(ctx, messageID)
		if err != nil {
			return err
		}
		if current == nil {
			return &ErrNotFound{Kind: "message", ID: messageID}
		}
		if current.SenderID != userID {
			return &ErrNotSender{MessageID: messageID}
		}
		if err := store.EditMessage(ctx, messageID, userID, content); err != nil {
			return err
		}
		message, err = store.GetMessage(ctx, messageID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emitter.ToRoom(ThreadRoom(message.ThreadID), "message_updated", message)
	return message, nil
}

// Delete soft-deletes the caller's own message. History keeps the row; other
// readers see the deletion placeholder.
func (s *Service) Delete(ctx context.Context, userID, messageID int64) error {
	var threadID int64
	err := s.db.WithTx(ctx, func(store Store) error {
		current, err := store.GetMessage(ctx, messageID)
		if err != nil {
			return err
		}
		if current == nil {
			return &ErrNotFound{Kind: "message", ID: messageID}
		}
		if current.SenderID != userID {
			return &ErrNotSender{MessageID: messageID}
		}
		threadID = current.ThreadID
		return store.SoftDeleteMessage(ctx, messageID, userID)
	})
	if err != nil {
		return err
	}

	s.emitter.ToRoom(ThreadRoom(threadID), "message_deleted", map[string]any{
		"message_id": messageID,
		"thread_id":  threadID,
	})
	return nil
}

// Search does a substring search across the caller's threads
func (s *Service) Search(ctx context.Context, userID int64, query string, threadID int64, limit int) ([]db.ChatMessage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &ErrValidation{Field: "query", Message: "is required"}
	}
	messages, err := s.db.Store().SearchMessages(ctx, userID, query, threadID, limit)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		redactDeleted(&messages[i], userID)
	}
	return messages, nil
}

// UpdatePresence persists a presence change and broadcasts it to everyone
// sharing a thread with the user.
func (s *Service) UpdatePresence(ctx context.Context, userID int64, status string, socketID *string) error {
	switch status {
	case db.PresenceOnline, db.PresenceAway, db.PresenceOffline:
	default:
		return &ErrValidation{Field: "status", Message: "unknown presence status"}
	}

	store := s.db.Store()
	if err := store.UpsertPresence(ctx, userID, status, socketID); err != nil {
		return err
	}
	s.broadcastPresence(ctx, userID, status)
	return nil
}

// Typing persists the typing flag and notifies the thread room
func (s *Service) Typing(ctx context.Context, userID, threadID int64, isTyping bool) error {
	store := s.db.Store()
	member, err := store.IsParticipant(ctx, threadID, userID)
	if err != nil {
		return err
	}
	if !member {
		return &ErrNotParticipant{ThreadID: threadID}
	}

	var typingIn *int64
	if isTyping {
		typingIn = &threadID
	}
	if err := store.SetTyping(ctx, userID, isTyping, typingIn); err != nil {
		return err
	}

	s.emitter.ToRoomExcept(ThreadRoom(threadID), userID, "typing", map[string]any{
		"thread_id": threadID,
		"user_id":   userID,
		"is_typing": isTyping,
	})
	return nil
}

// PresenceFor returns the last-known presence of the requested users
func (s *Service) PresenceFor(ctx context.Context, userIDs []int64) ([]db.UserPresence, error) {
	store := s.db.Store()
	presences := make([]db.UserPresence, 0, len(userIDs))
	for _, id := range userIDs {
		p, err := store.GetPresence(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			p = &db.UserPresence{UserID: id, Status: db.PresenceOffline}
		}
		presences = append(presences, *p)
	}
	return presences, nil
}

// Disconnect handles a socket drop: the presence row bound to the socket goes
// offline and co-participants are told.
func (s *Service) Disconnect(ctx context.Context, socketID string) {
	userID, err := s.db.Store().MarkOfflineBySocket(ctx, socketID)
	if err != nil || userID == 0 {
		return
	}
	s.broadcastPresence(ctx, userID, db.PresenceOffline)
}

func (s *Service) broadcastPresence(ctx context.Context, userID int64, status string) {
	peers, err := s.db.Store().ListCoParticipantIDs(ctx, userID)
	if err != nil {
		return
	}
	payload := map[string]any{"user_id": userID, "status": status}
	for _, pid := range peers {
		s.emitter.ToUser(pid, "presence_update", payload)
	}
}

// redactDeleted replaces deleted message content for everyone but the sender
func redactDeleted(m *db.ChatMessage, viewerID int64) {
	if m.IsDeleted && m.SenderID != viewerID {
		m.Content = db.DeletedMessageText
		m.Metadata = nil
	}
}
