package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const threadColumns = `id, title, entity_type, entity_id, created_by, is_active, is_archived, last_message_at, created_at`

func scanThread(row pgx.Row) (*ChatThread, error) {
	var t ChatThread
	err := row.Scan(&t.ID, &t.Title, &t.EntityType, &t.EntityID, &t.CreatedBy,
		&t.IsActive, &t.IsArchived, &t.LastMessageAt, &t.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan thread: %w", err)
	}
	return &t, nil
}

// CreateThread inserts a new chat thread and returns its ID
func (s *Store) CreateThread(ctx context.Context, title, entityType string, entityID *int64, createdBy int64) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx,
		`INSERT INTO chat_threads (title, entity_type, entity_id, created_by, is_active, is_archived)
		 VALUES ($1, $2, $3, $4, TRUE, FALSE)
		 RETURNING id`,
		title, entityType, entityID, createdBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create thread: %w", err)
	}
	return id, nil
}

// GetThread retrieves a thread by ID
func (s *Store) GetThread(ctx context.Context, id int64) (*ChatThread, error) {
	return scanThread(s.q.QueryRow(ctx,
		`SELECT `+threadColumns+` FROM chat_threads WHERE id = $1`, id))
}

// GetThreadByEntity finds the singleton thread for an entity, if it exists
func (s *Store) GetThreadByEntity(ctx context.Context, entityType string, entityID int64) (*ChatThread, error) {
	return scanThread(s.q.QueryRow(ctx,
		`SELECT `+threadColumns+` FROM chat_threads
		 WHERE entity_type = $1 AND entity_id = $2 AND is_active = TRUE
		 LIMIT 1`,
		entityType, entityID))
}

// AddParticipant joins a user to a thread; re-adding is a no-op
func (s *Store) AddParticipant(ctx context.Context, threadID, userID int64, isAdmin bool) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO chat_participants (thread_id, user_id, is_admin, joined_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (thread_id, user_id) DO NOTHING`,
		threadID, userID, isAdmin)
	if err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

// IsParticipant reports whether a user belongs to a thread
func (s *Store) IsParticipant(ctx context.Context, threadID, userID int64) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM chat_participants WHERE thread_id = $1 AND user_id = $2)`,
		threadID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return exists, nil
}

// ListParticipantIDs returns the user ids of every participant of a thread
func (s *Store) ListParticipantIDs(ctx context.Context, threadID int64) ([]int64, error) {
	rows, err := s.q.Query(ctx,
		`SELECT user_id FROM chat_participants WHERE thread_id = $1 ORDER BY user_id`, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ListThreadIDsForUser returns the ids of every thread the user participates in
func (s *Store) ListThreadIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.q.Query(ctx,
		`SELECT thread_id FROM chat_participants WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list thread ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan thread id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ListCoParticipantIDs returns the distinct ids of every user sharing at
// least one thread with the given user, excluding the user themself.
func (s *Store) ListCoParticipantIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.q.Query(ctx,
		`SELECT DISTINCT p2.user_id
		 FROM chat_participants p1
		 JOIN chat_participants p2 ON p1.thread_id = p2.thread_id
		 WHERE p1.user_id = $1 AND p2.user_id != $1`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list co-participants: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan co-participant: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ListThreadsForUser returns the user's threads ordered by last activity,
// each annotated with its unread count and last-message preview.
func (s *Store) ListThreadsForUser(ctx context.Context, userID int64, entityType string) ([]ThreadSummary, error) {
	query := `
		SELECT t.id, t.title, t.entity_type, t.entity_id, t.created_by, t.is_active,
		       t.is_archived, t.last_message_at, t.created_at,
		       (SELECT COUNT(*) FROM chat_messages m
		        WHERE m.thread_id = t.id AND m.sender_id != $1 AND NOT m.is_deleted
		          AND NOT EXISTS (SELECT 1 FROM message_read_statuses r
		                          WHERE r.message_id = m.id AND r.user_id = $1)) AS unread_count,
		       (SELECT CASE WHEN m.is_deleted THEN $2 ELSE m.content END
		        FROM chat_messages m WHERE m.thread_id = t.id
		        ORDER BY m.created_at DESC LIMIT 1) AS last_message_preview
		FROM chat_threads t
		JOIN chat_participants p ON p.thread_id = t.id
		WHERE p.user_id = $1 AND t.is_active = TRUE`
	args := []any{userID, DeletedMessageText}

	if entityType != "" {
		query += ` AND t.entity_type = $3`
		args = append(args, entityType)
	}
	query += ` ORDER BY t.last_message_at DESC NULLS LAST, t.created_at DESC`

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var threads []ThreadSummary
	for rows.Next() {
		var t ThreadSummary
		if err := rows.Scan(&t.ID, &t.Title, &t.EntityType, &t.EntityID, &t.CreatedBy,
			&t.IsActive, &t.IsArchived, &t.LastMessageAt, &t.CreatedAt,
			&t.UnreadCount, &t.LastMessagePreview); err != nil {
			return nil, fmt.Errorf("failed to scan thread summary: %w", err)
		}
		threads = append(threads, t)
	}
	return threads, nil
}

const messageColumns = `id, thread_id, sender_id, content, type, metadata, parent_message_id, is_edited, is_deleted, created_at, updated_at`

func scanMessage(row pgx.Row) (*ChatMessage, error) {
	var m ChatMessage
	err := row.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Content, &m.Type, &m.Metadata,
		&m.ParentMessageID, &m.IsEdited, &m.IsDeleted, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}
	return &m, nil
}

// CreateMessage inserts a message and bumps the thread's last_message_at cache
func (s *Store) CreateMessage(ctx context.Context, m *ChatMessage) (*ChatMessage, error) {
	created, err := scanMessage(s.q.QueryRow(ctx,
		`INSERT INTO chat_messages (thread_id, sender_id, content, type, metadata, parent_message_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+messageColumns,
		m.ThreadID, m.SenderID, m.Content, m.Type, m.Metadata, m.ParentMessageID))
	if err != nil {
		return nil, err
	}

	_, err = s.q.Exec(ctx,
		`UPDATE chat_threads SET last_message_at = $1 WHERE id = $2`,
		created.CreatedAt, created.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("failed to update thread activity: %w", err)
	}
	return created, nil
}

// GetMessage retrieves a message by ID
func (s *Store) GetMessage(ctx context.Context, id int64) (*ChatMessage, error) {
	return scanMessage(s.q.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM chat_messages WHERE id = $1`, id))
}

// ListMessages returns up to limit messages of a thread strictly before
// beforeID (when non-zero), newest first.
func (s *Store) ListMessages(ctx context.Context, threadID int64, limit int, beforeID int64) ([]ChatMessage, error) {
	if limit == 0 {
		limit = 50
	}

	query := `SELECT ` + messageColumns + ` FROM chat_messages WHERE thread_id = $1`
	args := []any{threadID}
	argNum := 2

	if beforeID != 0 {
		query += fmt.Sprintf(" AND id < $%d", argNum)
		args = append(args, beforeID)
		argNum++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argNum)
	args = append(args, limit)

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Content, &m.Type, &m.Metadata,
			&m.ParentMessageID, &m.IsEdited, &m.IsDeleted, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// MarkMessagesRead records read receipts for a user; already-read pairs are skipped
func (s *Store) MarkMessagesRead(ctx context.Context, userID int64, messageIDs []int64) error {
	for _, id := range messageIDs {
		_, err := s.q.Exec(ctx,
			`INSERT INTO message_read_statuses (message_id, user_id, read_at)
			 VALUES ($1, $2, NOW())
			 ON CONFLICT (message_id, user_id) DO NOTHING`,
			id, userID)
		if err != nil {
			return fmt.Errorf("failed to mark message read: %w", err)
		}
	}
	return nil
}

// UnreadCount returns the number of unread messages for a user in a thread
func (s *Store) UnreadCount(ctx context.Context, threadID, userID int64) (int, error) {
	var count int
	err := s.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM chat_messages m
		 WHERE m.thread_id = $1 AND m.sender_id != $2 AND NOT m.is_deleted
		   AND NOT EXISTS (SELECT 1 FROM message_read_statuses r
		                   WHERE r.message_id = m.id AND r.user_id = $2)`,
		threadID, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return count, nil
}

// EditMessage replaces the content of a sender's own message
func (s *Store) EditMessage(ctx context.Context, id, senderID int64, content string) error {
	result, err := s.q.Exec(ctx,
		`UPDATE chat_messages
		 SET content = $1, is_edited = TRUE, updated_at = NOW()
		 WHERE id = $2 AND sender_id = $3 AND NOT is_deleted`,
		content, id, senderID)
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("message not found: %d", id)
	}
	return nil
}

// SoftDeleteMessage marks a sender's own message deleted
func (s *Store) SoftDeleteMessage(ctx context.Context, id, senderID int64) error {
	result, err := s.q.Exec(ctx,
		`UPDATE chat_messages SET is_deleted = TRUE, updated_at = NOW()
		 WHERE id = $1 AND sender_id = $2`,
		id, senderID)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("message not found: %d", id)
	}
	return nil
}

// SearchMessages does a case-insensitive substring search over non-deleted
// messages in threads the user participates in, newest first.
func (s *Store) SearchMessages(ctx context.Context, userID int64, query string, threadID int64, limit int) ([]ChatMessage, error) {
	if limit == 0 {
		limit = 50
	}

	sql := `SELECT m.id, m.thread_id, m.sender_id, m.content, m.type, m.metadata,
	               m.parent_message_id, m.is_edited, m.is_deleted, m.created_at, m.updated_at
		FROM chat_messages m
		JOIN chat_participants p ON p.thread_id = m.thread_id AND p.user_id = $1
		WHERE NOT m.is_deleted AND m.content ILIKE $2`
	args := []any{userID, "%" + query + "%"}
	argNum := 3

	if threadID != 0 {
		sql += fmt.Sprintf(" AND m.thread_id = $%d", argNum)
		args = append(args, threadID)
		argNum++
	}
	sql += fmt.Sprintf(" ORDER BY m.created_at DESC LIMIT $%d", argNum)
	args = append(args, limit)

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Content, &m.Type, &m.Metadata,
			&m.ParentMessageID, &m.IsEdited, &m.IsDeleted, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// UpsertPresence writes through the latest presence for a user
func (s *Store) UpsertPresence(ctx context.Context, userID int64, status string, socketID *string) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO user_presences (user_id, status, last_seen, is_typing, socket_id)
		 VALUES ($1, $2, NOW(), FALSE, $3)
		 ON CONFLICT (user_id) DO UPDATE
		 SET status = $2, last_seen = NOW(), socket_id = COALESCE($3, user_presences.socket_id)`,
		userID, status, socketID)
	if err != nil {
		return fmt.Errorf("failed to upsert presence: %w", err)
	}
	return nil
}

// SetTyping updates the typing flags of a user's presence record
func (s *Store) SetTyping(ctx context.Context, userID int64, isTyping bool, threadID *int64) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO user_presences (user_id, status, last_seen, is_typing, typing_in_thread)
		 VALUES ($1, $2, NOW(), $3, $4)
		 ON CONFLICT (user_id) DO UPDATE
		 SET is_typing = $3, typing_in_thread = $4, last_seen = NOW()`,
		userID, PresenceOnline, isTyping, threadID)
	if err != nil {
		return fmt.Errorf("failed to set typing: %w", err)
	}
	return nil
}

// GetPresence retrieves the presence record of a user
func (s *Store) GetPresence(ctx context.Context, userID int64) (*UserPresence, error) {
	var p UserPresence
	err := s.q.QueryRow(ctx,
		`SELECT user_id, status, last_seen, is_typing, typing_in_thread, socket_id
		 FROM user_presences WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.Status, &p.LastSeen, &p.IsTyping, &p.TypingInThread, &p.SocketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}
	return &p, nil
}

// MarkOfflineBySocket marks offline the presence bound to a socket id.
// Used on disconnect, where only the socket identity is known.
func (s *Store) MarkOfflineBySocket(ctx context.Context, socketID string) (int64, error) {
	var userID int64
	err := s.q.QueryRow(ctx,
		`UPDATE user_presences
		 SET status = $1, is_typing = FALSE, typing_in_thread = NULL, last_seen = NOW(), socket_id = NULL
		 WHERE socket_id = $2
		 RETURNING user_id`,
		PresenceOffline, socketID,
	).Scan(&userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to mark offline: %w", err)
	}
	return userID, nil
}
