package db

import (
	"context"
	"fmt"
	"time"
)

// Notification is a per-user, per-event message with a classification tag
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Message   string    `json:"message"`
	Tag       string    `json:"tag"`
	LinkURL   *string   `json:"link_url,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateNotification inserts an unread notification for a user
func (s *Store) CreateNotification(ctx context.Context, userID int64, message, tag string, linkURL *string) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx,
		`INSERT INTO notifications (user_id, message, tag, link_url, is_read)
		 VALUES ($1, $2, $3, $4, FALSE)
		 RETURNING id`,
		userID, message, tag, linkURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create notification: %w", err)
	}
	return id, nil
}

// ListNotifications retrieves a user's notifications, newest first
func (s *Store) ListNotifications(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]Notification, error) {
	if limit == 0 {
		limit = 50
	}
	query := `SELECT id, user_id, message, tag, link_url, is_read, created_at
		FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	rows, err := s.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Tag, &n.LinkURL, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// MarkNotificationRead flips a notification to read for its owner
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID int64) error {
	result, err := s.q.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification not found: %d", id)
	}
	return nil
}
