package db

import (
	"context"
	"fmt"
	"time"
)

// AuditLog is an append-only record of a state-changing operation
type AuditLog struct {
	ID           int64     `json:"id"`
	ActorID      int64     `json:"actor_id"`
	ActorLabel   string    `json:"actor_label"` // admin_id vs candidate_id
	Action       string    `json:"action"`
	TargetUserID *int64    `json:"target_user_id,omitempty"`
	Details      string    `json:"details,omitempty"`
	ExtraData    JSONMap   `json:"extra_data"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateAuditLog appends an audit entry. Audit rows are never updated.
func (s *Store) CreateAuditLog(ctx context.Context, entry *AuditLog) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, actor_label, action, target_user_id, details, extra_data, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW() AT TIME ZONE 'UTC')`,
		entry.ActorID, entry.ActorLabel, entry.Action, entry.TargetUserID,
		entry.Details, entry.ExtraData, entry.IPAddress, entry.UserAgent)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// WriteAuditLog appends an audit entry so that a failed insert cannot poison
// an enclosing transaction. Inside a pgx.Tx a failed statement aborts the
// whole transaction, so the insert runs under a savepoint that is rolled back
// on error. On a pool-backed store there is no transaction to protect and the
// savepoint statement itself fails, in which case the entry is inserted
// directly.
func (s *Store) WriteAuditLog(ctx context.Context, entry *AuditLog) error {
	if _, err := s.q.Exec(ctx, "SAVEPOINT audit_entry"); err != nil {
		return s.CreateAuditLog(ctx, entry)
	}
	if err := s.CreateAuditLog(ctx, entry); err != nil {
		if _, rbErr := s.q.Exec(ctx, "ROLLBACK TO SAVEPOINT audit_entry"); rbErr != nil {
			return fmt.Errorf("failed to roll back audit savepoint: %w", rbErr)
		}
		return err
	}
	if _, err := s.q.Exec(ctx, "RELEASE SAVEPOINT audit_entry"); err != nil {
		return fmt.Errorf("failed to release audit savepoint: %w", err)
	}
	return nil
}
