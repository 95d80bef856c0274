// Package audit appends best-effort audit entries for state-changing operations.
package audit

import (
	"context"
	"log"

	"github.com/recruitflow/recruitflow/internal/db"
)

// Actor labels distinguish how the actor id should be read in an entry.
const (
	ActorAdmin     = "admin_id"
	ActorCandidate = "candidate_id"
	ActorUser      = "user_id"
)

// Entry describes one audited action
type Entry struct {
	ActorID      int64
	ActorLabel   string
	Action       string
	TargetUserID *int64
	Details      string
	Extra        map[string]any
	IPAddress    string
	UserAgent    string
}

// Recorder persists audit entries. *db.Store implements it with a
// savepoint-guarded insert so a failed write cannot abort an enclosing
// transaction.
type Recorder interface {
	WriteAuditLog(ctx context.Context, entry *db.AuditLog) error
}

// Record appends an audit entry on the caller's store. When the store is
// transactional the entry commits with the business change. A failed audit
// write is logged and swallowed; it never fails the business transaction.
func Record(ctx context.Context, s Recorder, e Entry) {
	if e.ActorLabel == "" {
		e.ActorLabel = ActorUser
	}
	err := s.WriteAuditLog(ctx, &db.AuditLog{
		ActorID:      e.ActorID,
		ActorLabel:   e.ActorLabel,
		Action:       e.Action,
		TargetUserID: e.TargetUserID,
		Details:      e.Details,
		ExtraData:    db.JSONMap(e.Extra),
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
	})
	if err != nil {
		log.Printf("[audit] failed to record %q by %d: %v", e.Action, e.ActorID, err)
	}
}
