package db

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptQuerier records every statement and fails the ones listed in failOn
type scriptQuerier struct {
	executed []string
	failOn   map[string]error
}

func (q *scriptQuerier) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	q.executed = append(q.executed, sql)
	for fragment, err := range q.failOn {
		if strings.Contains(sql, fragment) {
			return pgconn.CommandTag{}, err
		}
	}
	return pgconn.CommandTag{}, nil
}

func (q *scriptQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	q.executed = append(q.executed, sql)
	return nil, nil
}

func (q *scriptQuerier) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	q.executed = append(q.executed, sql)
	return nil
}

func statementKinds(executed []string) []string {
	kinds := make([]string, 0, len(executed))
	for _, sql := range executed {
		switch {
		case strings.HasPrefix(sql, "SAVEPOINT"):
			kinds = append(kinds, "savepoint")
		case strings.HasPrefix(sql, "ROLLBACK TO SAVEPOINT"):
			kinds = append(kinds, "rollback")
		case strings.HasPrefix(sql, "RELEASE SAVEPOINT"):
			kinds = append(kinds, "release")
		case strings.Contains(sql, "INSERT INTO audit_logs"):
			kinds = append(kinds, "insert")
		default:
			kinds = append(kinds, "other")
		}
	}
	return kinds
}

func TestWriteAuditLog_ReleasesSavepointOnSuccess(t *testing.T) {
	q := &scriptQuerier{}
	store := NewStore(q)

	err := store.WriteAuditLog(context.Background(), &AuditLog{ActorID: 1, Action: "offer.sign"})
	require.NoError(t, err)
	assert.Equal(t, []string{"savepoint", "insert", "release"}, statementKinds(q.executed))
}

func TestWriteAuditLog_RollsBackFailedInsert(t *testing.T) {
	q := &scriptQuerier{failOn: map[string]error{
		"INSERT INTO audit_logs": fmt.Errorf("value too long"),
	}}
	store := NewStore(q)

	err := store.WriteAuditLog(context.Background(), &AuditLog{ActorID: 1, Action: "offer.sign"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value too long")
	assert.Equal(t, []string{"savepoint", "insert", "rollback"}, statementKinds(q.executed))
}

func TestWriteAuditLog_InsertsDirectlyOutsideTransaction(t *testing.T) {
	// pool-backed stores reject SAVEPOINT; the entry is written standalone
	q := &scriptQuerier{failOn: map[string]error{
		"SAVEPOINT audit_entry": fmt.Errorf("SAVEPOINT can only be used in transaction blocks"),
	}}
	store := NewStore(q)

	err := store.WriteAuditLog(context.Background(), &AuditLog{ActorID: 1, Action: "offer.sign"})
	require.NoError(t, err)
	assert.Equal(t, []string{"savepoint", "insert"}, statementKinds(q.executed))
}
