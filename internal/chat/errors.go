// Package chat implements the realtime messaging fabric: threads,
// participants, presence, and websocket fan-out.
package chat

import "fmt"

// ErrNotFound indicates the target entity is absent
type ErrNotFound struct {
	Kind string
	ID   int64
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Kind, e.ID)
}

// ErrNotParticipant indicates the caller is not a member of the thread
type ErrNotParticipant struct {
	ThreadID int64
}

func (e *ErrNotParticipant) Error() string {
	return fmt.Sprintf("not a participant of thread %d", e.ThreadID)
}

// ErrNotSender indicates the caller tried to modify someone else's message
type ErrNotSender struct {
	MessageID int64
}

func (e *ErrNotSender) Error() string {
	return fmt.Sprintf("message %d was not sent by the caller", e.MessageID)
}

// ErrValidation indicates semantically invalid input
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}
