package mail

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingSender fails the first failures attempts, then succeeds
type recordingSender struct {
	mu       sync.Mutex
	failures int
	attempts int
	sent     []string
}

func (s *recordingSender) Send(_ context.Context, to, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.attempts <= s.failures {
		return fmt.Errorf("smtp unavailable")
	}
	s.sent = append(s.sent, to)
	return nil
}

func (s *recordingSender) snapshot() (int, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts, append([]string(nil), s.sent...)
}

func TestDispatcher_DeliversQueuedMessages(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender)
	d.backoff = 0
	d.Start(context.Background())

	d.Enqueue(Message{To: "a@example.com", Subject: "one"})
	d.Enqueue(Message{To: "b@example.com", Subject: "two"})
	d.Stop()

	attempts, sent := sender.snapshot()
	assert.Equal(t, 2, attempts)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, sent)
}

func TestDispatcher_RetriesTransientFailure(t *testing.T) {
	sender := &recordingSender{failures: 2}
	d := NewDispatcher(sender)
	d.backoff = 0
	d.Start(context.Background())

	d.Enqueue(Message{To: "retry@example.com", Subject: "flaky"})
	d.Stop()

	attempts, sent := sender.snapshot()
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []string{"retry@example.com"}, sent)
}

func TestDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	sender := &recordingSender{failures: 10}
	d := NewDispatcher(sender)
	d.backoff = 0
	d.Start(context.Background())

	d.Enqueue(Message{To: "doomed@example.com", Subject: "never"})
	d.Stop()

	attempts, sent := sender.snapshot()
	assert.Equal(t, maxAttempts, attempts)
	assert.Empty(t, sent)
}

func TestDispatcher_StopIsIdempotent(t *testing.T) {
	d := NewDispatcher(&recordingSender{})
	d.Start(context.Background())
	d.Stop()
	assert.NotPanics(t, func() { d.Stop() })
}
