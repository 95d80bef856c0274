// Package mail provides asynchronous email dispatch with bounded retries.
// Delivery failures never propagate to the transaction that enqueued the
// message.
package mail

import (
	"context"
	"log"
	"sync"
	"time"
)

// Sender delivers a single email. Implementations wrap an SMTP relay or an
// API provider; both are external collaborators.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Message is one queued email
type Message struct {
	To      string
	Subject string
	Body    string
}

const (
	maxAttempts  = 3
	retryBackoff = 2 * time.Second
	queueSize    = 256
)

// Dispatcher queues messages and delivers them in the background. Retries for
// the same recipient are serialized because each message runs its attempts to
// completion before the next dequeue.
type Dispatcher struct {
	sender   Sender
	queue    chan Message
	wg       sync.WaitGroup
	stopOnce sync.Once
	backoff  time.Duration
}

// NewDispatcher creates a dispatcher delivering through sender
func NewDispatcher(sender Sender) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		queue:   make(chan Message, queueSize),
		backoff: retryBackoff,
	}
}

// Start launches the delivery goroutine
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for msg := range d.queue {
			d.deliver(ctx, msg)
		}
	}()
}

// Stop drains pending messages and waits for delivery to finish
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

// Enqueue adds a message to the outbound queue. A full queue drops the
// message with a log line rather than blocking the caller's request.
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.queue <- msg:
	default:
		log.Printf("[mail] queue full, dropping message to %s", msg.To)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = d.sender.Send(ctx, msg.To, msg.Subject, msg.Body)
		if err == nil {
			return
		}
		log.Printf("[mail] attempt %d/%d to %s failed: %v", attempt, maxAttempts, msg.To, err)
		if attempt < maxAttempts {
			time.Sleep(d.backoff)
		}
	}
	log.Printf("[mail] giving up on message to %s: %v", msg.To, err)
}

// LogSender is a Sender that only logs. Used when no provider is configured.
type LogSender struct{}

// Send implements Sender
func (LogSender) Send(_ context.Context, to, subject, _ string) error {
	log.Printf("[mail] (log only) to=%s subject=%q", to, subject)
	return nil
}
