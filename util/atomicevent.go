package util

import "sync"

// AtomicEvent is a latest-value mailbox between one producer and one
// consumer. Send never blocks and overwrites any value not yet taken.
type AtomicEvent[T any] struct {
	mu     sync.Mutex    // Protects access to 'value'
	value  T             // The latest event
	notify chan struct{} // Buffered channel of size 1 for notification
}

// NewAtomicEvent creates a new AtomicEvent instance.
func NewAtomicEvent[T any]() *AtomicEvent[T] {
	return &AtomicEvent[T]{
		notify: make(chan struct{}, 1), // At most one pending notification
	}
}

// Send stores event and marks it pending.
func (ae *AtomicEvent[T]) Send(event T) {
	ae.mu.Lock()
	defer ae.mu.Unlock()

	ae.value = event // Older unread values are dropped

	select {
	case ae.notify <- struct{}{}:
		// Notification sent.
	default:
		// A notification is already pending, the consumer reads the new value.
	}
}

// Channel fires once per batch of sends. Read Value after receiving.
func (ae *AtomicEvent[T]) Channel() <-chan struct{} {
	return ae.notify
}

// Value returns the latest event without consuming the notification.
func (ae *AtomicEvent[T]) Value() T {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	return ae.value
}

// Take consumes a pending notification and returns the latest event. The
// second result is false when nothing was pending. Use it from a loop that
// polls instead of selecting on Channel.
func (ae *AtomicEvent[T]) Take() (T, bool) {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	select {
	case <-ae.notify:
		return ae.value, true
	default:
		// Nothing sent since the last Take.
		var zero T
		return zero, false
	}
}
