package transport

import (
	"sync"

	"main/pkg/exception"
)

// Queue is the bounded, non-blocking outbound buffer of one subscriber. A
// full queue fails the push instead of blocking the dispatching side.
type Queue struct {
	mu     sync.RWMutex
	ch     chan ServerMessage
	closed bool
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan ServerMessage, capacity)}
}

// TryPush enqueues a message without blocking. A push racing Close fails
// with ErrSubscriberClosed; it can never hit a closed channel.
func (q *Queue) TryPush(msg ServerMessage) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return exception.ErrSubscriberClosed
	}
	select {
	case q.ch <- msg:
		return nil
	default:
		return exception.ErrSubscriberQueueFull
	}
}

// Close stops the queue from accepting new messages and lets the reader
// drain what is buffered. Safe to call concurrently with TryPush.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// C exposes the receive side for the writer goroutine.
func (q *Queue) C() <-chan ServerMessage {
	return q.ch
}
