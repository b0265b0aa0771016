package transport

import (
	"sync"
	"testing"

	"main/pkg/exception"
)

func TestQueueBoundedNonBlocking(t *testing.T) {
	q := NewQueue(2)

	if err := q.TryPush(ServerMessage{Type: TypeKline}); err != nil {
		t.Fatalf("push 1: %v", err)
	}
	if err := q.TryPush(ServerMessage{Type: TypeKline}); err != nil {
		t.Fatalf("push 2: %v", err)
	}
	if err := q.TryPush(ServerMessage{Type: TypeKline}); err != exception.ErrSubscriberQueueFull {
		t.Fatalf("want ErrSubscriberQueueFull, got %v", err)
	}

	// draining one slot makes the next push succeed again
	<-q.C()
	if err := q.TryPush(ServerMessage{Type: TypeError}); err != nil {
		t.Fatalf("push after drain: %v", err)
	}
}

func TestQueueDeliversInOrder(t *testing.T) {
	q := NewQueue(4)
	for _, typ := range []string{TypeConnection, TypeSubscription, TypeKline} {
		if err := q.TryPush(ServerMessage{Type: typ}); err != nil {
			t.Fatalf("push %s: %v", typ, err)
		}
	}
	q.Close()

	var got []string
	for msg := range q.C() {
		got = append(got, msg.Type)
	}
	want := []string{TypeConnection, TypeSubscription, TypeKline}
	if len(got) != len(want) {
		t.Fatalf("drained %d messages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order broken at %d: got %s want %s", i, got[i], want[i])
		}
	}
}

// Close can land between a dispatch snapshotting a session and its delayed
// push; the push must fail cleanly, never panic on a closed channel.
func TestQueueCloseDuringConcurrentPush(t *testing.T) {
	for i := 0; i < 200; i++ {
		q := NewQueue(4)

		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					if err := q.TryPush(ServerMessage{Type: TypeKline}); err != nil &&
						err != exception.ErrSubscriberQueueFull &&
						err != exception.ErrSubscriberClosed {
						t.Errorf("unexpected push error: %v", err)
						return
					}
				}
			}()
		}
		q.Close()
		wg.Wait()

		if err := q.TryPush(ServerMessage{}); err != exception.ErrSubscriberClosed {
			t.Fatalf("want ErrSubscriberClosed after close, got %v", err)
		}
	}
}

func TestQueueClosedRejectsPush(t *testing.T) {
	q := NewQueue(2)
	q.Close()
	q.Close() // idempotent

	if err := q.TryPush(ServerMessage{}); err != exception.ErrSubscriberClosed {
		t.Fatalf("want ErrSubscriberClosed, got %v", err)
	}
}
