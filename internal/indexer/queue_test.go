package indexer

import (
	"testing"
	"time"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue[int](3)
	for i := 1; i <= 3; i++ {
		if !q.Send(i) {
			t.Fatalf("Send(%d) rejected on open queue", i)
		}
	}
	if q.Len() != 3 {
		t.Errorf("Len() = %d, want 3", q.Len())
	}
	for want := 1; want <= 3; want++ {
		got, ok := q.Recv()
		if !ok || got != want {
			t.Errorf("Recv() = %d, %v, want %d, true", got, ok, want)
		}
	}
}

func TestQueueCloseDrainsBuffered(t *testing.T) {
	q := NewQueue[string](2)
	q.Send("a")
	q.Send("b")
	q.Close()

	if q.Send("c") {
		t.Error("Send() accepted after Close")
	}
	for _, want := range []string{"a", "b"} {
		got, ok := q.Recv()
		if !ok || got != want {
			t.Errorf("Recv() = %q, %v, want %q, true", got, ok, want)
		}
	}
	if _, ok := q.Recv(); ok {
		t.Error("Recv() on closed empty queue reported an item")
	}
}

func TestQueueCloseIsIdempotent(t *testing.T) {
	q := NewQueue[int](1)
	q.Close()
	q.Close()
	if !q.Closed() {
		t.Error("Closed() = false after Close")
	}
}

func TestQueueCloseUnblocksSender(t *testing.T) {
	q := NewQueue[int](1)
	q.Send(1)

	done := make(chan bool)
	go func() { done <- q.Send(2) }()

	select {
	case <-done:
		t.Fatal("Send() on full queue returned before Close")
	case <-time.After(20 * time.Millisecond):
	}

	q.Close()
	select {
	case ok := <-done:
		if ok {
			t.Error("blocked Send() reported success after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock Send")
	}
}

func TestQueueCloseUnblocksReceiver(t *testing.T) {
	q := NewQueue[int](1)

	done := make(chan bool)
	go func() {
		_, ok := q.Recv()
		done <- ok
	}()

	q.Close()
	select {
	case ok := <-done:
		if ok {
			t.Error("Recv() reported an item from an empty closed queue")
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock Recv")
	}
}

func TestNewQueueMinimumCapacity(t *testing.T) {
	q := NewQueue[int](0)
	if !q.Send(1) {
		t.Error("Send() rejected on zero-capacity queue, want capacity of at least 1")
	}
}

func TestStopFlag(t *testing.T) {
	f := NewStopFlag()
	if f.IsSet() {
		t.Fatal("new flag is set")
	}

	select {
	case <-f.Done():
		t.Fatal("Done() closed before Set")
	default:
	}

	f.Set()
	f.Set()
	if !f.IsSet() {
		t.Error("IsSet() = false after Set")
	}
	select {
	case <-f.Done():
	default:
		t.Error("Done() not closed after Set")
	}
}
