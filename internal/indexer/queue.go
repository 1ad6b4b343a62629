package indexer

import "sync"

// Queue is a bounded FIFO that can be closed from any goroutine, any number
// of times. Send on a closed queue is rejected instead of panicking, and
// receivers still get the items buffered before the close.
type Queue[T any] struct {
	ch   chan T
	done chan struct{}
	once sync.Once
}

// NewQueue returns an open queue buffering up to capacity items.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		ch:   make(chan T, capacity),
		done: make(chan struct{}),
	}
}

// Send blocks until v is enqueued or the queue is closed. It reports false
// if v was not enqueued.
func (q *Queue[T]) Send(v T) bool {
	select {
	case <-q.done:
		return false
	default:
	}

	select {
	case q.ch <- v:
		return true
	case <-q.done:
		return false
	}
}

// Recv blocks until an item is available or the queue is closed and empty.
func (q *Queue[T]) Recv() (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	case <-q.done:
		select {
		case v := <-q.ch:
			return v, true
		default:
			var zero T
			return zero, false
		}
	}
}

// Close stops the queue from accepting items and wakes blocked senders and
// receivers.
func (q *Queue[T]) Close() {
	q.once.Do(func() { close(q.done) })
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}
