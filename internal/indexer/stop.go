package indexer

import "sync"

// StopFlag is a one-shot signal telling in-flight work to abandon what it is
// doing. It is distinct from closing the queues, which only stops new work
// from being accepted.
type StopFlag struct {
	ch   chan struct{}
	once sync.Once
}

// NewStopFlag returns an unset flag.
func NewStopFlag() *StopFlag {
	return &StopFlag{ch: make(chan struct{})}
}

// Set trips the flag. Subsequent calls have no effect.
func (f *StopFlag) Set() {
	f.once.Do(func() { close(f.ch) })
}

// IsSet reports whether Set has been called.
func (f *StopFlag) IsSet() bool {
	select {
	case <-f.ch:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the flag is set.
func (f *StopFlag) Done() <-chan struct{} {
	return f.ch
}
