package filesystem

import "time"

// RetryEvent is one step of a retried filesystem call.
type RetryEvent int

const (
	// EventStale is reported for every ESTALE result.
	EventStale RetryEvent = iota
	// EventRetry is reported before each backoff sleep.
	EventRetry
	// EventRecovered is reported when a call succeeds after at least one retry.
	EventRecovered
	// EventGaveUp is reported when the retry budget is spent.
	EventGaveUp
)

// Observer receives retry events. The metrics package provides the
// Prometheus implementation; filesystem cannot import it directly.
type Observer interface {
	ObserveRetry(op, volume string, ev RetryEvent)
	ObserveRetryDuration(op, volume string, seconds float64)
}

var observer Observer

// SetObserver installs the package-level observer. nil disables recording.
func SetObserver(o Observer) {
	observer = o
}

func report(op, volume string, ev RetryEvent) {
	if observer != nil {
		observer.ObserveRetry(op, volume, ev)
	}
}

func reportDuration(op, volume string, start time.Time) {
	if observer != nil {
		observer.ObserveRetryDuration(op, volume, time.Since(start).Seconds())
	}
}
