package metrics

import "gallery/internal/filesystem"

type filesystemObserver struct{}

// NewFilesystemObserver returns the filesystem.Observer that feeds the
// gallery_filesystem_* series.
func NewFilesystemObserver() filesystem.Observer {
	return filesystemObserver{}
}

func (filesystemObserver) ObserveRetry(op, volume string, ev filesystem.RetryEvent) {
	switch ev {
	case filesystem.EventStale:
		FilesystemStaleErrors.WithLabelValues(op, volume).Inc()
	case filesystem.EventRetry:
		FilesystemRetryAttempts.WithLabelValues(op, volume).Inc()
	case filesystem.EventRecovered:
		FilesystemRetrySuccess.WithLabelValues(op, volume).Inc()
	case filesystem.EventGaveUp:
		FilesystemRetryFailures.WithLabelValues(op, volume).Inc()
	}
}

func (filesystemObserver) ObserveRetryDuration(op, volume string, seconds float64) {
	FilesystemRetryDuration.WithLabelValues(op, volume).Observe(seconds)
}
