package indexer

import (
	"context"
	"errors"
	"path"
	"time"

	"gallery/internal/database"
	"gallery/internal/logging"
	"gallery/internal/metrics"
	"gallery/internal/thumbstore"
)

var errStopped = errors.New("stop requested")

// writer is the single consumer of generation results. It is the only
// component that writes images and thumbnails during a cycle.
type writer struct {
	db         *database.Database
	thumbs     ThumbStore
	results    *Queue[*Request]
	stop       *StopFlag
	stats      *statsCell
	batchSize  int
	retryDelay time.Duration
}

// start runs the writer and returns a channel closed once it has exited.
func (w *writer) start() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.run()
	}()
	return done
}

func (w *writer) run() {
	for {
		req, ok := w.results.Recv()
		if !ok || w.stop.IsSet() {
			return
		}
		w.handle(req)
	}
}

// handle persists req, retrying the whole request after retryDelay until it
// succeeds or the stop flag trips.
func (w *writer) handle(req *Request) {
	if len(req.Entries) == 0 {
		return
	}

	for attempt := 1; ; attempt++ {
		err := w.persist(req)
		if err == nil {
			w.stats.addFilesDone(len(req.Entries))
			metrics.WriterRequestsTotal.WithLabelValues("committed").Inc()
			return
		}
		if errors.Is(err, errStopped) {
			metrics.WriterRequestsTotal.WithLabelValues("abandoned").Inc()
			return
		}

		logging.Error("Failed to persist %d files in %s (attempt %d), retrying in %v: %v",
			len(req.Entries), req.Dir, attempt, w.retryDelay, err)
		metrics.WriterRetriesTotal.Inc()
		metrics.WriterRequestsTotal.WithLabelValues("retried").Inc()

		select {
		case <-time.After(w.retryDelay):
		case <-w.stop.Done():
			metrics.WriterRequestsTotal.WithLabelValues("abandoned").Inc()
			return
		}
	}
}

// persist writes thumbnails first, then metadata. Both are idempotent, so a
// failed attempt can be replayed in full.
func (w *writer) persist(req *Request) error {
	thumbs := make([]thumbstore.Entry, 0, len(req.Entries))
	for _, e := range req.Entries {
		if len(e.Thumb) > 0 {
			thumbs = append(thumbs, thumbstore.Entry{Path: path.Join(req.Dir, e.Name), Data: e.Thumb})
		}
	}
	if err := w.thumbs.PutAll(thumbs); err != nil {
		return err
	}

	batch := w.db.NewBatch(context.Background(), w.batchSize)
	for _, e := range req.Entries {
		if w.stop.IsSet() {
			if err := batch.Rollback(); err != nil {
				logging.Warn("Rollback on stop failed: %v", err)
			}
			return errStopped
		}

		ts := e.Timestamp
		if ts == 0 {
			ts = e.Mtime
		}

		var err error
		if e.Updated {
			err = batch.UpdateImage(req.Dir, e.Name, e.Mtime, ts)
		} else {
			err = batch.UpsertImage(req.Dir, e.Name, e.Mtime, ts)
		}
		if err != nil {
			if rbErr := batch.Rollback(); rbErr != nil {
				logging.Warn("Rollback failed: %v", rbErr)
			}
			return err
		}
	}
	return batch.Commit()
}
