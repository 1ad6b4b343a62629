package indexer

import (
	"errors"
	"path"
	"path/filepath"

	"github.com/sourcegraph/conc/pool"

	"gallery/internal/logging"
	"gallery/internal/media"
	"gallery/internal/mediatypes"
	"gallery/internal/metrics"
)

// generatorPool fills generation requests with capture timestamps and
// thumbnails.
type generatorPool struct {
	root     string
	codec    media.Codec
	capture  media.CaptureReader
	memory   MemoryGate
	requests *Queue[*Request]
	results  *Queue[*Request]
	stop     *StopFlag
}

// start launches n workers and returns a channel closed once all of them
// have exited.
func (g *generatorPool) start(n int) <-chan struct{} {
	if n < 1 {
		n = 1
	}
	p := pool.New().WithMaxGoroutines(n)
	for i := 0; i < n; i++ {
		p.Go(func() { g.work(i) })
	}

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	logging.Debug("Started %d thumbnail workers", n)
	return done
}

func (g *generatorPool) work(id int) {
	for {
		req, ok := g.requests.Recv()
		if !ok {
			logging.Debug("Thumbnail worker %d finished", id)
			return
		}
		metrics.ThumbnailRequestQueueDepth.Set(float64(g.requests.Len()))

		if g.memory != nil && !g.memory.WaitIfPaused(g.stop.Done()) {
			logging.Debug("Stop requested while paused for memory, dropping %s", req.Dir)
			req.Entries = nil
		}

		metrics.ThumbnailWorkersActive.Inc()
		g.process(req)
		metrics.ThumbnailWorkersActive.Dec()

		if !g.results.Send(req) {
			return
		}
	}
}

// process fills req in place. Entries not reached before the stop flag
// trips are dropped from the request.
func (g *generatorPool) process(req *Request) {
	for i := range req.Entries {
		if g.stop.IsSet() {
			logging.Debug("Stop requested, abandoning %d files in %s", len(req.Entries)-i, req.Dir)
			req.Entries = req.Entries[:i]
			return
		}
		g.generate(req.Dir, &req.Entries[i])
	}
}

func (g *generatorPool) generate(dir string, e *Entry) {
	rel := path.Join(dir, e.Name)
	abs := filepath.Join(g.root, filepath.FromSlash(rel))
	kind := mediatypes.TypeOf(e.Name)

	orientation := media.OrientationNormal
	c, err := g.capture.ReadCapture(abs)
	switch {
	case err == nil:
		if !c.Taken.IsZero() {
			e.Timestamp = c.Taken.Unix()
		}
		if c.Orientation.Valid() {
			orientation = c.Orientation
		}
	case errors.Is(err, media.ErrNoCapture):
	default:
		logging.Debug("Capture metadata unavailable for %s: %v", rel, err)
	}

	thumb, err := g.codec.Thumbnail(abs, orientation)
	if err != nil {
		logging.Warn("Thumbnail generation failed for %s: %v", rel, err)
		metrics.ThumbnailGenerationsTotal.WithLabelValues(string(kind), "failure").Inc()
		return
	}
	e.Thumb = thumb
	metrics.ThumbnailGenerationsTotal.WithLabelValues(string(kind), "success").Inc()
}
