package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"gallery/internal/database"
	"gallery/internal/filesystem"
	"gallery/internal/logging"
	"gallery/internal/media"
	"gallery/internal/metrics"
	"gallery/internal/workers"
)

const (
	// DefaultBatchSize is the number of statements per metadata transaction.
	DefaultBatchSize = 1024

	// DefaultRetryDelay is the writer's back-off between persistence attempts.
	DefaultRetryDelay = 10 * time.Second

	// Queue capacity per worker when QueueSize is not set
	defaultQueueFactor = 4
)

// Phase is the lifecycle phase of an Indexer.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseScanning Phase = "scanning"
	PhaseIndexing Phase = "indexing"
	PhaseError    Phase = "error"
)

var allPhases = []Phase{PhaseIdle, PhaseScanning, PhaseIndexing, PhaseError}

// State is the current lifecycle state. Message is only set in PhaseError.
type State struct {
	Phase   Phase
	Message string
}

func (s State) String() string {
	if s.Phase == PhaseError {
		return fmt.Sprintf("%s: %s", s.Phase, s.Message)
	}
	return string(s.Phase)
}

// Active reports whether a cycle is in progress.
func (s State) Active() bool {
	return s.Phase == PhaseScanning || s.Phase == PhaseIndexing
}

// Reply is the answer to a Run or Stop command.
type Reply int

const (
	ReplyOK Reply = iota
	ReplyNotIdle
	ReplyAlreadyIdle
)

func (r Reply) String() string {
	switch r {
	case ReplyOK:
		return "OK"
	case ReplyNotIdle:
		return "NotIdle"
	case ReplyAlreadyIdle:
		return "AlreadyIdle"
	default:
		return fmt.Sprintf("Reply(%d)", int(r))
	}
}

// Config holds the indexing parameters.
type Config struct {
	// Root is the media directory.
	Root string
	// Threads is the thumbnail worker count; zero means one per CPU.
	Threads int
	// BatchSize is the number of statements per metadata transaction.
	BatchSize int
	// RetryDelay is the writer's back-off after a failed persist.
	RetryDelay time.Duration
	// QueueSize bounds both pipeline queues; zero derives it from Threads.
	QueueSize int
	// IgnoreFile names a gitignore-style file in Root. Empty disables it.
	IgnoreFile string
	// Retry governs filesystem access during the scan.
	Retry filesystem.RetryConfig
}

// MemoryGate holds thumbnail workers back under memory pressure. It returns
// false if cancel closes while waiting.
type MemoryGate interface {
	WaitIfPaused(cancel <-chan struct{}) bool
}

// Deps are the stores and collaborators an Indexer drives. Memory is
// optional.
type Deps struct {
	DB      *database.Database
	Thumbs  ThumbStore
	Codec   media.Codec
	Capture media.CaptureReader
	Memory  MemoryGate
}

// Status is the externally visible summary of an Indexer.
type Status struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
	Root  string `json:"root"`
	Ready bool   `json:"ready"`
	Stats Stats  `json:"stats"`
}

// Indexer keeps the metadata and thumbnail stores in sync with a media
// directory. At most one cycle runs at a time.
type Indexer struct {
	cfg     Config
	deps    Deps
	threads int
	stats   *statsCell

	onIndexComplete func()

	mu       sync.RWMutex
	state    State
	gen      uint64
	cancel   context.CancelFunc
	pipe     *pipeline
	done     chan struct{} // closed when the cycle goroutine exits
	stopping chan struct{} // non-nil while Stop waits; closed once idle
	runs     int
	finished int

	// readDir overrides directory listing during scans; nil uses
	// filesystem.ReadDirWithRetry.
	readDir func(string, filesystem.RetryConfig) ([]os.DirEntry, error)
}

// New creates an Indexer in the idle state.
func New(cfg Config, deps Deps) (*Indexer, error) {
	if cfg.Root == "" {
		return nil, errors.New("indexer: media root is required")
	}
	if deps.DB == nil || deps.Thumbs == nil || deps.Codec == nil || deps.Capture == nil {
		return nil, errors.New("indexer: database, thumbnail store, codec and capture reader are required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Retry == (filesystem.RetryConfig{}) {
		cfg.Retry = filesystem.DefaultRetryConfig()
	}

	threads := workers.Resolve(cfg.Threads)
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = threads * defaultQueueFactor
	}

	idx := &Indexer{
		cfg:     cfg,
		deps:    deps,
		threads: threads,
		stats:   &statsCell{},
	}
	idx.setState(State{Phase: PhaseIdle})
	return idx, nil
}

// SetOnIndexComplete sets a callback invoked after every successful cycle.
func (idx *Indexer) SetOnIndexComplete(callback func()) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.onIndexComplete = callback
}

// Root returns the media directory.
func (idx *Indexer) Root() string {
	return idx.cfg.Root
}

// setState must be called with mu held.
func (idx *Indexer) setState(s State) {
	idx.state = s
	for _, p := range allPhases {
		v := 0.0
		if p == s.Phase {
			v = 1
		}
		metrics.IndexerState.WithLabelValues(string(p)).Set(v)
	}
}

// State returns the current lifecycle state.
func (idx *Indexer) State() State {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.state
}

// Stats returns the progress counters of the current or last cycle.
func (idx *Indexer) Stats() Stats {
	return idx.stats.snapshot()
}

// IsReady reports whether the indexer is not busy with its very first cycle.
func (idx *Indexer) IsReady() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.runs == 0 || idx.finished > 0
}

// Status returns the state, readiness and statistics in one snapshot.
func (idx *Indexer) Status() Status {
	idx.mu.RLock()
	st := Status{
		State: string(idx.state.Phase),
		Error: idx.state.Message,
		Root:  idx.cfg.Root,
		Ready: idx.runs == 0 || idx.finished > 0,
	}
	idx.mu.RUnlock()
	st.Stats = idx.stats.snapshot()
	return st
}

// Run starts a cycle. It returns ReplyNotIdle if one is already running.
func (idx *Indexer) Run() Reply {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.state.Active() {
		return ReplyNotIdle
	}

	idx.gen++
	g := idx.gen
	ctx, cancel := context.WithCancel(context.Background())
	idx.cancel = cancel
	idx.pipe = nil
	idx.done = make(chan struct{})
	idx.runs++

	cycle := uuid.NewString()
	idx.stats.reset(cycle, time.Now())
	idx.setState(State{Phase: PhaseScanning})
	logging.Info("Index cycle %s started for %s", cycle, idx.cfg.Root)

	go idx.execute(ctx, cancel, g, idx.done)
	return ReplyOK
}

// Stop cancels the running cycle and waits until its goroutines have
// exited, so nothing from the stopped cycle touches the stores or the stats
// once Stop returns. The state stays active until then and Run is rejected.
// It returns ReplyAlreadyIdle if no cycle is running.
func (idx *Indexer) Stop() Reply {
	idx.mu.Lock()
	if !idx.state.Active() {
		idx.mu.Unlock()
		return ReplyAlreadyIdle
	}
	if stopping := idx.stopping; stopping != nil {
		idx.mu.Unlock()
		<-stopping
		return ReplyOK
	}

	phase := idx.state.Phase
	idx.gen++
	idx.cancel()
	pipe, done := idx.pipe, idx.done
	idx.pipe = nil
	stopping := make(chan struct{})
	idx.stopping = stopping
	idx.mu.Unlock()

	// The cycle goroutine takes mu to notice the generation change, so the
	// wait happens unlocked.
	if pipe != nil {
		pipe.halt()
	}
	<-done

	idx.mu.Lock()
	idx.stats.finish(time.Now())
	idx.finished++
	idx.setState(State{Phase: PhaseIdle})
	idx.stopping = nil
	idx.mu.Unlock()
	close(stopping)

	metrics.IndexerRunsTotal.WithLabelValues("stopped").Inc()
	logging.Info("Index cycle stopped during %s", phase)
	return ReplyOK
}

// RunEvery starts a cycle every interval until ctx is done. Ticks that find
// a cycle still running are skipped.
func (idx *Indexer) RunEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if r := idx.Run(); r != ReplyOK {
				logging.Debug("Periodic re-index skipped: %s", r)
			}
		case <-ctx.Done():
			return
		}
	}
}

// execute is the single goroutine of a cycle: scan, then index.
func (idx *Indexer) execute(ctx context.Context, cancel context.CancelFunc, g uint64, done chan<- struct{}) {
	defer close(done)
	defer cancel()

	tree, p, ok := idx.scan(ctx, g)
	if !ok {
		return
	}
	idx.index(ctx, g, tree, p)
}

// scan builds the tree and, if the cycle is still current, starts its
// pipeline and moves to PhaseIndexing.
func (idx *Indexer) scan(ctx context.Context, g uint64) (*ScanDir, *pipeline, bool) {
	sc := NewScanner(idx.cfg.Root, idx.cfg.IgnoreFile, idx.cfg.Retry, idx.stats)
	if idx.readDir != nil {
		sc.readDir = idx.readDir
	}
	tree, err := sc.Scan(ctx)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.gen != g {
		return nil, nil, false
	}

	if err != nil {
		idx.fail("scan_error", "io", err)
		return nil, nil, false
	}

	p := idx.newPipeline()
	idx.pipe = p
	idx.setState(State{Phase: PhaseIndexing})
	return tree, p, true
}

func (idx *Indexer) index(ctx context.Context, g uint64, tree *ScanDir, p *pipeline) {
	s := &syncer{
		db:        idx.deps.DB,
		thumbs:    idx.deps.Thumbs,
		requests:  p.requests,
		stats:     idx.stats,
		batchSize: idx.cfg.BatchSize,
	}
	err := s.update(ctx, tree)
	if err == nil {
		p.drain()
	} else {
		p.halt()
	}

	idx.mu.Lock()
	if idx.gen != g {
		idx.mu.Unlock()
		return
	}
	idx.pipe = nil

	if err != nil {
		idx.fail("storage_error", "storage", err)
		idx.mu.Unlock()
		return
	}

	now := time.Now()
	idx.stats.finish(now)
	idx.finished++
	idx.setState(State{Phase: PhaseIdle})
	callback := idx.onIndexComplete
	idx.mu.Unlock()

	st := idx.stats.snapshot()
	duration := now.Sub(st.ScanStart)
	metrics.IndexerRunsTotal.WithLabelValues("completed").Inc()
	metrics.IndexerLastRunTimestamp.Set(float64(now.Unix()))
	metrics.IndexerLastRunDuration.Set(duration.Seconds())
	logging.Info("Index cycle %s complete: %d folders, %d files in %v",
		st.Cycle, st.FoldersDone, st.FilesDone, duration)

	if callback != nil {
		callback()
	}
}

// fail must be called with mu held.
func (idx *Indexer) fail(outcome, kind string, err error) {
	logging.Error("Index cycle failed: %v", err)
	idx.stats.finish(time.Now())
	idx.finished++
	idx.setState(State{Phase: PhaseError, Message: err.Error()})
	metrics.IndexerRunsTotal.WithLabelValues(outcome).Inc()
	metrics.IndexerErrors.WithLabelValues(kind).Inc()
}

// pipeline is the worker pool and writer of one cycle, joined by the request
// and result queues. Closing the queues stops new work; the stop flag
// abandons work in flight.
type pipeline struct {
	requests    *Queue[*Request]
	results     *Queue[*Request]
	stop        *StopFlag
	workersDone <-chan struct{}
	writerDone  <-chan struct{}
}

func (idx *Indexer) newPipeline() *pipeline {
	p := &pipeline{
		requests: NewQueue[*Request](idx.cfg.QueueSize),
		results:  NewQueue[*Request](idx.cfg.QueueSize),
		stop:     NewStopFlag(),
	}

	gp := &generatorPool{
		root:     idx.cfg.Root,
		codec:    idx.deps.Codec,
		capture:  idx.deps.Capture,
		memory:   idx.deps.Memory,
		requests: p.requests,
		results:  p.results,
		stop:     p.stop,
	}
	w := &writer{
		db:         idx.deps.DB,
		thumbs:     idx.deps.Thumbs,
		results:    p.results,
		stop:       p.stop,
		stats:      idx.stats,
		batchSize:  idx.cfg.BatchSize,
		retryDelay: idx.cfg.RetryDelay,
	}

	p.workersDone = gp.start(idx.threads)
	p.writerDone = w.start()
	return p
}

// drain lets queued work finish: workers empty the request queue, then the
// writer empties the result queue.
func (p *pipeline) drain() {
	p.requests.Close()
	<-p.workersDone
	p.results.Close()
	<-p.writerDone
}

// halt abandons queued and in-flight work and waits for the pool and writer
// to exit.
func (p *pipeline) halt() {
	p.stop.Set()
	p.requests.Close()
	p.results.Close()
	<-p.workersDone
	<-p.writerDone
}
