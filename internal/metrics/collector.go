package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"gallery/internal/logging"
)

// StatsProvider reports library totals for the collector.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the library totals sampled by the collector.
type Stats struct {
	TotalFolders    int
	TotalImages     int
	ThumbnailKeys   int
	ThumbStoreBytes int64
}

// Collector samples a StatsProvider on a fixed interval and publishes the
// result as library gauges. Collect may also be called directly, for example
// when an index cycle finishes.
type Collector struct {
	provider StatsProvider
	interval time.Duration

	mu       sync.Mutex // serialises Collect
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

// NewCollector creates a collector. It does nothing until Start is called.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs one collection immediately and then one per interval.
func (c *Collector) Start() {
	if c.started.CompareAndSwap(false, true) {
		go c.loop()
	}
}

// Stop ends the loop and waits for an in-flight collection. It is safe to
// call more than once, and before Start.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	if c.started.Load() {
		<-c.done
	}
}

func (c *Collector) loop() {
	defer close(c.done)
	c.Collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Collect()
		case <-c.stop:
			return
		}
	}
}

// Collect samples the provider once and updates the gauges.
func (c *Collector) Collect() {
	if c.provider == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.provider.GetStats()
	LibraryFoldersTotal.Set(float64(st.TotalFolders))
	LibraryImagesTotal.Set(float64(st.TotalImages))
	ThumbStoreKeys.Set(float64(st.ThumbnailKeys))
	ThumbStoreBytes.Set(float64(st.ThumbStoreBytes))

	logging.Debug("Library totals: folders=%d images=%d thumbnails=%d",
		st.TotalFolders, st.TotalImages, st.ThumbnailKeys)
}
