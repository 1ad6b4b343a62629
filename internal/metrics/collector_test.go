package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockStatsProvider struct {
	mu    sync.Mutex
	calls int
	stats Stats
}

func (m *mockStatsProvider) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestNewCollector(t *testing.T) {
	provider := &mockStatsProvider{}
	collector := NewCollector(provider, 5*time.Second)

	if collector == nil {
		t.Fatal("NewCollector returned nil")
	}
	if collector.interval != 5*time.Second {
		t.Errorf("Expected interval 5s, got %v", collector.interval)
	}
	if collector.started.Load() {
		t.Error("collector should not start until Start is called")
	}
}

func TestCollectUpdatesGauges(t *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{TotalFolders: 7, TotalImages: 42, ThumbnailKeys: 40, ThumbStoreBytes: 2048},
	}

	collector := NewCollector(provider, time.Second)
	collector.Collect()

	if got := testutil.ToFloat64(LibraryFoldersTotal); got != 7 {
		t.Errorf("Expected folders gauge 7, got %v", got)
	}
	if got := testutil.ToFloat64(LibraryImagesTotal); got != 42 {
		t.Errorf("Expected images gauge 42, got %v", got)
	}
	if got := testutil.ToFloat64(ThumbStoreKeys); got != 40 {
		t.Errorf("Expected thumbnail keys gauge 40, got %v", got)
	}
	if got := testutil.ToFloat64(ThumbStoreBytes); got != 2048 {
		t.Errorf("Expected thumbnail bytes gauge 2048, got %v", got)
	}
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockStatsProvider{}
	collector := NewCollector(provider, 20*time.Millisecond)

	collector.Start()
	time.Sleep(100 * time.Millisecond)
	collector.Stop()

	if provider.callCount() < 2 {
		t.Errorf("Expected at least 2 collections, got %d", provider.callCount())
	}
}

func TestCollectWithNilProvider(t *testing.T) {
	collector := NewCollector(nil, time.Second)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Collect() panicked with nil provider: %v", r)
		}
	}()

	collector.Collect()
}

func TestCollectorStopIsIdempotent(t *testing.T) {
	collector := NewCollector(&mockStatsProvider{}, time.Hour)

	// Stopping an unstarted collector must not block.
	collector.Stop()
	collector.Stop()

	started := NewCollector(&mockStatsProvider{}, time.Hour)
	started.Start()
	started.Stop()
	started.Stop()
}
