package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"gallery/internal/filesystem"
)

func TestMetricsAreRegistered(t *testing.T) {
	InitializeMetrics()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}

	expected := []string{
		"gallery_indexer_state",
		"gallery_indexer_runs_total",
		"gallery_scan_entries_skipped_total",
		"gallery_thumbnail_generations_total",
		"gallery_thumbnail_generation_duration_seconds",
		"gallery_writer_requests_total",
		"gallery_thumbstore_operations_total",
		"gallery_db_queries_total",
		"gallery_db_transaction_duration_seconds",
		"gallery_filesystem_retry_attempts_total",
	}

	for _, name := range expected {
		if !names[name] {
			t.Errorf("Expected metric %s to be exported after InitializeMetrics", name)
		}
	}
}

func TestInitializeMetricsMarksIdle(t *testing.T) {
	InitializeMetrics()

	if got := testutil.ToFloat64(IndexerState.WithLabelValues("idle")); got != 1 {
		t.Errorf("Expected Idle state gauge to be 1, got %v", got)
	}
	if got := testutil.ToFloat64(IndexerState.WithLabelValues("Indexing")); got != 0 {
		t.Errorf("Expected Indexing state gauge to be 0, got %v", got)
	}
}

func TestWriterMetricOperations(t *testing.T) {
	before := testutil.ToFloat64(WriterRetriesTotal)
	WriterRetriesTotal.Inc()
	if got := testutil.ToFloat64(WriterRetriesTotal); got != before+1 {
		t.Errorf("Expected retries to increase by 1, got %v -> %v", before, got)
	}

	DBStatementsPerCommit.Observe(1024)
	WriterRequestsTotal.WithLabelValues("committed").Inc()
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.0.0", "abc123", "go1.25")
	if got := testutil.ToFloat64(AppInfo.WithLabelValues("1.0.0", "abc123", "go1.25")); got != 1 {
		t.Errorf("Expected app info gauge to be 1, got %v", got)
	}
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()

	counters := map[filesystem.RetryEvent]*prometheus.CounterVec{
		filesystem.EventStale:     FilesystemStaleErrors,
		filesystem.EventRetry:     FilesystemRetryAttempts,
		filesystem.EventRecovered: FilesystemRetrySuccess,
		filesystem.EventGaveUp:    FilesystemRetryFailures,
	}
	for ev, vec := range counters {
		before := testutil.ToFloat64(vec.WithLabelValues("readdir", "media"))
		obs.ObserveRetry("readdir", "media", ev)
		if got := testutil.ToFloat64(vec.WithLabelValues("readdir", "media")); got != before+1 {
			t.Errorf("event %d: expected counter to increase by 1, got %v -> %v", ev, before, got)
		}
	}
	obs.ObserveRetryDuration("readdir", "media", 0.01)
}

func TestMetricsConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ThumbnailGenerationsTotal.WithLabelValues("image", "success").Inc()
				ThumbnailRequestQueueDepth.Inc()
				ThumbnailRequestQueueDepth.Dec()
				DBQueryDuration.WithLabelValues("folder_mtimes").Observe(0.001)
			}
		}()
	}
	wg.Wait()
}
