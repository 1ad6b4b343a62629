package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_db_transaction_duration_seconds",
			Help:    "Duration of metadata store transactions by outcome",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Indexer lifecycle metrics
var (
	IndexerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_indexer_runs_total",
			Help: "Total number of index cycles by outcome",
		},
		[]string{"outcome"},
	)

	IndexerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gallery_indexer_state",
			Help: "Current lifecycle state (1 for the active state, 0 otherwise)",
		},
		[]string{"state"},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_indexer_last_run_timestamp",
			Help: "Unix timestamp of the last completed index cycle",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_indexer_last_run_duration_seconds",
			Help: "Duration of the last completed index cycle",
		},
	)

	IndexerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_indexer_errors_total",
			Help: "Total number of cycle-aborting errors by kind",
		},
		[]string{"kind"},
	)

	IndexerFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_indexer_files_processed_total",
			Help: "Total number of files accounted for by index cycles",
		},
	)

	IndexerFoldersProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_indexer_folders_processed_total",
			Help: "Total number of folders accounted for by index cycles",
		},
	)
)

// Scanner metrics
var (
	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_scan_duration_seconds",
			Help:    "Duration of the directory scan phase",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
	)

	ScanEntriesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_scan_entries_skipped_total",
			Help: "Entries dropped by the scanner by reason",
		},
		[]string{"reason"},
	)
)

// Thumbnail pipeline metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_thumbnail_generations_total",
			Help: "Total number of thumbnail generations by media type and status",
		},
		[]string{"type", "status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration by media type and codec",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"type", "codec"},
	)

	ThumbnailRequestQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_thumbnail_request_queue_depth",
			Help: "Generation requests waiting for a worker",
		},
	)

	ThumbnailWorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_thumbnail_workers_active",
			Help: "Workers currently processing a request",
		},
	)
)

// Writer metrics
var (
	WriterRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_writer_requests_total",
			Help: "Generation results handled by the writer by outcome",
		},
		[]string{"outcome"},
	)

	WriterRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_writer_retries_total",
			Help: "Number of times the writer backed off and retried a request",
		},
	)

	DBStatementsPerCommit = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_db_statements_per_commit",
			Help:    "Statements executed per committed metadata transaction",
			Buckets: []float64{1, 4, 16, 64, 256, 1024},
		},
	)
)

// Thumbnail store metrics
var (
	ThumbStoreKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_thumbstore_keys",
			Help: "Number of thumbnails in the key-value store",
		},
	)

	ThumbStoreBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_thumbstore_size_bytes",
			Help: "Size of the thumbnail store file",
		},
	)

	ThumbStoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_thumbstore_operations_total",
			Help: "Thumbnail store operations by kind and status",
		},
		[]string{"operation", "status"},
	)

	ThumbCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_thumbnail_cache_hits_total",
			Help: "Thumbnail reads served from the in-memory cache",
		},
	)

	ThumbCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_thumbnail_cache_misses_total",
			Help: "Thumbnail reads that went to the store",
		},
	)
)

// Library metrics
var (
	LibraryImagesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_library_images_total",
			Help: "Number of image rows in the metadata store",
		},
	)

	LibraryFoldersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_library_folders_total",
			Help: "Number of folder rows in the metadata store",
		},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_filesystem_retry_attempts_total",
			Help: "Retries of filesystem operations after a stale handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_filesystem_retry_failures_total",
			Help: "Filesystem operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_filesystem_stale_errors_total",
			Help: "ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_filesystem_retry_duration_seconds",
			Help:    "Total time spent in retried filesystem operations",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_memory_paused",
			Help: "Whether thumbnail generation is paused for memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_memory_gc_pauses_total",
			Help: "Number of times memory pressure paused thumbnail generation",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gallery_app_info",
			Help: "Build information, always 1",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
