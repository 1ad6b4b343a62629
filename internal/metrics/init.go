package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, state := range []string{"idle", "scanning", "indexing", "error"} {
		IndexerState.WithLabelValues(state)
	}
	IndexerState.WithLabelValues("idle").Set(1)

	for _, outcome := range []string{"completed", "stopped", "scan_error", "storage_error"} {
		IndexerRunsTotal.WithLabelValues(outcome)
	}
	for _, kind := range []string{"io", "storage"} {
		IndexerErrors.WithLabelValues(kind)
	}

	for _, reason := range []string{"hidden", "ignored", "unsupported", "metadata_error"} {
		ScanEntriesSkipped.WithLabelValues(reason)
	}

	for _, t := range []string{"image", "video"} {
		for _, status := range []string{"success", "failure"} {
			ThumbnailGenerationsTotal.WithLabelValues(t, status)
		}
		for _, codec := range []string{"vips", "imaging", "ffmpeg"} {
			ThumbnailGenerationDuration.WithLabelValues(t, codec)
		}
	}

	for _, outcome := range []string{"committed", "retried", "abandoned"} {
		WriterRequestsTotal.WithLabelValues(outcome)
	}

	for _, op := range []string{"put", "delete", "delete_prefix", "get"} {
		ThumbStoreOperations.WithLabelValues(op, "success")
		ThumbStoreOperations.WithLabelValues(op, "error")
	}

	for _, op := range []string{"initialize_schema", "folder_mtimes", "image_mtimes", "folder_media",
		"folder_media_recursive", "folder_folders", "counts", "begin_transaction"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, outcome := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(outcome)
	}

	for _, op := range []string{"stat", "open", "readdir"} {
		for _, vol := range []string{"media", "unknown"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
