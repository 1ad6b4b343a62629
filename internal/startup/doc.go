// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] reads configuration with viper. Sources, lowest precedence
// first: built-in defaults, an optional gallery.yaml (in the working
// directory or /etc/gallery, or the file named by CONFIG_FILE), a .env file
// in the working directory, and the process environment.
//
//   - MEDIA_DIR: Root of the media tree (default: /media)
//   - DATABASE_PATH: SQLite metadata database (default: /database/gallery.db)
//   - THUMB_DB_PATH: bbolt thumbnail store (default: /cache/thumbs.db)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - THREADS: Thumbnail workers, 0 for automatic (default: 0)
//   - PAGE_SIZE: Items per folder listing page (default: 4096)
//   - THUMB_SIZE: Thumbnail bounding box in pixels (default: 512)
//   - THUMB_QUALITY: Thumbnail encoder quality 1-100 (default: 80)
//   - THUMB_CACHE_ENTRIES: In-memory thumbnail LRU size (default: 1024)
//   - SCAN_ON_START: Run an index cycle at startup (default: true)
//   - SCAN_INTERVAL: Periodic index cycle interval, 0 disables (default: 0)
//   - WRITER_RETRY_DELAY: Delay between writer retries (default: 10s)
//   - IGNORE_FILE: Ignore file name at the media root (default: .galleryignore)
//   - LOG_STATIC_FILES: Log raw media requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// LOG_LEVEL is read by the logging package and MEMORY_LIMIT, MEMORY_RATIO
// and GOMEMLIMIT by the memory package.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
// The Log* functions print the sectioned startup and shutdown report.
package startup
