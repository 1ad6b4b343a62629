// Package main provides the entry point for the gallery indexer.
//
// gallery keeps a SQLite metadata store and a bbolt thumbnail store in sync
// with a directory tree of photos and videos, and serves a small HTTP API
// over both.
//
// # Application Lifecycle
//
//  1. Memory configuration: GOMEMLIMIT from GOMEMLIMIT or MEMORY_LIMIT
//  2. Configuration loading: defaults, gallery.yaml, .env and environment
//  3. Codec setup: libvips when available, pure-Go fallback otherwise
//  4. Stores: SQLite metadata database and bbolt thumbnail store
//  5. Indexer: scan, diff, thumbnail workers and batched writer; optional
//     scan at startup and on an interval
//  6. HTTP servers: the API on PORT and Prometheus on METRICS_PORT
//  7. Graceful shutdown on SIGINT/SIGTERM
//
// # Index Cycle
//
// POST /api/scanner/run starts a cycle and POST /api/scanner/stop cancels
// it. A cycle scans the tree, compares every directory with the stored
// rows, removes what disappeared, and queues new or modified files for
// thumbnail generation. A single writer persists the results in batches
// and retries failed batches until they succeed or the cycle is stopped.
//
// # Background Services
//
//   - Memory monitor: pauses thumbnail workers under heap pressure
//   - Metrics collector: library totals every minute and after each cycle
//   - Periodic scan: SCAN_INTERVAL, rejected while a cycle is running
//
// See package startup for the full list of configuration keys.
package main
