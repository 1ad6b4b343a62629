// Package metrics provides Prometheus instrumentation for the gallery
// service. All metrics are prefixed with "gallery_".
//
// Instruments are grouped by the component that updates them:
//
//   - HTTP: request counts, durations and in-flight requests (middleware)
//   - Database: query and transaction timings (internal/database)
//   - Indexer: cycle outcomes, lifecycle state, processed counts
//   - Scanner: scan duration and skipped entries
//   - Thumbnails: generations by type and status, codec timings, queue depth
//   - Writer: request outcomes, retries, statements per commit
//   - Thumbnail store: operations, key count, size, cache hits
//   - Filesystem: ESTALE retry accounting via filesystem.Observer
//
// The Collector samples library totals from a StatsProvider on a fixed
// interval; everything else is updated inline by the owning component.
package metrics
