// Package indexer keeps the metadata and thumbnail stores in sync with a
// media directory.
//
// A cycle runs in four stages:
//   - Scan: the Scanner walks the media root into an in-memory tree,
//     skipping hidden and ignored entries and pruning folders without media.
//   - Diff: each directory's folders and files are compared by mtime with
//     the persisted rows. Folder changes and file deletions are applied
//     directly; deleting a folder removes its whole subtree from both stores.
//   - Generate: new and updated files of a directory form one request that a
//     fixed-size worker pool fills with capture timestamps and thumbnails.
//   - Persist: a single writer stores thumbnails and rows in batched
//     transactions, retrying a failed request until it succeeds or the cycle
//     is stopped.
//
// The Indexer exposes Run and Stop and moves between the idle, scanning,
// indexing and error states. Stop closes the pipeline queues so no new work
// is accepted and sets a stop flag so work in flight is abandoned at the
// next file or statement. It returns only after every goroutine of the
// stopped cycle has exited.
package indexer
