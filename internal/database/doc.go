// Package database provides the SQLite metadata store for the gallery.
//
// It holds two tables:
//   - folder: one row per indexed directory, keyed by its root-relative path
//     and linked to its parent through dir (NULL for the root, "/")
//   - image: one row per indexed media file with its mtime and capture
//     timestamp
//
// Writes go through a Batch, which opens a transaction lazily and commits
// every N statements. Subtree removal uses a byte-wise path range, so a
// folder's siblings that share a name prefix are never touched.
//
// The database uses WAL mode with foreign keys enabled and registers a
// hash() SQL function used for seeded random ordering.
package database
