// Package thumbstore stores encoded thumbnails in a bbolt key-value file.
//
// Keys are root-relative media paths ("/holiday/beach.jpg"); values are the
// encoded thumbnail bytes. Reads are served through a bounded LRU cache
// and never wait for a write transaction.
package thumbstore
