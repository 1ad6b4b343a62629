// Package handlers provides the HTTP handlers of the gallery API.
//
// The surface covers:
//   - Scanner control: status, run and stop of the index cycle
//   - Folder listings over the metadata store, paged and sorted
//   - Thumbnails from the thumbnail store and original files from the media root
//   - Health, liveness and readiness probes
//
// Handlers depend on the small [Scanner], [Library] and [ThumbReader]
// interfaces so tests can drive them without a database.
package handlers
