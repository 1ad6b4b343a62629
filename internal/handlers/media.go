package handlers

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"gallery/internal/filesystem"
	"gallery/internal/logging"
	"gallery/internal/media"
	"gallery/internal/mediatypes"
	"gallery/internal/thumbstore"
)

// GetThumb serves the stored thumbnail for a media path. Thumbnails are
// only produced by the indexer; a missing one is a 404.
func (h *Handlers) GetThumb(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("path")
	if raw == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}
	key := media.CleanPath(raw)

	data, err := h.thumbs.Get(key)
	if errors.Is(err, thumbstore.ErrNotFound) {
		http.Error(w, "Thumbnail not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("Thumbnail lookup failed for %s: %v", key, err)
		http.Error(w, "Failed to read thumbnail", http.StatusInternalServerError)
		return
	}

	etag := `"` + strconv.FormatUint(xxhash.Sum64(data), 16) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.Debug("Thumbnail write for %s aborted: %v", key, err)
	}
}

// GetRaw serves an original media file from below the media root.
func (h *Handlers) GetRaw(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("path")
	if raw == "" {
		http.Error(w, "Path is required", http.StatusBadRequest)
		return
	}

	full, err := media.ResolvePath(h.mediaDir, raw)
	if err != nil {
		logging.Warn("Raw request outside media root: %q", raw)
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}
	if !mediatypes.IsMedia(full) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	info, err := filesystem.StatWithRetry(full, filesystem.DefaultRetryConfig())
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "File not found", http.StatusNotFound)
		} else {
			logging.Error("Raw: failed to stat %s: %v", full, err)
			http.Error(w, "Failed to access file", http.StatusInternalServerError)
		}
		return
	}
	if info.IsDir() {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", mediatypes.GetMimeType(full))
	http.ServeFile(w, r, full)
}
