package handlers

import (
	"net/http"
	"strconv"
	"time"

	"gallery/internal/database"
	"gallery/internal/logging"
	"gallery/internal/media"
	"gallery/internal/mediatypes"
)

// MediaResponse is one page of images.
type MediaResponse struct {
	Media      []database.MediaItem `json:"media"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"pageSize"`
	TotalItems int                  `json:"totalItems"`
	TotalPages int                  `json:"totalPages"`
}

// FolderResponse adds the child folders to a page of images.
type FolderResponse struct {
	MediaResponse
	Folders []database.FolderItem `json:"folders"`
}

func (h *Handlers) mediaQuery(r *http.Request) database.MediaQuery {
	q := r.URL.Query()
	mq := database.MediaQuery{
		Dir:      media.CleanPath(q.Get("path")),
		Page:     1,
		PageSize: h.pageSize,
		Sort:     mediatypes.ParseSortField(q.Get("sort")),
		Seed:     q.Get("seed"),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		mq.Page = page
	}
	if reverse, err := strconv.ParseBool(q.Get("reverse")); err == nil {
		mq.Reverse = reverse
	}
	return mq
}

func toMediaResponse(p *database.MediaPage) MediaResponse {
	return MediaResponse{
		Media:      p.Items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalItems: p.TotalItems,
		TotalPages: p.TotalPages,
	}
}

// GetFolder lists one page of the images directly inside a folder together
// with its subfolders.
func (h *Handlers) GetFolder(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := h.mediaQuery(r)

	page, err := h.library.FolderMedia(r.Context(), q)
	if err != nil {
		logging.Error("GetFolder %s: %v", q.Dir, err)
		writeJSONError(w, "Failed to list folder", http.StatusInternalServerError)
		return
	}

	folders, err := h.library.FolderFolders(r.Context(), q.Dir, q.Sort, q.Reverse)
	if err != nil {
		logging.Error("GetFolder %s subfolders: %v", q.Dir, err)
		writeJSONError(w, "Failed to list folder", http.StatusInternalServerError)
		return
	}
	if folders == nil {
		folders = []database.FolderItem{}
	}

	logging.Debug("GetFolder %s: %d media, %d folders in %v", q.Dir, len(page.Items), len(folders), time.Since(start))
	writeJSONStatus(w, http.StatusOK, FolderResponse{
		MediaResponse: toMediaResponse(page),
		Folders:       folders,
	})
}

// GetFolderRecursive lists one page of the images inside a folder and all of
// its descendants.
func (h *Handlers) GetFolderRecursive(w http.ResponseWriter, r *http.Request) {
	q := h.mediaQuery(r)

	page, err := h.library.FolderMediaRecursive(r.Context(), q)
	if err != nil {
		logging.Error("GetFolderRecursive %s: %v", q.Dir, err)
		writeJSONError(w, "Failed to list folder", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, http.StatusOK, toMediaResponse(page))
}
