package database

import (
	"database/sql"

	"gallery/internal/mediatypes"
)

// Folder is one row of the folder table. Dir is NULL only for the root.
type Folder struct {
	Path  string
	Name  string
	Dir   sql.NullString
	Mtime int64
}

// Image is one row of the image table. Timestamp is the capture time when
// known, otherwise the file's mtime.
type Image struct {
	Path      string
	Name      string
	Dir       string
	Mtime     int64
	Timestamp int64
}

// MediaItem is an image as returned by the read API.
type MediaItem struct {
	Path      string              `json:"path"`
	Name      string              `json:"name"`
	Dir       string              `json:"dir"`
	Type      mediatypes.FileType `json:"type"`
	Mtime     int64               `json:"mtime"`
	Timestamp int64               `json:"timestamp"`
}

// FolderItem is a subfolder as returned by the read API. Cover is the path of
// the first image (by name) directly inside the folder, empty if none.
type FolderItem struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	Mtime      int64  `json:"mtime"`
	ImageCount int    `json:"imageCount"`
	Cover      string `json:"cover,omitempty"`
}

// MediaQuery selects one page of images below a folder.
type MediaQuery struct {
	Dir      string
	Page     int
	PageSize int
	Sort     mediatypes.SortField
	Reverse  bool
	// Seed keys the order when Sort is SortRandom; equal seeds give equal
	// orders.
	Seed string
}

// MediaPage is one page of a MediaQuery result.
type MediaPage struct {
	Items      []MediaItem `json:"items"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalItems int         `json:"totalItems"`
	TotalPages int         `json:"totalPages"`
}

// Counts summarizes the size of the metadata store.
type Counts struct {
	Folders int64 `json:"folders"`
	Images  int64 `json:"images"`
}
