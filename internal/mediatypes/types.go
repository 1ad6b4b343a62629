package mediatypes

import (
	"path/filepath"
	"strings"
)

// FileType represents the kind of a media file.
type FileType string

const (
	// FileTypeImage represents a still image.
	FileTypeImage FileType = "image"
	// FileTypeVideo represents a video whose thumbnail is taken from a frame.
	FileTypeVideo FileType = "video"
	// FileTypeOther represents anything the indexer ignores.
	FileTypeOther FileType = "other"
)

// SortField specifies how folder listings are ordered.
type SortField string

const (
	// SortByName orders by file name, case-insensitively.
	SortByName SortField = "name"
	// SortByTaken orders by capture timestamp.
	SortByTaken SortField = "taken"
	// SortByModified orders by filesystem modification time.
	SortByModified SortField = "modified"
	// SortByRandom orders by a seeded hash of the path.
	SortByRandom SortField = "random"
)

// ParseSortField maps a query value onto a SortField, defaulting to SortByName.
func ParseSortField(s string) SortField {
	switch SortField(strings.ToLower(s)) {
	case SortByTaken:
		return SortByTaken
	case SortByModified:
		return SortByModified
	case SortByRandom:
		return SortByRandom
	default:
		return SortByName
	}
}

// ImageExtensions maps file extensions to whether they are indexed images.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".jpe":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".heic": true,
	".heif": true,
}

// VideoExtensions maps file extensions to whether they are indexed videos.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".m4v":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".jpe":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",

	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
}

// GetFileType returns the FileType for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
func GetFileType(ext string) FileType {
	if ImageExtensions[ext] {
		return FileTypeImage
	}
	if VideoExtensions[ext] {
		return FileTypeVideo
	}
	return FileTypeOther
}

// TypeOf classifies a file name or path by its extension, ignoring case.
func TypeOf(name string) FileType {
	return GetFileType(strings.ToLower(filepath.Ext(name)))
}

// GetMimeType returns the MIME type for a file name or path.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(name string) string {
	if mime, ok := MimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsMedia reports whether a file name passes the indexing whitelist.
func IsMedia(name string) bool {
	return TypeOf(name) != FileTypeOther
}
