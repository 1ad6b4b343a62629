package handlers

import (
	"context"

	"gallery/internal/database"
	"gallery/internal/indexer"
	"gallery/internal/mediatypes"
	"gallery/internal/startup"
)

// Scanner is the orchestrator surface the API drives.
type Scanner interface {
	Run() indexer.Reply
	Stop() indexer.Reply
	Status() indexer.Status
	IsReady() bool
}

// Library answers folder listings from the metadata store.
type Library interface {
	FolderMedia(ctx context.Context, q database.MediaQuery) (*database.MediaPage, error)
	FolderMediaRecursive(ctx context.Context, q database.MediaQuery) (*database.MediaPage, error)
	FolderFolders(ctx context.Context, dir string, sort mediatypes.SortField, reverse bool) ([]database.FolderItem, error)
}

// ThumbReader looks up stored thumbnails by media path.
type ThumbReader interface {
	Get(path string) ([]byte, error)
}

type Handlers struct {
	library  Library
	scanner  Scanner
	thumbs   ThumbReader
	mediaDir string
	pageSize int
}

func New(library Library, scanner Scanner, thumbs ThumbReader, config *startup.Config) *Handlers {
	return &Handlers{
		library:  library,
		scanner:  scanner,
		thumbs:   thumbs,
		mediaDir: config.MediaDir,
		pageSize: config.PageSize,
	}
}
