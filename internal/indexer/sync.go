package indexer

import (
	"context"
	"path"

	"gallery/internal/database"
	"gallery/internal/logging"
	"gallery/internal/thumbstore"
)

// ThumbStore is the part of the thumbnail store the pipeline writes to.
type ThumbStore interface {
	PutAll(entries []thumbstore.Entry) error
	Delete(keys ...string) error
	DeletePrefixes(prefixes ...string) error
}

// syncer walks the scan tree top-down, applying folder changes and file
// deletions directly and queueing new and updated files for generation.
type syncer struct {
	db        *database.Database
	thumbs    ThumbStore
	requests  *Queue[*Request]
	stats     *statsCell
	batchSize int
}

func (s *syncer) update(ctx context.Context, tree *ScanDir) error {
	s.stats.addFoldersDone(1)
	return s.updateDir(ctx, database.RootPath, tree)
}

func (s *syncer) updateDir(ctx context.Context, dir string, node *ScanDir) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.syncFolders(ctx, dir, node); err != nil {
		return err
	}
	s.stats.addFoldersDone(len(node.Dirs))

	entries, err := s.syncFiles(ctx, dir, node)
	if err != nil {
		return err
	}

	if len(entries) > 0 {
		if !s.requests.Send(&Request{Dir: dir, Entries: entries}) {
			logging.Debug("Request queue closed, dropping %d files in %s", len(entries), dir)
			return nil
		}
	}

	for _, sub := range node.Dirs {
		if err := s.updateDir(ctx, path.Join(dir, sub.Name), sub); err != nil {
			return err
		}
	}
	return nil
}

func (s *syncer) syncFolders(ctx context.Context, dir string, node *ScanDir) error {
	persisted, err := s.db.FolderMtimes(ctx, dir)
	if err != nil {
		return &StorageError{Op: "load folders", Err: err}
	}

	scanned := folderMtimes(node.Dirs)
	d := Compare(scanned, persisted)
	if len(d.New)+len(d.Updated)+len(d.Deleted) == 0 {
		return nil
	}

	batch := s.db.NewBatch(ctx, s.batchSize)
	apply := func() error {
		for _, name := range d.New {
			if err := batch.InsertFolder(dir, name, scanned[name]); err != nil {
				return err
			}
		}
		for _, name := range d.Updated {
			if err := batch.UpdateFolderMtime(dir, name, scanned[name]); err != nil {
				return err
			}
		}
		for _, name := range d.Deleted {
			if err := batch.DeleteFolderTree(dir, name); err != nil {
				return err
			}
		}
		return batch.Commit()
	}
	if err := apply(); err != nil {
		if rbErr := batch.Rollback(); rbErr != nil {
			logging.Error("Rollback after folder sync failure in %s: %v", dir, rbErr)
		}
		return &StorageError{Op: "sync folders", Err: err}
	}

	if len(d.Deleted) > 0 {
		prefixes := make([]string, len(d.Deleted))
		for i, name := range d.Deleted {
			prefixes[i] = path.Join(dir, name) + "/"
		}
		if err := s.thumbs.DeletePrefixes(prefixes...); err != nil {
			return &StorageError{Op: "delete folder thumbnails", Err: err}
		}
		logging.Info("Removed %d folders from %s", len(d.Deleted), dir)
	}
	return nil
}

// syncFiles removes deleted files and returns the entries that need a
// thumbnail and timestamp.
func (s *syncer) syncFiles(ctx context.Context, dir string, node *ScanDir) ([]Entry, error) {
	persisted, err := s.db.ImageMtimes(ctx, dir)
	if err != nil {
		return nil, &StorageError{Op: "load images", Err: err}
	}

	scanned := fileMtimes(node.Files)
	d := Compare(scanned, persisted)
	s.stats.addFilesDone(d.Unchanged)

	if len(d.Deleted) > 0 {
		batch := s.db.NewBatch(ctx, s.batchSize)
		apply := func() error {
			for _, name := range d.Deleted {
				if err := batch.DeleteImage(dir, name); err != nil {
					return err
				}
			}
			return batch.Commit()
		}
		if err := apply(); err != nil {
			if rbErr := batch.Rollback(); rbErr != nil {
				logging.Error("Rollback after image delete failure in %s: %v", dir, rbErr)
			}
			return nil, &StorageError{Op: "delete images", Err: err}
		}

		keys := make([]string, len(d.Deleted))
		for i, name := range d.Deleted {
			keys[i] = path.Join(dir, name)
		}
		if err := s.thumbs.Delete(keys...); err != nil {
			return nil, &StorageError{Op: "delete thumbnails", Err: err}
		}
	}

	entries := make([]Entry, 0, len(d.New)+len(d.Updated))
	for _, name := range d.New {
		entries = append(entries, Entry{Name: name, Mtime: scanned[name]})
	}
	for _, name := range d.Updated {
		entries = append(entries, Entry{Name: name, Mtime: scanned[name], Updated: true})
	}
	return entries, nil
}
