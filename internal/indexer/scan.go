package indexer

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"gallery/internal/filesystem"
	"gallery/internal/logging"
	"gallery/internal/mediatypes"
	"gallery/internal/metrics"
	"gallery/internal/workers"
)

// Scanner builds the scan tree of a media root.
type Scanner struct {
	root    string
	ignore  *ignore.GitIgnore
	retry   filesystem.RetryConfig
	workers int
	stats   *statsCell
	readDir func(string, filesystem.RetryConfig) ([]os.DirEntry, error)
}

// NewScanner returns a scanner for root. If ignoreFile names a file present in
// root, its gitignore-style patterns exclude matching entries.
func NewScanner(root, ignoreFile string, retry filesystem.RetryConfig, stats *statsCell) *Scanner {
	s := &Scanner{
		root:    root,
		retry:   retry,
		workers: workers.ForIO(16),
		stats:   stats,
		readDir: filesystem.ReadDirWithRetry,
	}
	if stats == nil {
		s.stats = &statsCell{}
	}

	if ignoreFile != "" {
		p := filepath.Join(root, ignoreFile)
		switch gi, err := ignore.CompileIgnoreFile(p); {
		case err == nil:
			s.ignore = gi
			logging.Info("Using ignore patterns from %s", p)
		case errors.Is(err, os.ErrNotExist):
		default:
			logging.Warn("Failed to read ignore file %s: %v", p, err)
		}
	}
	return s
}

type scanKind int

const (
	kindSkip scanKind = iota
	kindDir
	kindFile
)

type scanEntry struct {
	kind  scanKind
	name  string
	mtime int64
}

// Scan walks the root and returns its tree, pruned of directories that hold
// no media. The root itself is always returned. A directory that cannot be
// read aborts the scan with a *ScanError.
func (s *Scanner) Scan(ctx context.Context) (*ScanDir, error) {
	start := time.Now()
	defer func() { metrics.ScanDuration.Observe(time.Since(start).Seconds()) }()

	info, err := filesystem.StatWithRetry(s.root, s.retry)
	if err != nil {
		return nil, &ScanError{Path: s.root, Err: err}
	}
	if !info.IsDir() {
		return nil, &ScanError{Path: s.root, Err: errors.New("not a directory")}
	}

	root := &ScanDir{Mtime: info.ModTime().Unix()}
	if err := s.scanDir(ctx, s.root, "/", root); err != nil {
		return nil, err
	}
	s.stats.addFoldersTotal(1)

	logging.Info("Scan of %s finished in %v", s.root, time.Since(start))
	return root, nil
}

// scanDir fills node from the directory at abs, whose root-relative path is rel.
func (s *Scanner) scanDir(ctx context.Context, abs, rel string, node *ScanDir) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := s.readDir(abs, s.retry)
	if err != nil {
		return &ScanError{Path: abs, Err: err}
	}

	classified := make([]scanEntry, len(dirEntries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, e := range dirEntries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			classified[i] = s.classify(e, path.Join(rel, e.Name()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// Wait does not report a parent cancellation that arrived after the
	// last entry was classified.
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, c := range classified {
		switch c.kind {
		case kindDir:
			sub := &ScanDir{Name: c.name, Mtime: c.mtime}
			if err := s.scanDir(ctx, filepath.Join(abs, c.name), path.Join(rel, c.name), sub); err != nil {
				return err
			}
			if len(sub.Dirs) == 0 && len(sub.Files) == 0 {
				continue
			}
			node.Dirs = append(node.Dirs, sub)
			s.stats.addFoldersTotal(1)
		case kindFile:
			node.Files = append(node.Files, ScanFile{Name: c.name, Mtime: c.mtime})
		}
	}

	s.stats.addFilesTotal(len(node.Files))
	return nil
}

func (s *Scanner) classify(e os.DirEntry, rel string) scanEntry {
	name := e.Name()
	if strings.HasPrefix(name, ".") {
		metrics.ScanEntriesSkipped.WithLabelValues("hidden").Inc()
		return scanEntry{}
	}

	// Info is an lstat: symlinked directories are not followed.
	info, err := e.Info()
	if err != nil {
		logging.Warn("Skipping %s: %v", rel, err)
		metrics.ScanEntriesSkipped.WithLabelValues("metadata_error").Inc()
		return scanEntry{}
	}

	isDir := info.IsDir()
	if s.ignored(rel, isDir) {
		metrics.ScanEntriesSkipped.WithLabelValues("ignored").Inc()
		return scanEntry{}
	}

	if isDir {
		return scanEntry{kind: kindDir, name: name, mtime: info.ModTime().Unix()}
	}
	if !mediatypes.IsMedia(name) {
		metrics.ScanEntriesSkipped.WithLabelValues("unsupported").Inc()
		return scanEntry{}
	}
	return scanEntry{kind: kindFile, name: name, mtime: info.ModTime().Unix()}
}

func (s *Scanner) ignored(rel string, isDir bool) bool {
	if s.ignore == nil {
		return false
	}
	p := strings.TrimPrefix(rel, "/")
	if s.ignore.MatchesPath(p) {
		return true
	}
	return isDir && s.ignore.MatchesPath(p+"/")
}
