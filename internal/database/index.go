package database

import (
	"context"
	"fmt"
	"time"
)

// prefixRange returns the half-open string range [lo, hi) holding exactly the
// paths strictly beneath p. Comparison is byte-wise, so the range is
// case-sensitive and does not treat '_' or '%' specially.
func prefixRange(p string) (lo, hi string) {
	lo = p + "/"
	if p == RootPath {
		lo = RootPath
	}
	// '0' is the byte after '/'.
	hi = lo[:len(lo)-1] + "0"
	return lo, hi
}

// FolderMtimes returns the recorded subfolders of dir keyed by name.
func (d *Database) FolderMtimes(ctx context.Context, dir string) (map[string]int64, error) {
	return d.mtimes(ctx, "folder_mtimes", `SELECT name, mtime FROM folder WHERE dir = ?`, dir)
}

// ImageMtimes returns the recorded images directly inside dir keyed by name.
func (d *Database) ImageMtimes(ctx context.Context, dir string) (map[string]int64, error) {
	return d.mtimes(ctx, "image_mtimes", `SELECT name, mtime FROM image WHERE dir = ?`, dir)
}

func (d *Database) mtimes(ctx context.Context, op, query, dir string) (map[string]int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery(op, start, err) }()

	rows, err := d.db.QueryContext(ctx, query, dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var name string
		var mtime int64
		if err = rows.Scan(&name, &mtime); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out[name] = mtime
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
