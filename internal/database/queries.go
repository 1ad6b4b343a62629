package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"time"

	"gallery/internal/logging"
	"gallery/internal/mediatypes"
)

// DefaultPageSize is used when a MediaQuery carries no page size.
const DefaultPageSize = 4096

// orderClause builds the ORDER BY expression for sort. Ties always break on
// path so every order is total. seeded reports whether the clause takes the
// random seed as a bind parameter.
func orderClause(sort mediatypes.SortField, reverse bool, takenCol string) (clause string, seeded bool) {
	dir := "ASC"
	if reverse {
		dir = "DESC"
	}

	var key string
	switch sort {
	case mediatypes.SortByTaken:
		key = takenCol
	case mediatypes.SortByModified:
		key = "mtime"
	case mediatypes.SortByRandom:
		key = "hash(? || path)"
		seeded = true
	default:
		key = "name COLLATE NOCASE"
	}
	return fmt.Sprintf("%s %s, path %s", key, dir, dir), seeded
}

func normalizePage(q *MediaQuery) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
}

// FolderMedia lists one page of the images directly inside q.Dir.
func (d *Database) FolderMedia(ctx context.Context, q MediaQuery) (*MediaPage, error) {
	return d.mediaPage(ctx, "folder_media", `dir = ?`, []interface{}{q.Dir}, q)
}

// FolderMediaRecursive lists one page of the images inside q.Dir or any
// folder beneath it.
func (d *Database) FolderMediaRecursive(ctx context.Context, q MediaQuery) (*MediaPage, error) {
	lo, hi := prefixRange(q.Dir)
	return d.mediaPage(ctx, "folder_media_recursive",
		`(dir = ? OR (dir >= ? AND dir < ?))`, []interface{}{q.Dir, lo, hi}, q)
}

func (d *Database) mediaPage(ctx context.Context, op, where string, whereArgs []interface{}, q MediaQuery) (*MediaPage, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery(op, start, err) }()

	normalizePage(&q)

	page := &MediaPage{
		Items:    []MediaItem{},
		Page:     q.Page,
		PageSize: q.PageSize,
	}

	if err = d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM image WHERE `+where, whereArgs...).Scan(&page.TotalItems); err != nil {
		return nil, fmt.Errorf("%s count: %w", op, err)
	}
	page.TotalPages = (page.TotalItems + q.PageSize - 1) / q.PageSize

	order, seeded := orderClause(q.Sort, q.Reverse, "timestamp")
	args := append([]interface{}{}, whereArgs...)
	if seeded {
		args = append(args, q.Seed)
	}
	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)

	query := `SELECT path, name, dir, mtime, timestamp FROM image WHERE ` + where +
		` ORDER BY ` + order + ` LIMIT ? OFFSET ?`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item MediaItem
		if err = rows.Scan(&item.Path, &item.Name, &item.Dir, &item.Mtime, &item.Timestamp); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		item.Type = mediatypes.TypeOf(item.Name)
		page.Items = append(page.Items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logging.Debug("%s dir=%q sort=%s page=%d returned %d of %d items in %v",
		op, q.Dir, q.Sort, q.Page, len(page.Items), page.TotalItems, time.Since(start))
	return page, nil
}

// FolderFolders lists the child folders of dir with their image count and
// cover image.
func (d *Database) FolderFolders(ctx context.Context, dir string, sort mediatypes.SortField, reverse bool) ([]FolderItem, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("folder_folders", start, err) }()

	// Folders carry no capture time, so "taken" falls back to mtime.
	order, seeded := orderClause(sort, reverse, "mtime")
	args := []interface{}{dir}
	if seeded {
		// Folders have no caller seed; keying on dir keeps the order stable.
		args = append(args, dir)
	}

	query := `
		SELECT f.path, f.name, f.mtime,
			(SELECT COUNT(*) FROM image i WHERE i.dir = f.path),
			(SELECT MIN(i.name) FROM image i WHERE i.dir = f.path)
		FROM folder f
		WHERE f.dir = ?
		ORDER BY ` + order

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("folder_folders: %w", err)
	}
	defer rows.Close()

	folders := []FolderItem{}
	for rows.Next() {
		var item FolderItem
		var cover sql.NullString
		if err = rows.Scan(&item.Path, &item.Name, &item.Mtime, &item.ImageCount, &cover); err != nil {
			return nil, fmt.Errorf("folder_folders scan: %w", err)
		}
		if cover.Valid {
			item.Cover = path.Join(item.Path, cover.String)
		}
		folders = append(folders, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("folder_folders: %w", err)
	}
	return folders, nil
}

// Counts returns the number of folder and image rows.
func (d *Database) Counts(ctx context.Context) (Counts, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("counts", start, err) }()

	var c Counts
	err = d.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM folder), (SELECT COUNT(*) FROM image)`).Scan(&c.Folders, &c.Images)
	if err != nil {
		return Counts{}, fmt.Errorf("counts: %w", err)
	}
	return c, nil
}

// GetImage returns the image row at p, or ErrNotFound.
func (d *Database) GetImage(ctx context.Context, p string) (*Image, error) {
	var img Image
	err := d.db.QueryRowContext(ctx,
		`SELECT path, name, dir, mtime, timestamp FROM image WHERE path = ?`, p).
		Scan(&img.Path, &img.Name, &img.Dir, &img.Mtime, &img.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get image %s: %w", p, err)
	}
	return &img, nil
}

// Folders returns every folder row ordered by path.
func (d *Database) Folders(ctx context.Context) ([]Folder, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT path, name, dir, mtime FROM folder ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var out []Folder
	for rows.Next() {
		var f Folder
		if err := rows.Scan(&f.Path, &f.Name, &f.Dir, &f.Mtime); err != nil {
			return nil, fmt.Errorf("list folders: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Images returns every image row ordered by path.
func (d *Database) Images(ctx context.Context) ([]Image, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT path, name, dir, mtime, timestamp FROM image ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var out []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.Path, &img.Name, &img.Dir, &img.Mtime, &img.Timestamp); err != nil {
			return nil, fmt.Errorf("list images: %w", err)
		}
		out = append(out, img)
	}
	return out, rows.Err()
}
