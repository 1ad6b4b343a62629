package database

import (
	"context"
	"database/sql"
	"fmt"
	"path"
	"time"

	"gallery/internal/logging"
	"gallery/internal/metrics"
)

// Batch groups metadata writes into transactions of at most max statements.
// The transaction is opened lazily by the first statement and committed
// automatically once max statements have run; Commit flushes the remainder.
// A Batch is not safe for concurrent use.
type Batch struct {
	d       *Database
	ctx     context.Context
	max     int
	tx      *sql.Tx
	started time.Time
	pending int
}

// NewBatch returns a batch that auto-commits every max statements. A max of
// zero or less disables auto-commit.
func (d *Database) NewBatch(ctx context.Context, max int) *Batch {
	return &Batch{d: d, ctx: ctx, max: max}
}

// Pending returns the number of statements run in the open transaction.
func (b *Batch) Pending() int {
	return b.pending
}

func (b *Batch) exec(op, query string, args ...interface{}) error {
	if b.tx == nil {
		tx, err := b.d.db.BeginTx(b.ctx, nil)
		if err != nil {
			recordQuery("begin_transaction", time.Now(), err)
			return fmt.Errorf("%s: begin transaction: %w", op, err)
		}
		b.tx = tx
		b.started = time.Now()
	}

	if _, err := b.tx.ExecContext(b.ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	b.pending++

	if b.max > 0 && b.pending >= b.max {
		return b.Commit()
	}
	return nil
}

// Commit commits the open transaction, if any.
func (b *Batch) Commit() error {
	if b.tx == nil {
		return nil
	}
	tx, n, started := b.tx, b.pending, b.started
	b.tx, b.pending = nil, 0

	if err := tx.Commit(); err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(time.Since(started).Seconds())
		return fmt.Errorf("commit transaction: %w", err)
	}
	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(time.Since(started).Seconds())
	metrics.DBStatementsPerCommit.Observe(float64(n))
	logging.Debug("Committed %d metadata statements in %v", n, time.Since(started))
	return nil
}

// Rollback discards the open transaction, if any. Statements already
// committed by auto-commit stay committed.
func (b *Batch) Rollback() error {
	if b.tx == nil {
		return nil
	}
	tx, started := b.tx, b.started
	b.tx, b.pending = nil, 0

	err := tx.Rollback()
	metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(time.Since(started).Seconds())
	if err != nil {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

// InsertFolder adds a folder row below dir.
func (b *Batch) InsertFolder(dir, name string, mtime int64) error {
	return b.exec("insert folder",
		`INSERT INTO folder (path, name, dir, mtime) VALUES (?, ?, ?, ?)`,
		path.Join(dir, name), name, dir, mtime)
}

// UpdateFolderMtime records a folder's new modification time.
func (b *Batch) UpdateFolderMtime(dir, name string, mtime int64) error {
	return b.exec("update folder",
		`UPDATE folder SET mtime = ? WHERE path = ?`,
		mtime, path.Join(dir, name))
}

// DeleteFolderTree removes a folder together with every folder and image row
// located anywhere beneath it. Siblings sharing the name as a string prefix
// (e.g. "/a/bc" for "/a/b") are untouched.
func (b *Batch) DeleteFolderTree(dir, name string) error {
	p := path.Join(dir, name)
	lo, hi := prefixRange(p)

	if err := b.exec("delete folder images",
		`DELETE FROM image WHERE dir = ? OR (dir >= ? AND dir < ?)`, p, lo, hi); err != nil {
		return err
	}
	// Descendants go before the folder itself so the dir reference holds at
	// every statement boundary.
	if err := b.exec("delete subfolders",
		`DELETE FROM folder WHERE path >= ? AND path < ?`, lo, hi); err != nil {
		return err
	}
	return b.exec("delete folder",
		`DELETE FROM folder WHERE path = ?`, p)
}

// UpsertImage inserts an image row or, if one exists at the same path,
// overwrites its mtime and timestamp.
func (b *Batch) UpsertImage(dir, name string, mtime, timestamp int64) error {
	return b.exec("upsert image",
		`INSERT INTO image (path, name, dir, mtime, timestamp) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET mtime = excluded.mtime, timestamp = excluded.timestamp`,
		path.Join(dir, name), name, dir, mtime, timestamp)
}

// UpdateImage overwrites mtime and timestamp of an existing image row.
func (b *Batch) UpdateImage(dir, name string, mtime, timestamp int64) error {
	return b.exec("update image",
		`UPDATE image SET mtime = ?, timestamp = ? WHERE path = ?`,
		mtime, timestamp, path.Join(dir, name))
}

// DeleteImage removes one image row.
func (b *Batch) DeleteImage(dir, name string) error {
	return b.exec("delete image",
		`DELETE FROM image WHERE path = ?`, path.Join(dir, name))
}
