package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/amm926616/april/internal/store"
)

// Cache is the persistent path-keyed metadata store.
type Cache struct {
	db *store.DB
}

func NewCache(db *store.DB) *Cache {
	return &Cache{db: db}
}

const songColumns = `file_path, title, artist, album, year, genre, track_number, duration, file_type`

// Get returns the cached row for path or ErrNotFound.
func (c *Cache) Get(ctx context.Context, path string) (MediaFile, error) {
	var mf MediaFile
	err := c.db.GetContext(ctx, &mf, `SELECT `+songColumns+` FROM songs WHERE file_path = ?`, path)
	if errors.Is(err, sql.ErrNoRows) {
		return MediaFile{}, ErrNotFound
	}
	if err != nil {
		return MediaFile{}, fmt.Errorf("get song: %w", err)
	}
	return mf, nil
}

// Put inserts the row, keeping an existing row for the same path untouched.
// Existing rows change only through UpdateMetadata.
func (c *Cache) Put(ctx context.Context, mf MediaFile) error {
	_, err := c.db.NamedExecContext(ctx, `INSERT OR IGNORE INTO songs (`+songColumns+`)
		VALUES (:file_path, :title, :artist, :album, :year, :genre, :track_number, :duration, :file_type)`, mf)
	if err != nil {
		return fmt.Errorf("insert song: %w", err)
	}
	return nil
}

// UpdateMetadata rewrites the editable fields of an existing row.
func (c *Cache) UpdateMetadata(ctx context.Context, mf MediaFile) error {
	res, err := c.db.NamedExecContext(ctx, `UPDATE songs SET title = :title, artist = :artist, album = :album,
		genre = :genre, year = :year, track_number = :track_number WHERE file_path = :file_path`, mf)
	if err != nil {
		return fmt.Errorf("update song: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Paths lists every cached path.
func (c *Cache) Paths(ctx context.Context) ([]string, error) {
	var paths []string
	if err := c.db.SelectContext(ctx, &paths, `SELECT file_path FROM songs ORDER BY file_path`); err != nil {
		return nil, fmt.Errorf("list paths: %w", err)
	}
	return paths, nil
}

// All returns every cached row ordered by path.
func (c *Cache) All(ctx context.Context) ([]MediaFile, error) {
	var files []MediaFile
	if err := c.db.SelectContext(ctx, &files, `SELECT `+songColumns+` FROM songs ORDER BY file_path`); err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	return files, nil
}

// Count returns the number of cached rows.
func (c *Cache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM songs`); err != nil {
		return 0, fmt.Errorf("count songs: %w", err)
	}
	return n, nil
}

// PruneStale deletes rows whose file no longer exists and reports how many
// were removed. The filesystem is checked before the delete transaction
// starts.
func (c *Cache) PruneStale(ctx context.Context) (int, error) {
	paths, err := c.Paths(ctx)
	if err != nil {
		return 0, err
	}
	var stale []string
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			stale = append(stale, p)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin prune: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PreparexContext(ctx, `DELETE FROM songs WHERE file_path = ?`)
	if err != nil {
		return 0, fmt.Errorf("prepare prune: %w", err)
	}
	defer stmt.Close()

	removed := 0
	for _, p := range stale {
		res, err := stmt.ExecContext(ctx, p)
		if err != nil {
			return 0, fmt.Errorf("delete %s: %w", p, err)
		}
		n, _ := res.RowsAffected()
		removed += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return removed, nil
}
