package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrCorrupt is reported (wrapped) when the database file fails its
// integrity check.
var ErrCorrupt = errors.New("store: database corrupt")

// DB is the single shared handle for the songs and notes tables.
type DB struct {
	*sqlx.DB
	path string

	// Recovered is set when a corrupt file was moved aside and replaced with
	// an empty database during Open.
	Recovered bool
}

// Open opens (or creates) the SQLite database at path. A file that cannot be
// opened or fails the integrity check is renamed to "<path>.corrupt-<unix>"
// and a fresh database is created in its place.
func Open(path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := open(path)
	if err == nil {
		return db, nil
	}
	if path == ":memory:" || !errors.Is(err, ErrCorrupt) {
		return nil, err
	}

	aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	logger.Warn("cache database unreadable, starting empty",
		slog.String("path", path), slog.String("moved_to", aside), slog.Any("err", err))
	if rerr := os.Rename(path, aside); rerr != nil {
		return nil, fmt.Errorf("move corrupt db aside: %w", rerr)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
	db, err = open(path)
	if err != nil {
		return nil, err
	}
	db.Recovered = true
	return db, nil
}

func open(path string) (*DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One handle at a time; SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	fail := func(err error) (*DB, error) {
		_ = db.Close()
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return fail(fmt.Errorf("%w: ping: %v", ErrCorrupt, err))
	}
	var result string
	if err := db.Get(&result, "PRAGMA quick_check"); err != nil {
		return fail(fmt.Errorf("%w: quick_check: %v", ErrCorrupt, err))
	}
	if !strings.EqualFold(result, "ok") {
		return fail(fmt.Errorf("%w: %s", ErrCorrupt, result))
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fail(fmt.Errorf("set WAL mode: %w", err))
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000"); err != nil {
		return fail(fmt.Errorf("set busy timeout: %w", err))
	}
	if _, err := db.Exec(Schema); err != nil {
		return fail(fmt.Errorf("%w: apply schema: %v", ErrCorrupt, err))
	}
	return &DB{DB: db, path: path}, nil
}

// Path returns the file the handle was opened from.
func (db *DB) Path() string { return db.path }

func (db *DB) Close() error {
	return db.DB.Close()
}
