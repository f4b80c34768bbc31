package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Options configures a Library.
type Options struct {
	Roots      []string
	Extensions []string
	// Workers bounds parallel tag extraction; zero means runtime.NumCPU().
	Workers int
	Reader  TagReader
	Writer  TagWriter
	Logger  *slog.Logger
}

// Library ties scanning, the metadata cache and index building together.
type Library struct {
	cache   *Cache
	roots   []string
	exts    []string
	workers int
	reader  TagReader
	writer  TagWriter
	logger  *slog.Logger
}

func New(cache *Cache, opts Options) *Library {
	l := &Library{
		cache:   cache,
		roots:   opts.Roots,
		exts:    opts.Extensions,
		workers: opts.Workers,
		reader:  opts.Reader,
		writer:  opts.Writer,
		logger:  opts.Logger,
	}
	if len(l.exts) == 0 {
		l.exts = DefaultExtensions
	}
	if l.workers <= 0 {
		l.workers = runtime.NumCPU()
	}
	if l.reader == nil {
		l.reader = FileTagReader{}
	}
	if l.writer == nil {
		l.writer = ID3Writer{}
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Roots returns the configured library roots.
func (l *Library) Roots() []string { return l.roots }

// GetOrExtract returns the cached record for path, reading tags and caching
// the result on a miss. A failed read yields the placeholder record; it is
// logged and cached like any other result.
func (l *Library) GetOrExtract(ctx context.Context, path string) MediaFile {
	mf, err := l.cache.Get(ctx, path)
	if err == nil {
		return mf
	}
	if !errors.Is(err, ErrNotFound) {
		l.logger.Warn("cache read failed", slog.String("path", path), slog.Any("err", err))
	}

	mf, err = l.reader.ReadTags(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return Placeholder(path)
		}
		l.logger.Warn("tag extraction failed", slog.String("path", path), slog.Any("err", err))
		mf = Placeholder(path)
	}
	if err := l.cache.Put(ctx, mf); err != nil {
		l.logger.Warn("cache write failed", slog.String("path", path), slog.Any("err", err))
	}
	return mf
}

// Refresh scans the roots, extracts or loads every file, drops stale cache
// rows and builds a fresh index.
func (l *Library) Refresh(ctx context.Context) (*Index, error) {
	paths, err := Scan(ctx, l.roots, l.exts)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	files := make([]MediaFile, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			files[i] = l.GetOrExtract(gctx, p)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	removed, err := l.cache.PruneStale(ctx)
	if err != nil {
		l.logger.Warn("prune stale rows failed", slog.Any("err", err))
	} else if removed > 0 {
		l.logger.Info("pruned stale rows", slog.Int("removed", removed))
	}

	idx := BuildIndex(files)
	l.logger.Info("library indexed",
		slog.Int("tracks", idx.Len()), slog.Int("artists", len(idx.Artists)))
	return idx, nil
}

// Cached builds an index from the cache alone, without touching the roots.
func (l *Library) Cached(ctx context.Context) (*Index, error) {
	files, err := l.cache.All(ctx)
	if err != nil {
		return nil, err
	}
	return BuildIndex(files), nil
}

// EditMetadata writes e into the file and then into its cache row.
func (l *Library) EditMetadata(ctx context.Context, path string, e Edit) (MediaFile, error) {
	current, err := l.cache.Get(ctx, path)
	if err != nil {
		return MediaFile{}, err
	}
	if err := l.writer.WriteTags(path, e); err != nil {
		return MediaFile{}, fmt.Errorf("write tags: %w", err)
	}
	updated := current
	updated.Title = e.Title
	updated.Artist = e.Artist
	updated.Album = e.Album
	updated.Year = e.Year
	updated.Genre = e.Genre
	updated.TrackNumber = e.TrackNumber
	updated.fill()
	if err := l.cache.UpdateMetadata(ctx, updated); err != nil {
		return MediaFile{}, err
	}
	return updated, nil
}
