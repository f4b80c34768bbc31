package library

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long the watcher waits for filesystem activity to
// stop before signalling a rescan.
const DefaultSettle = 2 * time.Second

// Watcher signals on Changes when audio files under the roots are created,
// removed or renamed. Bursts of events are coalesced into one signal.
type Watcher struct {
	fsw     *fsnotify.Watcher
	exts    map[string]bool
	settle  time.Duration
	logger  *slog.Logger
	changes chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher registers every directory below roots. fsnotify is not
// recursive, so directories created later are added as they appear.
func NewWatcher(roots, exts []string, settle time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	if logger == nil {
		logger = slog.Default()
	}
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	w := &Watcher{
		fsw:     fsw,
		exts:    make(map[string]bool, len(exts)),
		settle:  settle,
		logger:  logger,
		changes: make(chan struct{}, 1),
	}
	for _, e := range exts {
		w.exts[strings.ToLower(e)] = true
	}
	for _, root := range roots {
		w.addTree(root)
	}
	return w, nil
}

// Changes delivers one value per settled burst of changes.
func (w *Watcher) Changes() <-chan struct{} { return w.changes }

// Run processes events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", slog.Any("err", err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.addTree(ev.Name)
			w.trigger()
			return
		}
	}
	if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
		return
	}
	ext := strings.ToLower(filepath.Ext(ev.Name))
	// A removed directory has no extension; rescan to prune its files.
	if !w.exts[ext] && !(ext == "" && ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0) {
		return
	}
	w.logger.Debug("library change", slog.String("op", ev.Op.String()), slog.String("path", ev.Name))
	w.trigger()
}

func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.settle, func() {
		select {
		case w.changes <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) addTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("watch directory", slog.String("path", path), slog.Any("err", err))
		}
		return nil
	})
}

func (w *Watcher) stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	_ = w.fsw.Close()
}

// Close releases the watcher without running it.
func (w *Watcher) Close() error {
	w.stop()
	return nil
}
