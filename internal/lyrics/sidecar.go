package lyrics

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/amm926616/april/internal/task"
)

// ErrNoLyrics means the audio file has no sidecar lyric file.
var ErrNoLyrics = errors.New("lyrics: no sidecar file")

// SidecarPath returns the .lrc file next to audioPath with the same base
// name, or ErrNoLyrics.
func SidecarPath(audioPath string) (string, error) {
	base := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	for _, ext := range []string{".lrc", ".LRC"} {
		p := base + ext
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", ErrNoLyrics
}

// ReadFile loads and parses an LRC file.
func ReadFile(ctx context.Context, path string) (*Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoLyrics
		}
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	text, err := DecodeText(data)
	if err != nil {
		return nil, err
	}
	return ParseReader(ctx, strings.NewReader(text))
}

// Loaded is the outcome of a Loader request. Track is nil when the audio file
// has no lyrics.
type Loaded struct {
	AudioPath string
	LRCPath   string
	Track     *Track
}

// Loader parses sidecar files in the background. Only the result of the most
// recent Load is ever delivered.
type Loader struct {
	tasks *task.Latest[Loaded]
}

func NewLoader() *Loader {
	return &Loader{tasks: task.NewLatest[Loaded]()}
}

// Load starts loading lyrics for audioPath, superseding any earlier request.
func (l *Loader) Load(ctx context.Context, audioPath string) uint64 {
	return l.tasks.Submit(ctx, func(ctx context.Context) (Loaded, error) {
		res := Loaded{AudioPath: audioPath}
		p, err := SidecarPath(audioPath)
		if errors.Is(err, ErrNoLyrics) {
			return res, nil
		}
		res.LRCPath = p
		t, err := ReadFile(ctx, p)
		if errors.Is(err, ErrNoLyrics) {
			return res, nil
		}
		if err != nil {
			return res, err
		}
		res.Track = t
		return res, nil
	})
}

// Results delivers finished loads.
func (l *Loader) Results() <-chan task.Result[Loaded] { return l.tasks.Results() }

// IsCurrent reports whether seq belongs to the latest Load.
func (l *Loader) IsCurrent(seq uint64) bool { return l.tasks.IsCurrent(seq) }

// Cancel abandons the in-flight load.
func (l *Loader) Cancel() { l.tasks.Cancel() }

func (l *Loader) Close() { l.tasks.Close() }
