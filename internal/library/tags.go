package library

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

// TagReader extracts metadata from an audio file.
type TagReader interface {
	ReadTags(ctx context.Context, path string) (MediaFile, error)
}

// FileTagReader reads tags with dhowden/tag. When ProbeDuration is set the
// duration comes from ffprobe; tags alone carry no length.
type FileTagReader struct {
	ProbeDuration bool
}

func (r FileTagReader) ReadTags(ctx context.Context, path string) (MediaFile, error) {
	if err := ctx.Err(); err != nil {
		return MediaFile{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return MediaFile{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return MediaFile{}, fmt.Errorf("read tags: %w", err)
	}

	mf := MediaFile{
		Path:        path,
		Title:       meta.Title(),
		Artist:      meta.Artist(),
		Album:       meta.Album(),
		Genre:       meta.Genre(),
		TrackNumber: rawTrackNumber(meta),
		FileType:    fileType(path),
	}
	if y := meta.Year(); y > 0 {
		mf.Year = strconv.Itoa(y)
	}
	if r.ProbeDuration {
		mf.DurationSeconds = probeDurationSeconds(ctx, path)
	}
	mf.fill()
	return mf, nil
}

// rawTrackNumber keeps the tag text as written ("3", "03/12") when the
// container exposes it, and rebuilds "n/total" otherwise.
func rawTrackNumber(meta tag.Metadata) string {
	raw := meta.Raw()
	for _, key := range []string{"TRCK", "TRK", "tracknumber", "TRACKNUMBER"} {
		if v, ok := raw[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	n, total := meta.Track()
	switch {
	case n <= 0:
		return ""
	case total > 0:
		return fmt.Sprintf("%d/%d", n, total)
	default:
		return strconv.Itoa(n)
	}
}

// probeDurationSeconds asks ffprobe for the container duration. Zero when
// ffprobe is missing or fails.
func probeDurationSeconds(ctx context.Context, path string) int {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "quiet", "-print_format", "json", "-show_format", path)
	out, err := cmd.Output()
	if err != nil {
		return 0
	}
	var result struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if json.Unmarshal(out, &result) != nil || result.Format.Duration == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil || secs < 0 {
		return 0
	}
	return int(secs)
}
