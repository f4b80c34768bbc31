package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestID3WriterRejectsOtherFormats(t *testing.T) {
	err := ID3Writer{}.WriteTags("/music/song.flac", Edit{Title: "x"})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestID3WriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mp3")
	// Frame data only; the tag is prepended on save.
	if err := os.WriteFile(path, make([]byte, 512), 0o644); err != nil {
		t.Fatal(err)
	}
	edit := Edit{Title: "Yesterday", Artist: "The Beatles", Album: "Help!", Year: "1965", Genre: "Pop", TrackNumber: "13/14"}
	if err := (ID3Writer{}).WriteTags(path, edit); err != nil {
		t.Fatalf("write: %v", err)
	}

	mf, err := FileTagReader{}.ReadTags(context.Background(), path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if mf.Title != edit.Title || mf.Artist != edit.Artist || mf.Album != edit.Album {
		t.Fatalf("read back %+v", mf)
	}
	if mf.TrackNumber != "13/14" {
		t.Fatalf("track number = %q", mf.TrackNumber)
	}
	if mf.FileType != "mp3" {
		t.Fatalf("file type = %q", mf.FileType)
	}
}
