package library

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// Edit is an explicit metadata change requested by the user.
type Edit struct {
	Title       string
	Artist      string
	Album       string
	Year        string
	Genre       string
	TrackNumber string
}

// TagWriter persists an Edit into the audio file itself.
type TagWriter interface {
	WriteTags(path string, e Edit) error
}

// ID3Writer writes ID3v2.4 frames into MP3 files. Other containers return
// ErrUnsupportedFormat.
type ID3Writer struct{}

func (ID3Writer) WriteTags(path string, e Edit) error {
	if strings.ToLower(filepath.Ext(path)) != ".mp3" {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open id3 tag: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetTitle(e.Title)
	tag.SetArtist(e.Artist)
	tag.SetAlbum(e.Album)
	tag.SetYear(e.Year)
	tag.SetGenre(e.Genre)
	tag.AddTextFrame(tag.CommonID("Track number/Position in set"), tag.DefaultEncoding(), e.TrackNumber)

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save id3 tag: %w", err)
	}
	return nil
}
