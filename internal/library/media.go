package library

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Placeholders used when a tag field is missing or extraction failed.
const (
	UnknownTitle       = "Unknown Title"
	UnknownArtist      = "Unknown Artist"
	UnknownAlbum       = "Unknown Album"
	UnknownYear        = "Unknown Year"
	UnknownGenre       = "Unknown Genre"
	UnknownTrackNumber = "Unknown Track Number"
)

// DefaultExtensions is the audio extension set scanned when none is configured.
var DefaultExtensions = []string{".mp3", ".ogg", ".wav", ".flac", ".aac", ".m4a"}

// MediaFile is one cached songs row. Path is absolute and unique.
type MediaFile struct {
	Path            string `db:"file_path"`
	Title           string `db:"title"`
	Artist          string `db:"artist"`
	Album           string `db:"album"`
	Year            string `db:"year"`
	Genre           string `db:"genre"`
	TrackNumber     string `db:"track_number"`
	DurationSeconds int    `db:"duration"`
	FileType        string `db:"file_type"`
}

// Placeholder returns the record used when tags cannot be read.
func Placeholder(path string) MediaFile {
	return MediaFile{
		Path:        path,
		Title:       UnknownTitle,
		Artist:      UnknownArtist,
		Album:       UnknownAlbum,
		Year:        UnknownYear,
		Genre:       UnknownGenre,
		TrackNumber: UnknownTrackNumber,
		FileType:    fileType(path),
	}
}

// fill replaces empty fields with their placeholders.
func (m *MediaFile) fill() {
	set := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	set(&m.Title, UnknownTitle)
	set(&m.Artist, UnknownArtist)
	set(&m.Album, UnknownAlbum)
	set(&m.Year, UnknownYear)
	set(&m.Genre, UnknownGenre)
	set(&m.TrackNumber, UnknownTrackNumber)
	if m.DurationSeconds < 0 {
		m.DurationSeconds = 0
	}
	if m.FileType == "" {
		m.FileType = fileType(m.Path)
	}
}

// Label is the display text for a track node.
func (m MediaFile) Label() string {
	return m.Title
}

func fileType(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
