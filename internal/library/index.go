package library

import (
	"sort"
	"strings"
)

// TrackID indexes Index.Files. Consumers hold IDs, never pointers into the
// arena, so a rebuilt index simply replaces the old one.
type TrackID int

// Index is the Artist -> Album -> Track hierarchy over an arena of files.
type Index struct {
	Files   []MediaFile
	Artists []Artist

	byPath map[string]TrackID
}

type Artist struct {
	Name   string
	Albums []Album
}

type Album struct {
	Name   string
	Tracks []TrackID
}

// BuildIndex groups files by artist and album and sorts every level: artists
// case-insensitively, albums case-sensitively, tracks by parsed track number
// with discovery order kept for ties.
func BuildIndex(files []MediaFile) *Index {
	idx := &Index{
		Files:  make([]MediaFile, len(files)),
		byPath: make(map[string]TrackID, len(files)),
	}
	copy(idx.Files, files)

	type albumKey struct{ artist, album string }
	artistPos := make(map[string]int)
	albumPos := make(map[albumKey]int)

	for i := range idx.Files {
		f := &idx.Files[i]
		if strings.TrimSpace(f.Artist) == "" {
			f.Artist = UnknownArtist
		}
		if strings.TrimSpace(f.Album) == "" {
			f.Album = UnknownAlbum
		}
		idx.byPath[f.Path] = TrackID(i)

		ai, ok := artistPos[f.Artist]
		if !ok {
			ai = len(idx.Artists)
			artistPos[f.Artist] = ai
			idx.Artists = append(idx.Artists, Artist{Name: f.Artist})
		}
		artist := &idx.Artists[ai]
		key := albumKey{f.Artist, f.Album}
		bi, ok := albumPos[key]
		if !ok {
			bi = len(artist.Albums)
			albumPos[key] = bi
			artist.Albums = append(artist.Albums, Album{Name: f.Album})
		}
		artist.Albums[bi].Tracks = append(artist.Albums[bi].Tracks, TrackID(i))
	}

	sort.SliceStable(idx.Artists, func(i, j int) bool {
		a, b := strings.ToLower(idx.Artists[i].Name), strings.ToLower(idx.Artists[j].Name)
		if a != b {
			return a < b
		}
		return idx.Artists[i].Name < idx.Artists[j].Name
	})
	for ai := range idx.Artists {
		albums := idx.Artists[ai].Albums
		sort.SliceStable(albums, func(i, j int) bool { return albums[i].Name < albums[j].Name })
		for bi := range albums {
			tracks := albums[bi].Tracks
			nums := make(map[TrackID]int, len(tracks))
			for _, id := range tracks {
				nums[id] = ExtractTrackNumber(idx.Files[id].TrackNumber)
			}
			sort.SliceStable(tracks, func(i, j int) bool { return nums[tracks[i]] < nums[tracks[j]] })
		}
	}
	return idx
}

// File returns the record for id.
func (idx *Index) File(id TrackID) (MediaFile, bool) {
	if idx == nil || id < 0 || int(id) >= len(idx.Files) {
		return MediaFile{}, false
	}
	return idx.Files[id], true
}

// Lookup finds the track id for an absolute path.
func (idx *Index) Lookup(path string) (TrackID, bool) {
	if idx == nil {
		return 0, false
	}
	id, ok := idx.byPath[path]
	return id, ok
}

// Ordered returns every track id in tree order.
func (idx *Index) Ordered() []TrackID {
	if idx == nil {
		return nil
	}
	out := make([]TrackID, 0, len(idx.Files))
	for _, a := range idx.Artists {
		for _, b := range a.Albums {
			out = append(out, b.Tracks...)
		}
	}
	return out
}

// Len reports the number of tracks.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Files)
}
