package search

import (
	"github.com/amm926616/april/internal/library"
)

// Node carries the flags for one tree node. Matched means the node's own
// label matched the query; Visible also accounts for matching descendants.
type Node struct {
	Matched bool
	Visible bool
}

type ArtistNode struct {
	Node
	Albums []AlbumNode
}

type AlbumNode struct {
	Node
	Tracks []Node
}

// Visibility mirrors the shape of a library.Index: Artists[i].Albums[j]
// .Tracks[k] belongs to idx.Artists[i].Albums[j].Tracks[k].
type Visibility struct {
	Query   string
	Artists []ArtistNode

	idx *library.Index
}

// Kind identifies the level of a confirmed selection.
type Kind int

const (
	KindNone Kind = iota
	KindTrack
	KindAlbum
	KindArtist
)

func (k Kind) String() string {
	switch k {
	case KindTrack:
		return "track"
	case KindAlbum:
		return "album"
	case KindArtist:
		return "artist"
	default:
		return "none"
	}
}

// Selection addresses a node by position. Album and Track are -1 when the
// selection is above that level. ID is the track playback starts from: the
// track itself, or the first track under the selected album or artist.
type Selection struct {
	Kind   Kind
	Artist int
	Album  int
	Track  int
	ID     library.TrackID
}

// Filter computes per-node visibility for query. Tracks match on their
// title, albums and artists on their name. An empty query shows everything.
func Filter(idx *library.Index, query string, threshold int) Visibility {
	v := Visibility{Query: query, idx: idx}
	if idx == nil {
		return v
	}
	all := query == ""
	v.Artists = make([]ArtistNode, len(idx.Artists))
	for ai, artist := range idx.Artists {
		an := &v.Artists[ai]
		an.Matched = Matches(artist.Name, query, threshold)
		an.Albums = make([]AlbumNode, len(artist.Albums))
		for bi, album := range artist.Albums {
			bn := &an.Albums[bi]
			bn.Matched = Matches(album.Name, query, threshold)
			bn.Tracks = make([]Node, len(album.Tracks))
			for ti, id := range album.Tracks {
				tn := &bn.Tracks[ti]
				tn.Matched = Matches(idx.Files[id].Label(), query, threshold)
				tn.Visible = all || tn.Matched
				if tn.Visible {
					bn.Visible = true
				}
			}
			bn.Visible = all || bn.Visible || bn.Matched
			if bn.Visible {
				an.Visible = true
			}
		}
		an.Visible = all || an.Visible || an.Matched
	}
	return v
}

// Confirm picks the single node a confirm action should act on: the first
// matching track, else the first matching album, else the first matching
// artist, in tree order.
func (v Visibility) Confirm() (Selection, bool) {
	var album, artist *Selection
	for ai, an := range v.Artists {
		if !an.Visible {
			continue
		}
		if an.Matched && artist == nil {
			artist = &Selection{Kind: KindArtist, Artist: ai, Album: -1, Track: -1}
		}
		for bi, bn := range an.Albums {
			if !bn.Visible {
				continue
			}
			if bn.Matched && album == nil {
				album = &Selection{Kind: KindAlbum, Artist: ai, Album: bi, Track: -1}
			}
			for ti, tn := range bn.Tracks {
				if tn.Visible && tn.Matched {
					return Selection{
						Kind: KindTrack, Artist: ai, Album: bi, Track: ti,
						ID: v.idx.Artists[ai].Albums[bi].Tracks[ti],
					}, true
				}
			}
		}
	}
	if album != nil {
		album.ID = v.idx.Artists[album.Artist].Albums[album.Album].Tracks[0]
		return *album, true
	}
	if artist != nil {
		artist.ID = v.idx.Artists[artist.Artist].Albums[0].Tracks[0]
		return *artist, true
	}
	return Selection{Kind: KindNone, Album: -1, Track: -1}, false
}

// VisibleTracks lists visible track ids in tree order.
func (v Visibility) VisibleTracks() []library.TrackID {
	var out []library.TrackID
	for ai, an := range v.Artists {
		for bi, bn := range an.Albums {
			for ti, tn := range bn.Tracks {
				if tn.Visible {
					out = append(out, v.idx.Artists[ai].Albums[bi].Tracks[ti])
				}
			}
		}
	}
	return out
}
