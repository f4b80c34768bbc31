package search

import (
	"testing"

	"github.com/amm926616/april/internal/library"
)

func sampleIndex() *library.Index {
	return library.BuildIndex([]library.MediaFile{
		{Path: "/1", Title: "Yesterday", Artist: "The Beatles", Album: "Help!", TrackNumber: "13"},
		{Path: "/2", Title: "Ticket to Ride", Artist: "The Beatles", Album: "Help!", TrackNumber: "7"},
		{Path: "/3", Title: "Something", Artist: "The Beatles", Album: "Abbey Road", TrackNumber: "2"},
		{Path: "/4", Title: "Dancing Queen", Artist: "ABBA", Album: "Arrival", TrackNumber: "2"},
		{Path: "/5", Title: "Roadhouse Blues", Artist: "The Doors", Album: "Morrison Hotel", TrackNumber: "1"},
	})
}

func findArtist(t *testing.T, idx *library.Index, name string) int {
	t.Helper()
	for i, a := range idx.Artists {
		if a.Name == name {
			return i
		}
	}
	t.Fatalf("artist %q not in index", name)
	return -1
}

func TestFilterEmptyQueryShowsAll(t *testing.T) {
	idx := sampleIndex()
	v := Filter(idx, "", DefaultThreshold)
	for _, a := range v.Artists {
		if !a.Visible {
			t.Fatalf("artist hidden for empty query")
		}
		for _, b := range a.Albums {
			if !b.Visible {
				t.Fatalf("album hidden for empty query")
			}
			for _, tr := range b.Tracks {
				if !tr.Visible {
					t.Fatalf("track hidden for empty query")
				}
			}
		}
	}
	if len(v.VisibleTracks()) != idx.Len() {
		t.Fatalf("visible tracks = %d", len(v.VisibleTracks()))
	}
	if _, ok := v.Confirm(); ok {
		t.Fatalf("empty query should not confirm anything")
	}
}

func TestFilterPropagatesUpward(t *testing.T) {
	idx := sampleIndex()
	v := Filter(idx, "yesterdy", DefaultThreshold)

	beatles := findArtist(t, idx, "The Beatles")
	abba := findArtist(t, idx, "ABBA")
	an := v.Artists[beatles]
	if !an.Visible || an.Matched {
		t.Fatalf("beatles should be visible through a child, got %+v", an.Node)
	}
	if v.Artists[abba].Visible {
		t.Fatalf("ABBA should be hidden")
	}

	sel, ok := v.Confirm()
	if !ok || sel.Kind != KindTrack {
		t.Fatalf("confirm = %+v, %v", sel, ok)
	}
	if idx.Files[sel.ID].Title != "Yesterday" {
		t.Fatalf("selected %q", idx.Files[sel.ID].Title)
	}
}

func TestConfirmPriority(t *testing.T) {
	idx := sampleIndex()

	// "road" matches the album Abbey Road and the track Roadhouse Blues:
	// the track wins.
	sel, ok := Filter(idx, "road", DefaultThreshold).Confirm()
	if !ok || sel.Kind != KindTrack {
		t.Fatalf("expected track, got %+v", sel)
	}
	if idx.Files[sel.ID].Title != "Roadhouse Blues" {
		t.Fatalf("selected %q", idx.Files[sel.ID].Title)
	}

	// Album only.
	sel, ok = Filter(idx, "arrival", DefaultThreshold).Confirm()
	if !ok || sel.Kind != KindAlbum {
		t.Fatalf("expected album, got %+v", sel)
	}
	if idx.Files[sel.ID].Title != "Dancing Queen" {
		t.Fatalf("album selection should start at its first track")
	}

	// Artist only.
	sel, ok = Filter(idx, "the doors", DefaultThreshold).Confirm()
	if !ok || sel.Kind != KindArtist {
		t.Fatalf("expected artist, got %+v", sel)
	}
	if idx.Artists[sel.Artist].Name != "The Doors" {
		t.Fatalf("wrong artist %q", idx.Artists[sel.Artist].Name)
	}
}

func TestAlbumMatchWithoutTrackMatch(t *testing.T) {
	idx := sampleIndex()
	v := Filter(idx, "abbey road", DefaultThreshold)
	beatles := findArtist(t, idx, "The Beatles")
	var abbey AlbumNode
	for bi, b := range idx.Artists[beatles].Albums {
		if b.Name == "Abbey Road" {
			abbey = v.Artists[beatles].Albums[bi]
		}
	}
	if !abbey.Matched || !abbey.Visible {
		t.Fatalf("album flags = %+v", abbey.Node)
	}
	if abbey.Tracks[0].Visible {
		t.Fatalf("non-matching child track should stay hidden")
	}
	if !v.Artists[beatles].Visible {
		t.Fatalf("artist should be visible via album")
	}
}
