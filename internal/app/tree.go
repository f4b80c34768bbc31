package app

import (
	"github.com/amm926616/april/internal/library"
	"github.com/amm926616/april/internal/search"
)

// row is one line of the flattened library tree. Album and artist rows carry
// the id of their first track.
type row struct {
	kind    search.Kind
	id      library.TrackID
	label   string
	depth   int
	matched bool
}

// buildRows flattens the visible part of idx. While filtering, everything
// under a matching artist or album stays listed.
func buildRows(idx *library.Index, vis search.Visibility) []row {
	if idx == nil || len(vis.Artists) != len(idx.Artists) {
		return nil
	}
	filtered := vis.Query != ""
	var rows []row
	for ai, artist := range idx.Artists {
		an := vis.Artists[ai]
		if !an.Visible {
			continue
		}
		rows = append(rows, row{
			kind:    search.KindArtist,
			id:      artist.Albums[0].Tracks[0],
			label:   artist.Name,
			matched: filtered && an.Matched,
		})
		for bi, album := range artist.Albums {
			bn := an.Albums[bi]
			if !bn.Visible && !an.Matched {
				continue
			}
			rows = append(rows, row{
				kind:    search.KindAlbum,
				id:      album.Tracks[0],
				label:   album.Name,
				depth:   1,
				matched: filtered && bn.Matched,
			})
			for ti, id := range album.Tracks {
				tn := bn.Tracks[ti]
				if !tn.Visible && !bn.Matched && !an.Matched {
					continue
				}
				rows = append(rows, row{
					kind:    search.KindTrack,
					id:      id,
					label:   idx.Files[id].Label(),
					depth:   2,
					matched: filtered && tn.Matched,
				})
			}
		}
	}
	return rows
}
