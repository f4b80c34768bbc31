package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/amm926616/april/internal/config"
	"github.com/amm926616/april/internal/library"
	"github.com/amm926616/april/internal/lyrics"
	"github.com/amm926616/april/internal/lyricsync"
	"github.com/amm926616/april/internal/player"
	"github.com/amm926616/april/internal/search"
)

func printTree(w io.Writer, idx *library.Index) {
	for _, artist := range idx.Artists {
		fmt.Fprintln(w, artist.Name)
		for _, album := range artist.Albums {
			fmt.Fprintf(w, "  %s\n", album.Name)
			for _, id := range album.Tracks {
				mf := idx.Files[id]
				fmt.Fprintf(w, "    %s  %s\n", mf.Label(), library.FormatDuration(mf.DurationSeconds))
			}
		}
	}
}

// printSearch lists visible tracks, subsequence matches first, then the
// node a confirm would act on.
func printSearch(w io.Writer, idx *library.Index, query string, threshold int) {
	vis := search.Filter(idx, query, threshold)
	tracks := vis.VisibleTracks()
	labels := make([]string, len(tracks))
	for i, id := range tracks {
		labels[i] = idx.Files[id].Label()
	}
	seen := make([]bool, len(tracks))
	order := search.Rank(query, labels)
	for _, i := range order {
		seen[i] = true
	}
	for i := range tracks {
		if !seen[i] {
			order = append(order, i)
		}
	}
	for _, i := range order {
		mf := idx.Files[tracks[i]]
		fmt.Fprintf(w, "%s / %s / %s\n", mf.Artist, mf.Album, mf.Title)
	}

	sel, ok := vis.Confirm()
	if !ok {
		fmt.Fprintf(w, "no match for %q\n", query)
		return
	}
	label := idx.Files[sel.ID].Title
	switch sel.Kind {
	case search.KindArtist:
		label = idx.Artists[sel.Artist].Name
	case search.KindAlbum:
		label = idx.Artists[sel.Artist].Albums[sel.Album].Name
	}
	fmt.Fprintf(w, "confirm: %s %q\n", sel.Kind, label)
}

func printLyrics(w io.Writer, t *lyrics.Track) {
	for _, key := range []string{"ti", "ar", "al"} {
		if v, ok := t.Tags[key]; ok {
			fmt.Fprintf(w, "[%s] %s\n", key, v)
		}
	}
	for _, l := range t.Lines {
		fmt.Fprintf(w, "%8s  %s\n", lyrics.FormatTimestamp(l.Time), l.Text)
	}
}

// runLyrics prints the sidecar lyrics for audio. With play set, the file is
// played through mpv and each line is printed when playback reaches it.
func runLyrics(ctx context.Context, w io.Writer, cfg *config.Config, audio string, play bool, logger *slog.Logger) error {
	lrcPath, err := lyrics.SidecarPath(audio)
	if err != nil {
		if errors.Is(err, lyrics.ErrNoLyrics) {
			fmt.Fprintln(w, lyricsync.NoLyricsText)
			return nil
		}
		return err
	}
	track, err := lyrics.ReadFile(ctx, lrcPath)
	if err != nil {
		return err
	}
	if !play {
		printLyrics(w, track)
		return nil
	}

	if err := cfg.CheckMPV(); err != nil {
		return err
	}
	ctrl := player.New(player.Options{MPVPath: cfg.Player.MPVPath, IPCPath: cfg.Player.IPC, Logger: logger})
	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("start player: %w", err)
	}
	defer ctrl.Stop()

	res := lyricsync.New(lyricsync.Options{
		Interval: cfg.Lyrics.SyncThreshold,
		Playback: ctrl,
		Logger:   logger,
	})
	res.Subscribe(func(s lyricsync.Snapshot) {
		if s.State == lyricsync.Loaded {
			return
		}
		fmt.Fprintf(w, "%8s  %s\n", lyrics.FormatTimestamp(s.Time), strings.TrimSpace(s.Current))
	})
	res.Load(track)

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	positions, events := player.SplitPositions(streamCtx, ctrl.Events())
	res.Connect(streamCtx, positions)
	defer res.Disconnect()

	if err := ctrl.Play(audio); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Err != nil {
				return ev.Err
			}
			if ev.Ended {
				return nil
			}
		}
	}
}
