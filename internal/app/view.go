package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/amm926616/april/internal/library"
	"github.com/amm926616/april/internal/lyricsync"
	"github.com/amm926616/april/internal/queue"
	"github.com/amm926616/april/internal/search"
)

func (m Model) View() string {
	width, height := m.width, m.height
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 30
	}
	bodyHeight := max(height-5, 5)
	treeWidth := max(width/2-2, 20)
	lyricWidth := max(width-treeWidth-6, 20)

	top := m.theme.Title.Render("April ▸ " + m.header())
	tree := m.theme.Border.Width(treeWidth).Height(bodyHeight).Render(m.renderTree(bodyHeight))
	lyr := m.theme.Border.Width(lyricWidth).Height(bodyHeight).Render(m.renderLyrics(lyricWidth))
	body := lipgloss.JoinHorizontal(lipgloss.Top, tree, lyr)

	status := m.theme.Dim.Render(m.statusLine())
	if m.errorMsg != "" {
		status = m.theme.Error.Render(m.errorMsg)
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, body, status, m.renderPlayerBar())
}

func (m Model) header() string {
	if m.idx == nil {
		return "Library"
	}
	h := fmt.Sprintf("Library (%d tracks)", m.idx.Len())
	if m.scanning {
		h += " scanning…"
	}
	return h
}

func (m Model) statusLine() string {
	switch m.mode {
	case modeFilter:
		return "/" + m.query + "█"
	case modeNote:
		return fmt.Sprintf("Note for line %d: %s█", m.snap.Index+1, m.input)
	}
	if m.query != "" && m.status == "" {
		return "filter: " + m.query
	}
	return m.status
}

func (m Model) renderTree(height int) string {
	if len(m.rows) == 0 {
		if m.query != "" {
			return m.theme.Dim.Render("No matches")
		}
		return m.theme.Dim.Render("No tracks")
	}
	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := min(start+height, len(m.rows))

	var b strings.Builder
	for i := start; i < end; i++ {
		r := m.rows[i]
		line := strings.Repeat("  ", r.depth) + r.label
		if r.kind == search.KindTrack && r.id == m.playing {
			line = strings.Repeat("  ", r.depth) + "♪ " + r.label
		}
		style := m.theme.Text
		switch r.kind {
		case search.KindArtist:
			style = m.theme.Artist
		case search.KindAlbum:
			style = m.theme.Album
		}
		if r.matched {
			style = m.theme.Match
		}
		if i == m.cursor {
			style = m.theme.Cursor
		}
		b.WriteString(style.Render(line))
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m Model) renderLyrics(width int) string {
	var b strings.Builder
	if mf, ok := m.idx.File(m.playing); ok && m.playing >= 0 {
		b.WriteString(m.theme.Title.Render(mf.Title) + "\n")
		b.WriteString(m.theme.Dim.Render(mf.Artist+" · "+mf.Album) + "\n\n")
	} else {
		b.WriteString(m.theme.Dim.Render("Nothing playing") + "\n\n")
	}

	s := m.snap
	center := lyricsync.WindowSize / 2
	for i, text := range s.Window {
		if i == center {
			cur := s.Current
			if cur == "" && s.State == lyricsync.Loaded {
				cur = "♪"
			}
			if _, ok := m.notes[s.Index]; ok && s.Index >= 0 {
				cur += " ✎"
			}
			b.WriteString(m.theme.Lyric.Width(width).Render(cur) + "\n")
			continue
		}
		b.WriteString(m.theme.Context.Width(width).Render(text) + "\n")
	}
	if note, ok := m.notes[s.Index]; ok && s.Index >= 0 {
		b.WriteString("\n" + m.theme.Note.Width(width).Render(note))
	}
	return b.String()
}

func (m Model) renderPlayerBar() string {
	name := "(stopped)"
	if mf, ok := m.idx.File(m.playing); ok && m.playing >= 0 {
		name = fmt.Sprintf("%s - %s", mf.Artist, mf.Title)
	}
	state := "⏵"
	if m.paused {
		state = "⏸"
	}
	progress := ""
	if m.playing >= 0 && m.deps.Player != nil {
		pos := int(m.deps.Player.PositionMs() / 1000)
		progress = " " + library.FormatDuration(pos)
		if m.duration > 0 {
			progress += " / " + library.FormatDuration(int(m.duration))
		}
	}
	flags := ""
	if m.queue.IsShuffled() {
		flags += " shuffle"
	}
	if mode := m.queue.RepeatMode(); mode != queue.RepeatOff {
		flags += " repeat:" + mode.String()
	}
	return fmt.Sprintf("%s %s%s%s", state, name, progress, flags)
}
