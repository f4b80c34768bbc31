package app

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"github.com/amm926616/april/internal/lyricsync"
)

func typeText(tm *teatest.TestModel, s string) {
	for _, r := range s {
		tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func waitOutput(t *testing.T, tm *teatest.TestModel, want string) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte(want))
	}, teatest.WithDuration(3*time.Second), teatest.WithCheckInterval(20*time.Millisecond))
}

// TestFilterPlayAndFollowLyrics drives the whole program: filter the tree,
// confirm, then step through the lyric window.
func TestFilterPlayAndFollowLyrics(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping interactive test in short mode")
	}

	f := newFixture(t)
	tm := teatest.NewTestModel(t, f.model, teatest.WithInitialTermSize(120, 40))

	waitOutput(t, tm, "Dancing Queen")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	typeText(tm, "yesterdy")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	waitOutput(t, tm, "The Beatles · Help!")
	if got := f.pl.last(); got != filepath.Join(f.dir, "yesterday.mp3") {
		t.Fatalf("played %q", got)
	}

	waitOutput(t, tm, lyricsync.IntroText)

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{']'}})
	waitOutput(t, tm, "Now it looks as though they're here to stay")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final := tm.FinalModel(t).(Model)
	if final.snap.Current != "Yesterday" || final.snap.Index != 0 {
		t.Fatalf("final snapshot = %+v", final.snap)
	}
	f.pl.mu.Lock()
	defer f.pl.mu.Unlock()
	if len(f.pl.seeks) != 1 || f.pl.seeks[0] != 1000 {
		t.Fatalf("seeks = %v", f.pl.seeks)
	}
}
